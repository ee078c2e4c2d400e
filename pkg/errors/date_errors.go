package errors

import (
	"fmt"
	"net/http"
	"strings"
)

// DateError is the failure of one date inside a multi-date request.
type DateError struct {
	Date    string `json:"date"`
	Code    string `json:"code"`
	Message string `json:"error"`
}

// DateErrors reports every offending date of a request at once.
type DateErrors struct {
	Errors []DateError `json:"dateErrors"`
}

func NewDateErrors(errs ...DateError) *DateErrors {
	return &DateErrors{Errors: errs}
}

func NewDateError(date, code string) DateError {
	return DateError{Date: date, Code: code, Message: English.Lookup(code)}
}

func (e *DateErrors) Add(date, code string) {
	e.Errors = append(e.Errors, NewDateError(date, code))
}

func (e *DateErrors) Len() int {
	return len(e.Errors)
}

func (e *DateErrors) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, de := range e.Errors {
		parts = append(parts, fmt.Sprintf("%s %s", de.Date, de.Code))
	}
	return fmt.Sprintf("%d date(s) rejected: [%s]", len(e.Errors), strings.Join(parts, "; "))
}

func (e *DateErrors) StatusCode() int {
	return http.StatusBadRequest
}
