package errors

import (
	"errors"
	"net/http"
)

// Response picks the status code and body for any error returned by a use case.
// Per-date failures keep their list shape, everything else is rendered as an AppError.
func Response(err error) (int, any) {
	var dateErrs *DateErrors
	if errors.As(err, &dateErrs) {
		return dateErrs.StatusCode(), dateErrs
	}

	appErr := AsAppError(err)
	status := appErr.StatusCode()
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return status, appErr
}
