package http

import (
	"net/http"

	apperrors "campsite/pkg/errors"
	"campsite/pkg/model"
)

const (
	QueryStartDate = "startDate"
	QueryEndDate   = "endDate"
)

// ExtractDateRange reads the optional startDate/endDate query pair. Both or neither must be present.
func ExtractDateRange(r *http.Request) (model.DateRange, error) {
	query := r.URL.Query()
	startStr := query.Get(QueryStartDate)
	endStr := query.Get(QueryEndDate)

	if startStr == "" && endStr == "" {
		return model.DateRange{}, nil
	}
	if startStr == "" || endStr == "" {
		return model.DateRange{}, apperrors.InvalidInput("startDate and endDate must be provided together")
	}

	start, err := model.ParseDate(startStr)
	if err != nil {
		return model.DateRange{}, apperrors.InvalidInput("invalid startDate parameter: " + startStr)
	}
	end, err := model.ParseDate(endStr)
	if err != nil {
		return model.DateRange{}, apperrors.InvalidInput("invalid endDate parameter: " + endStr)
	}
	return model.DateRange{Start: &start, End: &end}, nil
}

// ExtractDateKey parses a dd/MM/yyyy or yyyy-mm-dd path value.
func ExtractDateKey(value string) (model.Date, error) {
	if d, err := model.ParseDate(value); err == nil {
		return d, nil
	}
	d, err := model.ParseKey(value)
	if err != nil {
		return model.Date{}, apperrors.InvalidInput("invalid date: " + value)
	}
	return d, nil
}
