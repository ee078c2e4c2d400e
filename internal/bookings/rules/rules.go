// Package rules decides which calendar days can be reserved and which date ranges are well formed.
// Every function is pure; callers pass the current date explicitly.
package rules

import (
	"fmt"

	apperrors "campsite/pkg/errors"
	"campsite/pkg/model"
)

// Reason is the machine readable cause of a rejected date or range.
type Reason string

const (
	ReasonNone                   Reason = ""
	ReasonAlreadyOccurred        Reason = apperrors.CodeAlreadyOccurred
	ReasonBeforeMinimumLeadTime  Reason = apperrors.CodeMinimumAheadOfArrival
	ReasonPastMaximumLeadTime    Reason = apperrors.CodeMaximumAheadOfArrival
	ReasonStayTooLong            Reason = apperrors.CodeMaximumReservableDays
	ReasonDepartureBeforeArrival Reason = apperrors.CodeDepartureBeforeArrival
	ReasonEndBeforeStart         Reason = apperrors.CodeEndDateBeforeStartDate
)

const (
	DefaultMinDaysAhead = 1
	DefaultMaxDaysAhead = 30
	DefaultMaxStayDays  = 3
)

// Verdict is Valid or carries the reason of the rejection.
type Verdict struct {
	Reason Reason
}

var Valid = Verdict{}

func Invalid(reason Reason) Verdict {
	return Verdict{Reason: reason}
}

func (v Verdict) OK() bool {
	return v.Reason == ReasonNone
}

func (v Verdict) Code() string {
	return string(v.Reason)
}

type Rules struct {
	minDaysAhead int
	maxDaysAhead int
	maxStayDays  int
}

func New(minDaysAhead, maxDaysAhead, maxStayDays int) (*Rules, error) {
	if minDaysAhead < 0 {
		return nil, fmt.Errorf("minimum days ahead cannot be negative, got %d", minDaysAhead)
	}
	if maxDaysAhead <= minDaysAhead {
		return nil, fmt.Errorf("maximum days ahead (%d) must be greater than minimum days ahead (%d)", maxDaysAhead, minDaysAhead)
	}
	if maxStayDays < 1 {
		return nil, fmt.Errorf("maximum stay must be at least 1 day, got %d", maxStayDays)
	}
	return &Rules{
		minDaysAhead: minDaysAhead,
		maxDaysAhead: maxDaysAhead,
		maxStayDays:  maxStayDays,
	}, nil
}

func Default() *Rules {
	return &Rules{
		minDaysAhead: DefaultMinDaysAhead,
		maxDaysAhead: DefaultMaxDaysAhead,
		maxStayDays:  DefaultMaxStayDays,
	}
}

func (r *Rules) MaxStayDays() int { return r.maxStayDays }

// WindowStart is the first reservable day: arrival must be at least minDaysAhead after tomorrow.
func (r *Rules) WindowStart(current model.Date) model.Date {
	return current.AddDays(1 + r.minDaysAhead)
}

// WindowEnd is the last reservable day, inclusive.
func (r *Rules) WindowEnd(current model.Date) model.Date {
	return current.AddDays(1 + r.maxDaysAhead)
}

// ReservableDates lists the window in chronological order.
func (r *Rules) ReservableDates(current model.Date) []model.Date {
	return model.DatesBetween(r.WindowStart(current), r.WindowEnd(current))
}

func (r *Rules) IsDateInWindow(date, current model.Date) Verdict {
	switch {
	case !date.After(current):
		return Invalid(ReasonAlreadyOccurred)
	case date.Before(r.WindowStart(current)):
		return Invalid(ReasonBeforeMinimumLeadTime)
	case date.After(r.WindowEnd(current)):
		return Invalid(ReasonPastMaximumLeadTime)
	default:
		return Valid
	}
}

// IsRangeWellFormed checks a booking range: departure not before arrival, stay not too long.
func (r *Rules) IsRangeWellFormed(arrival, departure model.Date) Verdict {
	if departure.Before(arrival) {
		return Invalid(ReasonDepartureBeforeArrival)
	}
	if arrival.DaysUntil(departure)+1 > r.maxStayDays {
		return Invalid(ReasonStayTooLong)
	}
	return Valid
}

// IsQueryRangeWellFormed checks an availability range, which has no length limit.
func (r *Rules) IsQueryRangeWellFormed(start, end model.Date) Verdict {
	if end.Before(start) {
		return Invalid(ReasonEndBeforeStart)
	}
	return Valid
}
