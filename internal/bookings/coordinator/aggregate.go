package coordinator

import (
	"sort"

	"campsite/internal/bookings/shard"
	apperrors "campsite/pkg/errors"
	"campsite/pkg/model"
)

// aggregate accumulates the verdict of a mutating request while replies come in.
type aggregate struct {
	touched    []model.Date
	booked     []model.Date
	outOfRange []shard.OutOfRange
	stopped    []model.Date
	violation  error
}

func (a *aggregate) failed() bool {
	return len(a.booked) > 0 || len(a.outOfRange) > 0
}

func (a *aggregate) violate(err error) {
	if a.violation == nil {
		a.violation = err
	}
}

// verdict is nil when the request may be committed.
func (a *aggregate) verdict() error {
	switch {
	case a.violation != nil:
		return failure(a.violation)
	case len(a.stopped) > 0:
		return apperrors.Unavailable(engine)
	case a.failed():
		return a.dateErrors()
	default:
		return nil
	}
}

// dateErrors lists out-of-range dates first, then already-booked ones, each in date order.
func (a *aggregate) dateErrors() *apperrors.DateErrors {
	outOfRange := append([]shard.OutOfRange(nil), a.outOfRange...)
	sort.Slice(outOfRange, func(i, j int) bool { return outOfRange[i].Date.Before(outOfRange[j].Date) })
	booked := sortedDates(a.booked)

	errs := apperrors.NewDateErrors()
	for _, o := range outOfRange {
		errs.Add(o.Date.String(), string(o.Reason))
	}
	for _, d := range booked {
		errs.Add(d.String(), apperrors.CodeAlreadyBooked)
	}
	return errs
}

func sortedDates(dates []model.Date) []model.Date {
	out := append([]model.Date(nil), dates...)
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func uniqueDates(dates []model.Date) []model.Date {
	seen := make(map[string]struct{}, len(dates))
	out := make([]model.Date, 0, len(dates))
	for _, d := range dates {
		if _, ok := seen[d.Key()]; ok {
			continue
		}
		seen[d.Key()] = struct{}{}
		out = append(out, d)
	}
	return out
}
