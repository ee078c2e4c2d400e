package coordinator

import (
	"fmt"

	bookingserrors "campsite/internal/bookings/errors"
	"campsite/internal/bookings/shard"
	apperrors "campsite/pkg/errors"
	"campsite/pkg/model"
)

// Updated is the outcome of a successful update.
type Updated struct {
	Booking  model.Booking
	Previous model.Booking
}

// Update moves booking b.ID to b's dates. Every active shard is asked, since the dates
// the booking currently holds are not known here. Dates the booking leaves are freed and
// dates it gains are reserved in the same all-or-nothing step.
func (c *Coordinator) Update(b model.Booking) (Updated, error) {
	log := c.log.With("operation", "update", "booking_id", b.ID)

	queryable, err := c.queryableDates()
	if err != nil {
		return Updated{}, failure(err)
	}

	// One reply per target date plus the router's RequestedDatesOutOfRange.
	targets := uniqueDates(append(append([]model.Date(nil), queryable...), b.Dates()...))
	replies := make(chan shard.Response, len(targets)+1)
	collector := NewResponseCollector(targets)
	if err := c.tell(shard.UpdateBooking{Booking: b, Dates: targets, ReplyTo: replies}); err != nil {
		return Updated{}, failure(err)
	}

	agg := &aggregate{}
	var previous *model.Booking
	for !collector.Done() {
		r, err := c.receive(replies)
		if err != nil {
			return Updated{}, failure(err)
		}

		if ranged, ok := r.(shard.RequestedDatesOutOfRange); ok {
			for _, o := range ranged.Dates {
				if _, err := collector.Collect(o.Date); err != nil {
					agg.violate(err)
					continue
				}
				agg.outOfRange = append(agg.outOfRange, o)
			}
			continue
		}

		dated, ok := r.(shard.Dated)
		if !ok {
			agg.violate(fmt.Errorf("%w: unexpected %T while updating", bookingserrors.ErrInvariantViolation, r))
			continue
		}
		first, err := collector.Collect(dated.ForDate())
		if err != nil {
			agg.violate(err)
			if _, ok := r.(shard.ProbatoryUpdateConfirmation); ok {
				agg.touched = append(agg.touched, dated.ForDate())
			}
			continue
		}
		if !first {
			log.Warn("Duplicate reply", "date", dated.ForDate().Key(), "response", fmt.Sprintf("%T", r))
			continue
		}

		switch v := r.(type) {
		case shard.ProbatoryUpdateConfirmation:
			agg.touched = append(agg.touched, v.Date)
			if !v.OverridesPrevious {
				continue
			}
			if err := overrides(previous, v); err != nil {
				agg.violate(err)
				continue
			}
			previous = v.Previous
		case shard.IsBooked:
			agg.booked = append(agg.booked, v.Date)
		case shard.DoesntQualifyForUpdate:
		case shard.ShardStopped:
			agg.stopped = append(agg.stopped, v.Date)
		default:
			agg.violate(fmt.Errorf("%w: unexpected %T while updating", bookingserrors.ErrInvariantViolation, r))
		}
	}

	verdict := agg.verdict()
	switch {
	case agg.violation != nil:
		log.Error("Update aborted", "error", agg.violation)
	case len(agg.stopped) > 0:
		// The booking may live on a date that never answered.
	case previous == nil:
		verdict = apperrors.BookingNotFound(b.ID)
	}
	// A partly committed update cannot be rolled back: the previous booking is gone from
	// the dates that did commit. The failure is logged by resolve.
	if err := c.resolve(agg, verdict, nil); err != nil {
		return Updated{}, err
	}
	log.Debug("Update committed", "dates", len(agg.touched))
	return Updated{Booking: b, Previous: *previous}, nil
}

// overrides checks that an override confirmation agrees with the ones seen before it:
// same previous booking, and a date that booking actually covered.
func overrides(seen *model.Booking, v shard.ProbatoryUpdateConfirmation) error {
	if v.Previous == nil {
		return fmt.Errorf("%w: override on %s without previous booking", bookingserrors.ErrInvariantViolation, v.Date.Key())
	}
	if !v.Previous.Covers(v.Date) {
		return fmt.Errorf("%w: %s overrides a booking that does not cover it", bookingserrors.ErrInvariantViolation, v.Date.Key())
	}
	if seen != nil && !seen.Equal(*v.Previous) {
		return fmt.Errorf("%w: dates disagree on the booking being updated", bookingserrors.ErrInvariantViolation)
	}
	return nil
}
