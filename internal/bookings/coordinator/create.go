package coordinator

import (
	"fmt"

	bookingserrors "campsite/internal/bookings/errors"
	"campsite/internal/bookings/shard"
	apperrors "campsite/pkg/errors"
	"campsite/pkg/logger"
	"campsite/pkg/model"
)

// Create reserves every date of b. On success the booking is durable on all of them;
// otherwise each reserved date is reverted and the per-date failures are returned.
func (c *Coordinator) Create(b model.Booking) (model.Booking, error) {
	log := c.log.With("operation", "create", "booking_id", b.ID)
	dates := b.Dates()

	replies := make(chan shard.Response, len(dates))
	collector := NewResponseCollector(dates)
	for _, d := range dates {
		if err := c.tell(shard.Book{Booking: b, Date: d, ReplyTo: replies}); err != nil {
			return model.Booking{}, failure(err)
		}
	}

	agg := &aggregate{}
	for !collector.Done() {
		r, err := c.receive(replies)
		if err != nil {
			return model.Booking{}, failure(err)
		}

		dated, ok := r.(shard.Dated)
		if !ok {
			agg.violate(fmt.Errorf("%w: unexpected %T while booking", bookingserrors.ErrInvariantViolation, r))
			continue
		}
		first, err := collector.Collect(dated.ForDate())
		if err != nil {
			agg.violate(err)
			// A stray confirmation still holds the date; release it with the rest.
			if _, ok := r.(shard.ProbatoryBookingConfirmation); ok {
				agg.touched = append(agg.touched, dated.ForDate())
			}
			continue
		}
		if !first {
			log.Warn("Duplicate reply", "date", dated.ForDate().Key(), "response", fmt.Sprintf("%T", r))
			continue
		}

		switch v := r.(type) {
		case shard.ProbatoryBookingConfirmation:
			agg.touched = append(agg.touched, v.Date)
		case shard.IsBooked:
			agg.booked = append(agg.booked, v.Date)
		case shard.OutOfRange:
			agg.outOfRange = append(agg.outOfRange, v)
		case shard.ShardStopped:
			agg.stopped = append(agg.stopped, v.Date)
		default:
			agg.violate(fmt.Errorf("%w: unexpected %T while booking", bookingserrors.ErrInvariantViolation, r))
		}
	}

	verdict := agg.verdict()
	if agg.violation != nil {
		log.Error("Booking aborted", "error", agg.violation)
	}
	undo := func() { c.compensate(log, b.ID) }
	if err := c.resolve(agg, verdict, undo); err != nil {
		return model.Booking{}, err
	}
	log.Debug("Booking committed", "dates", len(agg.touched))
	return b, nil
}

// compensate cancels the dates of a booking whose commit only partly applied.
func (c *Coordinator) compensate(log *logger.Logger, id string) {
	_, err := c.Delete(id)
	switch {
	case err == nil:
		log.Warn("Cancelled partially committed booking")
	case apperrors.AsAppError(err).Code == apperrors.CodeBookingIDNotFound:
		log.Debug("No committed date to cancel")
	default:
		log.Error("Failed to cancel partially committed booking", "error", err)
	}
}
