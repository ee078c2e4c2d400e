package coordinator

import (
	"fmt"

	bookingserrors "campsite/internal/bookings/errors"
	"campsite/internal/bookings/shard"
	apperrors "campsite/pkg/errors"
	"campsite/pkg/model"
)

// Delete cancels booking id on every shard holding it and returns the cancelled booking.
// Cancellation is not staged, so there is nothing to commit or revert.
func (c *Coordinator) Delete(id string) (model.Booking, error) {
	log := c.log.With("operation", "delete", "booking_id", id)

	queryable, err := c.queryableDates()
	if err != nil {
		return model.Booking{}, failure(err)
	}

	replies := make(chan shard.Response, len(queryable))
	collector := NewResponseCollector(queryable)
	if err := c.tell(shard.CancelBooking{BookingID: id, Dates: queryable, ReplyTo: replies}); err != nil {
		return model.Booking{}, failure(err)
	}

	var cancelled []model.Booking
	stopped := 0
	for !collector.Done() {
		r, err := c.receive(replies)
		if err != nil {
			return model.Booking{}, failure(err)
		}

		dated, ok := r.(shard.Dated)
		if !ok {
			log.Error("Unexpected reply while cancelling", "response", fmt.Sprintf("%T", r))
			continue
		}
		if _, err := collector.Collect(dated.ForDate()); err != nil {
			log.Error("Unexpected reply while cancelling", "date", dated.ForDate().Key(), "error", err)
			continue
		}

		switch v := r.(type) {
		case shard.CancellationConfirmation:
			cancelled = append(cancelled, v.Booking)
		case shard.DoesntQualifyForCancellation:
		case shard.ShardStopped:
			stopped++
		default:
			log.Error("Unexpected reply while cancelling", "response", fmt.Sprintf("%T", r))
		}
	}

	if len(cancelled) == 0 && stopped > 0 {
		// The booking may live on a date that could not answer.
		return model.Booking{}, apperrors.Unavailable(engine)
	}
	if len(cancelled) == 0 {
		return model.Booking{}, apperrors.BookingNotFound(id)
	}
	for _, b := range cancelled[1:] {
		if !b.Equal(cancelled[0]) {
			// The dates are already free; report the inconsistency without undoing it.
			log.Error("Cancelled dates held different bookings", "error", bookingserrors.ErrInvariantViolation)
			break
		}
	}
	log.Debug("Booking cancelled", "dates", len(cancelled))
	return cancelled[0], nil
}
