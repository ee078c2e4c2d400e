package coordinator

import (
	"fmt"

	bookingserrors "campsite/internal/bookings/errors"
	"campsite/internal/bookings/shard"
	apperrors "campsite/pkg/errors"
	"campsite/pkg/model"
)

// History returns the event log of one active date, oldest first.
func (c *Coordinator) History(date model.Date) (model.History, error) {
	replies := make(chan shard.Response, 1)
	if err := c.tell(shard.RequestHistory{Date: date, ReplyTo: replies}); err != nil {
		return model.History{}, failure(err)
	}

	r, err := c.receive(replies)
	if err != nil {
		return model.History{}, failure(err)
	}
	switch v := r.(type) {
	case shard.History:
		return model.NewHistory(v.Date, v.Events), nil
	case shard.OutOfRange:
		return model.History{}, apperrors.NewDateErrors(apperrors.NewDateError(v.Date.String(), string(v.Reason)))
	case shard.ShardStopped:
		return model.History{}, apperrors.Unavailable(engine)
	default:
		return model.History{}, failure(fmt.Errorf("%w: expected History, got %T", bookingserrors.ErrInvariantViolation, r))
	}
}
