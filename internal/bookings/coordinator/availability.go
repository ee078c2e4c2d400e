package coordinator

import (
	"fmt"

	"campsite/internal/bookings/shard"
	apperrors "campsite/pkg/errors"
	"campsite/pkg/model"
)

// Availability returns, in date order, the dates among dates that are free. A nil dates
// queries every active date. Booked and out-of-window dates are left out.
func (c *Coordinator) Availability(dates []model.Date) ([]model.Date, error) {
	if dates == nil {
		queryable, err := c.queryableDates()
		if err != nil {
			return nil, failure(err)
		}
		dates = queryable
	}
	dates = uniqueDates(dates)

	collector := NewResponseCollector(dates)
	replies := make(chan shard.Response, len(dates))
	for _, d := range dates {
		if err := c.tell(shard.GetAvailability{Date: d, ReplyTo: replies}); err != nil {
			return nil, failure(err)
		}
	}

	available := make([]model.Date, 0, len(dates))
	for !collector.Done() {
		r, err := c.receive(replies)
		if err != nil {
			return nil, failure(err)
		}

		dated, ok := r.(shard.Dated)
		if !ok {
			c.log.Error("Unexpected reply while reading availability", "response", fmt.Sprintf("%T", r))
			continue
		}
		first, err := collector.Collect(dated.ForDate())
		if err != nil {
			return nil, failure(err)
		}
		if !first {
			continue
		}
		switch v := r.(type) {
		case shard.IsAvailable:
			available = append(available, v.Date)
		case shard.ShardStopped:
			return nil, apperrors.Unavailable(engine)
		}
	}
	return sortedDates(available), nil
}
