package coordinator

import (
	"fmt"

	bookingserrors "campsite/internal/bookings/errors"
	"campsite/pkg/model"
)

// ResponseCollector tracks which of the expected dates have answered.
// Replies may arrive in any order; they are keyed by date.
type ResponseCollector struct {
	expected map[string]struct{}
	received map[string]struct{}
}

func NewResponseCollector(dates ...[]model.Date) *ResponseCollector {
	c := &ResponseCollector{
		expected: make(map[string]struct{}),
		received: make(map[string]struct{}),
	}
	for _, set := range dates {
		for _, d := range set {
			c.expected[d.Key()] = struct{}{}
		}
	}
	return c
}

func (c *ResponseCollector) Expects(d model.Date) bool {
	_, ok := c.expected[d.Key()]
	return ok
}

// Collect records the reply of d. It reports false for a second reply of the same date
// and fails for a date that was never asked.
func (c *ResponseCollector) Collect(d model.Date) (bool, error) {
	key := d.Key()
	if _, ok := c.expected[key]; !ok {
		return false, fmt.Errorf("%w: reply for unexpected date %s", bookingserrors.ErrInvariantViolation, key)
	}
	if _, ok := c.received[key]; ok {
		return false, nil
	}
	c.received[key] = struct{}{}
	return true, nil
}

func (c *ResponseCollector) Expected() int {
	return len(c.expected)
}

func (c *ResponseCollector) Remaining() int {
	return len(c.expected) - len(c.received)
}

// Done reports whether every expected date has answered.
func (c *ResponseCollector) Done() bool {
	return len(c.received) == len(c.expected)
}
