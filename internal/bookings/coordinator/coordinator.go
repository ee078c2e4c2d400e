// Package coordinator fans multi-date requests out to the date shards and folds their
// replies into one outcome. Mutating requests reserve every date first and then commit
// or revert all of them, so a request either fully applies or leaves no trace.
//
// A coordinator call is single use and blocks until the outcome is known. It does not
// time out on its own: callers that need a deadline run it in a goroutine.
package coordinator

import (
	"errors"
	"fmt"
	"strings"

	bookingserrors "campsite/internal/bookings/errors"
	"campsite/internal/bookings/shard"
	apperrors "campsite/pkg/errors"
	"campsite/pkg/logger"
	"campsite/pkg/model"
)

const engine = "booking engine"

// Router is the subset of the date router the coordinators talk to.
type Router interface {
	Tell(cmd shard.Command) error
	GetQueryableDates(replyTo chan<- shard.Response) error
	Done() <-chan struct{}
}

type Coordinator struct {
	router Router
	log    *logger.Logger
}

func New(router Router, log *logger.Logger) *Coordinator {
	return &Coordinator{
		router: router,
		log:    log.Component("coordinator"),
	}
}

func (c *Coordinator) receive(replies <-chan shard.Response) (shard.Response, error) {
	select {
	case r := <-replies:
		return r, nil
	case <-c.router.Done():
		return nil, bookingserrors.ErrRouterStopped
	}
}

func (c *Coordinator) tell(cmd shard.Command) error {
	if err := c.router.Tell(cmd); err != nil {
		return fmt.Errorf("failed to route %T: %w", cmd, err)
	}
	return nil
}

func (c *Coordinator) queryableDates() ([]model.Date, error) {
	replies := make(chan shard.Response, 1)
	if err := c.router.GetQueryableDates(replies); err != nil {
		return nil, err
	}
	r, err := c.receive(replies)
	if err != nil {
		return nil, err
	}
	q, ok := r.(shard.QueryableDates)
	if !ok {
		return nil, fmt.Errorf("%w: expected QueryableDates, got %T", bookingserrors.ErrInvariantViolation, r)
	}
	return q.Dates, nil
}

// commit fails with ErrPartialCommit when a date could not commit, for instance because
// its shard stopped and lost the reservation. Dates that did commit stay committed.
func (c *Coordinator) commit(dates []model.Date) error {
	failed, err := c.settle(dates, func(d model.Date, to chan<- shard.Response) shard.Command {
		return shard.Commit{Date: d, ReplyTo: to}
	})
	if err != nil {
		return err
	}
	if len(failed) > 0 {
		return fmt.Errorf("%w: %s", bookingserrors.ErrPartialCommit, dateKeys(failed))
	}
	return nil
}

// revert succeeds on any terminal reply: a date that lost its reservation has nothing to undo.
func (c *Coordinator) revert(dates []model.Date) error {
	_, err := c.settle(dates, func(d model.Date, to chan<- shard.Response) shard.Command {
		return shard.Revert{Date: d, ReplyTo: to}
	})
	return err
}

// resolve commits the touched dates when verdict is nil and reverts them otherwise.
// The verdict is returned once every touched date has answered. When a commit only
// partly applied, undo runs before the failure is returned.
func (c *Coordinator) resolve(agg *aggregate, verdict error, undo func()) error {
	if verdict == nil {
		if err := c.commit(agg.touched); err != nil {
			c.log.Error("Commit failed", "dates", len(agg.touched), "error", err)
			if undo != nil && errors.Is(err, bookingserrors.ErrPartialCommit) {
				undo()
			}
			return failure(err)
		}
		return nil
	}
	if err := c.revert(agg.touched); err != nil {
		return failure(err)
	}
	return verdict
}

// settle sends one resolution command per date and waits until every date answered.
// It returns the dates that answered with anything but a confirmation.
func (c *Coordinator) settle(dates []model.Date, build func(model.Date, chan<- shard.Response) shard.Command) ([]model.Date, error) {
	if len(dates) == 0 {
		return nil, nil
	}

	replies := make(chan shard.Response, len(dates))
	collector := NewResponseCollector(dates)
	for _, d := range dates {
		if err := c.tell(build(d, replies)); err != nil {
			return nil, err
		}
	}

	var failed []model.Date
	for !collector.Done() {
		r, err := c.receive(replies)
		if err != nil {
			return nil, err
		}
		dated, ok := r.(shard.Dated)
		if !ok {
			c.log.Warn("Ignoring reply while settling", "response", fmt.Sprintf("%T", r))
			continue
		}
		first, err := collector.Collect(dated.ForDate())
		if err != nil {
			c.log.Error("Unexpected settlement reply", "date", dated.ForDate().Key(), "error", err)
			continue
		}
		if !first {
			continue
		}
		switch r.(type) {
		case shard.CommitConfirmation, shard.RevertConfirmation, shard.DateAvailableConfirmation:
		default:
			c.log.Warn("Date did not settle", "date", dated.ForDate().Key(), "response", fmt.Sprintf("%T", r))
			failed = append(failed, dated.ForDate())
		}
	}
	return failed, nil
}

func dateKeys(dates []model.Date) string {
	keys := make([]string, 0, len(dates))
	for _, d := range sortedDates(dates) {
		keys = append(keys, d.Key())
	}
	return strings.Join(keys, ", ")
}

// failure turns an engine error into the caller-facing one.
func failure(err error) error {
	switch {
	case errors.Is(err, bookingserrors.ErrRouterStopped), errors.Is(err, bookingserrors.ErrShardStopped):
		return apperrors.Unavailable(engine)
	default:
		return apperrors.Internal(apperrors.English.Lookup(apperrors.CodeInternal), err)
	}
}
