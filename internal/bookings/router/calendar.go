package router

import (
	"context"
	"time"

	"campsite/pkg/model"
)

// Clock returns today's date.
type Clock func() model.Date

// FollowCalendar checks every interval whether the day changed and rolls the window
// over when it did. It returns when ctx ends or the router stops.
func (r *Router) FollowCalendar(ctx context.Context, interval time.Duration, today Clock) {
	if today == nil {
		today = model.Today
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.rollIfStale(ctx, today())
		case <-ctx.Done():
			return
		case <-r.done:
			return
		}
	}
}

func (r *Router) rollIfStale(ctx context.Context, today model.Date) {
	if !r.Active() || !today.After(r.Current()) {
		return
	}
	r.log.Info("Calendar day changed, rolling window over",
		"from", r.Current().Key(),
		"to", today.Key(),
	)
	if err := r.Rollover(ctx, today); err != nil {
		r.log.Error("Failed to roll window over", "date", today.Key(), "error", err)
	}
}
