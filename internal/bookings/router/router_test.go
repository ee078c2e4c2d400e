package router

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookingserrors "campsite/internal/bookings/errors"
	"campsite/internal/bookings/repository"
	"campsite/internal/bookings/rules"
	"campsite/internal/bookings/shard"
	"campsite/pkg/logger"
	"campsite/pkg/model"
)

var current = model.NewDate(2026, time.November, 1)

func newRouter(t *testing.T, store repository.Store) *Router {
	t.Helper()
	rt := New(rules.Default(), store, Options{ShardMailboxSize: 8}, logger.Discard())
	t.Cleanup(rt.Close)
	return rt
}

func activeRouter(t *testing.T, store repository.Store) *Router {
	t.Helper()
	rt := newRouter(t, store)
	require.NoError(t, rt.Start(context.Background(), current))
	return rt
}

func receive(t *testing.T, replies <-chan shard.Response) shard.Response {
	t.Helper()
	select {
	case r := <-replies:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("no reply")
		return nil
	}
}

func queryable(t *testing.T, rt *Router) []model.Date {
	t.Helper()
	replies := make(chan shard.Response, 1)
	require.NoError(t, rt.GetQueryableDates(replies))
	r := receive(t, replies)
	q, ok := r.(shard.QueryableDates)
	require.True(t, ok, "expected QueryableDates, got %T", r)
	return q.Dates
}

func TestRouter_StartCreatesWindow(t *testing.T) {
	rt := activeRouter(t, repository.NewMemoryStore())

	dates := queryable(t, rt)
	require.Len(t, dates, 30)
	assert.Equal(t, current.AddDays(2), dates[0])
	assert.Equal(t, current.AddDays(31), dates[29])
	assert.True(t, rt.Active())
	assert.Equal(t, current, rt.Current())
}

func TestRouter_RoutesByDate(t *testing.T) {
	rt := activeRouter(t, repository.NewMemoryStore())

	tests := []struct {
		name string
		date model.Date
		want shard.Response
	}{
		{"today", current, shard.OutOfRange{Date: current, Reason: rules.ReasonAlreadyOccurred}},
		{"yesterday", current.AddDays(-1), shard.OutOfRange{Date: current.AddDays(-1), Reason: rules.ReasonAlreadyOccurred}},
		{"tomorrow", current.AddDays(1), shard.OutOfRange{Date: current.AddDays(1), Reason: rules.ReasonBeforeMinimumLeadTime}},
		{"first reservable", current.AddDays(2), shard.IsAvailable{Date: current.AddDays(2)}},
		{"last reservable", current.AddDays(31), shard.IsAvailable{Date: current.AddDays(31)}},
		{"past window", current.AddDays(32), shard.OutOfRange{Date: current.AddDays(32), Reason: rules.ReasonPastMaximumLeadTime}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			replies := make(chan shard.Response, 1)
			require.NoError(t, rt.Tell(shard.GetAvailability{Date: tt.date, ReplyTo: replies}))
			assert.Equal(t, tt.want, receive(t, replies))
		})
	}
}

func TestRouter_UpdateReportsOutOfRangeThenBroadcasts(t *testing.T) {
	rt := activeRouter(t, repository.NewMemoryStore())
	b := model.Booking{ID: "b1", Email: "a@b.c", FullName: "A", ArrivalDate: current.AddDays(31), DepartureDate: current.AddDays(33)}

	replies := make(chan shard.Response, 31)
	require.NoError(t, rt.Tell(shard.UpdateBooking{Booking: b, ReplyTo: replies}))

	first := receive(t, replies)
	assert.Equal(t, shard.RequestedDatesOutOfRange{Dates: []shard.OutOfRange{
		{Date: current.AddDays(32), Reason: rules.ReasonPastMaximumLeadTime},
		{Date: current.AddDays(33), Reason: rules.ReasonPastMaximumLeadTime},
	}}, first)

	seen := make(map[string]bool)
	for i := 0; i < 30; i++ {
		r := receive(t, replies)
		d, ok := r.(shard.DoesntQualifyForUpdate)
		require.True(t, ok, "expected DoesntQualifyForUpdate, got %T", r)
		seen[d.Date.Key()] = true
	}
	assert.Len(t, seen, 30)
}

func TestRouter_CancelBroadcasts(t *testing.T) {
	rt := activeRouter(t, repository.NewMemoryStore())

	replies := make(chan shard.Response, 30)
	require.NoError(t, rt.Tell(shard.CancelBooking{BookingID: "missing", ReplyTo: replies}))
	for i := 0; i < 30; i++ {
		r := receive(t, replies)
		_, ok := r.(shard.DoesntQualifyForCancellation)
		require.True(t, ok, "expected DoesntQualifyForCancellation, got %T", r)
	}
}

func TestRouter_InactiveAnswersShardStopped(t *testing.T) {
	rt := newRouter(t, repository.NewMemoryStore())
	assert.False(t, rt.Active())
	d := current.AddDays(5)

	replies := make(chan shard.Response, 4)
	require.NoError(t, rt.Tell(shard.GetAvailability{Date: d, ReplyTo: replies}))
	assert.Equal(t, shard.ShardStopped{Date: d}, receive(t, replies))
	assert.Empty(t, queryable(t, rt))

	targets := []model.Date{d, d.AddDays(1), d}
	require.NoError(t, rt.Tell(shard.CancelBooking{BookingID: "b1", Dates: targets, ReplyTo: replies}))
	assert.Equal(t, shard.ShardStopped{Date: d}, receive(t, replies))
	assert.Equal(t, shard.ShardStopped{Date: d.AddDays(1)}, receive(t, replies))
	select {
	case r := <-replies:
		t.Fatalf("unexpected reply %T", r)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestRouter_DeactivatedRouterAnswersBook(t *testing.T) {
	rt := activeRouter(t, repository.NewMemoryStore())
	d := current.AddDays(4)
	require.NoError(t, rt.Deactivate(context.Background()))

	replies := make(chan shard.Response, 1)
	b := model.Booking{ID: "b1", Email: "a@b.c", FullName: "A", ArrivalDate: d, DepartureDate: d}
	require.NoError(t, rt.Tell(shard.Book{Booking: b, Date: d, ReplyTo: replies}))
	assert.Equal(t, shard.ShardStopped{Date: d}, receive(t, replies))
}

func TestRouter_BroadcastTargetWithoutShard(t *testing.T) {
	rt := activeRouter(t, repository.NewMemoryStore())
	inWindow := current.AddDays(3)
	gone := current.AddDays(40)

	replies := make(chan shard.Response, 2)
	require.NoError(t, rt.Tell(shard.CancelBooking{BookingID: "b1", Dates: []model.Date{inWindow, gone}, ReplyTo: replies}))

	got := map[string]shard.Response{}
	for i := 0; i < 2; i++ {
		r := receive(t, replies)
		dated, ok := r.(shard.Dated)
		require.True(t, ok, "expected a dated reply, got %T", r)
		got[dated.ForDate().Key()] = r
	}
	assert.Equal(t, shard.DoesntQualifyForCancellation{Date: inWindow}, got[inWindow.Key()])
	assert.Equal(t, shard.ShardStopped{Date: gone}, got[gone.Key()])
}

func TestRouter_StartWhileActiveIsIgnored(t *testing.T) {
	rt := activeRouter(t, repository.NewMemoryStore())

	require.NoError(t, rt.Start(context.Background(), current.AddDays(10)))
	assert.Equal(t, current, rt.Current())
	assert.Equal(t, current.AddDays(2), queryable(t, rt)[0])
}

func TestRouter_RestartKeepsBookings(t *testing.T) {
	store := repository.NewMemoryStore()
	rt := activeRouter(t, store)
	d := current.AddDays(4)
	b := model.Booking{ID: "b1", Email: "a@b.c", FullName: "A", ArrivalDate: d, DepartureDate: d}

	replies := make(chan shard.Response, 1)
	require.NoError(t, rt.Tell(shard.Book{Booking: b, Date: d, ReplyTo: replies}))
	assert.Equal(t, shard.ProbatoryBookingConfirmation{Booking: b, Date: d}, receive(t, replies))
	require.NoError(t, rt.Tell(shard.Commit{Date: d, ReplyTo: replies}))
	assert.Equal(t, shard.CommitConfirmation{Date: d}, receive(t, replies))

	require.NoError(t, rt.Deactivate(context.Background()))
	assert.False(t, rt.Active())
	require.NoError(t, rt.Start(context.Background(), current))

	require.NoError(t, rt.Tell(shard.GetAvailability{Date: d, ReplyTo: replies}))
	assert.Equal(t, shard.IsBooked{Date: d}, receive(t, replies))
}

func TestRouter_Rollover(t *testing.T) {
	rt := activeRouter(t, repository.NewMemoryStore())
	next := current.AddDays(1)

	require.NoError(t, rt.Rollover(context.Background(), next))
	assert.True(t, rt.Active())
	assert.Equal(t, next, rt.Current())

	dates := queryable(t, rt)
	require.Len(t, dates, 30)
	assert.Equal(t, next.AddDays(2), dates[0])

	replies := make(chan shard.Response, 1)
	require.NoError(t, rt.Tell(shard.GetAvailability{Date: current.AddDays(2), ReplyTo: replies}))
	assert.Equal(t, shard.OutOfRange{Date: current.AddDays(2), Reason: rules.ReasonBeforeMinimumLeadTime}, receive(t, replies))
}

func TestRouter_StartFailsOnCorruptLog(t *testing.T) {
	store := repository.NewMemoryStore()
	store.Raw(current.AddDays(7)).WriteString("{not json\n")
	rt := newRouter(t, store)

	err := rt.Start(context.Background(), current)
	require.Error(t, err)
	assert.ErrorIs(t, err, bookingserrors.ErrCorruptLog)
	assert.False(t, rt.Active())
	assert.Empty(t, queryable(t, rt))
}

func TestRouter_Close(t *testing.T) {
	rt := New(rules.Default(), repository.NewMemoryStore(), Options{}, logger.Discard())
	require.NoError(t, rt.Start(context.Background(), current))

	rt.Close()
	rt.Close()

	select {
	case <-rt.Done():
	default:
		t.Fatal("Done not closed")
	}
	assert.False(t, rt.Active())
	assert.ErrorIs(t, rt.Tell(shard.CancelBooking{BookingID: "x"}), bookingserrors.ErrRouterStopped)
}

func TestRouter_FollowCalendar(t *testing.T) {
	rt := activeRouter(t, repository.NewMemoryStore())

	var mu sync.Mutex
	today := current
	clock := func() model.Date {
		mu.Lock()
		defer mu.Unlock()
		return today
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go rt.FollowCalendar(ctx, 5*time.Millisecond, clock)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, current, rt.Current())

	mu.Lock()
	today = current.AddDays(1)
	mu.Unlock()

	require.Eventually(t, func() bool {
		return rt.Current().Equal(current.AddDays(1))
	}, 2*time.Second, 5*time.Millisecond)

	dates := queryable(t, rt)
	require.Len(t, dates, 30)
	assert.Equal(t, current.AddDays(3), dates[0])
}

func TestRouter_RolloverKeepsPendingBooking(t *testing.T) {
	store := repository.NewMemoryStore()
	rt := activeRouter(t, store)
	d := current.AddDays(10)
	b := model.Booking{ID: "b1", Email: "a@b.c", FullName: "A", ArrivalDate: d, DepartureDate: d}

	replies := make(chan shard.Response, 1)
	require.NoError(t, rt.Tell(shard.Book{Booking: b, Date: d, ReplyTo: replies}))
	assert.Equal(t, shard.ProbatoryBookingConfirmation{Booking: b, Date: d}, receive(t, replies))

	require.NoError(t, rt.Rollover(context.Background(), current.AddDays(1)))

	require.NoError(t, rt.Tell(shard.Commit{Date: d, ReplyTo: replies}))
	assert.Equal(t, shard.CommitConfirmation{Date: d}, receive(t, replies))
	require.NoError(t, rt.Tell(shard.GetAvailability{Date: d, ReplyTo: replies}))
	assert.Equal(t, shard.IsBooked{Date: d}, receive(t, replies))

	log, err := store.Open(context.Background(), d)
	require.NoError(t, err)
	events, err := log.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.ShardEvent{model.NoBooking{}, model.Booked{Booking: b}}, events)
}

func TestRouter_RolloverRetiresDepartingDate(t *testing.T) {
	store := repository.NewMemoryStore()
	rt := activeRouter(t, store)
	next := current.AddDays(1)
	d := current.AddDays(2)
	b := model.Booking{ID: "b1", Email: "a@b.c", FullName: "A", ArrivalDate: d, DepartureDate: d}

	replies := make(chan shard.Response, 1)
	require.NoError(t, rt.Tell(shard.Book{Booking: b, Date: d, ReplyTo: replies}))
	assert.Equal(t, shard.ProbatoryBookingConfirmation{Booking: b, Date: d}, receive(t, replies))

	require.NoError(t, rt.Rollover(context.Background(), next))
	assert.NotContains(t, queryable(t, rt), d)

	// New work is refused, but the transaction already under way can finish.
	require.NoError(t, rt.Tell(shard.GetAvailability{Date: d, ReplyTo: replies}))
	assert.Equal(t, shard.OutOfRange{Date: d, Reason: rules.ReasonBeforeMinimumLeadTime}, receive(t, replies))
	require.NoError(t, rt.Tell(shard.Commit{Date: d, ReplyTo: replies}))
	assert.Equal(t, shard.CommitConfirmation{Date: d}, receive(t, replies))

	// Once settled the shard stops and the date is only ever out of range.
	require.Eventually(t, func() bool {
		if err := rt.Tell(shard.Commit{Date: d, ReplyTo: replies}); err != nil {
			return false
		}
		_, ok := (<-replies).(shard.OutOfRange)
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	log, err := store.Open(context.Background(), d)
	require.NoError(t, err)
	events, err := log.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.ShardEvent{model.NoBooking{}, model.Booked{Booking: b}}, events)
}

func TestRouter_RolloverRevertsOnRetiringShard(t *testing.T) {
	rt := activeRouter(t, repository.NewMemoryStore())
	d := current.AddDays(2)
	b := model.Booking{ID: "b1", Email: "a@b.c", FullName: "A", ArrivalDate: d, DepartureDate: d}

	replies := make(chan shard.Response, 1)
	require.NoError(t, rt.Tell(shard.Book{Booking: b, Date: d, ReplyTo: replies}))
	receive(t, replies)
	require.NoError(t, rt.Rollover(context.Background(), current.AddDays(1)))

	require.NoError(t, rt.Tell(shard.Revert{Date: d, ReplyTo: replies}))
	assert.Equal(t, shard.RevertConfirmation{Date: d}, receive(t, replies))
}
