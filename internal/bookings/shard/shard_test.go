package shard

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookingserrors "campsite/internal/bookings/errors"
	"campsite/internal/bookings/repository"
	"campsite/pkg/logger"
	"campsite/pkg/model"
)

func startShard(t *testing.T, store repository.Store) *Shard {
	t.Helper()
	s, err := Start(context.Background(), date, store, 8, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(s.Stop)
	return s
}

func ask(t *testing.T, s *Shard, build func(chan<- Response) Command) Response {
	t.Helper()
	replies := make(chan Response, 1)
	require.NoError(t, s.Send(build(replies)))
	select {
	case r := <-replies:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("no reply from shard")
		return nil
	}
}

func history(t *testing.T, s *Shard) []model.ShardEvent {
	t.Helper()
	r := ask(t, s, func(to chan<- Response) Command { return RequestHistory{Date: date, ReplyTo: to} })
	h, ok := r.(History)
	require.True(t, ok, "expected History, got %T", r)
	return h.Events
}

func TestShard_SeedsEmptyLog(t *testing.T) {
	store := repository.NewMemoryStore()
	s := startShard(t, store)

	assert.Equal(t, []model.ShardEvent{model.NoBooking{}}, history(t, s))
	assert.Equal(t, IsAvailable{Date: date}, ask(t, s, func(to chan<- Response) Command {
		return GetAvailability{Date: date, ReplyTo: to}
	}))
}

func TestShard_BookCommitAndRestart(t *testing.T) {
	store := repository.NewMemoryStore()
	s := startShard(t, store)
	b := bookingFor("a", date, date)

	r := ask(t, s, func(to chan<- Response) Command { return Book{Booking: b, Date: date, ReplyTo: to} })
	assert.Equal(t, ProbatoryBookingConfirmation{Booking: b, Date: date}, r)

	// The reservation is visible to readers before it is committed.
	assert.Equal(t, IsBooked{Date: date}, ask(t, s, func(to chan<- Response) Command {
		return GetAvailability{Date: date, ReplyTo: to}
	}))
	assert.Equal(t, []model.ShardEvent{model.NoBooking{}, model.Booked{Booking: b}}, history(t, s), "history shows the pending record")

	assert.Equal(t, CommitConfirmation{Date: date}, ask(t, s, func(to chan<- Response) Command {
		return Commit{Date: date, ReplyTo: to}
	}))
	s.Stop()

	restarted := startShard(t, store)
	assert.Equal(t, IsBooked{Date: date}, ask(t, restarted, func(to chan<- Response) Command {
		return GetAvailability{Date: date, ReplyTo: to}
	}), "replica is rebuilt from the log")
	assert.Equal(t, IsBooked{Date: date}, ask(t, restarted, func(to chan<- Response) Command {
		return Book{Booking: bookingFor("b", date, date), Date: date, ReplyTo: to}
	}))
	assert.Equal(t, []model.ShardEvent{model.NoBooking{}, model.Booked{Booking: b}}, history(t, restarted))
}

func TestShard_RevertFreesDate(t *testing.T) {
	s := startShard(t, repository.NewMemoryStore())
	b := bookingFor("a", date, date)

	ask(t, s, func(to chan<- Response) Command { return Book{Booking: b, Date: date, ReplyTo: to} })
	assert.Equal(t, RevertConfirmation{Date: date}, ask(t, s, func(to chan<- Response) Command {
		return Revert{Date: date, ReplyTo: to}
	}))
	assert.Equal(t, IsAvailable{Date: date}, ask(t, s, func(to chan<- Response) Command {
		return GetAvailability{Date: date, ReplyTo: to}
	}))
	assert.Equal(t, []model.ShardEvent{model.NoBooking{}}, history(t, s), "a reverted reservation never reaches the log")
}

func TestShard_CancelAfterRestart(t *testing.T) {
	store := repository.NewMemoryStore()
	b := bookingFor("a", date, date.AddDays(1))
	log, err := store.Open(context.Background(), date)
	require.NoError(t, err)
	require.NoError(t, log.Append(context.Background(), model.NoBooking{}))
	require.NoError(t, log.Append(context.Background(), model.Booked{Booking: b}))

	s := startShard(t, store)
	assert.Equal(t, DoesntQualifyForCancellation{Date: date}, ask(t, s, func(to chan<- Response) Command {
		return CancelBooking{BookingID: "other", ReplyTo: to}
	}))
	assert.Equal(t, CancellationConfirmation{Booking: b, Date: date}, ask(t, s, func(to chan<- Response) Command {
		return CancelBooking{BookingID: "a", ReplyTo: to}
	}))
	assert.Equal(t, IsAvailable{Date: date}, ask(t, s, func(to chan<- Response) Command {
		return GetAvailability{Date: date, ReplyTo: to}
	}))
	assert.Equal(t, []model.ShardEvent{model.NoBooking{}, model.Booked{Booking: b}, model.NoBooking{}}, history(t, s))
}

func TestShard_AdmitsOneOfManyContenders(t *testing.T) {
	s := startShard(t, repository.NewMemoryStore())

	const contenders = 20
	replies := make(chan Response, contenders)
	var wg sync.WaitGroup
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b := bookingFor(string(rune('a'+i)), date, date)
			assert.NoError(t, s.Send(Book{Booking: b, Date: date, ReplyTo: replies}))
		}(i)
	}
	wg.Wait()

	confirmed, rejected := 0, 0
	for i := 0; i < contenders; i++ {
		select {
		case r := <-replies:
			switch r.(type) {
			case ProbatoryBookingConfirmation:
				confirmed++
			case IsBooked:
				rejected++
			default:
				t.Fatalf("unexpected reply %T", r)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("missing replies")
		}
	}
	assert.Equal(t, 1, confirmed)
	assert.Equal(t, contenders-1, rejected)
}

func TestShard_CorruptLogFailsStartup(t *testing.T) {
	store := repository.NewMemoryStore()
	store.Raw(date).WriteString("not a record\n")

	_, err := Start(context.Background(), date, store, 8, logger.Discard())
	assert.ErrorIs(t, err, bookingserrors.ErrCorruptLog)
}

func TestShard_SendAfterStop(t *testing.T) {
	s := startShard(t, repository.NewMemoryStore())
	s.Stop()

	err := s.Send(GetAvailability{Date: date, ReplyTo: make(chan Response, 1)})
	assert.ErrorIs(t, err, bookingserrors.ErrShardStopped)
}

func TestShard_FileBackend(t *testing.T) {
	store, err := repository.NewFileStore(t.TempDir())
	require.NoError(t, err)
	b := bookingFor("a", date, date)

	s := startShard(t, store)
	ask(t, s, func(to chan<- Response) Command { return Book{Booking: b, Date: date, ReplyTo: to} })
	ask(t, s, func(to chan<- Response) Command { return Commit{Date: date, ReplyTo: to} })
	s.Stop()

	restarted := startShard(t, store)
	assert.Equal(t, IsBooked{Date: date}, ask(t, restarted, func(to chan<- Response) Command {
		return GetAvailability{Date: date, ReplyTo: to}
	}))
}

func TestShard_CommitWithoutPendingTransition(t *testing.T) {
	s := startShard(t, repository.NewMemoryStore())

	assert.Equal(t, NoPendingTransition{Date: date}, ask(t, s, func(to chan<- Response) Command {
		return Commit{Date: date, ReplyTo: to}
	}))
	assert.Equal(t, []model.ShardEvent{model.NoBooking{}}, history(t, s))
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestShard_RetireWaitsForPendingCommit(t *testing.T) {
	store := repository.NewMemoryStore()
	s := startShard(t, store)
	b := bookingFor("a", date, date)

	ask(t, s, func(to chan<- Response) Command { return Book{Booking: b, Date: date, ReplyTo: to} })
	settled := s.Retire()
	assert.Never(t, func() bool { return isClosed(settled) }, 50*time.Millisecond, 5*time.Millisecond)

	assert.Equal(t, CommitConfirmation{Date: date}, ask(t, s, func(to chan<- Response) Command {
		return Commit{Date: date, ReplyTo: to}
	}))
	require.Eventually(t, func() bool { return isClosed(settled) }, 2*time.Second, 5*time.Millisecond)
	s.Stop()

	restarted := startShard(t, store)
	assert.Equal(t, []model.ShardEvent{model.NoBooking{}, model.Booked{Booking: b}}, history(t, restarted))
}

func TestShard_RetireIdle(t *testing.T) {
	s := startShard(t, repository.NewMemoryStore())

	settled := s.Retire()
	require.Eventually(t, func() bool { return isClosed(settled) }, 2*time.Second, 5*time.Millisecond)
}

func TestShard_RetireAfterStop(t *testing.T) {
	s := startShard(t, repository.NewMemoryStore())
	s.Stop()

	assert.True(t, isClosed(s.Retire()))
	assert.True(t, isClosed(s.Done()))
}

func TestShard_StopAnswersQueuedCommands(t *testing.T) {
	s := startShard(t, repository.NewMemoryStore())

	const commands = 60
	replies := make(chan Response, commands)
	for i := 0; i < commands; i++ {
		var cmd Command
		switch i % 3 {
		case 0:
			cmd = Book{Booking: bookingFor(fmt.Sprintf("b%d", i), date, date), Date: date, ReplyTo: replies}
		case 1:
			cmd = GetAvailability{Date: date, ReplyTo: replies}
		default:
			cmd = RequestHistory{Date: date, ReplyTo: replies}
		}
		require.NoError(t, s.Send(cmd))
	}
	s.Stop()

	for i := 0; i < commands; i++ {
		select {
		case r := <-replies:
			switch r.(type) {
			case ProbatoryBookingConfirmation, IsBooked, IsAvailable, History, ShardStopped:
			default:
				t.Fatalf("unexpected reply %T", r)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d of %d commands answered", i, commands)
		}
	}
	select {
	case r := <-replies:
		t.Fatalf("extra reply %T", r)
	default:
	}
}
