package shard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campsite/pkg/model"
)

var date = model.NewDate(2026, time.November, 10)

func bookingFor(id string, arrival, departure model.Date) model.Booking {
	return model.Booking{ID: id, Email: id + "@example.com", FullName: "Camper " + id, ArrivalDate: arrival, DepartureDate: departure}
}

func replies(effects []effect) []Response {
	var out []Response
	for _, e := range effects {
		if r, ok := e.(reply); ok {
			out = append(out, r.response)
		}
	}
	return out
}

func notifications(effects []effect) []bool {
	var out []bool
	for _, e := range effects {
		if n, ok := e.(notifyReplica); ok {
			out = append(out, n.booked)
		}
	}
	return out
}

func appended(effects []effect) []model.ShardEvent {
	var out []model.ShardEvent
	for _, e := range effects {
		if a, ok := e.(appendEvent); ok {
			out = append(out, a.event)
		}
	}
	return out
}

func TestTransition_Available(t *testing.T) {
	b := bookingFor("a", date, date.AddDays(1))

	t.Run("book", func(t *testing.T) {
		next, effects := transition(date, available{}, Book{Booking: b, Date: date})
		assert.Equal(t, probationaryBooked{candidate: b}, next)
		assert.Equal(t, []Response{ProbatoryBookingConfirmation{Booking: b, Date: date}}, replies(effects))
		assert.Equal(t, []bool{true}, notifications(effects))
		assert.Empty(t, appended(effects), "nothing is durable before commit")
	})

	t.Run("update covering the date", func(t *testing.T) {
		next, effects := transition(date, available{}, UpdateBooking{Booking: b})
		assert.Equal(t, probationaryBooked{candidate: b}, next)
		assert.Equal(t, []Response{ProbatoryUpdateConfirmation{OverridesPrevious: false, Date: date}}, replies(effects))
		assert.Equal(t, []bool{true}, notifications(effects))
	})

	t.Run("update elsewhere", func(t *testing.T) {
		elsewhere := bookingFor("a", date.AddDays(3), date.AddDays(4))
		next, effects := transition(date, available{}, UpdateBooking{Booking: elsewhere})
		assert.Equal(t, available{}, next)
		assert.Equal(t, []Response{DoesntQualifyForUpdate{Date: date}}, replies(effects))
		assert.Empty(t, notifications(effects))
	})

	t.Run("cancel", func(t *testing.T) {
		next, effects := transition(date, available{}, CancelBooking{BookingID: "a"})
		assert.Equal(t, available{}, next)
		assert.Equal(t, []Response{DoesntQualifyForCancellation{Date: date}}, replies(effects))
	})

	t.Run("availability", func(t *testing.T) {
		_, effects := transition(date, available{}, GetAvailability{Date: date})
		assert.Equal(t, []Response{IsAvailable{Date: date}}, replies(effects))
	})

	t.Run("stray commit reports nothing pending", func(t *testing.T) {
		next, effects := transition(date, available{}, Commit{Date: date})
		assert.Equal(t, available{}, next)
		assert.Equal(t, []Response{NoPendingTransition{Date: date}}, replies(effects))
		assert.Empty(t, appended(effects))
	})
}

func TestTransition_Booked(t *testing.T) {
	existing := bookingFor("a", date.AddDays(-1), date.AddDays(1))
	st := booked{booking: existing}

	t.Run("book is rejected", func(t *testing.T) {
		next, effects := transition(date, st, Book{Booking: bookingFor("b", date, date), Date: date})
		assert.Equal(t, st, next)
		assert.Equal(t, []Response{IsBooked{Date: date}}, replies(effects))
	})

	t.Run("update by another booking covering the date", func(t *testing.T) {
		_, effects := transition(date, st, UpdateBooking{Booking: bookingFor("b", date, date)})
		assert.Equal(t, []Response{IsBooked{Date: date}}, replies(effects))
	})

	t.Run("update by another booking elsewhere", func(t *testing.T) {
		_, effects := transition(date, st, UpdateBooking{Booking: bookingFor("b", date.AddDays(5), date.AddDays(5))})
		assert.Equal(t, []Response{DoesntQualifyForUpdate{Date: date}}, replies(effects))
	})

	t.Run("same id still covering", func(t *testing.T) {
		updated := bookingFor("a", date, date.AddDays(2))
		next, effects := transition(date, st, UpdateBooking{Booking: updated})
		assert.Equal(t, probationaryBooked{previous: &existing, candidate: updated}, next)
		require.Len(t, replies(effects), 1)
		confirmation := replies(effects)[0].(ProbatoryUpdateConfirmation)
		assert.True(t, confirmation.OverridesPrevious)
		require.NotNil(t, confirmation.Previous)
		assert.True(t, confirmation.Previous.Equal(existing))
		assert.Empty(t, notifications(effects), "replica already says booked")
	})

	t.Run("same id dropping the date", func(t *testing.T) {
		updated := bookingFor("a", date.AddDays(1), date.AddDays(2))
		next, effects := transition(date, st, UpdateBooking{Booking: updated})
		assert.Equal(t, probationaryAvailable{previous: existing}, next)
		assert.True(t, replies(effects)[0].(ProbatoryUpdateConfirmation).OverridesPrevious)
		assert.Empty(t, notifications(effects), "replica learns about the release on commit")
	})

	t.Run("cancel by owner", func(t *testing.T) {
		next, effects := transition(date, st, CancelBooking{BookingID: "a"})
		assert.Equal(t, available{}, next)
		assert.Equal(t, []bool{false}, notifications(effects))
		assert.Equal(t, []model.ShardEvent{model.NoBooking{}}, appended(effects))
		assert.Equal(t, []Response{CancellationConfirmation{Booking: existing, Date: date}}, replies(effects))
	})

	t.Run("cancel by someone else", func(t *testing.T) {
		next, effects := transition(date, st, CancelBooking{BookingID: "zzz"})
		assert.Equal(t, st, next)
		assert.Equal(t, []Response{DoesntQualifyForCancellation{Date: date}}, replies(effects))
	})

	t.Run("availability", func(t *testing.T) {
		_, effects := transition(date, st, GetAvailability{Date: date})
		assert.Equal(t, []Response{IsBooked{Date: date}}, replies(effects))
	})
}

func TestTransition_ProbationaryBooked(t *testing.T) {
	candidate := bookingFor("a", date, date)
	previous := bookingFor("a", date.AddDays(-1), date)

	t.Run("commit persists the candidate", func(t *testing.T) {
		next, effects := transition(date, probationaryBooked{candidate: candidate}, Commit{Date: date})
		assert.Equal(t, booked{booking: candidate}, next)
		assert.Equal(t, []model.ShardEvent{model.Booked{Booking: candidate}}, appended(effects))
		assert.Equal(t, []Response{CommitConfirmation{Date: date}}, replies(effects))
	})

	t.Run("revert of a fresh reservation frees the replica", func(t *testing.T) {
		next, effects := transition(date, probationaryBooked{candidate: candidate}, Revert{Date: date})
		assert.Equal(t, available{}, next)
		assert.Equal(t, []bool{false}, notifications(effects))
		assert.Empty(t, appended(effects))
		assert.Equal(t, []Response{RevertConfirmation{Date: date}}, replies(effects))
	})

	t.Run("revert of an override restores the previous booking", func(t *testing.T) {
		next, effects := transition(date, probationaryBooked{previous: &previous, candidate: candidate}, Revert{Date: date})
		assert.Equal(t, booked{booking: previous}, next)
		assert.Empty(t, notifications(effects))
		assert.Equal(t, []Response{RevertConfirmation{Date: date}}, replies(effects))
	})

	st := probationaryBooked{candidate: candidate}
	lockedCases := []struct {
		name string
		cmd  Command
		want Response
	}{
		{name: "book", cmd: Book{Booking: bookingFor("b", date, date), Date: date}, want: IsBooked{Date: date}},
		{name: "overlapping update", cmd: UpdateBooking{Booking: bookingFor("b", date, date)}, want: IsBooked{Date: date}},
		{name: "update elsewhere", cmd: UpdateBooking{Booking: bookingFor("b", date.AddDays(4), date.AddDays(4))}, want: DoesntQualifyForUpdate{Date: date}},
		{name: "cancel", cmd: CancelBooking{BookingID: "a"}, want: DoesntQualifyForCancellation{Date: date}},
		{name: "availability", cmd: GetAvailability{Date: date}, want: IsBooked{Date: date}},
	}
	for _, tt := range lockedCases {
		t.Run("locked "+tt.name, func(t *testing.T) {
			next, effects := transition(date, st, tt.cmd)
			assert.Equal(t, st, next)
			assert.Equal(t, []Response{tt.want}, replies(effects))
		})
	}
}

func TestTransition_ProbationaryAvailable(t *testing.T) {
	previous := bookingFor("a", date, date.AddDays(1))
	st := probationaryAvailable{previous: previous}

	t.Run("commit releases the date", func(t *testing.T) {
		next, effects := transition(date, st, Commit{Date: date})
		assert.Equal(t, available{}, next)
		assert.Equal(t, []bool{false}, notifications(effects))
		assert.Equal(t, []model.ShardEvent{model.NoBooking{}}, appended(effects))
		assert.Equal(t, []Response{DateAvailableConfirmation{Date: date}}, replies(effects))
	})

	t.Run("revert keeps the previous booking", func(t *testing.T) {
		next, effects := transition(date, st, Revert{Date: date})
		assert.Equal(t, booked{booking: previous}, next)
		assert.Empty(t, notifications(effects))
		assert.Equal(t, []Response{RevertConfirmation{Date: date}}, replies(effects))
	})

	t.Run("book is rejected", func(t *testing.T) {
		_, effects := transition(date, st, Book{Booking: bookingFor("b", date, date), Date: date})
		assert.Equal(t, []Response{IsBooked{Date: date}}, replies(effects))
	})

	t.Run("cancel is rejected", func(t *testing.T) {
		_, effects := transition(date, st, CancelBooking{BookingID: "a"})
		assert.Equal(t, []Response{DoesntQualifyForCancellation{Date: date}}, replies(effects))
	})
}

func TestStateFromLog(t *testing.T) {
	b := bookingFor("a", date, date)

	assert.Equal(t, available{}, stateFromLog(nil))
	assert.Equal(t, available{}, stateFromLog([]model.ShardEvent{model.NoBooking{}}))
	assert.Equal(t, booked{booking: b}, stateFromLog([]model.ShardEvent{model.NoBooking{}, model.Booked{Booking: b}}))
	assert.Equal(t, available{}, stateFromLog([]model.ShardEvent{model.NoBooking{}, model.Booked{Booking: b}, model.NoBooking{}}))
}
