package shard

import "campsite/pkg/model"

// state is the in-memory condition of one date. Only the writer owning the date holds it.
type state interface {
	isState()
}

type available struct{}

type booked struct {
	booking model.Booking
}

// probationaryBooked holds a tentative reservation. previous is nil when the date was available.
type probationaryBooked struct {
	previous  *model.Booking
	candidate model.Booking
}

// probationaryAvailable holds a tentative release of previous.
type probationaryAvailable struct {
	previous model.Booking
}

func (available) isState()             {}
func (booked) isState()                {}
func (probationaryBooked) isState()    {}
func (probationaryAvailable) isState() {}

func isProbationary(st state) bool {
	switch st.(type) {
	case probationaryBooked, probationaryAvailable:
		return true
	default:
		return false
	}
}

// stateFromLog derives the starting state from the last durable record.
func stateFromLog(events []model.ShardEvent) state {
	if len(events) == 0 {
		return available{}
	}
	if b, ok := events[len(events)-1].(model.Booked); ok {
		return booked{booking: b.Booking}
	}
	return available{}
}

// effect is a side effect of a transition, run by the writer in order.
type effect interface {
	isEffect()
}

type reply struct {
	response Response
}

type notifyReplica struct {
	booked bool
}

type appendEvent struct {
	event model.ShardEvent
}

type warn struct {
	msg string
}

func (reply) isEffect()         {}
func (notifyReplica) isEffect() {}
func (appendEvent) isEffect()   {}
func (warn) isEffect()          {}

// transition is the writer's state machine. It is pure: all I/O is described by the returned effects.
func transition(date model.Date, st state, cmd Command) (state, []effect) {
	switch s := st.(type) {
	case available:
		return fromAvailable(date, s, cmd)
	case booked:
		return fromBooked(date, s, cmd)
	case probationaryBooked:
		return fromProbationaryBooked(date, s, cmd)
	case probationaryAvailable:
		return fromProbationaryAvailable(date, s, cmd)
	default:
		panic("shard: unknown writer state")
	}
}

func fromAvailable(date model.Date, s available, cmd Command) (state, []effect) {
	switch c := cmd.(type) {
	case Book:
		return probationaryBooked{candidate: c.Booking}, []effect{
			notifyReplica{booked: true},
			reply{ProbatoryBookingConfirmation{Booking: c.Booking, Date: date}},
		}
	case UpdateBooking:
		if !c.Booking.Covers(date) {
			return s, []effect{reply{DoesntQualifyForUpdate{Date: date}}}
		}
		return probationaryBooked{candidate: c.Booking}, []effect{
			notifyReplica{booked: true},
			reply{ProbatoryUpdateConfirmation{OverridesPrevious: false, Date: date}},
		}
	case CancelBooking:
		return s, []effect{reply{DoesntQualifyForCancellation{Date: date}}}
	case GetAvailability:
		return s, []effect{reply{IsAvailable{Date: date}}}
	default:
		return settled(date, s, cmd)
	}
}

func fromBooked(date model.Date, s booked, cmd Command) (state, []effect) {
	switch c := cmd.(type) {
	case Book:
		return s, []effect{reply{IsBooked{Date: date}}}
	case UpdateBooking:
		if c.Booking.ID != s.booking.ID {
			return s, []effect{contended(date, c.Booking)}
		}
		previous := s.booking
		confirmation := reply{ProbatoryUpdateConfirmation{OverridesPrevious: true, Previous: &previous, Date: date}}
		if c.Booking.Covers(date) {
			return probationaryBooked{previous: &previous, candidate: c.Booking}, []effect{confirmation}
		}
		return probationaryAvailable{previous: previous}, []effect{confirmation}
	case CancelBooking:
		if c.BookingID != s.booking.ID {
			return s, []effect{reply{DoesntQualifyForCancellation{Date: date}}}
		}
		return available{}, []effect{
			notifyReplica{booked: false},
			appendEvent{model.NoBooking{}},
			reply{CancellationConfirmation{Booking: s.booking, Date: date}},
		}
	case GetAvailability:
		return s, []effect{reply{IsBooked{Date: date}}}
	default:
		return settled(date, s, cmd)
	}
}

func fromProbationaryBooked(date model.Date, s probationaryBooked, cmd Command) (state, []effect) {
	switch c := cmd.(type) {
	case Commit:
		return booked{booking: s.candidate}, []effect{
			appendEvent{model.Booked{Booking: s.candidate}},
			reply{CommitConfirmation{Date: date}},
		}
	case Revert:
		if s.previous == nil {
			return available{}, []effect{
				notifyReplica{booked: false},
				reply{RevertConfirmation{Date: date}},
			}
		}
		return booked{booking: *s.previous}, []effect{reply{RevertConfirmation{Date: date}}}
	default:
		return locked(date, s, c)
	}
}

func fromProbationaryAvailable(date model.Date, s probationaryAvailable, cmd Command) (state, []effect) {
	switch c := cmd.(type) {
	case Commit:
		return available{}, []effect{
			notifyReplica{booked: false},
			appendEvent{model.NoBooking{}},
			reply{DateAvailableConfirmation{Date: date}},
		}
	case Revert:
		return booked{booking: s.previous}, []effect{reply{RevertConfirmation{Date: date}}}
	default:
		return locked(date, s, c)
	}
}

// locked answers third parties while a transaction holds the date.
func locked(date model.Date, s state, cmd Command) (state, []effect) {
	switch c := cmd.(type) {
	case Book:
		return s, []effect{reply{IsBooked{Date: date}}}
	case UpdateBooking:
		return s, []effect{contended(date, c.Booking)}
	case CancelBooking:
		return s, []effect{reply{DoesntQualifyForCancellation{Date: date}}}
	case GetAvailability:
		return s, []effect{reply{IsBooked{Date: date}}}
	default:
		return s, []effect{warn{msg: "unexpected command while probationary"}}
	}
}

// settled answers Commit and Revert that reach a date with nothing pending. A Commit
// there fails: whatever it should finalize was lost. A Revert has nothing left to undo.
func settled(date model.Date, s state, cmd Command) (state, []effect) {
	switch cmd.(type) {
	case Commit:
		return s, []effect{warn{msg: "commit without pending transition"}, reply{NoPendingTransition{Date: date}}}
	case Revert:
		return s, []effect{warn{msg: "revert without pending transition"}, reply{RevertConfirmation{Date: date}}}
	default:
		return s, []effect{warn{msg: "unexpected command"}}
	}
}

func contended(date model.Date, b model.Booking) effect {
	if b.Covers(date) {
		return reply{IsBooked{Date: date}}
	}
	return reply{DoesntQualifyForUpdate{Date: date}}
}

// pendingEvent is the record a probationary state would append on commit.
func pendingEvent(st state) (model.ShardEvent, bool) {
	switch s := st.(type) {
	case probationaryBooked:
		return model.Booked{Booking: s.candidate}, true
	case probationaryAvailable:
		return model.NoBooking{}, true
	default:
		return nil, false
	}
}
