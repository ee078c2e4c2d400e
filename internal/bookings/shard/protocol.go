package shard

import (
	"campsite/internal/bookings/rules"
	"campsite/pkg/model"
)

// Command is addressed to the shard of one date, or broadcast to all of them.
// Every command carries the channel its single reply goes to. Senders size that
// channel for every reply they expect; shards block until the reply is delivered.
type Command interface {
	isCommand()
	replyTo() chan<- Response
}

type Book struct {
	Booking model.Booking
	Date    model.Date
	ReplyTo chan<- Response
}

// UpdateBooking replaces the booking with the same id. It is broadcast to the shards
// of Dates, or to every active shard when Dates is nil. A date of Dates without a shard
// answers ShardStopped unless the router already reported it out of range.
type UpdateBooking struct {
	Booking model.Booking
	Dates   []model.Date
	ReplyTo chan<- Response
}

// CancelBooking is broadcast like UpdateBooking.
type CancelBooking struct {
	BookingID string
	Dates     []model.Date
	ReplyTo   chan<- Response
}

type Commit struct {
	Date    model.Date
	ReplyTo chan<- Response
}

type Revert struct {
	Date    model.Date
	ReplyTo chan<- Response
}

type GetAvailability struct {
	Date    model.Date
	ReplyTo chan<- Response
}

type RequestHistory struct {
	Date    model.Date
	ReplyTo chan<- Response
}

// retire asks the writer to close settled once the date holds no pending transition.
type retire struct {
	settled chan struct{}
}

func (Book) isCommand()            {}
func (UpdateBooking) isCommand()   {}
func (CancelBooking) isCommand()   {}
func (Commit) isCommand()          {}
func (Revert) isCommand()          {}
func (GetAvailability) isCommand() {}
func (RequestHistory) isCommand()  {}
func (retire) isCommand()          {}

func (c Book) replyTo() chan<- Response            { return c.ReplyTo }
func (c UpdateBooking) replyTo() chan<- Response   { return c.ReplyTo }
func (c CancelBooking) replyTo() chan<- Response   { return c.ReplyTo }
func (c Commit) replyTo() chan<- Response          { return c.ReplyTo }
func (c Revert) replyTo() chan<- Response          { return c.ReplyTo }
func (c GetAvailability) replyTo() chan<- Response { return c.ReplyTo }
func (c RequestHistory) replyTo() chan<- Response  { return c.ReplyTo }
func (retire) replyTo() chan<- Response            { return nil }

// Response is the reply to a command. Most variants concern one date; see Dated.
type Response interface {
	isResponse()
}

// Dated is implemented by every response that answers for a single date.
type Dated interface {
	Response
	ForDate() model.Date
}

type OutOfRange struct {
	Date   model.Date
	Reason rules.Reason
}

// RequestedDatesOutOfRange lists the dates of an update's new range that fall outside the window.
// It may be empty.
type RequestedDatesOutOfRange struct {
	Dates []OutOfRange
}

type QueryableDates struct {
	Dates []model.Date
}

type ProbatoryBookingConfirmation struct {
	Booking model.Booking
	Date    model.Date
}

// ProbatoryUpdateConfirmation reports that a date accepted an update tentatively.
// Previous is set exactly when OverridesPrevious is true.
type ProbatoryUpdateConfirmation struct {
	OverridesPrevious bool
	Previous          *model.Booking
	Date              model.Date
}

type IsBooked struct {
	Date model.Date
}

type IsAvailable struct {
	Date model.Date
}

type DoesntQualifyForUpdate struct {
	Date model.Date
}

type DoesntQualifyForCancellation struct {
	Date model.Date
}

type CancellationConfirmation struct {
	Booking model.Booking
	Date    model.Date
}

type DateAvailableConfirmation struct {
	Date model.Date
}

type CommitConfirmation struct {
	Date model.Date
}

type RevertConfirmation struct {
	Date model.Date
}

type History struct {
	Date   model.Date
	Events []model.ShardEvent
}

// ShardStopped answers a command whose shard stopped, or was never running, before
// handling it. It is the only reply that command gets.
type ShardStopped struct {
	Date model.Date
}

// NoPendingTransition answers a Commit that found nothing to commit: the reservation it
// should finalize is gone.
type NoPendingTransition struct {
	Date model.Date
}

func (OutOfRange) isResponse()                   {}
func (RequestedDatesOutOfRange) isResponse()     {}
func (QueryableDates) isResponse()               {}
func (ProbatoryBookingConfirmation) isResponse() {}
func (ProbatoryUpdateConfirmation) isResponse()  {}
func (IsBooked) isResponse()                     {}
func (IsAvailable) isResponse()                  {}
func (DoesntQualifyForUpdate) isResponse()       {}
func (DoesntQualifyForCancellation) isResponse() {}
func (CancellationConfirmation) isResponse()     {}
func (DateAvailableConfirmation) isResponse()    {}
func (CommitConfirmation) isResponse()           {}
func (RevertConfirmation) isResponse()           {}
func (History) isResponse()                      {}
func (ShardStopped) isResponse()                 {}
func (NoPendingTransition) isResponse()          {}

func (r OutOfRange) ForDate() model.Date                   { return r.Date }
func (r ProbatoryBookingConfirmation) ForDate() model.Date { return r.Date }
func (r ProbatoryUpdateConfirmation) ForDate() model.Date  { return r.Date }
func (r IsBooked) ForDate() model.Date                     { return r.Date }
func (r IsAvailable) ForDate() model.Date                  { return r.Date }
func (r DoesntQualifyForUpdate) ForDate() model.Date       { return r.Date }
func (r DoesntQualifyForCancellation) ForDate() model.Date { return r.Date }
func (r CancellationConfirmation) ForDate() model.Date     { return r.Date }
func (r DateAvailableConfirmation) ForDate() model.Date    { return r.Date }
func (r CommitConfirmation) ForDate() model.Date           { return r.Date }
func (r RevertConfirmation) ForDate() model.Date           { return r.Date }
func (r History) ForDate() model.Date                      { return r.Date }
func (r ShardStopped) ForDate() model.Date                 { return r.Date }
func (r NoPendingTransition) ForDate() model.Date          { return r.Date }

// DateOf returns the date a command is addressed to. Broadcast commands have none.
func DateOf(cmd Command) (model.Date, bool) {
	switch c := cmd.(type) {
	case Book:
		return c.Date, true
	case Commit:
		return c.Date, true
	case Revert:
		return c.Date, true
	case GetAvailability:
		return c.Date, true
	case RequestHistory:
		return c.Date, true
	default:
		return model.Date{}, false
	}
}

// Targets returns the dates a broadcast command expects replies from, nil meaning every active date.
func Targets(cmd Command) []model.Date {
	switch c := cmd.(type) {
	case UpdateBooking:
		return c.Dates
	case CancelBooking:
		return c.Dates
	default:
		return nil
	}
}

// Reply delivers r on the command's reply channel.
func Reply(cmd Command, r Response) {
	if to := cmd.replyTo(); to != nil {
		to <- r
	}
}
