package shard

import (
	"campsite/pkg/logger"
	"campsite/pkg/model"
)

// admission serializes first-time booking attempts for one date. Concurrent Book
// commands queue behind a single replica query and at most one reaches the writer.
type admission struct {
	date    model.Date
	pending []Book
	answers chan Response
	writer  *Writer
	replica *Replica
	mailbox <-chan Command
	log     *logger.Logger
}

func (a *admission) run(done <-chan struct{}) {
	for {
		select {
		case cmd := <-a.mailbox:
			a.handle(cmd, done)
		case answer := <-a.answers:
			a.admit(answer, done)
		case <-done:
			return
		}
	}
}

func (a *admission) handle(cmd Command, done <-chan struct{}) {
	switch c := cmd.(type) {
	case Book:
		a.pending = append(a.pending, c)
		if len(a.pending) == 1 {
			a.replica.send(replicaQuery{query: GetAvailability{Date: a.date, ReplyTo: a.answers}}, done)
		}
	case GetAvailability:
		if !a.replica.send(replicaQuery{query: c}, done) {
			a.stopped(c)
		}
	case UpdateBooking, CancelBooking, Commit, Revert, RequestHistory, retire:
		if !a.writer.send(c, done) {
			a.stopped(c)
		}
	}
}

func (a *admission) stopped(cmd Command) {
	Reply(cmd, ShardStopped{Date: a.date})
}

func (a *admission) admit(answer Response, done <-chan struct{}) {
	queued := a.pending
	a.pending = nil

	if len(queued) == 0 {
		a.log.Warn("Replica answer without queued bookings", "date", a.date.Key())
		return
	}

	losers := queued
	if _, ok := answer.(IsAvailable); ok {
		if !a.writer.send(queued[0], done) {
			a.stopped(queued[0])
		}
		losers = queued[1:]
	}
	for _, b := range losers {
		Reply(b, IsBooked{Date: a.date})
	}

	if len(losers) > 0 {
		a.log.Debug("Rejected contending bookings", "date", a.date.Key(), "count", len(losers))
	}
}
