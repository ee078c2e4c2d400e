// Package shard runs the per-date booking engine: an admission queue in front of an
// authoritative writer that owns the date's log, plus a read replica of its status.
// Each of the three runs on its own goroutine and handles one message at a time.
package shard

import (
	"context"
	"sync"

	bookingserrors "campsite/internal/bookings/errors"
	"campsite/internal/bookings/repository"
	"campsite/pkg/logger"
	"campsite/pkg/model"
)

const DefaultMailboxSize = 64

// Shard is the handle the router keeps for one date.
type Shard struct {
	date      model.Date
	mailbox   chan Command
	done      chan struct{}
	wg        sync.WaitGroup
	once      sync.Once
	admission *admission
	writer    *Writer
	replica   *Replica
	log       *logger.Logger
}

// Start replays the date's log and launches the shard. Errors are startup failures,
// a corrupt log among them, and are not retried.
func Start(ctx context.Context, date model.Date, store repository.Store, mailboxSize int, log *logger.Logger) (*Shard, error) {
	if mailboxSize < 1 {
		mailboxSize = DefaultMailboxSize
	}
	log = log.Component("shard", "date", date.Key())

	replica := newReplica(date, mailboxSize, log)
	writer, err := openWriter(ctx, date, store, replica, mailboxSize, log)
	if err != nil {
		return nil, err
	}

	s := &Shard{
		date:    date,
		mailbox: make(chan Command, mailboxSize),
		done:    make(chan struct{}),
		writer:  writer,
		replica: replica,
		log:     log,
	}
	s.admission = &admission{
		date:    date,
		answers: make(chan Response, 1),
		writer:  writer,
		replica: replica,
		mailbox: s.mailbox,
		log:     log,
	}

	s.wg.Add(3)
	go func() { defer s.wg.Done(); replica.run(s.done) }()
	go func() { defer s.wg.Done(); writer.run(s.done) }()
	go func() { defer s.wg.Done(); s.admission.run(s.done) }()

	log.Debug("Shard started", "state", describe(writer.state))
	return s, nil
}

func (s *Shard) Date() model.Date {
	return s.date
}

// Send enqueues cmd in arrival order.
func (s *Shard) Send(cmd Command) error {
	select {
	case <-s.done:
		return bookingserrors.ErrShardStopped
	default:
	}

	select {
	case s.mailbox <- cmd:
		return nil
	case <-s.done:
		return bookingserrors.ErrShardStopped
	}
}

// Retire returns a channel closed once the date holds no pending transition, so the
// shard can be stopped without losing a reservation that is about to be committed.
func (s *Shard) Retire() <-chan struct{} {
	settled := make(chan struct{})
	if err := s.Send(retire{settled: settled}); err != nil {
		close(settled)
	}
	return settled
}

// Done is closed when the shard stops.
func (s *Shard) Done() <-chan struct{} {
	return s.done
}

// Stop terminates the shard's goroutines and closes its log. Every command still queued
// is answered with ShardStopped. Stop must not race with Send.
func (s *Shard) Stop() {
	s.once.Do(func() {
		close(s.done)
		s.wg.Wait()
		s.log.Debug("Shard stopped", "dropped", s.drain())
	})
}

// drain answers the commands left in the mailboxes once every goroutine has returned.
func (s *Shard) drain() int {
	dropped := 0
	stopped := func(cmd Command) {
		Reply(cmd, ShardStopped{Date: s.date})
		dropped++
	}

	for _, b := range s.admission.pending {
		stopped(b)
	}
	s.admission.pending = nil
	for len(s.mailbox) > 0 {
		stopped(<-s.mailbox)
	}
	for len(s.writer.mailbox) > 0 {
		stopped(<-s.writer.mailbox)
	}
	for len(s.replica.mailbox) > 0 {
		q, ok := (<-s.replica.mailbox).(replicaQuery)
		// Queries on behalf of queued bookings were answered through pending above.
		if ok && q.query.ReplyTo != s.admission.answers {
			stopped(q.query)
		}
	}
	for _, ch := range s.writer.settled {
		close(ch)
	}
	s.writer.settled = nil
	return dropped
}

func describe(st state) string {
	switch st.(type) {
	case available:
		return "available"
	case booked:
		return "booked"
	case probationaryBooked:
		return "probationary_booked"
	case probationaryAvailable:
		return "probationary_available"
	default:
		return "unknown"
	}
}
