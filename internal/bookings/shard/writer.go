package shard

import (
	"context"
	"fmt"

	"campsite/internal/bookings/repository"
	"campsite/pkg/logger"
	"campsite/pkg/model"
)

// Writer is the authoritative state machine of one date and the only owner of its log.
type Writer struct {
	date    model.Date
	state   state
	events  []model.ShardEvent
	log     repository.EventLog
	replica *Replica
	mailbox chan Command
	settled []chan struct{}
	logger  *logger.Logger
}

// openWriter replays the date's log. A missing or empty log is seeded with NoBooking.
// The replica is told about a booked date before any command is served.
func openWriter(ctx context.Context, date model.Date, store repository.Store, replica *Replica, mailboxSize int, log *logger.Logger) (*Writer, error) {
	eventLog, err := store.Open(ctx, date)
	if err != nil {
		return nil, err
	}

	events, err := eventLog.ReadAll(ctx)
	if err != nil {
		_ = eventLog.Close()
		return nil, err
	}

	if len(events) == 0 {
		if err := eventLog.Append(ctx, model.NoBooking{}); err != nil {
			_ = eventLog.Close()
			return nil, fmt.Errorf("failed to seed log for %s: %w", date.Key(), err)
		}
		events = append(events, model.NoBooking{})
	}

	w := &Writer{
		date:    date,
		state:   stateFromLog(events),
		events:  events,
		log:     eventLog,
		replica: replica,
		mailbox: make(chan Command, mailboxSize),
		logger:  log,
	}
	if _, ok := w.state.(booked); ok {
		replica.mailbox <- markBooked{}
	}
	return w, nil
}

// send reports false when the shard stopped before cmd could be queued.
func (w *Writer) send(cmd Command, done <-chan struct{}) bool {
	select {
	case w.mailbox <- cmd:
		return true
	case <-done:
		return false
	}
}

func (w *Writer) run(done <-chan struct{}) {
	defer func() {
		if isProbationary(w.state) {
			w.logger.Warn("Shard stopped with a pending transition", "date", w.date.Key(), "state", describe(w.state))
		}
		if err := w.log.Close(); err != nil {
			w.logger.Error("Failed to close shard log", "date", w.date.Key(), "error", err)
		}
	}()

	for {
		select {
		case cmd := <-w.mailbox:
			w.handle(cmd, done)
		case <-done:
			return
		}
	}
}

func (w *Writer) handle(cmd Command, done <-chan struct{}) {
	defer w.releaseIfSettled()

	switch c := cmd.(type) {
	case RequestHistory:
		Reply(c, History{Date: w.date, Events: w.history()})
		return
	case retire:
		w.settled = append(w.settled, c.settled)
		return
	}

	next, effects := transition(w.date, w.state, cmd)
	for _, eff := range effects {
		switch e := eff.(type) {
		case notifyReplica:
			if e.booked {
				w.replica.send(markBooked{}, done)
			} else {
				w.replica.send(markAvailable{}, done)
			}
		case appendEvent:
			w.append(e.event)
		case reply:
			Reply(cmd, e.response)
		case warn:
			w.logger.Warn("Shard writer ignored command",
				"date", w.date.Key(),
				"reason", e.msg,
				"command", fmt.Sprintf("%T", cmd),
			)
		}
	}
	w.state = next
}

// releaseIfSettled closes the retire channels once no transition is pending.
func (w *Writer) releaseIfSettled() {
	if len(w.settled) == 0 || isProbationary(w.state) {
		return
	}
	for _, ch := range w.settled {
		close(ch)
	}
	w.settled = nil
}

// append persists ev. A failed write leaves memory and disk out of step, so the shard dies.
func (w *Writer) append(ev model.ShardEvent) {
	if err := w.log.Append(context.Background(), ev); err != nil {
		w.logger.Error("Failed to append to shard log", "date", w.date.Key(), "error", err)
		panic(fmt.Errorf("shard %s: %w", w.date.Key(), err))
	}
	w.events = append(w.events, ev)
}

// history is the durable log plus the record a pending transition would add.
func (w *Writer) history() []model.ShardEvent {
	out := make([]model.ShardEvent, len(w.events), len(w.events)+1)
	copy(out, w.events)
	if ev, ok := pendingEvent(w.state); ok {
		out = append(out, ev)
	}
	return out
}
