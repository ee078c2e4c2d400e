package shard

import (
	"campsite/pkg/logger"
	"campsite/pkg/model"
)

type replicaMsg interface {
	isReplicaMsg()
}

type markBooked struct{}

type markAvailable struct{}

type replicaQuery struct {
	query GetAvailability
}

func (markBooked) isReplicaMsg()    {}
func (markAvailable) isReplicaMsg() {}
func (replicaQuery) isReplicaMsg()  {}

// Replica caches whether one date is booked. It is fed by its writer and only ever
// consulted for admission control and cheap availability reads.
type Replica struct {
	date    model.Date
	booked  bool
	mailbox chan replicaMsg
	log     *logger.Logger
}

func newReplica(date model.Date, mailboxSize int, log *logger.Logger) *Replica {
	return &Replica{
		date:    date,
		mailbox: make(chan replicaMsg, mailboxSize),
		log:     log,
	}
}

func (r *Replica) send(msg replicaMsg, done <-chan struct{}) bool {
	select {
	case r.mailbox <- msg:
		return true
	case <-done:
		return false
	}
}

func (r *Replica) run(done <-chan struct{}) {
	for {
		select {
		case msg := <-r.mailbox:
			r.handle(msg)
		case <-done:
			return
		}
	}
}

func (r *Replica) handle(msg replicaMsg) {
	switch m := msg.(type) {
	case markBooked:
		r.booked = true
	case markAvailable:
		r.booked = false
	case replicaQuery:
		if r.booked {
			Reply(m.query, IsBooked{Date: r.date})
		} else {
			Reply(m.query, IsAvailable{Date: r.date})
		}
	}
}
