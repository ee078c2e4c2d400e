package model

// ShardEvent is one record of a date's append-only log.
type ShardEvent interface {
	isShardEvent()
}

type NoBooking struct{}

type Booked struct {
	Booking Booking
}

func (NoBooking) isShardEvent() {}
func (Booked) isShardEvent()    {}

type HistoryEntry struct {
	Type    string   `json:"type"`
	Booking *Booking `json:"booking,omitempty"`
}

type History struct {
	Date    Date           `json:"date"`
	Entries []HistoryEntry `json:"entries"`
}

const (
	EventTypeNoBooking = "no_booking"
	EventTypeBooked    = "booked"
)

func NewHistory(date Date, events []ShardEvent) History {
	h := History{Date: date, Entries: make([]HistoryEntry, 0, len(events))}
	for _, ev := range events {
		switch e := ev.(type) {
		case NoBooking:
			h.Entries = append(h.Entries, HistoryEntry{Type: EventTypeNoBooking})
		case Booked:
			b := e.Booking
			h.Entries = append(h.Entries, HistoryEntry{Type: EventTypeBooked, Booking: &b})
		}
	}
	return h
}
