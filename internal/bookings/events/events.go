// Package events announces committed booking changes to other services.
package events

import (
	"context"
	"time"

	"campsite/pkg/model"
)

type EventType string

const (
	BookingCreated   EventType = "booking.created"
	BookingUpdated   EventType = "booking.updated"
	BookingCancelled EventType = "booking.cancelled"

	SchemaVersion = "1"
)

type Stay struct {
	ArrivalDate   model.Date `json:"arrivalDate"`
	DepartureDate model.Date `json:"departureDate"`
}

// BookingEvent is the payload published after a booking change is durable.
type BookingEvent struct {
	Type       EventType `json:"type"`
	BookingID  string    `json:"bookingId"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Stay       Stay      `json:"stay"`
	Previous   *Stay     `json:"previous,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

func stayOf(b model.Booking) Stay {
	return Stay{ArrivalDate: b.ArrivalDate, DepartureDate: b.DepartureDate}
}

func newEvent(t EventType, b model.Booking) BookingEvent {
	return BookingEvent{
		Type:       t,
		BookingID:  b.ID,
		Email:      b.Email,
		FullName:   b.FullName,
		Stay:       stayOf(b),
		OccurredAt: time.Now().UTC(),
	}
}

func Created(b model.Booking) BookingEvent {
	return newEvent(BookingCreated, b)
}

func Updated(b, previous model.Booking) BookingEvent {
	ev := newEvent(BookingUpdated, b)
	prev := stayOf(previous)
	ev.Previous = &prev
	return ev
}

func Cancelled(b model.Booking) BookingEvent {
	return newEvent(BookingCancelled, b)
}

type Publisher interface {
	Publish(ctx context.Context, ev BookingEvent) error
	Close() error
}

// NoopPublisher drops every event. Used when publishing is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, BookingEvent) error { return nil }
func (NoopPublisher) Close() error                             { return nil }
