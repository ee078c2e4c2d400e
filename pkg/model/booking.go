package model

import "github.com/google/uuid"

// Booking is an immutable reservation of the inclusive day range [ArrivalDate, DepartureDate].
type Booking struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	FullName      string `json:"fullName"`
	ArrivalDate   Date   `json:"arrivalDate"`
	DepartureDate Date   `json:"departureDate"`
}

// BookingRequest is the body of create and update calls.
type BookingRequest struct {
	Email         string `json:"email" validate:"required,email,max=254"`
	FullName      string `json:"fullName" validate:"required,not_blank,max=200"`
	ArrivalDate   *Date  `json:"arrivalDate" validate:"required"`
	DepartureDate *Date  `json:"departureDate" validate:"required"`
}

func NewBookingID() string {
	return uuid.New().String()
}

// NewBooking builds a booking from a validated request. An empty id gets a fresh one.
func NewBooking(id string, req *BookingRequest) Booking {
	if id == "" {
		id = NewBookingID()
	}
	return Booking{
		ID:            id,
		Email:         req.Email,
		FullName:      req.FullName,
		ArrivalDate:   *req.ArrivalDate,
		DepartureDate: *req.DepartureDate,
	}
}

func (b Booking) Covers(d Date) bool {
	return !d.Before(b.ArrivalDate) && !d.After(b.DepartureDate)
}

func (b Booking) Dates() []Date {
	return DatesBetween(b.ArrivalDate, b.DepartureDate)
}

func (b Booking) Equal(o Booking) bool {
	return b.ID == o.ID &&
		b.Email == o.Email &&
		b.FullName == o.FullName &&
		b.ArrivalDate.Equal(o.ArrivalDate) &&
		b.DepartureDate.Equal(o.DepartureDate)
}

type BookingConfirmation struct {
	BookingConfirmationID string `json:"bookingConfirmationId"`
}
