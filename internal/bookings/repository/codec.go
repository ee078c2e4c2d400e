package repository

import (
	"encoding/json"
	"fmt"

	bookingserrors "campsite/internal/bookings/errors"
	"campsite/pkg/model"
)

// RecordVersion is written into every record; readers reject any other value.
const RecordVersion = 1

type bookingRecord struct {
	ID            string `json:"id" bson:"id"`
	Email         string `json:"email" bson:"email"`
	FullName      string `json:"full_name" bson:"full_name"`
	ArrivalDate   string `json:"arrival_date" bson:"arrival_date"`
	DepartureDate string `json:"departure_date" bson:"departure_date"`
}

type eventRecord struct {
	Version int            `json:"v" bson:"v"`
	Type    string         `json:"type" bson:"type"`
	Booking *bookingRecord `json:"booking,omitempty" bson:"booking,omitempty"`
}

func toRecord(ev model.ShardEvent) (eventRecord, error) {
	switch e := ev.(type) {
	case model.NoBooking:
		return eventRecord{Version: RecordVersion, Type: model.EventTypeNoBooking}, nil
	case model.Booked:
		return eventRecord{
			Version: RecordVersion,
			Type:    model.EventTypeBooked,
			Booking: &bookingRecord{
				ID:            e.Booking.ID,
				Email:         e.Booking.Email,
				FullName:      e.Booking.FullName,
				ArrivalDate:   e.Booking.ArrivalDate.Key(),
				DepartureDate: e.Booking.DepartureDate.Key(),
			},
		}, nil
	default:
		return eventRecord{}, fmt.Errorf("unsupported shard event %T", ev)
	}
}

func fromRecord(rec eventRecord) (model.ShardEvent, error) {
	if rec.Version != RecordVersion {
		return nil, fmt.Errorf("%w: unsupported record version %d", bookingserrors.ErrCorruptLog, rec.Version)
	}

	switch rec.Type {
	case model.EventTypeNoBooking:
		return model.NoBooking{}, nil
	case model.EventTypeBooked:
		if rec.Booking == nil {
			return nil, fmt.Errorf("%w: booked record without booking", bookingserrors.ErrCorruptLog)
		}
		arrival, err := model.ParseKey(rec.Booking.ArrivalDate)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", bookingserrors.ErrCorruptLog, err)
		}
		departure, err := model.ParseKey(rec.Booking.DepartureDate)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", bookingserrors.ErrCorruptLog, err)
		}
		return model.Booked{Booking: model.Booking{
			ID:            rec.Booking.ID,
			Email:         rec.Booking.Email,
			FullName:      rec.Booking.FullName,
			ArrivalDate:   arrival,
			DepartureDate: departure,
		}}, nil
	default:
		return nil, fmt.Errorf("%w: unknown record type %q", bookingserrors.ErrCorruptLog, rec.Type)
	}
}

// EncodeEvent renders one event as a single JSON line, newline included.
func EncodeEvent(ev model.ShardEvent) ([]byte, error) {
	rec, err := toRecord(ev)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode shard event: %w", err)
	}
	return append(data, '\n'), nil
}

func DecodeEvent(line []byte) (model.ShardEvent, error) {
	var rec eventRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", bookingserrors.ErrCorruptLog, err)
	}
	return fromRecord(rec)
}
