package service

import (
	"context"
	"errors"

	"campsite/internal/bookings/coordinator"
	"campsite/internal/bookings/events"
	"campsite/internal/bookings/rules"
	"campsite/internal/bookings/validator"
	apperrors "campsite/pkg/errors"
	"campsite/pkg/logger"
	"campsite/pkg/model"
	"campsite/pkg/sanitizer"
)

// MaxAvailabilityRangeDays caps the dates one availability query may enumerate.
const MaxAvailabilityRangeDays = 366

type BookingService interface {
	CreateBooking(ctx context.Context, req *model.BookingRequest) (model.BookingConfirmation, error)
	UpdateBooking(ctx context.Context, id string, req *model.BookingRequest) (model.BookingConfirmation, error)
	DeleteBooking(ctx context.Context, id string) (model.BookingConfirmation, error)
	GetAvailabilities(ctx context.Context, r model.DateRange) (model.Availabilities, error)
	History(ctx context.Context, date model.Date) (model.History, error)
}

// Engine runs one request against the date shards. It is implemented by *coordinator.Coordinator.
type Engine interface {
	Create(b model.Booking) (model.Booking, error)
	Update(b model.Booking) (coordinator.Updated, error)
	Delete(id string) (model.Booking, error)
	Availability(dates []model.Date) ([]model.Date, error)
	History(date model.Date) (model.History, error)
}

// Readiness reports whether the engine currently serves requests.
type Readiness interface {
	Active() bool
}

type bookingService struct {
	engine    Engine
	readiness Readiness
	rules     *rules.Rules
	validator *validator.BookingValidator
	publisher events.Publisher
	log       *logger.Logger
}

func NewBookingService(
	engine Engine,
	readiness Readiness,
	rules *rules.Rules,
	validator *validator.BookingValidator,
	publisher events.Publisher,
	log *logger.Logger,
) BookingService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &bookingService{
		engine:    engine,
		readiness: readiness,
		rules:     rules,
		validator: validator,
		publisher: publisher,
		log:       log.Component("booking_service"),
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, req *model.BookingRequest) (model.BookingConfirmation, error) {
	if err := s.checkRequest(req); err != nil {
		return model.BookingConfirmation{}, err
	}
	if err := s.ready(); err != nil {
		return model.BookingConfirmation{}, err
	}

	b := model.NewBooking("", req)
	created, err := await(ctx, func() (model.Booking, error) {
		return s.engine.Create(b)
	})
	if err != nil {
		s.logFailure("create", b.ID, err)
		return model.BookingConfirmation{}, err
	}

	s.log.Info("Booking created successfully",
		"id", created.ID,
		"arrival_date", created.ArrivalDate.Key(),
		"departure_date", created.DepartureDate.Key(),
	)
	s.publish(ctx, events.Created(created))
	return model.BookingConfirmation{BookingConfirmationID: created.ID}, nil
}

func (s *bookingService) UpdateBooking(ctx context.Context, id string, req *model.BookingRequest) (model.BookingConfirmation, error) {
	id = sanitizer.SanitizeIdentifier(id)
	if id == "" {
		return model.BookingConfirmation{}, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if err := s.checkRequest(req); err != nil {
		return model.BookingConfirmation{}, err
	}
	if err := s.ready(); err != nil {
		return model.BookingConfirmation{}, err
	}

	b := model.NewBooking(id, req)
	updated, err := await(ctx, func() (coordinator.Updated, error) {
		return s.engine.Update(b)
	})
	if err != nil {
		s.logFailure("update", id, err)
		return model.BookingConfirmation{}, err
	}

	s.log.Info("Booking updated successfully",
		"id", id,
		"arrival_date", updated.Booking.ArrivalDate.Key(),
		"departure_date", updated.Booking.DepartureDate.Key(),
		"previous_arrival_date", updated.Previous.ArrivalDate.Key(),
		"previous_departure_date", updated.Previous.DepartureDate.Key(),
	)
	s.publish(ctx, events.Updated(updated.Booking, updated.Previous))
	return model.BookingConfirmation{BookingConfirmationID: id}, nil
}

func (s *bookingService) DeleteBooking(ctx context.Context, id string) (model.BookingConfirmation, error) {
	id = sanitizer.SanitizeIdentifier(id)
	if id == "" {
		return model.BookingConfirmation{}, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if err := s.ready(); err != nil {
		return model.BookingConfirmation{}, err
	}

	cancelled, err := await(ctx, func() (model.Booking, error) {
		return s.engine.Delete(id)
	})
	if err != nil {
		s.logFailure("delete", id, err)
		return model.BookingConfirmation{}, err
	}

	s.log.Info("Booking deleted successfully", "id", id)
	s.publish(ctx, events.Cancelled(cancelled))
	return model.BookingConfirmation{BookingConfirmationID: id}, nil
}

// GetAvailabilities lists the free dates of r, or of the whole window when r is unset.
func (s *bookingService) GetAvailabilities(ctx context.Context, r model.DateRange) (model.Availabilities, error) {
	var dates []model.Date
	if r.IsSet() {
		if v := s.rules.IsQueryRangeWellFormed(*r.Start, *r.End); !v.OK() {
			return model.Availabilities{}, apperrors.InvalidRange(v.Code())
		}
		if r.Start.DaysUntil(*r.End)+1 > MaxAvailabilityRangeDays {
			return model.Availabilities{}, apperrors.InvalidInput("availability range cannot exceed one year")
		}
		dates = model.DatesBetween(*r.Start, *r.End)
	}
	if err := s.ready(); err != nil {
		return model.Availabilities{}, err
	}

	available, err := await(ctx, func() ([]model.Date, error) {
		return s.engine.Availability(dates)
	})
	if err != nil {
		s.logFailure("availability", "", err)
		return model.Availabilities{}, err
	}
	return model.NewAvailabilities(available), nil
}

func (s *bookingService) History(ctx context.Context, date model.Date) (model.History, error) {
	if err := s.ready(); err != nil {
		return model.History{}, err
	}
	return await(ctx, func() (model.History, error) {
		return s.engine.History(date)
	})
}

// --- Helpers ---

// checkRequest sanitizes req in place, then validates its shape and its date range.
func (s *bookingService) checkRequest(req *model.BookingRequest) error {
	if req != nil {
		req.Email = sanitizer.SanitizeEmail(req.Email)
		req.FullName = sanitizer.SanitizeFullName(req.FullName)
	}
	if err := s.validator.Validate(req); err != nil {
		s.log.Warn("Booking validation failed", "error", err)
		return apperrors.Validation("Booking validation failed", validationDetails(err))
	}
	if v := s.rules.IsRangeWellFormed(*req.ArrivalDate, *req.DepartureDate); !v.OK() {
		return apperrors.InvalidRange(v.Code())
	}
	return nil
}

func validationDetails(err error) map[string]any {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return map[string]any{"fields": []validator.ValidationError(fieldErrs)}
	}
	return map[string]any{"error": err.Error()}
}

func (s *bookingService) ready() error {
	if !s.readiness.Active() {
		return apperrors.Unavailable("booking engine")
	}
	return nil
}

// publish announces a committed change. The booking outcome does not depend on it.
func (s *bookingService) publish(ctx context.Context, ev events.BookingEvent) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.log.Error("Failed to publish booking event",
			"event_type", ev.Type,
			"booking_id", ev.BookingID,
			"error", err,
		)
	}
}

func (s *bookingService) logFailure(op, id string, err error) {
	var dateErrs *apperrors.DateErrors
	appErr := apperrors.AsAppError(err)
	switch {
	case errors.As(err, &dateErrs):
		s.log.Info("Booking request rejected", "operation", op, "id", id, "dates", dateErrs.Len())
	case appErr.HTTPStatus >= 500:
		s.log.Error("Booking request failed", "operation", op, "id", id, "error", err)
	default:
		s.log.Info("Booking request rejected", "operation", op, "id", id, "code", appErr.Code)
	}
}
