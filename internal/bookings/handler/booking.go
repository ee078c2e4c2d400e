package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"campsite/internal/bookings/service"
	apperrors "campsite/pkg/errors"
	httputil "campsite/pkg/http"
	"campsite/pkg/logger"
	"campsite/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req, ok := h.decodeRequest(w, r, "Create")
	if !ok {
		return
	}

	confirmation, err := h.service.CreateBooking(r.Context(), req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, confirmation); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	req, ok := h.decodeRequest(w, r, "Update")
	if !ok {
		return
	}

	confirmation, err := h.service.UpdateBooking(r.Context(), id, req)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, confirmation); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	confirmation, err := h.service.DeleteBooking(r.Context(), id)
	if err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	if err := httputil.WriteSuccess(w, confirmation); err != nil {
		h.log.Error("failed to write success response", "handler", "Delete", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) GetAvailabilities(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	dateRange, err := httputil.ExtractDateRange(r)
	if err != nil {
		h.writeError(w, "GetAvailabilities", err)
		return
	}

	availabilities, err := h.service.GetAvailabilities(r.Context(), dateRange)
	if err != nil {
		h.writeError(w, "GetAvailabilities", err)
		return
	}

	if err := httputil.WriteSuccess(w, availabilities); err != nil {
		h.log.Error("failed to write success response", "handler", "GetAvailabilities", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) GetHistory(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	date, err := httputil.ExtractDateKey(ps.ByName("date"))
	if err != nil {
		h.writeError(w, "GetHistory", err)
		return
	}

	history, err := h.service.History(r.Context(), date)
	if err != nil {
		h.writeError(w, "GetHistory", err)
		return
	}

	if err := httputil.WriteSuccess(w, history); err != nil {
		h.log.Error("failed to write success response", "handler", "GetHistory", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.PUT("/api/v1/bookings/:id", h.Update)
	router.DELETE("/api/v1/bookings/:id", h.Delete)
	router.GET("/api/v1/availabilities", h.GetAvailabilities)
	router.GET("/api/v1/history/:date", h.GetHistory)
}

func (h *BookingHandler) decodeRequest(w http.ResponseWriter, r *http.Request, handler string) (*model.BookingRequest, bool) {
	var req model.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeError(w, handler, apperrors.FromCode(apperrors.CodeRequestTooLarge, http.StatusRequestEntityTooLarge))
			return nil, false
		}
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Code:  apperrors.CodeBadRequest,
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", handler, "operation", "WriteJSON", "error", writeErr)
		}
		return nil, false
	}
	return &req, true
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
