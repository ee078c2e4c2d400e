package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"campsite/pkg/contracts"
	httputil "campsite/pkg/http"
	"campsite/pkg/logger"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Engine   string `json:"engine,omitempty"`
	Database string `json:"database,omitempty"`
}

// DatabasePinger is satisfied by *mongo.Client.
type DatabasePinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

type HealthHandler struct {
	engine contracts.EngineState
	db     DatabasePinger
	log    *logger.Logger
}

// NewHealthHandler builds the health and readiness endpoints. db may be nil when the logs are not kept in MongoDB.
func NewHealthHandler(engine contracts.EngineState, db DatabasePinger, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		engine: engine,
		db:     db,
		log:    log,
	}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Health", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	resp := HealthResponse{Status: "ready", Engine: "ok"}
	status := http.StatusOK

	if !h.engine.Active() {
		h.log.Warn("Booking engine is not active", "path", r.URL.Path)
		resp.Status = "unavailable"
		resp.Engine = "inactive"
		status = http.StatusServiceUnavailable
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp.Database = "ok"
		if err := h.db.Ping(ctx, nil); err != nil {
			h.log.Error("Database health check failed",
				"error", err,
				"path", r.URL.Path,
			)
			resp.Status = "unavailable"
			resp.Database = "error"
			status = http.StatusServiceUnavailable
		}
	}

	if err := httputil.WriteJSON(w, status, resp); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
