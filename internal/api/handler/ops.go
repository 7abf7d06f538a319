// Package handler provides HTTP handlers for the BillGate API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/billgate/billgate/internal/api/models"
	"github.com/billgate/billgate/internal/api/response"
	"github.com/billgate/billgate/internal/flags"
)

// Pinger checks connectivity to a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	registry  *flags.Registry
	db        Pinger
}

// NewOpsHandler creates a new OpsHandler. db may be nil when the service
// runs on in-memory stores.
func NewOpsHandler(version, buildTime string, registry *flags.Registry, db Pinger) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		registry:  registry,
		db:        db,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   time.Now(),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
// Ready means the flag registry has been seeded and, when a database is
// configured, it answers a ping.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatusOK
	details := map[string]interface{}{
		"flagVersion": h.registry.CurrentVersion(),
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			status = models.HealthStatusFail
			details["database"] = err.Error()
		}
	}

	health := models.Health{
		Status:  status,
		Time:    time.Now(),
		Details: details,
	}

	code := http.StatusOK
	if status != models.HealthStatusOK {
		code = http.StatusServiceUnavailable
	}
	response.JSON(w, r, code, health)
}
