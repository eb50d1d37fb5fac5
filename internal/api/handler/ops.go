package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/skycollect/skycollect/internal/api/models"
	"github.com/skycollect/skycollect/internal/api/response"
	"github.com/skycollect/skycollect/internal/provider/resilience"
)

// Pinger is satisfied by pgxpool.Pool and used for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	db        Pinger
	provider  *resilience.Client
}

// NewOpsHandler creates a new OpsHandler. db and provider may be nil, the
// corresponding checks are then skipped.
func NewOpsHandler(version, buildTime string, db Pinger, provider *resilience.Client) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		db:        db,
		provider:  provider,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check. Fails when
// the database is unreachable.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			health.Status = models.HealthStatusFail
			health.Details = map[string]interface{}{"database": err.Error()}
			response.JSON(w, r, http.StatusServiceUnavailable, health)
			return
		}
	}

	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - subsystem and provider status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	now := models.Timestamp(time.Now())
	status := models.SystemStatus{
		Status: models.HealthStatusOK,
		Time:   now,
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		dbStatus := models.SubsystemStatus{Name: "postgres", Status: models.HealthStatusOK}
		if err := h.db.Ping(ctx); err != nil {
			detail := err.Error()
			dbStatus.Status = models.HealthStatusFail
			dbStatus.Detail = &detail
			status.Status = models.HealthStatusDegraded
		}
		status.Subsystems = append(status.Subsystems, dbStatus)
	}

	if h.provider != nil {
		state := h.provider.CircuitBreakerState()
		counts := h.provider.CircuitBreakerCounts()

		providerStatus := models.ProviderStatus{
			Provider:     "qweather",
			Status:       models.HealthStatusOK,
			BreakerState: state.String(),
			Requests:     counts.Requests,
			Failures:     counts.TotalFailures,
		}
		if state != gobreaker.StateClosed {
			providerStatus.Status = models.HealthStatusDegraded
			status.Status = models.HealthStatusDegraded
		}
		status.Providers = append(status.Providers, providerStatus)
	}

	response.JSON(w, r, http.StatusOK, status)
}
