// Package handler provides HTTP handlers for the GeoCycle API.
package handler

import (
	"net/http"
	"time"

	"github.com/geocycle/geocycle/internal/api/models"
	"github.com/geocycle/geocycle/internal/api/response"
	"github.com/geocycle/geocycle/internal/provider/resilience"
)

// ProviderHealthSource reports upstream provider health.
type ProviderHealthSource interface {
	GetAllHealth() []*resilience.ProviderHealth
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	providers ProviderHealthSource
}

// NewOpsHandler creates a new OpsHandler. providers may be nil.
func NewOpsHandler(version, buildTime string, providers ProviderHealthSource) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		providers: providers,
	}
}

// HealthCheck handles GET /ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]any{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /ops/ready. The service holds no connections of
// its own. It is not ready when every route that depends on an upstream has an
// open circuit behind it. Without route information, it is not ready when
// every upstream circuit is open.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	all := h.health()
	status := h.overall(providerStatuses(all))

	unavailable, routes := resilience.UnavailableRoutes(all)
	switch {
	case len(routes) == 0:
	case len(unavailable) == len(routes):
		status = models.HealthStatusFail
	case len(unavailable) > 0:
		status = models.HealthStatusDegraded
	}

	health := models.Health{
		Status: status,
		Time:   models.Timestamp(time.Now()),
	}
	if len(unavailable) > 0 {
		health.Details = map[string]any{"unavailableRoutes": unavailable}
	}
	if status == models.HealthStatusFail {
		response.JSON(w, r, http.StatusServiceUnavailable, health)
		return
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /ops/status - upstream provider status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	providers := providerStatuses(h.health())
	response.JSON(w, r, http.StatusOK, models.SystemStatus{
		Status:    h.overall(providers),
		Time:      models.Timestamp(time.Now()),
		Providers: providers,
	})
}

func (h *OpsHandler) health() []*resilience.ProviderHealth {
	if h.providers == nil {
		return nil
	}
	return h.providers.GetAllHealth()
}

func providerStatuses(all []*resilience.ProviderHealth) []models.ProviderStatus {
	statuses := make([]models.ProviderStatus, 0, len(all))
	for _, p := range all {
		ps := models.ProviderStatus{
			Provider:            p.Name,
			Status:              models.HealthStatusOK,
			CircuitState:        p.CircuitState.String(),
			ConsecutiveFailures: p.Counts.ConsecutiveFailures,
			Routes:              p.Routes,
			LastSuccessAt:       models.NewTimestamp(p.LastSuccessAt),
			LastFailureAt:       models.NewTimestamp(p.LastFailureAt),
		}
		switch {
		case p.IsUnhealthy():
			ps.Status = models.HealthStatusFail
		case p.IsDegraded():
			ps.Status = models.HealthStatusDegraded
		}
		if p.LastError != "" {
			msg := p.LastError
			ps.Message = &msg
		}
		statuses = append(statuses, ps)
	}
	return statuses
}

// overall is FAIL when every provider has failed, DEGRADED when some have.
func (h *OpsHandler) overall(providers []models.ProviderStatus) models.HealthStatus {
	failed, degraded := 0, 0
	for _, p := range providers {
		switch p.Status {
		case models.HealthStatusFail:
			failed++
		case models.HealthStatusDegraded:
			degraded++
		}
	}

	switch {
	case len(providers) > 0 && failed == len(providers):
		return models.HealthStatusFail
	case failed > 0 || degraded > 0:
		return models.HealthStatusDegraded
	default:
		return models.HealthStatusOK
	}
}
