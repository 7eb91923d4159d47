// Package handler provides HTTP handlers for the planner API.
package handler

import (
	"net/http"
	"sort"
	"time"

	"github.com/breatheroute/planner/internal/api/models"
	"github.com/breatheroute/planner/internal/api/response"
	"github.com/breatheroute/planner/internal/provider/resilience"
	"github.com/breatheroute/planner/internal/routing"
)

// RouteCache reports the state of the routing response cache.
type RouteCache interface {
	CacheStats() routing.CacheStats
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	registry  *resilience.Registry
	caches    []RouteCache
}

// NewOpsHandler creates a new OpsHandler. registry may be nil.
func NewOpsHandler(version, buildTime string, registry *resilience.Registry, caches ...RouteCache) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		registry:  registry,
		caches:    caches,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
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

// Providers handles GET /v1/ops/providers - circuit breaker state and last
// outcome of every remote collaborator, plus the fill of each route cache.
// The status code is 503 only when every provider is failing.
func (h *OpsHandler) Providers(w http.ResponseWriter, r *http.Request) {
	status := models.ProvidersStatus{
		Status:    models.HealthStatusOK,
		Time:      models.Timestamp(time.Now()),
		Providers: []models.ProviderStatus{},
		Caches:    make([]models.CacheStatus, 0, len(h.caches)),
	}

	for _, c := range h.caches {
		stats := c.CacheStats()
		status.Caches = append(status.Caches, models.CacheStatus{
			Provider: stats.Provider,
			Entries:  stats.TotalEntries,
			Fresh:    stats.FreshEntries,
			Stale:    stats.StaleEntries,
		})
	}

	if h.registry != nil {
		all := h.registry.GetAllHealth()
		sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

		failing := 0
		for _, health := range all {
			p := toProviderStatus(health)
			status.Providers = append(status.Providers, p)
			switch p.Status {
			case models.HealthStatusFail:
				failing++
				status.Status = models.HealthStatusDegraded
			case models.HealthStatusDegraded:
				status.Status = models.HealthStatusDegraded
			}
		}
		if failing > 0 && failing == len(all) {
			status.Status = models.HealthStatusFail
		}
	}

	code := http.StatusOK
	if status.Status == models.HealthStatusFail {
		code = http.StatusServiceUnavailable
	}
	response.JSON(w, r, code, status)
}

func toProviderStatus(h *resilience.ProviderHealth) models.ProviderStatus {
	p := models.ProviderStatus{
		Provider:            h.Name,
		Status:              models.HealthStatusOK,
		CircuitState:        h.CircuitState.String(),
		Requests:            h.Counts.Requests,
		ConsecutiveFailures: h.Counts.ConsecutiveFailures,
	}

	switch {
	case h.IsUnhealthy():
		p.Status = models.HealthStatusFail
	case h.IsDegraded():
		p.Status = models.HealthStatusDegraded
	}

	if h.LastSuccessAt != nil {
		ts := models.Timestamp(*h.LastSuccessAt)
		p.LastSuccessAt = &ts
	}
	if h.LastFailureAt != nil {
		ts := models.Timestamp(*h.LastFailureAt)
		p.LastFailureAt = &ts
	}
	if h.LastError != "" {
		msg := h.LastError
		p.Message = &msg
	}
	return p
}
