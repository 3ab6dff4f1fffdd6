// Package health reports service health from the engine container and the
// record store.
package health

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/medreconcile/medreconcile-api/interfaces"
)

var _ interfaces.HealthChecker = (*Checker)(nil)

const storePingTimeout = 2 * time.Second

// Checker grades health by reference data freshness and store reachability.
type Checker struct {
	provider interfaces.EngineProvider
	store    interfaces.MedicationStore
	interval time.Duration
}

func NewChecker(provider interfaces.EngineProvider, store interfaces.MedicationStore, refreshInterval time.Duration) *Checker {
	return &Checker{
		provider: provider,
		store:    store,
		interval: refreshInterval,
	}
}

// HealthCheck returns the status, the detail payload for the health
// endpoint, and the HTTP status to serve it with. Stale reference data
// degrades before it fails: one missed refresh cycle is degraded, two is
// unhealthy.
func (c *Checker) HealthCheck() (string, map[string]any, int) {
	lastRefresh := c.provider.LastRefreshed()
	dataAge := time.Since(lastRefresh)
	refreshing := c.provider.IsRefreshing()

	ctx, cancel := context.WithTimeout(context.Background(), storePingTimeout)
	defer cancel()
	storeErr := c.store.Ping(ctx)

	var status string
	var httpStatus int
	switch {
	case lastRefresh.IsZero() || dataAge > 2*c.interval:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	case dataAge > c.interval+time.Hour || storeErr != nil:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	storeStatus := "ok"
	if storeErr != nil {
		storeStatus = storeErr.Error()
	}

	details := map[string]any{
		"last_refresh":   lastRefresh.Format(time.RFC3339),
		"data_age_hours": math.Round(dataAge.Hours()*10) / 10,
		"is_refreshing":  refreshing,
		"store":          storeStatus,
	}
	if start := c.provider.ServerStartTime(); !start.IsZero() {
		details["uptime_hours"] = math.Round(time.Since(start).Hours()*10) / 10
	}
	return status, details, httpStatus
}

// CalculateNextRefresh estimates when the scheduler will next rebuild the
// engines.
func (c *Checker) CalculateNextRefresh() time.Time {
	return c.provider.LastRefreshed().Add(c.interval)
}
