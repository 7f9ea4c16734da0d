// Package health provides health checking functionality for the eskulia API.
package health

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/eskulia/eskulia-api/interfaces"
	"github.com/eskulia/eskulia-api/logging"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"

	staleAfter  = 48 * time.Hour
	pingTimeout = 2 * time.Second
)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	store   interfaces.MedicineStore
	status  interfaces.ImportStatus
	nextRun func(time.Time) time.Time
	now     func() time.Time
}

var _ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)

// NewHealthChecker creates a new health checker with injected dependencies.
// nextRun reports the next scheduled import; nil means imports are manual only.
func NewHealthChecker(store interfaces.MedicineStore, status interfaces.ImportStatus, nextRun func(time.Time) time.Time) *HealthCheckerImpl {
	return &HealthCheckerImpl{
		store:   store,
		status:  status,
		nextRun: nextRun,
		now:     time.Now,
	}
}

// HealthCheck classifies the service:
// unhealthy when the store is unreachable or empty, degraded when the data is
// older than 48h, its age is unknown, or the last import failed.
func (h *HealthCheckerImpl) HealthCheck(ctx context.Context) (status string, data map[string]any, httpStatus int) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	lastUpdate := h.status.GetLastUpdated()
	lastError := h.status.GetLastError()
	data = map[string]any{
		"is_updating": h.status.IsUpdating(),
	}
	if !lastUpdate.IsZero() {
		data["last_update"] = lastUpdate.Format(time.RFC3339)
		data["data_age_hours"] = math.Round(h.now().Sub(lastUpdate).Hours()*10) / 10
	}
	if lastError != "" {
		data["last_import_error"] = lastError
	}

	if err := h.store.Ping(ctx); err != nil {
		logging.Error("Health check: store unreachable", "error", err)
		data["store"] = "unreachable"
		return StatusUnhealthy, data, http.StatusServiceUnavailable
	}
	data["store"] = "ok"

	count, err := h.store.Count(ctx)
	if err != nil {
		logging.Error("Health check: count failed", "error", err)
		data["store"] = "unreachable"
		return StatusUnhealthy, data, http.StatusServiceUnavailable
	}
	data["medicines"] = count

	switch {
	case count == 0:
		return StatusUnhealthy, data, http.StatusServiceUnavailable
	case lastError != "":
		return StatusDegraded, data, http.StatusOK
	case lastUpdate.IsZero() || h.now().Sub(lastUpdate) > staleAfter:
		return StatusDegraded, data, http.StatusOK
	default:
		return StatusHealthy, data, http.StatusOK
	}
}

// CalculateNextUpdate returns the next scheduled import time, zero if none is scheduled
func (h *HealthCheckerImpl) CalculateNextUpdate() time.Time {
	if h.nextRun == nil {
		return time.Time{}
	}
	return h.nextRun(h.now())
}
