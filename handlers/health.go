package handlers

import (
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"
)

// HealthResponse defines the structure for consistent JSON ordering
type HealthResponse struct {
	Status     string         `json:"status"`
	Uptime     string         `json:"uptime"`
	NextUpdate string         `json:"next_update"`
	Data       map[string]any `json:"data"`
	System     map[string]any `json:"system"`
}

// HealthCheck returns service and data freshness information
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, data, httpStatus := h.health.HealthCheck(r.Context())

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Duration(0)
	if h.status != nil {
		uptime = time.Since(h.status.GetServerStartTime())
	}

	h.RespondWithJSON(w, httpStatus, HealthResponse{
		Status:     status,
		Uptime:     formatUptimeHuman(uptime),
		NextUpdate: h.health.CalculateNextUpdate().Format(time.RFC3339),
		Data:       data,
		System: map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb": int(m.Alloc / 1024 / 1024),
				"sys_mb":   int(m.Sys / 1024 / 1024),
				"num_gc":   m.NumGC,
			},
		},
	})
}

// formatUptimeHuman formats duration into a human-readable string
func formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}
