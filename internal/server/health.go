package server

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/region23/medbook/internal/storage"
	"github.com/region23/medbook/pkg/metrics"
)

const healthPingTimeout = 3 * time.Second

// HealthResponse - ответ GET /health
type HealthResponse struct {
	Status     string            `json:"status"`
	Version    string            `json:"version"`
	CheckedAt  string            `json:"checked_at"`
	Uptime     string            `json:"uptime"`
	Storage    string            `json:"storage"`
	StorageRTT string            `json:"storage_rtt,omitempty"`
	Runtime    map[string]uint64 `json:"runtime"`
}

// HealthChecker отвечает на health check; 503 только при недоступном хранилище
type HealthChecker struct {
	backend storage.Backend
	started time.Time
	version string
}

// NewHealthChecker создает health checker для бэкенда хранения
func NewHealthChecker(backend storage.Backend, version string) *HealthChecker {
	return &HealthChecker{backend: backend, started: time.Now(), version: version}
}

// HealthHandler пингует хранилище и обновляет runtime-метрики
func (h *HealthChecker) HealthHandler(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		CheckedAt: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Storage:   "ok",
		Runtime:   runtimeStats(),
	}

	rtt, err := h.pingStorage(r.Context())
	status := http.StatusOK
	if err != nil {
		resp.Status = "unhealthy"
		resp.Storage = err.Error()
		status = http.StatusServiceUnavailable
	} else if h.backend != nil {
		resp.StorageRTT = rtt.String()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *HealthChecker) pingStorage(ctx context.Context) (time.Duration, error) {
	if h.backend == nil {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()

	start := time.Now()
	err := h.backend.Ping(ctx)
	return time.Since(start), err
}

// runtimeStats снимает показатели рантайма и выставляет соответствующие gauge
func runtimeStats() map[string]uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	goroutines := runtime.NumGoroutine()

	metrics.MemoryUsage.Set(float64(m.Alloc))
	metrics.GoroutinesCount.Set(float64(goroutines))

	return map[string]uint64{
		"alloc_bytes": m.Alloc,
		"num_gc":      uint64(m.NumGC),
		"goroutines":  uint64(goroutines),
	}
}
