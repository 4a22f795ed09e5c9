package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"olo_mining/internal/kv"

	"github.com/gin-gonic/gin"
)

// HealthHandler serves the probes. Readiness is the blob store answering a ping.
type HealthHandler struct {
	store   kv.Store
	backend string
	version string
	started time.Time
}

func NewHealthHandler(store kv.Store, backend, version string) *HealthHandler {
	return &HealthHandler{
		store:   store,
		backend: backend,
		version: version,
		started: time.Now(),
	}
}

type StoreStatus struct {
	Backend string `json:"backend"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency"`
}

type ReadinessResponse struct {
	Status     string      `json:"status"`
	Version    string      `json:"version"`
	Uptime     string      `json:"uptime"`
	Goroutines int         `json:"goroutines"`
	Store      StoreStatus `json:"store"`
}

func (h *HealthHandler) probe(ctx context.Context, timeout time.Duration) StoreStatus {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := h.store.Ping(ctx)
	st := StoreStatus{
		Backend: h.backend,
		OK:      err == nil,
		Latency: time.Since(start).Round(time.Microsecond).String(),
	}
	if err != nil {
		st.Error = err.Error()
	}
	return st
}

// Liveness only says the process is serving.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readiness(c *gin.Context) {
	st := h.probe(c.Request.Context(), 5*time.Second)

	resp := ReadinessResponse{
		Status:     "ready",
		Version:    h.version,
		Uptime:     time.Since(h.started).Round(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
		Store:      st,
	}
	code := http.StatusOK
	if !st.OK {
		resp.Status = "not_ready"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}

func (h *HealthHandler) Health(c *gin.Context) {
	if st := h.probe(c.Request.Context(), 3*time.Second); !st.OK {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "store": st.Backend})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": h.version})
}
