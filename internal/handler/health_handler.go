package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/proctor-backend/internal/response"
)

const probeTimeout = 2 * time.Second

// Probe reports whether one dependency is reachable.
type Probe func(ctx context.Context) error

// HealthHandler reports liveness of the service and its stores.
type HealthHandler struct {
	probes map[string]Probe
}

// NewHealthHandler creates a HealthHandler over named probes.
func NewHealthHandler(probes map[string]Probe) *HealthHandler {
	return &HealthHandler{probes: probes}
}

// Check godoc
// GET /health
// 200 when every probe passes, 503 otherwise.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.probes))
	for name, probe := range h.probes {
		if err := probe(ctx); err != nil {
			deps[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "up"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	response.Success(c, status, gin.H{"status": overall, "dependencies": deps})
}
