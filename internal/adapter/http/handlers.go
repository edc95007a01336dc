package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthHandler answers liveness probes. Dependency checks (MySQL, redis,
// the Daraja endpoint) belong to the deployment's readiness probe, not here.
type HealthHandler struct {
	started time.Time
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{started: time.Now().UTC()}
}

func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "loanflow",
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	})
}
