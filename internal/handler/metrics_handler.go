package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jlintlin/Grade-Converter/internal/service"
)

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics  *service.MetricsService
	sessions *service.SessionService
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.MetricsService, sessions *service.SessionService) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, sessions: sessions}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health reports session-store state, reaping expired sessions on the
// way, matching the behaviour clients already rely on.
func (h *MetricsHandler) Health(c *gin.Context) {
	if h.sessions == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	stats, err := h.sessions.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	h.metrics.RecordExpiredSessions(stats.ExpiredCleaned)
	c.JSON(http.StatusOK, gin.H{
		"status":          "healthy",
		"active_sessions": stats.ActiveSessions,
		"expired_cleaned": stats.ExpiredCleaned,
	})
}

// Ready responds with a generic OK payload for readiness probes.
func (h *MetricsHandler) Ready(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
