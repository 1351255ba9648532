package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bleu-ims/materials-service/pkg/healthcheck"
)

func (s *Server) registerHealthRoutes(router *gin.Engine) {
	router.GET("/healthz", s.healthz)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(
		s.recorder.Registry(), promhttp.HandlerOpts{})))
}

// healthz reports the aggregated component health. Unhealthy answers 503 so
// load balancers stop routing here.
func (s *Server) healthz(c *gin.Context) {
	if s.health == nil {
		c.JSON(http.StatusOK, gin.H{"status": healthcheck.StatusHealthy})
		return
	}

	summary := s.health.CheckAll(c.Request.Context())
	statusCode := http.StatusOK
	if summary.OverallStatus == healthcheck.StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, summary)
}
