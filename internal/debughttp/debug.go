package debughttp

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"peoplesync-client/internal/session"
)

// RegisterRoutes wires the local debug surface: liveness, Prometheus
// metrics and, when enabled, a JSON dump of the session state.
func RegisterRoutes(router *gin.Engine, sess *session.Session, debugEnabled bool) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if !debugEnabled {
		return
	}
	router.GET("/debug/session", func(c *gin.Context) {
		c.JSON(http.StatusOK, sess.Snapshot())
	})
}
