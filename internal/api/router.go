package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"biocat_bridge/internal/config"
	"biocat_bridge/internal/device"
	"biocat_bridge/internal/mw"
)

// NewRouter assembles the gin engine: snapshot reads, on-demand statistics
// behind a response cache, rate-limited actions, health and metrics.
func NewRouter(dev *device.Device, cfg config.ServerConfig, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())

	h := NewHandler(dev, logger)

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/state", h.GetState)
		v1.GET("/measurements", h.GetMeasurements)
		v1.GET("/entities", h.GetEntities)
		v1.GET("/diagnostics", h.GetDiagnostics)

		ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
		store := gocache.New(ttl, 2*ttl)

		stats := v1.Group("/statistics")
		stats.Use(mw.Cache(store, ttl))
		{
			stats.GET("/daily", h.GetDailyStatistics)
		}

		act := v1.Group("/actions")
		act.Use(mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst))
		{
			act.POST("/:name", h.PostAction)
		}
	}

	return r
}
