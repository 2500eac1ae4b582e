// Package router provides assistant service routing.
package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kart-io/rag-assistant/internal/assistant/handler"
	"github.com/kart-io/rag-assistant/internal/assistant/metrics"
	"github.com/kart-io/rag-assistant/internal/pkg/httputils"
	"github.com/kart-io/rag-assistant/internal/pkg/middleware"
	"github.com/kart-io/rag-assistant/pkg/utils/errors"
	"github.com/kart-io/rag-assistant/pkg/utils/response"
)

const healthTimeout = 2 * time.Second

// Pinger is a backend checked by /healthz.
type Pinger interface {
	Name() string
	Ping(ctx context.Context) error
}

// NewEngine creates a gin engine with the service middleware chain.
func NewEngine(mode string) *gin.Engine {
	gin.SetMode(mode)
	engine := gin.New()
	engine.Use(
		httputils.RequestID(),
		middleware.Recovery(),
		middleware.Tracing("/healthz", "/metrics"),
		metrics.GetMetrics().Middleware(),
		middleware.Logger(),
	)
	engine.NoRoute(func(c *gin.Context) {
		httputils.WriteResponse(c, errors.ErrNotFound, nil)
	})
	return engine
}

// Register registers the assistant service routes.
func Register(engine *gin.Engine, assistantHandler *handler.AssistantHandler, indexHandler *handler.IndexHandler, checks ...Pinger) {
	logger.Info("Registering assistant routes...")

	engine.GET("/healthz", health(checks))
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := engine.Group("/v1")
	{
		assistant := v1.Group("/assistant")
		{
			assistant.POST("/ask", assistantHandler.Ask)
			assistant.POST("/feedback", assistantHandler.Feedback)

			assistant.GET("/sessions/:id", assistantHandler.GetSession)
			assistant.DELETE("/sessions/:id", assistantHandler.ClearSession)

			// 监控报表
			assistant.GET("/stats", assistantHandler.Stats)
			assistant.GET("/popular", assistantHandler.Popular)
			assistant.GET("/low-relevance", assistantHandler.LowRelevance)
		}

		index := v1.Group("/index")
		{
			index.POST("/ingest", indexHandler.Ingest)
			index.GET("/count", indexHandler.Count)
			index.DELETE("", indexHandler.Clear)
		}
	}

	logger.Info("HTTP routes registered")
}

func health(checks []Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		components := make(map[string]string, len(checks))
		healthy := true
		for _, check := range checks {
			if err := check.Ping(ctx); err != nil {
				healthy = false
				components[check.Name()] = err.Error()
				logger.Warnw("Health check failed", "component", check.Name(), "error", err.Error())
				continue
			}
			components[check.Name()] = "ok"
		}

		resp := response.Success(gin.H{"status": "ok", "components": components})
		if !healthy {
			resp = response.Success(gin.H{"status": "degraded", "components": components})
			resp.HTTPCode = http.StatusServiceUnavailable
			resp.Message = "degraded"
		}
		httputils.WriteResponse(c, nil, resp)
	}
}
