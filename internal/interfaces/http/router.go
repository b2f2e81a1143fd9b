// Package http wires the gin engine, middleware, and route table, and owns
// the HTTP server lifecycle.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openbaseline/compliance/internal/config"
	"github.com/openbaseline/compliance/internal/interfaces/http/handlers"
	"github.com/openbaseline/compliance/internal/interfaces/http/middleware"
	"github.com/openbaseline/compliance/pkg/logger"
)

// Router owns the gin engine and the HTTP server.
type Router struct {
	engine         *gin.Engine
	config         *config.Config
	logger         logger.Logger
	healthHandler  *handlers.HealthHandler
	profileHandler *handlers.ProfileHandler
	resultHandler  *handlers.ResultHandler
	server         *http.Server
}

// NewRouter creates the router.
func NewRouter(
	cfg *config.Config,
	log logger.Logger,
	healthHandler *handlers.HealthHandler,
	profileHandler *handlers.ProfileHandler,
	resultHandler *handlers.ResultHandler,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	return &Router{
		engine:         gin.New(),
		config:         cfg,
		logger:         log,
		healthHandler:  healthHandler,
		profileHandler: profileHandler,
		resultHandler:  resultHandler,
	}
}

// SetupRoutes installs middleware and the route table.
func (r *Router) SetupRoutes() {
	r.engine.Use(gin.Recovery())
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.RequestLogger(r.logger))
	r.engine.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	r.engine.GET("/live", r.healthHandler.Liveness)
	r.engine.GET("/ready", r.healthHandler.Readiness)
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if r.config.Server.EnablePprof {
		pprof.Register(r.engine)
	}

	v1 := r.engine.Group("/api/v1")
	{
		profiles := v1.Group("/profiles")
		{
			profiles.POST("", r.profileHandler.CreateProfile)
			profiles.PATCH("/:profile_id/rules", r.profileHandler.UpdateRules)
			profiles.GET("/:profile_id/tailoring", r.profileHandler.GetTailoringDelta)
			profiles.GET("/:profile_id/tailoring_file", r.profileHandler.GetTailoringFile)
			profiles.PUT("/:profile_id/os_minor_version", r.profileHandler.SetOSMinorVersion)
		}

		policies := v1.Group("/policies")
		{
			policies.PUT("/:policy_id/business_objective", r.profileHandler.SetBusinessObjective)
			policies.POST("/:policy_id/recompute", r.resultHandler.RecomputePolicy)
		}

		results := v1.Group("/test_results")
		{
			results.POST("", r.resultHandler.IngestResult)
			results.DELETE("/:result_id", r.resultHandler.DeleteResult)
		}
	}

	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "the requested resource was not found",
		})
	})
}

// Start runs the HTTP server. It blocks until the server stops.
func (r *Router) Start() error {
	r.SetupRoutes()

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	r.server = &http.Server{
		Addr:           addr,
		Handler:        r.engine,
		ReadTimeout:    time.Duration(r.config.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(r.config.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	r.logger.Info(context.Background(), "Starting HTTP server", logger.Fields{"address": addr})

	if err := r.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the HTTP server down gracefully.
func (r *Router) Stop(ctx context.Context) error {
	if r.server == nil {
		return nil
	}
	r.logger.Info(ctx, "Stopping HTTP server")
	return r.server.Shutdown(ctx)
}
