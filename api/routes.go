package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/mailpress/mailpress/api/handlers"
	"github.com/mailpress/mailpress/api/middleware"
	"github.com/mailpress/mailpress/internal/models"
	"github.com/mailpress/mailpress/internal/tracing"
	"github.com/mailpress/mailpress/services"
)

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(ctx context.Context, r *gin.Engine, s *services.Services, apikey string, lastReport func() *models.RunReport, storeReport func(*models.RunReport)) {
	if s == nil {
		panic("Services cannot be nil")
	}

	// Add recovery middlewares
	r.Use(gin.Recovery())
	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer()))

	apiKeyMiddleware := middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		HeaderName:  "X-MAILPRESS-API-KEY",
		ValidAPIKey: apikey,
	})

	// Health check stays open; the status report carries sender
	// addresses and subjects, so it is key-guarded like the rest of
	// the API.
	r.GET("/health", handlers.HealthCheck)
	r.GET("/status", apiKeyMiddleware, handlers.Status(lastReport))

	// API group with version
	api := r.Group("/v1")
	api.Use(apiKeyMiddleware)
	api.Use(tracing.TracingEnhancer(ctx, "api"))
	{
		api.POST("/runs", handlers.TriggerRun(s.PipelineService, storeReport))
	}
}
