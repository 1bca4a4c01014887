package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mailpress/mailpress/internal/models"
	"github.com/mailpress/mailpress/interfaces"
)

// HealthCheck provides a simple health check endpoint
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Status returns the last ingestion run report, if any.
func Status(lastReport func() *models.RunReport) gin.HandlerFunc {
	return func(c *gin.Context) {
		report := lastReport()
		if report == nil {
			c.JSON(http.StatusOK, gin.H{
				"last_run": nil,
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"last_run": report,
		})
	}
}

// TriggerRun starts an ingestion run on demand and returns its report.
func TriggerRun(pipeline interfaces.PipelineService, store func(*models.RunReport)) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := pipeline.Run(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{
				"error": err.Error(),
			})
			return
		}
		store(report)
		c.JSON(http.StatusOK, report)
	}
}
