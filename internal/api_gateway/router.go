package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/amazon-ynab-reconciler/internal/api_gateway/handler"
	"github.com/amazon-ynab-reconciler/internal/api_gateway/middleware"
	"github.com/gin-gonic/gin"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	reconciliationHandler *handler.ReconciliationHandler,
	invoiceHandler *handler.InvoiceHandler,
	previewHandler *handler.PreviewHandler,
) {
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger, "/health"))

	v1 := r.Group("/api/v1")
	{
		reconciliations := v1.Group("/reconciliations")
		{
			reconciliations.POST("", reconciliationHandler.Create)
			reconciliations.GET("/:id", reconciliationHandler.GetByID)
			reconciliations.GET("/:id/report", reconciliationHandler.Report)
		}

		v1.GET("/invoices/:order_id", invoiceHandler.GetByOrderID)
		v1.POST("/preview", previewHandler.Preview)
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
