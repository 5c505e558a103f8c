package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	coreport "github.com/vendtrack/vending-core/internal/domain/port/core"
	"github.com/vendtrack/vending-core/internal/infrastructure/adapter/api/handler"
	"github.com/vendtrack/vending-core/internal/infrastructure/adapter/api/middleware"
)

// SetupRoutes configures all the routes for the API. Webhook routes are
// outside the authenticated group: providers sign their own callbacks.
func SetupRoutes(
	router *gin.Engine,
	transactionHandler *handler.TransactionHandler,
	collectionHandler *handler.CollectionHandler,
	summaryHandler *handler.SummaryHandler,
	commissionHandler *handler.CommissionHandler,
	webhookHandler *handler.WebhookHandler,
	jwtSecret string,
	logger coreport.Logger,
) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	webhooks := router.Group("/webhooks")
	{
		webhooks.POST("/payme", webhookHandler.Payme)
		webhooks.POST("/click", webhookHandler.Click)
		webhooks.POST("/uzum", webhookHandler.Uzum)
	}

	api := router.Group("/api/v1")
	api.Use(middleware.Auth(jwtSecret, logger))
	{
		transactions := api.Group("/transactions")
		{
			transactions.POST("", transactionHandler.Create)
			transactions.GET("", transactionHandler.List)
			transactions.GET("/:transactionId", transactionHandler.Get)
			transactions.DELETE("/:transactionId", transactionHandler.Delete)
			transactions.POST("/:transactionId/payment", transactionHandler.ProcessPayment)
			transactions.POST("/:transactionId/dispense", transactionHandler.RecordDispense)
			transactions.POST("/:transactionId/refund", transactionHandler.CreateRefund)
			transactions.POST("/:transactionId/cancel", transactionHandler.Cancel)
		}

		collections := api.Group("/collections")
		{
			collections.POST("", collectionHandler.Create)
			collections.GET("", collectionHandler.List)
			collections.GET("/:collectionId", collectionHandler.Get)
			collections.POST("/:collectionId/verify", collectionHandler.Verify)
		}

		summaries := api.Group("/summaries")
		{
			summaries.GET("", summaryHandler.Get)
			summaries.POST("/rebuild", summaryHandler.Rebuild)
		}

		commissions := api.Group("/commissions")
		{
			commissions.POST("/calculate", commissionHandler.Calculate)
			commissions.GET("", commissionHandler.List)
			commissions.GET("/:commissionId", commissionHandler.Get)
			commissions.POST("/:commissionId/pay", commissionHandler.MarkPaid)
			commissions.POST("/:commissionId/cancel", commissionHandler.Cancel)
		}
	}
}

// SetupMiddlewares configures global middlewares for the API
func SetupMiddlewares(router *gin.Engine, logger coreport.Logger, allowOrigins []string) {
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics())
	router.Use(middleware.CORS(allowOrigins))
}
