package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/returnsapi/internal/api/handlers"
	"github.com/jafarshop/returnsapi/internal/api/middleware"
	"github.com/jafarshop/returnsapi/internal/config"
	"github.com/jafarshop/returnsapi/internal/repository"
	"github.com/jafarshop/returnsapi/internal/service"
)

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, repos *repository.Repositories, services *service.Services, logger *zap.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware(logger))
	if len(cfg.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.CORSOrigins,
			AllowMethods:  []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.CustomerIDHeader, middleware.IdempotencyKeyHeader},
			ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
			MaxAge:        time.Hour,
		}))
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1")
	{
		// Customer routes; identity comes from the storefront gateway
		customerRoutes := v1.Group("")
		customerRoutes.Use(middleware.CustomerMiddleware())
		{
			customerRoutes.GET("/orders/:id/return-eligibility", handlers.HandleCheckEligibility(repos, services, logger))
			customerRoutes.POST("/returns", middleware.IdempotencyMiddleware(), handlers.HandleCreateReturn(services, logger))
			customerRoutes.GET("/returns", handlers.HandleListMyReturns(services, logger))
			customerRoutes.GET("/returns/:id", handlers.HandleGetMyReturn(services, logger))
			customerRoutes.POST("/returns/:id/ship", handlers.HandleShipReturn(services, logger))
			customerRoutes.POST("/returns/:id/cancel", handlers.HandleCancelReturn(services, logger))
		}

		adminRoutes := v1.Group("/admin")
		adminRoutes.Use(middleware.OperatorAuthMiddleware(repos, logger))
		{
			adminRoutes.GET("/returns", handlers.HandleAdminListReturns(services, logger))
			adminRoutes.GET("/returns/:id", handlers.HandleAdminGetReturn(services, logger))
			adminRoutes.GET("/returns/:id/history", handlers.HandleGetReturnHistory(services, logger))
			adminRoutes.PUT("/returns/:id/address", handlers.HandleUpdateReturnAddress(services, logger))
			adminRoutes.POST("/returns/:id/receive", handlers.HandleMarkReceived(services, logger))
			adminRoutes.POST("/returns/:id/inspection/start", handlers.HandleStartInspection(services, logger))
			adminRoutes.POST("/returns/:id/inspection", handlers.HandleCompleteInspection(services, logger))
			adminRoutes.POST("/returns/:id/inspection/preview", handlers.HandlePreviewRefund(services, logger))
			adminRoutes.POST("/returns/:id/refund", handlers.HandleInitiateRefund(services, logger))
			adminRoutes.POST("/returns/:id/refund/confirm", handlers.HandleConfirmRefund(services, logger))
			adminRoutes.POST("/returns/:id/notify", handlers.HandleSendNotification(services, logger))
			adminRoutes.POST("/returns/:id/notes", handlers.HandleAddAdminNote(services, logger))
		}
	}

	return router
}
