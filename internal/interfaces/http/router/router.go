package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	appsales "github.com/comercia/backend/internal/application/sales"
	"github.com/comercia/backend/internal/infrastructure/auth"
	"github.com/comercia/backend/internal/infrastructure/cache"
	"github.com/comercia/backend/internal/infrastructure/config"
	"github.com/comercia/backend/internal/infrastructure/logger"
	"github.com/comercia/backend/internal/infrastructure/metrics"
	"github.com/comercia/backend/internal/infrastructure/persistence"
	"github.com/comercia/backend/internal/interfaces/http/handler"
	"github.com/comercia/backend/internal/interfaces/http/middleware"
)

// Dependencies carries everything the HTTP surface needs
type Dependencies struct {
	Config           *config.Config
	Logger           *zap.Logger
	DB               *persistence.Database
	SaleService      *appsales.Service
	JWTService       *auth.JWTService
	IdempotencyStore cache.IdempotencyStore
	Registry         *prometheus.Registry
	HTTPMetrics      *metrics.HTTPMetrics
}

// New builds the gin engine with the full middleware chain and all routes
func New(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(deps.Logger))
	engine.Use(logger.GinMiddleware(deps.Logger))
	if deps.HTTPMetrics != nil {
		engine.Use(deps.HTTPMetrics.Middleware())
	}

	corsConfig := middleware.DefaultCORSConfig()
	if len(deps.Config.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = deps.Config.HTTP.CORSAllowOrigins
	}
	if len(deps.Config.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = deps.Config.HTTP.CORSAllowMethods
	}
	if len(deps.Config.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = deps.Config.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	systemHandler := handler.NewSystemHandler(deps.DB, deps.Config.App.Version)
	engine.GET("/health", systemHandler.Health)
	if deps.Registry != nil {
		engine.GET("/metrics", gin.WrapH(metrics.Handler(deps.Registry)))
	}

	api := engine.Group("/api/v1")
	if deps.JWTService != nil {
		jwtConfig := middleware.DefaultJWTConfig(deps.JWTService)
		jwtConfig.Logger = deps.Logger
		api.Use(middleware.JWTAuthWithConfig(jwtConfig))
	}

	saleHandler := handler.NewSaleHandler(deps.SaleService)
	alertHandler := handler.NewAlertHandler(deps.SaleService)
	movementHandler := handler.NewMovementHandler(deps.SaleService)

	sales := api.Group("/sales")
	if deps.IdempotencyStore != nil {
		sales.POST("",
			middleware.Idempotency(deps.IdempotencyStore, deps.Config.Sale.IdempotencyTTL, deps.Logger),
			saleHandler.Create)
	} else {
		sales.POST("", saleHandler.Create)
	}
	sales.GET("", saleHandler.List)
	sales.GET("/:id", saleHandler.Get)
	sales.DELETE("/:id", saleHandler.Cancel)

	api.GET("/alerts", alertHandler.List)
	api.GET("/products/:id/movements", movementHandler.ListByProduct)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": gin.H{
			"code":    "NOT_FOUND",
			"message": "Route not found",
		}})
	})

	return engine
}
