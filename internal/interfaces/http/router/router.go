package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/commercehub/backend/internal/infrastructure/logger"
	"github.com/commercehub/backend/internal/interfaces/http/dto"
	"github.com/commercehub/backend/internal/interfaces/http/handler"
	"github.com/commercehub/backend/internal/interfaces/http/middleware"
)

// Handlers bundles the route handlers the router wires up
type Handlers struct {
	Pricing *handler.PricingHandler
	Sync    *handler.SyncHandler
}

// New builds the gin engine with the shared middleware chain and all
// API routes. Tenant resolution applies to the /api/v1 group only;
// health stays unauthenticated for load balancer probes.
func New(log *zap.Logger, handlers Handlers) *gin.Engine {
	dto.RegisterValidations()

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
	)

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api/v1")
	api.Use(middleware.Tenant())

	pricing := api.Group("/pricing")
	{
		pricing.POST("/quote", handlers.Pricing.Quote)
		pricing.POST("/quotes", handlers.Pricing.QuoteBatch)
	}

	sync := api.Group("/sync")
	{
		sync.POST("/jobs", handlers.Sync.CreateJob)
		sync.GET("/jobs/:id", handlers.Sync.GetJob)
		sync.POST("/jobs/:id/retry", handlers.Sync.RetryJob)
	}

	return engine
}
