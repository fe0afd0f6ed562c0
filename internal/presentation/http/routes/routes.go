package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/finman-io/finman-gateway/internal/config"
	domainRepo "github.com/finman-io/finman-gateway/internal/domain/repository"
	"github.com/finman-io/finman-gateway/internal/presentation/http/handler"
	"github.com/finman-io/finman-gateway/internal/presentation/http/middleware"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Receipt *handler.ReceiptHandler
	Draft   *handler.DraftHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		rateLimiter := middleware.NewClientRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: float64(deps.Cfg.RateLimit.Requests) / float64(deps.Cfg.RateLimit.Duration),
			BurstSize:         deps.Cfg.RateLimit.Requests,
			CleanupInterval:   5 * time.Minute,
			EntryTTL:          10 * time.Minute,
		})
		v1.Use(rateLimiter.Middleware())
		v1.Use(middleware.Idempotency(middleware.IdempotencyConfig{
			Repo: deps.IdempotencyRepo,
		}))

		registerReceiptRoutes(v1, h)
		registerDraftRoutes(v1, h)
	}

	return router
}

func registerReceiptRoutes(v1 *gin.RouterGroup, h *Handlers) {
	receipts := v1.Group("/receipts")
	{
		receipts.GET("/email-config", h.Receipt.EmailConfig)
		receipts.GET("/:id", h.Receipt.Get)
		receipts.GET("/:id/actions", h.Receipt.Actions)
		receipts.GET("/:id/download", h.Receipt.Download)
		receipts.POST("/:id/email", h.Receipt.SendEmail)
		receipts.POST("/:id/void", h.Receipt.Void)
	}
}

func registerDraftRoutes(v1 *gin.RouterGroup, h *Handlers) {
	drafts := v1.Group("/drafts")
	{
		drafts.POST("", h.Draft.Create)
		drafts.GET("", h.Draft.List)
		drafts.GET("/:id", h.Draft.Get)
		drafts.DELETE("/:id", h.Draft.Delete)
		drafts.POST("/:id/items", h.Draft.AddItem)
		drafts.PUT("/:id/items/:index", h.Draft.UpdateItem)
		drafts.DELETE("/:id/items/:index", h.Draft.RemoveItem)
		drafts.PUT("/:id/tax", h.Draft.UpdateTax)
		drafts.POST("/:id/submit", h.Draft.Submit)
	}
}
