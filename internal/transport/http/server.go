package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tramcham/tramcham-server/internal/catalog"
	"github.com/tramcham/tramcham-server/internal/config"
	"github.com/tramcham/tramcham-server/internal/service/messages"
	"github.com/tramcham/tramcham-server/internal/service/reviews"
)

// Services groups the application services exposed over HTTP.
type Services struct {
	Messages *messages.Service
	Reviews  *reviews.Service
	Catalog  *catalog.Catalog
}

// NewServer builds an HTTP server with the storefront API routes.
func NewServer(svc Services, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(svc, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter registers all routes on a fresh gin engine.
func NewRouter(svc Services, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	api := router.Group("/api")

	messageHandlers := NewMessageHandlers(svc.Messages, logger)
	api.POST("/messages", messageHandlers.CreateMessage)
	api.GET("/messages/by-password", messageHandlers.GetMessageByPassword)
	api.GET("/messages/:id", messageHandlers.GetMessage)

	productHandlers := NewProductHandlers(svc.Catalog, logger)
	api.GET("/products", productHandlers.ListProducts)
	api.GET("/products/:id", productHandlers.GetProduct)

	reviewHandlers := NewReviewHandlers(svc.Reviews, logger)
	api.GET("/reviews", reviewHandlers.ListReviews)
	api.POST("/reviews", reviewHandlers.CreateReview)

	return router
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
