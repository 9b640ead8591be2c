package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/connect-gateway/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, guard *Guard) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(handler.logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		rateLimitMiddleware(cfg.HTTP.RateLimit, handler.logger),
		errorHandlingMiddleware(handler.logger),
	)

	api := router.Group("/api")
	{
		api.GET("/health", handler.Health)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/signin", handler.SignIn)
			authGroup.POST("/signup", handler.SignUp)
			authGroup.POST("/signout", handler.SignOut)
			authGroup.GET("/session", handler.Session)
			authGroup.GET("/oidc/login", handler.OIDCLogin)
			authGroup.GET("/oidc/callback", handler.OIDCCallback)
		}

		collections := api.Group("/collections", guard.RequireSession())
		{
			collections.GET("", handler.ListCollections)
			collections.POST("", handler.CreateCollection)
			collections.GET("/:collectionId", handler.GetCollection)
			collections.PATCH("/:collectionId", handler.UpdateCollection)
			collections.DELETE("/:collectionId", handler.DeleteCollection)
			collections.GET("/:collectionId/documents", handler.ListDocuments)
			collections.POST("/:collectionId/documents", handler.UploadDocuments)
			collections.DELETE("/:collectionId/documents/:documentId", handler.DeleteDocument)
			collections.POST("/:collectionId/documents/search", handler.SearchDocuments)
		}
	}

	// Everything outside /api is a page navigation, protected by default.
	// Unknown /api paths stay JSON: a redirect is useless to an XHR caller.
	router.NoRoute(apiNotFound, guard.Pages(), handler.Page)

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

func apiNotFound(c *gin.Context) {
	if c.Request.URL.Path == "/api" || strings.HasPrefix(c.Request.URL.Path, "/api/") {
		abortWithError(c, NewHTTPError(http.StatusNotFound, "not_found", "unknown api route", nil))
		return
	}
	c.Next()
}
