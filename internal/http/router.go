package http

import (
	nethttp "net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/Abdelrahmans123/SocialApp/internal/config"
	"github.com/Abdelrahmans123/SocialApp/internal/http/handler"
	"github.com/Abdelrahmans123/SocialApp/internal/http/middleware"
	"github.com/Abdelrahmans123/SocialApp/internal/metrics"
)

// NewRouter wires Gin routes and middleware.
func NewRouter(
	cfg config.Config,
	logger *zap.Logger,
	authHandler *handler.AuthHandler,
	postHandler *handler.PostHandler,
	userHandler *handler.UserHandler,
	authMiddleware *middleware.Auth,
	rateLimiter *middleware.RateLimiter,
	collector *metrics.Collector,
) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	if rateLimiter != nil {
		r.Use(rateLimiter.Handler())
	}
	r.Use(middleware.CORS(cfg))
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(collector.Middleware())

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.PATCH("/confirm-email", authHandler.ConfirmEmail)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)
		auth.POST("/logout", authMiddleware.Authenticate, authHandler.Logout)
	}

	posts := api.Group("/posts")
	{
		posts.GET("/", postHandler.List)
		posts.GET("/search", postHandler.Search)
		posts.GET("/trending", postHandler.Trending)
		posts.GET("/author/:authorId", postHandler.ByAuthor)
		posts.GET("/:id", postHandler.Get)

		posts.POST("/create", authMiddleware.Authenticate, postHandler.Create)
		posts.PUT("/:id/update", authMiddleware.Authenticate, postHandler.Update)
		posts.PATCH("/:id/like", authMiddleware.Authenticate, postHandler.ToggleLike)
		posts.POST("/:id/comment", authMiddleware.Authenticate, postHandler.AddComment)
		posts.DELETE("/:id/comment/:commentId", authMiddleware.Authenticate, postHandler.RemoveComment)
		posts.PATCH("/:id/publish", authMiddleware.Authenticate, postHandler.TogglePublish)
		posts.DELETE("/:id/delete", authMiddleware.Authenticate, postHandler.SoftDelete)
		posts.PATCH("/:id/restore", authMiddleware.Authenticate, postHandler.Restore)

		posts.DELETE("/:id/hard-delete", authMiddleware.Authenticate, authMiddleware.RequireAdmin, postHandler.HardDelete)
		posts.POST("/bulk-operations", authMiddleware.Authenticate, authMiddleware.RequireAdmin, postHandler.BulkOperations)
	}

	users := api.Group("/users")
	users.Use(authMiddleware.Authenticate)
	{
		users.GET("/profile/:id", userHandler.Profile)
		users.GET("/search", userHandler.Search)
		users.PATCH("/image", userHandler.UpdateAvatar)
		users.PATCH("/update", userHandler.Update)
		users.DELETE("/freeze-account", userHandler.Freeze)
		users.PATCH("/restore-account", userHandler.Restore)
		users.DELETE("/hard-delete/:id", authMiddleware.RequireAdmin, userHandler.HardDelete)
	}

	r.GET("/metrics", collector.Handler())
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(nethttp.StatusOK, gin.H{"status": "ok"})
	})

	r.NoRoute(func(c *gin.Context) {
		c.JSON(nethttp.StatusNotFound, gin.H{"message": "Route Not Found"})
	})

	return r
}
