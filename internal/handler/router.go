package handler

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/Baaaki/yamdb/internal/config"
	"github.com/Baaaki/yamdb/internal/metrics"
	"github.com/Baaaki/yamdb/internal/middleware"
	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps is everything the router needs. RateLimiter and Metrics may be nil.
type Deps struct {
	Config      *config.Config
	DB          *gorm.DB
	Auth        *service.AuthService
	Users       *service.UserService
	Categories  *service.TaxonomyService[models.Category]
	Genres      *service.TaxonomyService[models.Genre]
	Titles      *service.TitleService
	Reviews     *service.ReviewService
	Comments    *service.CommentService
	Metrics     *metrics.Metrics
	RateLimiter *middleware.RateLimiter
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// NewRouter builds the HTTP API.
func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(
		middleware.RequestLogger(),
		middleware.Recovery(),
		cors.New(corsConfig(d.Config.CORSAllowedOrigins)),
		middleware.SecurityHeadersMiddleware(),
		middleware.HSTSMiddleware(d.Config.IsProduction()),
	)
	if d.Metrics != nil {
		router.Use(d.Metrics.Middleware())
		router.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}
	router.GET("/healthz", health(d.DB))

	pageSize := d.Config.PageSize

	authHandler := NewAuthHandler(d.Auth, d.Metrics)
	userHandler := NewUserHandler(d.Users, pageSize)
	categoryHandler := NewTaxonomyHandler(d.Categories, pageSize)
	genreHandler := NewTaxonomyHandler(d.Genres, pageSize)
	titleHandler := NewTitleHandler(d.Titles, pageSize)
	reviewHandler := NewReviewHandler(d.Reviews, d.Metrics, pageSize)
	commentHandler := NewCommentHandler(d.Comments, d.Metrics, pageSize)

	api := router.Group("/api/v1")

	auth := api.Group("/auth")
	if d.RateLimiter != nil {
		auth.Use(d.RateLimiter.Middleware())
	}
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/token", authHandler.Token)
	}

	// Everything else accepts an optional bearer token; services decide access.
	protected := api.Group("")
	protected.Use(middleware.Authenticate(d.Auth))
	{
		protected.GET("/users", userHandler.List)
		protected.POST("/users", userHandler.Create)
		protected.GET("/users/:username", userHandler.Get)
		protected.PATCH("/users/:username", userHandler.Update)
		protected.DELETE("/users/:username", userHandler.Delete)

		protected.GET("/categories", categoryHandler.List)
		protected.POST("/categories", categoryHandler.Create)
		protected.PATCH("/categories/:slug", categoryHandler.Rename)
		protected.DELETE("/categories/:slug", categoryHandler.Delete)

		protected.GET("/genres", genreHandler.List)
		protected.POST("/genres", genreHandler.Create)
		protected.PATCH("/genres/:slug", genreHandler.Rename)
		protected.DELETE("/genres/:slug", genreHandler.Delete)

		protected.GET("/titles", titleHandler.List)
		protected.POST("/titles", titleHandler.Create)
		protected.GET("/titles/:title_id", titleHandler.Get)
		protected.PATCH("/titles/:title_id", titleHandler.Update)
		protected.DELETE("/titles/:title_id", titleHandler.Delete)

		reviews := protected.Group("/titles/:title_id/reviews")
		reviews.GET("", reviewHandler.List)
		reviews.POST("", reviewHandler.Create)
		reviews.GET("/:review_id", reviewHandler.Get)
		reviews.PATCH("/:review_id", reviewHandler.Update)
		reviews.DELETE("/:review_id", reviewHandler.Delete)

		comments := reviews.Group("/:review_id/comments")
		comments.GET("", commentHandler.List)
		comments.POST("", commentHandler.Create)
		comments.GET("/:comment_id", commentHandler.Get)
		comments.PATCH("/:comment_id", commentHandler.Update)
		comments.DELETE("/:comment_id", commentHandler.Delete)
	}

	return router
}

func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(ctx)
			}
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
