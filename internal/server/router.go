package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"notely-be/internal/config"
	"notely-be/internal/controllers"
	"notely-be/internal/jwt"
	"notely-be/internal/middleware"
	"notely-be/internal/models"
	"notely-be/internal/service"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Config      *config.Config
	Logger      *zap.Logger
	AuthService service.AuthService
	NoteService service.NoteService
	JWTService  *jwt.JWTService
}

// NewRouter wires middleware, controllers and routes. ctx bounds the
// background cleanup of the rate limiters.
func NewRouter(ctx context.Context, deps Deps) (*gin.Engine, error) {
	cfg := deps.Config
	if err := models.RegisterGinValidators(); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}

	authController := controllers.NewAuthController(deps.AuthService)
	noteController := controllers.NewNoteController(deps.NoteService)
	qrcodeController := controllers.NewQRCodeController(deps.NoteService, cfg.FrontendURL)

	generalRateLimiter := middleware.NewRateLimiter(ctx, "general", rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	authRateLimiter := middleware.NewRateLimiter(ctx, "auth", rate.Limit(cfg.RateLimitAuthRPS), cfg.RateLimitAuthBurst)

	router := gin.New()
	router.Use(
		middleware.RequestIDMiddleware(),
		middleware.Recovery(deps.Logger),
		middleware.RequestLogger(deps.Logger),
		middleware.MetricsMiddleware(),
		middleware.CORSMiddleware(cfg.CORSAllowedOrigin),
		middleware.BodyLimit(cfg.MaxBodyBytes),
	)

	// Health check endpoint (no rate limiting)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.Use(generalRateLimiter.LimitMiddleware())
	{
		auth := api.Group("/auth")
		{
			public := auth.Group("")
			public.Use(authRateLimiter.LimitMiddleware())
			{
				public.POST("/signup", authController.Signup)
				public.POST("/login", authController.Login)
				public.POST("/forgot-password", authController.ForgotPassword)
				public.POST("/verify-otp", authController.VerifyOTP)
				public.POST("/reset-password", authController.ResetPassword)
			}

			account := auth.Group("")
			account.Use(middleware.AuthMiddleware(deps.JWTService))
			{
				account.GET("/me", authController.Me)
				account.PUT("/profile", authController.UpdateProfile)
				account.DELETE("/profile", authController.DeleteProfile)
			}
		}

		// Protected routes - require JWT authentication
		notes := api.Group("/notes")
		notes.Use(middleware.AuthMiddleware(deps.JWTService))
		{
			notes.GET("", noteController.ListNotes)
			notes.POST("", noteController.CreateNote)
			notes.GET("/:id", noteController.GetNote)
			notes.PUT("/:id", noteController.UpdateNote)
			notes.DELETE("/:id", noteController.DeleteNote)
			notes.GET("/:id/qrcode", qrcodeController.GenerateQRCode)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	return router, nil
}
