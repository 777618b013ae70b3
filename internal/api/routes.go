package api

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/unach-dtic/chatbot-api/internal/api/handlers"
	"github.com/unach-dtic/chatbot-api/internal/cache"
	"github.com/unach-dtic/chatbot-api/internal/config"
	"github.com/unach-dtic/chatbot-api/internal/logging"
	"github.com/unach-dtic/chatbot-api/internal/middleware"
)

// Dependencies carries everything the route tree needs. Optional fields may
// be nil; the affected endpoints then report the dependency as unavailable.
type Dependencies struct {
	Config     *config.Config
	Logger     *logging.StandardLogger
	DB         handlers.HealthChecker
	RedisCheck handlers.HealthChecker

	// RedisClient backs the distributed rate limiter. When nil the limiter
	// falls back to per-process counters.
	RedisClient *redis.Client

	// Responses memoizes resolved answers; nil disables memoization.
	Responses *cache.ResponseCache

	Resolver   handlers.QueryResolver
	Identity   handlers.ContactResolver
	Otp        handlers.OtpIssuer
	Mail       handlers.OtpMailer
	Reset      handlers.PasswordResetter
	FaqCache   handlers.FaqReloader
	Unanswered handlers.UnansweredLister
}

// SetupRoutes registers all middleware and endpoints on the router.
func SetupRoutes(router *gin.Engine, deps Dependencies) {
	router.Use(middleware.CORS(deps.Config.Server.AllowedOrigins))
	router.Use(middleware.TelemetryMiddleware())

	globalLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig(), deps.RedisClient, deps.Logger.Logger())
	router.Use(globalLimiter.Middleware())

	healthHandler := handlers.NewHealthHandler(deps.DB, deps.RedisCheck)
	router.GET("/health", healthHandler.HealthCheck)
	router.HEAD("/health", healthHandler.HealthCheck)

	chatbotHandler := handlers.NewChatbotHandler(deps.Resolver, deps.Responses)
	accountHandler := handlers.NewAccountHandler(deps.Identity, deps.Otp, deps.Mail, deps.Logger)
	resetHandler := handlers.NewResetHandler(deps.Reset)

	otpLimiter := middleware.NewRateLimiter(middleware.OtpRateLimitConfig(), deps.RedisClient, deps.Logger.Logger())

	chatbot := router.Group("/api/chatbot")
	{
		chatbot.POST("/query", chatbotHandler.Query)
		chatbot.POST("/check_account", accountHandler.CheckAccount)
		chatbot.POST("/enviar_otp", otpLimiter.Middleware(), accountHandler.SendOtp)
		chatbot.POST("/verificar_otp", accountHandler.VerifyOtp)
		chatbot.POST("/reset_radius_password", resetHandler.ResetRadiusPassword)
		chatbot.POST("/reset_zoom_password", resetHandler.ResetZoomPassword)
	}

	adminHandler := handlers.NewAdminHandler(deps.FaqCache, deps.Unanswered, deps.Responses)

	admin := router.Group("/api/admin")
	admin.Use(middleware.JWTAuth(deps.Config.Auth.JWTSecret))
	{
		admin.POST("/reload_faq", adminHandler.ReloadFaq)
		admin.GET("/unanswered", adminHandler.ListUnanswered)
	}
}
