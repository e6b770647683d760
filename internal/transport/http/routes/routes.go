package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/FernandoZnga/schedula/internal/infra/config"
	"github.com/FernandoZnga/schedula/internal/transport/http/handlers"
	"github.com/FernandoZnga/schedula/internal/transport/http/middleware"
	"github.com/FernandoZnga/schedula/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth          *usecase.AuthService
	Registration  *usecase.RegistrationService
	Users         *usecase.UserService
	PasswordReset *usecase.PasswordResetService
	Activities    *usecase.ActivityService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Metrics     *middleware.HTTPMetrics
	Services    ServiceSet
	Readiness   map[string]handlers.Pinger
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS())
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	authMiddleware := middleware.RequireAuth(deps.Services.Auth)

	healthHandler := handlers.NewHealthHandler(deps.Readiness)
	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Ready)

	if deps.Config.Telemetry.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")

		authHandler := handlers.NewAuthHandler(deps.Services.Auth, deps.Services.Registration)
		authHandler.RegisterRoutes(authGroup, handlers.AuthRouteOptions{
			SignupMiddlewares: buildRateLimit(deps, "auth_signup_ip", deps.Config.RateLimit.RegisterMaxAttempts, time.Hour),
			LoginMiddlewares:  buildRateLimit(deps, "auth_login_ip", deps.Config.RateLimit.LoginMaxAttempts, time.Minute),
		})

		passwordHandler := handlers.NewPasswordHandler(deps.Services.PasswordReset)
		passwordHandler.RegisterRoutes(authGroup, buildRateLimit(deps, "password_reset_ip", deps.Config.RateLimit.PasswordResetMaxAttempts, time.Hour)...)

		profileHandler := handlers.NewProfileHandler(deps.Services.Users)
		userGroup := api.Group("")
		userGroup.Use(authMiddleware)
		profileHandler.RegisterRoutes(userGroup)

		activityHandler := handlers.NewActivityHandler(deps.Services.Activities)
		activityHandler.RegisterRoutes(userGroup)
	}

	return r
}

func buildRateLimit(deps Dependencies, name string, limit int, fallbackWindow time.Duration) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil || limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = fallbackWindow
	}

	rule := middleware.RateLimitRule{
		Name:       name,
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}
