package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/FernandoZnga/schedula/internal/core/port"
	"github.com/FernandoZnga/schedula/internal/infra/config"
	"github.com/FernandoZnga/schedula/internal/infra/database"
	kafkainfra "github.com/FernandoZnga/schedula/internal/infra/kafka"
	"github.com/FernandoZnga/schedula/internal/infra/logger"
	"github.com/FernandoZnga/schedula/internal/infra/mail"
	redisinfra "github.com/FernandoZnga/schedula/internal/infra/redis"
	"github.com/FernandoZnga/schedula/internal/infra/security"
	postgresrepo "github.com/FernandoZnga/schedula/internal/repository/postgres"
	redisrepo "github.com/FernandoZnga/schedula/internal/repository/redis"
	"github.com/FernandoZnga/schedula/internal/transport/http/handlers"
	"github.com/FernandoZnga/schedula/internal/transport/http/middleware"
	"github.com/FernandoZnga/schedula/internal/transport/http/routes"
	"github.com/FernandoZnga/schedula/internal/usecase"
)

// Application bundles the HTTP engine with the resources it owns.
type Application struct {
	cfg    *config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
	pool   *pgxpool.Pool
	redis  *redisinfra.Client
	kafka  *kafkainfra.Producer
}

// New builds the full object graph from configuration.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	if err := database.RunMigrations(cfg.Postgres); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	keyProvider, err := security.NewKeyProvider(cfg.App.Env, cfg.JWT.KeyDirectory)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init key provider: %w", err)
	}
	jwtManager := security.NewJWTManager(keyProvider, cfg.JWT.Issuer)

	app := &Application{cfg: cfg, logger: log, pool: pool}

	var rateLimiter *middleware.RateLimiter
	readiness := map[string]handlers.Pinger{"database": pool}

	if cfg.Redis.Host != "" {
		redisClient, err := redisinfra.NewClient(cfg.Redis, log)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("init redis: %w", err)
		}
		app.redis = redisClient
		readiness["redis"] = pingerFunc(redisClient.HealthCheck)

		rateLimitWindow := cfg.RateLimit.WindowDuration
		if rateLimitWindow <= 0 {
			rateLimitWindow = time.Minute
		}
		rateLimitStore := redisrepo.NewRateLimitRepository(redisClient.Client(), redisrepo.SlidingWindowConfig{
			KeyPrefix: cfg.Redis.RateLimitPrefix,
			TTL:       rateLimitWindow * 2,
		})
		rateLimiter = middleware.NewRateLimiter(rateLimitStore, log)
	} else {
		log.Info("redis not configured, rate limiting disabled")
	}

	eventPublisher := app.buildEventPublisher(log)

	var mailer port.Mailer
	if cfg.Mail.Host != "" {
		mailer = mail.NewSMTPMailer(cfg.Mail)
	} else {
		log.Info("smtp not configured, mail delivery degrades to logging")
		mailer = mail.NewLoggingMailer(log)
	}

	passwordValidator := security.DefaultPasswordValidator()
	if cfg.Security.PasswordMinScore > 0 {
		passwordValidator = passwordValidator.WithRule(
			security.RequirePasswordStrengthRule(cfg.Security.PasswordMinScore),
		)
	}

	repos := postgresrepo.NewRepositories(pool)

	authService := usecase.NewAuthService(cfg, repos.Users, repos.Tokens, jwtManager)
	registrationService := usecase.NewRegistrationService(
		repos.Users, repos.Tokens, repos.Tx, mailer, eventPublisher,
		passwordValidator, cfg.Tokens.ConfirmEmailTTL, cfg.App.BaseURL, log,
	)
	passwordResetService := usecase.NewPasswordResetService(
		repos.Users, repos.Tokens, repos.Tx, mailer, eventPublisher,
		passwordValidator, cfg.Tokens.PasswordResetTTL, cfg.App.BaseURL, log,
	)
	userService := usecase.NewUserService(repos.Users)
	activityService := usecase.NewActivityService(repos.Activities, eventPublisher, log)

	var metrics *middleware.HTTPMetrics
	if cfg.Telemetry.MetricsEnabled {
		metrics, err = middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
		if err != nil {
			app.closeResources()
			return nil, fmt.Errorf("init metrics: %w", err)
		}
	}

	app.engine = routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		Metrics:     metrics,
		Readiness:   readiness,
		Services: routes.ServiceSet{
			Auth:          authService,
			Registration:  registrationService,
			Users:         userService,
			PasswordReset: passwordResetService,
			Activities:    activityService,
		},
	})

	return app, nil
}

func (a *Application) buildEventPublisher(log *zap.Logger) port.EventPublisher {
	if !a.cfg.Kafka.Enabled || len(a.cfg.Kafka.Brokers) == 0 {
		log.Info("kafka not configured, using stub publisher")
		return kafkainfra.NewStubPublisher(log)
	}

	producer, err := kafkainfra.NewProducer(a.cfg.Kafka, log)
	if err != nil {
		log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
		return kafkainfra.NewStubPublisher(log)
	}
	a.kafka = producer
	return kafkainfra.NewEventPublisher(producer, a.cfg.App, log)
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer a.closeResources()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting schedula API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}

func (a *Application) closeResources() {
	if a.kafka != nil {
		if err := a.kafka.Close(); err != nil {
			a.logger.Warn("close kafka producer", zap.Error(err))
		}
		a.kafka = nil
	}
	if a.redis != nil {
		_ = a.redis.Close()
		a.redis = nil
	}
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}
