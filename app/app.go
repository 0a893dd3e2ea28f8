package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storefront-gateway/app/controller"
	"storefront-gateway/app/middleware"
	"storefront-gateway/app/router"
	"storefront-gateway/cache"
	"storefront-gateway/config"
	"storefront-gateway/db"
	"storefront-gateway/messaging"
	"storefront-gateway/metrics"
	"storefront-gateway/pricing"
	"storefront-gateway/repository"
	"storefront-gateway/service"
)

// App holds the wired gateway and the resources it must release
type App struct {
	Router    *gin.Engine
	Registry  *prometheus.Registry
	database  *sql.DB
	redis     *redis.Client
	publisher messaging.ActivityPublisher
	logger    *zap.Logger
}

// Initialize initializes the application
func Initialize(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	a := &App{logger: logger}

	// Metrics
	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New()
	if err := m.Register(a.Registry); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	// Device storage
	storage, err := a.openStorage(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	// Summary memo
	memo, err := a.openMemo(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	// Activity publisher
	if len(cfg.Kafka.Brokers) > 0 {
		a.publisher = messaging.NewKafkaActivityPublisher(messaging.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			BatchTimeout: cfg.Kafka.BatchTimeout,
		}, logger)
	} else {
		logger.Info("ℹ️ No Kafka brokers configured, activity events are dropped")
		a.publisher = messaging.NoopActivityPublisher{}
	}

	// Services
	api := service.NewCartAPIClient(service.CartAPIConfig{
		BaseURL: cfg.CartAPI.BaseURL,
		APIKey:  cfg.CartAPI.APIKey,
		Timeout: cfg.CartAPI.Timeout,
	}, logger, m)
	sessions := service.NewGuestSessionFactory(storage, api, logger, m)
	resolver := service.NewCartIdentityResolver(sessions)
	hub := service.NewBroadcasterHub()
	carts := service.NewCartService(
		api,
		resolver,
		pricing.NewEngine(cfg.Pricing.Policy()),
		memo,
		hub,
		a.publisher,
		logger,
		m,
		service.CartServiceConfig{
			CurrencySymbol: cfg.Pricing.CurrencySymbol,
			CleanupTimeout: cfg.CartAPI.CleanupTimeout,
		},
	)
	sessionService := service.NewSessionService(sessions, hub, a.publisher, logger, m)

	if cfg.Auth.JWTSecret == "" {
		logger.Warn("⚠️ auth.jwt_secret is not set, bearer tokens are ignored and every shopper is a guest")
	}
	tokens := middleware.NewTokenParser(cfg.Auth.JWTSecret, cfg.Auth.Issuer)

	// Create controllers
	controllers := &router.Controllers{
		Cart:    controller.NewCartController(carts, logger),
		Session: controller.NewSessionController(sessionService),
		Events:  controller.NewEventsController(carts, hub, tokens, cfg.HTTP.AllowedOrigins, logger, m),
	}

	// Setup routes
	a.Router = router.SetupRoutes(controllers, router.Options{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Device: middleware.DeviceOptions{
			CookieName: cfg.Device.CookieName,
			MaxAge:     cfg.Device.CookieMaxAge,
			Secure:     cfg.Device.SecureCookie,
		},
		Tokens:   tokens,
		Logger:   logger,
		Metrics:  m,
		Gatherer: a.Registry,
	})

	return a, nil
}

func (a *App) openStorage(ctx context.Context, cfg config.DatabaseConfig) (repository.DeviceStorageRepositoryInterface, error) {
	dsn := cfg.DSN()
	if dsn == "" {
		a.logger.Warn("⚠️ No database configured, device storage is kept in memory")
		return repository.NewMemoryStorageRepository(), nil
	}

	conn, err := db.Open(ctx, dsn, cfg.MaxOpenConns, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a.database = conn

	if cfg.AutoMigrate {
		if err := db.EnsureSchema(ctx, conn); err != nil {
			conn.Close()
			return nil, err
		}
	}
	return repository.NewDeviceStorageRepository(conn, a.logger), nil
}

func (a *App) openMemo(ctx context.Context, cfg *config.Config) (cache.ViewMemo, error) {
	if cfg.Redis.Addr == "" {
		return cache.NewLocalMemo(cfg.Pricing.MemoSize, cfg.Pricing.MemoTTL), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	a.redis = client
	a.logger.Info("✓ Redis summary memo enabled", zap.String("addr", cfg.Redis.Addr))
	return cache.NewRedisMemo(client, cfg.Pricing.MemoTTL, a.logger), nil
}

// Close releases the database, redis and publisher
func (a *App) Close() error {
	var errs []error
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.database != nil {
		errs = append(errs, a.database.Close())
	}
	return errors.Join(errs...)
}
