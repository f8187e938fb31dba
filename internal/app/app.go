package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/lelekart/variantmatrix/internal/config"
	"github.com/lelekart/variantmatrix/internal/event"
	handler "github.com/lelekart/variantmatrix/internal/handler/http"
	"github.com/lelekart/variantmatrix/internal/matrix"
	"github.com/lelekart/variantmatrix/internal/metrics"
	"github.com/lelekart/variantmatrix/internal/repository"
	"github.com/lelekart/variantmatrix/internal/repository/memory"
	"github.com/lelekart/variantmatrix/internal/repository/postgres"
	redisrepo "github.com/lelekart/variantmatrix/internal/repository/redis"
	"github.com/lelekart/variantmatrix/internal/service"
	"github.com/lelekart/variantmatrix/internal/uploader"
	"github.com/lelekart/variantmatrix/migrations"
	"github.com/lelekart/variantmatrix/pkg/database"
	"github.com/lelekart/variantmatrix/pkg/health"
	"github.com/lelekart/variantmatrix/pkg/httpclient"
	pkgkafka "github.com/lelekart/variantmatrix/pkg/kafka"
	"github.com/lelekart/variantmatrix/pkg/middleware"
	"github.com/lelekart/variantmatrix/pkg/tracing"
)

// App wires together all dependencies and runs the variant service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	dlq            *pkgkafka.DLQProducer
	productDeleted *pkgkafka.Consumer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.closeResources()
		}
	}()

	// Initialize OpenTelemetry tracing.
	a.tracerShutdown, err = tracing.InitTracer(ctx, cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Initialize PostgreSQL connection pool.
	pgCfg := cfg.Postgres()
	a.pool, err = database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	if err := database.RegisterPoolMetrics(reg, a.pool, config.ServiceName); err != nil {
		return nil, err
	}

	// Run database migrations.
	if err := database.RunMigrations(ctx, a.pool, migrations.FS, logger); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	if threshold := cfg.SlowQueryThreshold(); threshold > 0 {
		database.SetSlowQueryLogging(threshold, logger)
	}

	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", health.PingChecker(a.pool))

	// Draft storage and consumer idempotency share Redis when it is used.
	var (
		drafts      repository.DraftRepository
		idempotency pkgkafka.IdempotencyStore
	)
	switch cfg.DraftStore {
	case config.DraftStoreRedis:
		a.rdb, err = database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to Redis",
			slog.String("addr", cfg.Redis().Addr()),
			slog.Int("db", cfg.RedisDB),
		)
		drafts = redisrepo.NewDraftRepository(a.rdb, cfg.DraftTTL())
		idempotency = pkgkafka.NewRedisIdempotencyStore(a.rdb, "variant:events:", 24*time.Hour)
	default:
		logger.Warn("drafts are kept in memory and will not survive a restart")
		drafts = memory.NewDraftRepository(cfg.DraftTTL())
		idempotency = pkgkafka.NewMemoryIdempotencyStore(24 * time.Hour)
	}
	healthHandler.Register("drafts", health.PingChecker(drafts))

	// Initialize Kafka producer with connection validation and retry.
	kafkaMetrics, err := pkgkafka.NewMetrics(reg)
	if err != nil {
		return nil, err
	}
	a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), kafkaMetrics, logger)
	if err := pingKafkaWithRetry(ctx, a.producer, logger); err != nil {
		logger.Warn("kafka producer ping failed after retries, continuing in degraded mode",
			slog.String("error", err.Error()),
		)
	} else {
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}
	healthHandler.Register("kafka", a.producer.Ping)

	// Media uploads go to the media service when it is configured.
	var (
		up    uploader.Uploader
		media http.Handler
	)
	if cfg.MediaUploadURL != "" {
		breakerMetrics, err := httpclient.NewBreakerMetrics(reg)
		if err != nil {
			return nil, err
		}
		client := httpclient.NewCircuitBreakerClient(
			httpclient.New(cfg.MediaClient()),
			httpclient.DefaultCircuitBreakerConfig("media-upload"),
			breakerMetrics,
			logger,
		)
		up = uploader.NewHTTPUploader(client, cfg.MediaUploadURL)
		logger.Info("media uploads via media service", slog.String("endpoint", cfg.MediaUploadURL))
	} else {
		store := uploader.NewMemoryUploader(cfg.MediaBaseURL)
		up = store
		media = handler.NewMediaHandler(store, cfg.MediaBaseURL)
		logger.Warn("media uploads are kept in memory", slog.String("base_url", cfg.MediaBaseURL))
	}

	// Build the dependency graph.
	serviceMetrics, err := metrics.New(reg)
	if err != nil {
		return nil, err
	}
	variantRepo := postgres.NewVariantRepository(a.pool, logger)
	eventProducer := event.NewProducer(a.producer, logger)

	draftService := service.NewDraftService(drafts, variantRepo, up, eventProducer, serviceMetrics, logger, service.DraftConfig{
		DraftTTL:    cfg.DraftTTL(),
		UploadLease: cfg.UploadLease(),
		Materializer: matrix.Materializer{
			PlaceholderBaseURL: cfg.PlaceholderBaseURL,
			SKUFallback:        cfg.SKUFallbackPrefix,
		},
	})
	variantService := service.NewVariantService(variantRepo, serviceMetrics, logger)

	// Remove saved variants when their product is deleted.
	a.dlq = pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)
	eventConsumer := event.NewConsumer(variantService, logger)
	a.productDeleted = pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
		Brokers:      cfg.KafkaBrokers,
		GroupID:      cfg.KafkaConsumerGroup,
		Topic:        event.TopicProductDeleted,
		MinBytes:     1,
		MaxBytes:     10e6,
		MaxRetries:   3,
		RetryBackoff: time.Second,
	}, eventConsumer.Handle, logger,
		pkgkafka.WithDLQ(a.dlq),
		pkgkafka.WithIdempotency(idempotency),
		pkgkafka.WithMetrics(kafkaMetrics),
	)

	// HTTP router.
	httpMetrics, err := middleware.NewHTTPMetrics(reg, config.ServiceName)
	if err != nil {
		return nil, err
	}
	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins

	uploadTimeout := cfg.UploadTimeout()*handler.MaxUploadFiles + 30*time.Second
	router := handler.NewRouter(draftService, variantService, handler.RouterConfig{
		ServiceName:    config.ServiceName,
		Health:         healthHandler,
		Metrics:        httpMetrics,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Media:          media,
		CORS:           cors,
		RequestTimeout: 30 * time.Second,
		UploadTimeout:  uploadTimeout,
		UploadLimit:    cfg.UploadRateLimit(),
	}, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      uploadTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// Run starts the HTTP server and the Kafka consumer, then blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	// Start HTTP server.
	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	// Start Kafka consumer.
	go func() {
		if err := a.productDeleted.Start(ctx); err != nil {
			errCh <- fmt.Errorf("product deleted consumer: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans from drained requests)
// 3. Kafka consumer, DLQ and producer
// 4. Redis client and PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.productDeleted != nil {
		if err := a.productDeleted.Close(); err != nil {
			a.logger.Error("product deleted consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	errs = append(errs, a.closeResources()...)

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// closeResources releases the clients opened by NewApp. It is safe on a
// partially built App.
func (a *App) closeResources() []error {
	var errs []error
	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			a.logger.Error("kafka dlq producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	return errs
}

// pingKafkaWithRetry attempts to ping the Kafka producer with exponential
// backoff (3 attempts, 1s/2s/4s with ±25% jitter).
func pingKafkaWithRetry(ctx context.Context, producer *pkgkafka.Producer, logger *slog.Logger) error {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if lastErr = producer.Ping(ctx); lastErr == nil {
			return nil
		}
		if attempt == 2 {
			break
		}

		base := time.Duration(1<<uint(attempt)) * time.Second
		jitter := time.Duration(float64(base) * 0.25 * (2*rand.Float64() - 1)) // #nosec G404 -- retry jitter
		wait := base + jitter
		logger.Warn("kafka producer ping failed, retrying",
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", wait),
			slog.String("error", lastErr.Error()),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("kafka ping: context canceled during retry: %w", ctx.Err())
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("kafka producer ping failed after 3 attempts: %w", lastErr)
}
