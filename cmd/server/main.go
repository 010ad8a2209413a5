package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	httpapi "canopy/internal/http"
	jwttoken "canopy/internal/jwt_token"
	"canopy/internal/platform/config"
	"canopy/internal/platform/httpserver"
	"canopy/internal/platform/logger"
	platformmetrics "canopy/internal/platform/metrics"
	"canopy/internal/platform/otel"
	"canopy/internal/platform/postgres"
	platformredis "canopy/internal/platform/redis"
	ratelimitmw "canopy/internal/ratelimit/middleware"
	"canopy/internal/ratelimit/store/bucket"
	"canopy/pkg/platform/audit/publisher/kafka"
	"canopy/pkg/platform/audit/worker"
)

// main wires the four ledger stores behind one HTTP router and runs the
// audit outbox relay next to the server until a signal arrives.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "canopy: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Server.LogFormat, cfg.Server.LogLevel)
	start := time.Now()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("tracing shutdown failed", "error", err)
		}
	}()

	healthChecks := map[string]httpapi.HealthCheck{}

	var stores *ledger
	if cfg.IsPostgres() {
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		healthChecks["postgres"] = db.PingContext
		stores, err = newPostgresLedger(ctx, cfg, db, log, prometheus.DefaultRegisterer)
		if err != nil {
			return err
		}
	} else {
		stores, err = newInMemoryLedger(ctx, cfg, log, prometheus.DefaultRegisterer)
		if err != nil {
			return err
		}
	}
	defer stores.auditPublisher.Close()

	httpMetrics := platformmetrics.New(prometheus.DefaultRegisterer)

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	limiterOpts := []ratelimitmw.Option{
		ratelimitmw.WithDisabled(!cfg.RateLimit.Enabled),
		ratelimitmw.WithObserver(httpMetrics),
	}
	var buckets ratelimitmw.BucketStore = bucket.NewInMemoryBucketStore()
	if redisClient != nil {
		defer redisClient.Close()
		healthChecks["redis"] = redisClient.Health
		limiterOpts = append(limiterOpts, ratelimitmw.WithFallback(buckets))
		buckets = bucket.NewRedisBucketStore(redisClient.Client)
		log.Info("write rate limits shared through redis")
	}
	limiter := ratelimitmw.New(buckets, cfg.RateLimit.Limit, cfg.RateLimit.Window, log, limiterOpts...)

	jwtService := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer)
	router := httpapi.NewRouter(httpapi.Config{
		Logger:         log,
		Validator:      jwttoken.NewJWTServiceAdapter(jwtService),
		RequestTimeout: cfg.Server.RequestTimeout,
		Latency:        httpMetrics,
		WriteLimiter:   limiter.LimitWrites,
		Gatherer:       prometheus.DefaultGatherer,
		HealthChecks:   healthChecks,
	}, stores.handlers(log)...)

	srv := httpserver.New(cfg.Server.Addr, router)
	logStartupDuration(log, start)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting canopy ledger", "addr", cfg.Server.Addr, "storage", cfg.Ledger.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		defer producer.Close()
		if err := producer.EnsureTopic(ctx, 1, 1); err != nil {
			log.Warn("could not ensure audit topic", "topic", cfg.Kafka.Topic, "error", err)
		}
		relay := worker.NewOutboxWorker(stores.auditRelayer, producer,
			worker.WithLogger(log),
			worker.WithInterval(cfg.Kafka.PollInterval),
			worker.WithBatchSize(cfg.Kafka.BatchSize),
		)
		g.Go(func() error { return relay.Run(gctx) })
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// logStartupDuration reports wiring time, migrations included.
func logStartupDuration(log *slog.Logger, start time.Time) {
	log.Info("ledger ready", "startup_ms", time.Since(start).Milliseconds())
}
