// Command tubeauth-server serves the user account and session endpoints.
//
// Configuration is read from -config (YAML), -env (.env) and the environment,
// in that order of increasing priority.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tubeAuth "github.com/MrEthical07/tubeAuth"
	"github.com/MrEthical07/tubeAuth/credential"
	"github.com/MrEthical07/tubeAuth/credential/mongostore"
	"github.com/MrEthical07/tubeAuth/credential/redisstore"
	"github.com/MrEthical07/tubeAuth/httpapi"
	"github.com/MrEthical07/tubeAuth/internal/config"
	promexport "github.com/MrEthical07/tubeAuth/metrics/export/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func main() {
	var (
		configPath = flag.String("config", "configs/tubeauth.yaml", "path to the YAML config file")
		envPath    = flag.String("env", ".env", "path to the .env file")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath, *envPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if !cfg.ProductionMode {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zc.Level = level
	return zc.Build()
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	builder := tubeAuth.New().
		WithConfig(cfg.EngineConfig()).
		WithCredentialStore(store).
		WithLogger(logger)

	if cfg.AuditEnabled {
		sink, closeSink, err := newAuditSink(cfg, logger)
		if err != nil {
			return err
		}
		defer closeSink()
		builder = builder.WithAuditSink(sink)
	}

	engine, err := builder.Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	logSecurityReport(logger, engine.SecurityReport())

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := promexport.NewPrometheusExporter(engine).Register(reg); err != nil {
		return fmt.Errorf("register engine metrics: %w", err)
	}

	handler, err := httpapi.NewRouter(engine, httpapi.Options{
		Logger:         logger,
		CORSOrigin:     cfg.CORSOrigin,
		Registerer:     reg,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr), zap.String("backend", cfg.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg config.Config) (credential.Store, func(), error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	switch cfg.Backend {
	case config.BackendRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		store := redisstore.New(client, cfg.RedisPrefix)
		if err := store.Ping(connectCtx); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return store, func() { _ = client.Close() }, nil

	default:
		client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		closeFn := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(disconnectCtx)
		}
		store := mongostore.New(client.Database(cfg.MongoDatabase), cfg.MongoCollection)
		if err := store.Ping(connectCtx); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		if err := store.EnsureIndexes(connectCtx); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("mongo indexes: %w", err)
		}
		return store, closeFn, nil
	}
}

// newAuditSink publishes to Kafka when brokers are configured and writes JSON
// lines to stdout otherwise.
func newAuditSink(cfg config.Config, logger *zap.Logger) (tubeAuth.AuditSink, func(), error) {
	if len(cfg.KafkaBrokers) == 0 {
		return tubeAuth.NewJSONWriterSink(os.Stdout), func() {}, nil
	}
	sink, err := tubeAuth.NewKafkaSink(tubeAuth.KafkaConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaTopic,
	}, logger.Named("audit"))
	if err != nil {
		return nil, nil, err
	}
	return sink, func() {
		if err := sink.Close(); err != nil {
			logger.Warn("close audit sink", zap.Error(err))
		}
	}, nil
}

func logSecurityReport(logger *zap.Logger, r tubeAuth.SecurityReport) {
	logger.Info("security posture",
		zap.Bool("production_mode", r.ProductionMode),
		zap.String("signing_algorithm", r.SigningAlgorithm),
		zap.Duration("access_ttl", r.AccessTTL),
		zap.Duration("refresh_ttl", r.RefreshTTL),
		zap.String("password_algorithm", r.Password.Algorithm),
		zap.Bool("audit_enabled", r.AuditEnabled),
		zap.String("cookie_samesite", r.CookieSameSite),
	)
	for _, w := range r.Warnings {
		logger.Warn("security warning", zap.String("warning", w))
	}
}
