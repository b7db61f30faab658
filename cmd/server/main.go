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

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/subsplit/internal/auth"
	"github.com/mmynk/subsplit/internal/config"
	"github.com/mmynk/subsplit/internal/ledger"
	"github.com/mmynk/subsplit/internal/metrics"
	"github.com/mmynk/subsplit/internal/middleware"
	"github.com/mmynk/subsplit/internal/service"
	"github.com/mmynk/subsplit/internal/storage"
	"github.com/mmynk/subsplit/internal/storage/jsonfile"
	"github.com/mmynk/subsplit/internal/storage/redis"
	"github.com/mmynk/subsplit/internal/storage/s3"
	"github.com/mmynk/subsplit/internal/storage/sqlite"
	"github.com/mmynk/subsplit/pkg/api/apiconnect"
	"github.com/mmynk/subsplit/pkg/logging"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid config", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	rawStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer rawStore.Close()
	slog.Info("Storage initialized", "driver", cfg.StoreDriver)

	l, err := ledger.Open(ctx, m.InstrumentStore(rawStore))
	if err != nil {
		return err
	}
	metrics.RegisterLedgerGauges(reg, l.Stats)
	for _, sub := range l.Dump() {
		slog.Debug("Subscription",
			"subscription_key", sub.Key,
			"group_id", sub.GroupID,
			"name", sub.Name,
			"members", sub.Members,
			"cost_per_person", sub.CostPerPerson.String(),
		)
	}

	verifier, err := auth.NewAPIKeyVerifier(cfg.APIKeyHash)
	if err != nil {
		return err
	}
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	mux := http.NewServeMux()

	// The first interceptor is the outermost: metrics see every call,
	// and logging runs after auth has populated the caller.
	ledgerPath, ledgerHandler := apiconnect.NewLedgerServiceHandler(
		service.NewLedgerService(l),
		connect.WithInterceptors(
			m.Interceptor(),
			middleware.RequireAuth(jwtManager),
			middleware.LoggingInterceptor(),
		),
	)
	mux.Handle(ledgerPath, ledgerHandler)

	authPath, authHandler := apiconnect.NewAuthServiceHandler(
		service.NewAuthService(verifier, jwtManager, logger),
		connect.WithInterceptors(m.Interceptor(), middleware.LoggingInterceptor()),
	)
	mux.Handle(authPath, authHandler)

	mux.Handle("/metrics", metrics.Handler(reg))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	crs := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodPost, http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "Connect-Protocol-Version", "Connect-Timeout-Ms"},
		ExposedHeaders: []string{"Connect-Protocol-Version", "Connect-Timeout-Ms"},
	})

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	handler := h2c.NewHandler(middleware.HTTPLogging(crs.Handler(mux)), &http2.Server{})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", srv.Addr, "url", fmt.Sprintf("http://localhost%s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("Server stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverFile:
		return jsonfile.New(cfg.DataFile)
	case config.DriverSQLite:
		return sqlite.New(cfg.DBPath)
	case config.DriverRedis:
		return redis.New(ctx, cfg.RedisURL, cfg.RedisKey)
	case config.DriverS3:
		return s3.New(s3.Config{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			Key:       cfg.S3Key,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Endpoint:  cfg.S3Endpoint,
		})
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
