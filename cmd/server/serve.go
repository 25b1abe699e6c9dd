package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"campusdocs/internal/auth"
	"campusdocs/internal/config"
	"campusdocs/internal/handler"
	"campusdocs/internal/metrics"
	"campusdocs/internal/middleware"
	serviceDocsys "campusdocs/internal/service/docsystem"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
)

// shutdownTimeout bounds graceful shutdown (in-flight requests and pending notifications)
const shutdownTimeout = 20 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closeLog, err := config.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer closeLog()
	slog.SetDefault(logger) // Set as default logger

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"storage_driver", cfg.StorageDriver,
		"blob_driver", cfg.BlobDriver,
	)

	// Create JWT verifier
	jwtVerifier, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
	if err != nil {
		return fmt.Errorf("create JWT verifier: %w", err)
	}
	defer jwtVerifier.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	repos, closeRepos, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepos()

	blobs, err := openBlobStore(cfg, m, logger)
	if err != nil {
		return err
	}

	notifier, closeNotifier, err := openNotifier(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeNotifier()

	svcs := serviceDocsys.SetupServices(repos, blobs, notifier, serviceDocsys.Settings{
		PublicBaseURL:  cfg.PublicBaseURL,
		MaxShareDays:   cfg.MaxShareDays,
		FetchTimeout:   cfg.BlobFetchTimeout,
		AuditRetention: cfg.AuditRetention,
	}, m, logger)

	handlers := &handler.Handlers{
		Documents: handler.NewDocumentHandler(svcs.Documents, svcs.Versions, cfg.MaxUploadBytes, logger),
		Folders:   handler.NewFolderHandler(svcs.Folders, svcs.Documents, logger),
		Versions:  handler.NewVersionHandler(svcs.Versions, logger),
		Grants:    handler.NewGrantHandler(svcs.Grants, logger),
		Shares:    handler.NewShareHandler(svcs.Shares, logger),
		Audit:     handler.NewAuditHandler(svcs.Audit, logger),
		Bulk:      handler.NewBulkHandler(svcs.Bulk, logger),
		Requests:  handler.NewRequestHandler(svcs.Requests, logger),
	}

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, handlers,
		middleware.RequireAuth(jwtVerifier, logger),
		middleware.OptionalAuth(jwtVerifier, logger),
	)
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Metrics → Routes (auth is applied per route)
	var h http.Handler = mux
	h = middleware.Metrics(m)(h)
	h = middleware.Recovery(logger)(h)

	// CORS - outermost to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", handler.SharePasswordHeader},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       5 * time.Minute, // Large multipart uploads
		WriteTimeout:      0,               // Disabled to allow long archive downloads
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("start server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}

	// In-flight notifications finish before the notifier closes
	svcs.Dispatcher.Wait()
	logger.Info("server stopped")
	return nil
}
