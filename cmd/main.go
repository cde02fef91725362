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
	_ "time/tzdata"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kkkkikiki/training/internal/config"
	"github.com/kkkkikiki/training/internal/database"
	"github.com/kkkkikiki/training/internal/export"
	"github.com/kkkkikiki/training/internal/rpc"
	"github.com/kkkkikiki/training/internal/service"
)

func main() {
	ctx := context.Background()

	// Load configuration from environment variables
	cfg, err := config.Load(ctx)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg)
	slog.Info("starting training service", "environment", cfg.App.Environment, "time_zone", cfg.App.TimeZone)

	loc, err := cfg.App.Location()
	if err != nil {
		slog.Error("invalid time zone", "error", err)
		os.Exit(1)
	}

	// Initialize database connection and schema
	db, err := database.NewDB(ctx, cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}()
	if err := db.Migrate(ctx); err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	// Certificate batches are only stamped when no renderer is configured
	var renderer export.Renderer
	if cfg.Export.RendererURL != "" {
		renderer = export.NewHTTPRenderer(cfg.Export.RendererURL, cfg.Export.Timeout)
	}

	trainingService := service.NewTrainingServer(db.Conn, loc, renderer,
		service.WithMaxScheduleDays(cfg.App.MaxScheduleDays))

	// Create HTTP mux
	mux := http.NewServeMux()

	// Register training service handler
	interceptor := rpc.NewServerInterceptor(rpc.NewValidator(), cfg.App.StorageTimeout)
	path, handler := rpc.NewTrainingServiceHandler(trainingService, connect.WithInterceptors(interceptor))
	mux.Handle(path, handler)

	// Add health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		hostname, _ := os.Hostname()
		w.WriteHeader(http.StatusOK)
		response := fmt.Sprintf(`{"status":"ok","service":"training-engine","hostname":"%s"}`, hostname)
		w.Write([]byte(response))
	})

	// Add database health check endpoint
	mux.HandleFunc("/health/db", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Conn.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(fmt.Sprintf(`{"status":"error","message":"%s unavailable"}`, db.Driver)))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(fmt.Sprintf(`{"status":"ok","%s":"connected"}`, db.Driver)))
	})

	// Add Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:           cfg.Server.GetServerAddr(),
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB
		// Use h2c so we can serve HTTP/2 without TLS
		Handler: h2c.NewHandler(mux, &http2.Server{
			MaxConcurrentStreams: 1000,
		}),
	}

	// Start server in goroutine
	go func() {
		slog.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		return
	}

	slog.Info("server exited gracefully")
}

func setupLogger(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.App.SlogLevel()}

	var handler slog.Handler
	if cfg.App.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
