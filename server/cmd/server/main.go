package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/joho/godotenv"
	"google.golang.org/grpc"

	"github.com/cfacal/cfacal/pkg/calc"
	"github.com/cfacal/cfacal/pkg/profiles"
	"github.com/cfacal/cfacal/pkg/types"
	"github.com/cfacal/cfacal/server/internal/alerts"
	"github.com/cfacal/cfacal/server/internal/api"
	"github.com/cfacal/cfacal/server/internal/audits"
	"github.com/cfacal/cfacal/server/internal/auth"
	"github.com/cfacal/cfacal/server/internal/config"
	"github.com/cfacal/cfacal/server/internal/events"
	"github.com/cfacal/cfacal/server/internal/metrics"
	"github.com/cfacal/cfacal/server/internal/rpc"
	"github.com/cfacal/cfacal/server/internal/runner"
	"github.com/cfacal/cfacal/server/internal/store"
	"github.com/cfacal/cfacal/server/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	envFile := flag.String("env-file", ".env", "optional dotenv file with secrets (DSN, API key, webhook URLs)")
	uiDir := flag.String("ui-dir", "", "serve the QA UI static files from this directory; leave empty to disable")
	logLevel := flag.String("log-level", "info", "debug | info | warn | error")
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("cfacal-server starting", "config", *configPath)

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Error("failed to load env file", "path", *envFile, "err", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"grpc_port", cfg.Server.GRPCPort,
		"http_port", cfg.Server.HTTPPort,
		"auth_mode", cfg.Server.Auth.Mode,
		"result_ttl", cfg.Server.ResultTTL,
		"profiles", cfg.Profiles.Path,
		"kafka", cfg.Kafka.Enabled(),
		"webhooks", len(cfg.Webhooks.Targets),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Calibration profiles, optionally reloaded on change.
	catalog, err := profiles.Open(cfg.Profiles.Path)
	if err != nil {
		slog.Error("failed to load profiles", "path", cfg.Profiles.Path, "err", err)
		os.Exit(1)
	}
	slog.Info("profiles loaded", "parts", len(catalog.Parts()))
	if cfg.Profiles.Watch {
		go func() {
			if err := profiles.Watch(ctx, cfg.Profiles.Path, catalog.Replace); err != nil {
				slog.Error("profiles watcher stopped", "err", err)
			}
		}()
	}

	// Audit database: telemetry source and result persistence.
	dsn := cfg.Database.DSN()
	if dsn == "" {
		slog.Error("database DSN is not set", "env", cfg.Database.DSNEnv)
		os.Exit(1)
	}
	db, err := audits.Open(dsn, cfg.Database.MaxOpenConns)
	if err != nil {
		slog.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	auditRepo := audits.NewRepository(db)
	if err := auditRepo.Migrate(ctx); err != nil {
		slog.Error("failed to migrate result tables", "err", err)
		os.Exit(1)
	}

	// Recent-report store with background TTL eviction.
	st := store.New(cfg.Server.ResultTTL)
	go st.Run(ctx)

	m := metrics.New()
	m.Gauge("stored_reports", "Reports held in the recent-report store.", func() float64 { return float64(st.Count()) })

	notifier := alerts.New(cfg.Webhooks)

	hub := ws.New(st, 5*time.Second, ws.OriginChecker(cfg.Server.AllowedOrigins))
	go hub.Run(ctx)
	m.Gauge("ws_clients", "Connected WebSocket clients.", func() float64 { return float64(hub.Count()) })

	sinks := []runner.Sink{
		runner.SinkFunc(func(rep *types.Report) { notifier.Notify(rep) }),
		hub,
	}
	if cfg.Kafka.Enabled() {
		pub := events.New(cfg.Kafka)
		go pub.Run(ctx)
		sinks = append(sinks, pub)
		m.Gauge("events_pending", "Reports waiting to be published to Kafka.", func() float64 { return float64(pub.Pending()) })
	}

	run := runner.New(
		calc.NewEngine(auditRepo, catalog),
		catalog,
		st,
		runner.WithMetrics(m),
		runner.WithSinks(sinks...),
		runner.WithTimeout(cfg.Server.RequestTimeout),
	)

	// gRPC server with optional API key authentication interceptor.
	interceptor := auth.APIKeyInterceptor(
		cfg.Server.Auth.Mode,
		cfg.Server.Auth.EffectiveHeader(),
		cfg.Server.Auth.Key(),
	)
	grpcSrv := grpc.NewServer(grpc.UnaryInterceptor(interceptor))
	rpc.Register(grpcSrv, rpc.NewServer(run, st))

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRPCPort))
	if err != nil {
		slog.Error("failed to listen on gRPC port",
			"port", cfg.Server.GRPCPort, "err", err)
		os.Exit(1)
	}

	go func() {
		slog.Info("gRPC calculation service listening", "port", cfg.Server.GRPCPort)
		if err := grpcSrv.Serve(lis); err != nil {
			slog.Error("gRPC server stopped", "err", err)
		}
	}()

	// REST API, WebSocket hub and /metrics on HTTPPort.
	apiHandler := api.New(api.Options{
		Calc:    run,
		Store:   st,
		Catalog: catalog,
		Results: auditRepo,
		Alerts:  notifier,
		Metrics: m,
		Stream:  hub,
		Clients: hub.Count,
	})
	protected := auth.Middleware(
		cfg.Server.Auth.Mode,
		cfg.Server.Auth.EffectiveHeader(),
		cfg.Server.Auth.Key(),
		"/api/v1/health", "/metrics", "/ws",
	)(apiHandler)

	httpMux := http.NewServeMux()
	httpMux.Handle("/api/", protected)
	httpMux.Handle("/ws", protected)
	httpMux.Handle("/metrics", protected)

	// Optional: serve the built QA UI. Unknown paths fall back to index.html.
	if *uiDir != "" {
		fs := http.FileServer(http.Dir(*uiDir))
		httpMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			path := *uiDir + r.URL.Path
			if _, err := os.Stat(path); os.IsNotExist(err) {
				http.ServeFile(w, r, *uiDir+"/index.html")
				return
			}
			fs.ServeHTTP(w, r)
		})
		slog.Info("serving UI static files", "dir", *uiDir)
	}

	origins := cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	handler := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", cfg.Server.Auth.EffectiveHeader()}),
	)(httpMux)
	handler = handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(handler)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           handlers.LoggingHandler(os.Stdout, handler),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("cfacal-server shutting down")
	grpcSrv.GracefulStop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
	notifier.Wait()
}
