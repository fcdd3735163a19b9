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

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm/logger"

	"studio-ops-api/internal/auth"
	"studio-ops-api/internal/config"
	"studio-ops-api/internal/database"
	"studio-ops-api/internal/handlers"
	"studio-ops-api/internal/logging"
	"studio-ops-api/internal/metrics"
	"studio-ops-api/internal/realtime"
	"studio-ops-api/internal/routes"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and WebSocket server",
		RunE:  runServe,
	}
	cmd.Flags().String("port", "", "listen port (overrides PORT)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Port = port
	}

	log := logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.DatabasePath, gormLogLevel(cfg))
	if err != nil {
		return err
	}
	log.Info("Database connected and migrated", "path", cfg.DatabasePath)

	tokens := auth.NewTokenService(tokenConfig(cfg), nil)
	reg := metrics.NewRegistry()

	rt := realtime.NewServer(realtimeOptions(cfg), handlers.RealtimeVerifier(tokens), nil, metrics.NewRealtimeMetrics(reg), log)

	engine := routes.SetupRoutes(routes.Deps{
		Handler: &handlers.Handler{
			DB:       db,
			Events:   rt.Notifier(),
			Tokens:   tokens,
			Realtime: rt,
			Logger:   log,
		},
		Tokens:         tokens,
		HTTPMetrics:    metrics.NewHTTPMetrics(reg),
		MetricsHandler: metrics.Handler(reg),
		WebSocketPath:  cfg.WebSocket.Path,
		Logger:         log,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The listener failing to bind aborts startup.
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server starting",
			"addr", srv.Addr,
			"env", cfg.AppEnv,
			"websocket", cfg.WebSocket.Path,
			"origins_permissive", cfg.IsDevelopment(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	rt.Start(ctx)

	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// Notify dashboards before the listener stops; hijacked websocket
		// connections are not tracked by http.Server.Shutdown.
		if err := rt.Shutdown(shutdownCtx); err != nil {
			logging.WithError(err).Warn("Realtime shutdown incomplete")
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Server stopped")
	return nil
}

func tokenConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	}
}

func realtimeOptions(cfg *config.Config) realtime.Options {
	ws := cfg.WebSocket
	return realtime.Options{
		Origin: realtime.OriginPolicy{
			Permissive: cfg.IsDevelopment(),
			AllowEmpty: ws.AllowEmptyOrigin,
			Allowed:    ws.AllowedOrigins,
		},
		RequireAuthForAdmin:  ws.RequireAuthForAdmin,
		HeartbeatInterval:    ws.HeartbeatInterval,
		DeadAfter:            ws.DeadAfter,
		SweepInterval:        ws.SweepInterval,
		WriteWait:            ws.WriteWait,
		MaxMessageBytes:      ws.MaxMessageBytes,
		MessageRate:          ws.MessageRate,
		MessageBurst:         ws.MessageBurst,
		BroadcastParallelism: ws.BroadcastParallelism,
	}
}

func gormLogLevel(cfg *config.Config) logger.LogLevel {
	if logging.ParseLevel(cfg.LogLevel) == slog.LevelDebug {
		return logger.Info
	}
	return logger.Warn
}
