package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/storgate/storgate"
	"github.com/storgate/storgate/authn"
	"github.com/storgate/storgate/config"
	"github.com/storgate/storgate/database"
	storgatehttp "github.com/storgate/storgate/http"
	"github.com/storgate/storgate/policy"
	"github.com/storgate/storgate/s3"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gateway HTTP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("listen", "", "HTTP listener address (default: :8080)")
	serveCmd.Flags().Bool("authz-write-only", false, "skip policy authorization on read paths")
	serveCmd.Flags().String("db-dsn", "", "metadata database connection string (optional)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	configFiles, _ := cmd.Flags().GetStringSlice("config")
	cfg, err := config.Load(configFiles, cmd.Flags())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	setupLogging(cfg.Env, cfg.Log.Level)

	authz, err := policy.NewClientMap(cfg.ID, cfg.Authz)
	if err != nil {
		return fmt.Errorf("create policy clients: %w", err)
	}

	estimator := storgate.NewAudienceEstimator(authz.Audiences())

	backends := make(map[string]storgate.BackendClient, len(cfg.Backends))
	for alias, bcfg := range cfg.Backends {
		client, err := s3.NewClient(bcfg)
		if err != nil {
			return fmt.Errorf("create backend '%s': %w", alias, err)
		}
		backends[alias] = client
	}
	registry := storgate.NewRegistry(backends)
	slog.Info("backends configured", "count", len(backends))

	if cfg.AuthzWriteOnly {
		slog.Warn("authorize-write-only mode enabled: read paths skip policy authorization")
	}

	gateway := storgate.NewGateway(registry, estimator, cfg.Audiences, authz, storgate.GatewayConfig{
		AuthzWriteOnly: cfg.AuthzWriteOnly,
	})

	var verifier storgatehttp.TokenVerifier
	if len(cfg.Authn) > 0 {
		verifier = authn.NewVerifier(cfg.Authn)
	}

	var sets storgatehttp.SetLister
	if cfg.Database.DSN != "" {
		pool, cleanup, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer cleanup()

		repo := database.NewSetRepo(pool)
		if err := repo.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		sets = repo
		slog.Info("metadata database connected")
	}

	handlerConfig := storgatehttp.HandlerConfig{
		Verifier: verifier,
		CORS:     cfg.HTTP.CORS,
	}
	handler := storgatehttp.NewHandler(&handlerConfig, gateway, sets)

	server := &http.Server{
		Addr:         cfg.HTTP.ListenerAddress,
		Handler:      handler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", cfg.HTTP.ListenerAddress, "app", cfg.ID)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
