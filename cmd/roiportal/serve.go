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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/flowmatrix/roiportal/internal/account"
	"github.com/flowmatrix/roiportal/internal/activity"
	"github.com/flowmatrix/roiportal/internal/api"
	"github.com/flowmatrix/roiportal/internal/auth"
	"github.com/flowmatrix/roiportal/internal/client"
	"github.com/flowmatrix/roiportal/internal/config"
	"github.com/flowmatrix/roiportal/internal/dashboard"
	"github.com/flowmatrix/roiportal/internal/invite"
	"github.com/flowmatrix/roiportal/internal/metrics"
	"github.com/flowmatrix/roiportal/internal/note"
	"github.com/flowmatrix/roiportal/internal/policy"
	"github.com/flowmatrix/roiportal/internal/project"
	"github.com/flowmatrix/roiportal/internal/ratelimit"
	"github.com/flowmatrix/roiportal/internal/store"
	"github.com/flowmatrix/roiportal/internal/task"
	"github.com/flowmatrix/roiportal/internal/testimonial"
	"github.com/flowmatrix/roiportal/internal/user"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the portal API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level, _ := cfg.Log.SlogLevel()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}
	slog.Info("connected to database")

	m := metrics.New()
	m.RegisterDBPoolCollector(func() (int32, int32, int32) {
		s := pool.Stat()
		return s.TotalConns(), s.IdleConns(), s.AcquiredConns()
	})

	txm := store.NewTxManager(pool)
	userStore := user.NewStore(pool, cfg.Auth.SessionTTL)
	clientStore := client.NewStore(pool)
	projectStore := project.NewStore(pool)
	taskStore := task.NewStore(pool)
	noteStore := note.NewStore(pool)
	testimonialStore := testimonial.NewStore(pool)
	inviteStore := invite.NewStore(pool)

	collector := activity.NewCollector(userStore, cfg.Activity.BatchSize, cfg.Activity.FlushInterval, m)
	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		collector.Start(ctx)
	}()

	adapter := user.NewAuthAdapter(userStore)

	// The admin client stays a nil interface in local mode.
	var (
		sessions  auth.SessionLookup
		registrar account.Registrar
		admin     invite.AuthAdmin
	)
	switch cfg.Auth.Mode {
	case config.AuthModeSupabase:
		verifier, err := auth.NewJWKSVerifier(ctx, cfg.Auth.JWKSURL)
		if err != nil {
			return err
		}
		sessions = auth.NewSupabaseSessions(verifier, adapter)
		adminClient := auth.NewAdminClient(cfg.Auth.SupabaseURL, cfg.Auth.ServiceKey)
		registrar, admin = adminClient, adminClient
	default:
		sessions = adapter
		go activity.RunJanitor(ctx, userStore, cfg.Auth.JanitorInterval)
	}
	slog.Info("authentication configured", "mode", cfg.Auth.Mode)

	accounts := account.NewService(userStore, clientStore, txm, registrar, collector)
	invites := invite.NewService(userStore, inviteStore, admin, txm, cfg.Auth.InviteTTL)

	apiLimiter := ratelimit.New(cfg.RateLimit.API.Rate, cfg.RateLimit.API.Window)
	authLimiter := ratelimit.New(cfg.RateLimit.Auth.Rate, cfg.RateLimit.Auth.Window)
	go ratelimit.RunSweeper(ctx, cfg.RateLimit.SweepInterval, apiLimiter, authLimiter)

	router := api.NewRouter(api.RouterDeps{
		Sessions:       sessions,
		AuthProvider:   cfg.Auth.Mode,
		Guard:          policy.NewGuard(userStore, m),
		Projects:       projectStore,
		Tasks:          taskStore,
		Notes:          noteStore,
		Testimonials:   testimonialStore,
		Clients:        clientStore,
		Dashboards:     dashboard.NewService(clientStore, projectStore, taskStore, noteStore),
		Accounts:       accounts,
		Invitations:    invites,
		Metrics:        m,
		APILimiter:     apiLimiter,
		AuthLimiter:    authLimiter,
		DB:             pool,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		MaxBodySize:    cfg.Server.MaxBodySize,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-sigCh:
		slog.Info("shutting down")
	case err := <-errCh:
		slog.Error("server error", "error", err)
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	err = srv.Shutdown(shutdownCtx)

	// Flush pending activity before the pool closes.
	collector.Stop()
	<-collectorDone
	return err
}
