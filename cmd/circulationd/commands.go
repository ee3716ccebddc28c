package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/spf13/cobra"

	"library-circulation-backend/config"
	"library-circulation-backend/internal/api"
	"library-circulation-backend/internal/circulation"
	"library-circulation-backend/internal/db"
	"library-circulation-backend/internal/metrics"
	"library-circulation-backend/internal/notification"
	"library-circulation-backend/internal/store"
	"library-circulation-backend/internal/sweeper"
)

func newRootCmd(logger *log.Logger) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "circulationd",
		Short:         "Library inventory and circulation service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "path to the YAML configuration file")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API, notification workers and expiry sweeper",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig(logger, configPath)
				if err != nil {
					return err
				}
				return serve(logger, cfg)
			},
		},
		&cobra.Command{
			Use:   "sweep",
			Short: "Expire stale requests once and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig(logger, configPath)
				if err != nil {
					return err
				}
				return sweepOnce(cmd.Context(), logger, cfg)
			},
		},
	)
	return root
}

func defaultConfigPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "./config/config.yaml"
}

func loadConfig(logger *log.Logger, path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from %s: %w", path, err)
	}
	logger.Printf("configuration loaded successfully from %s", path)
	return cfg, nil
}

func openStore(logger *log.Logger, cfg *config.Config) (store.Store, func(), error) {
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	logger.Println("database initialized successfully")

	closeFn := func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return store.NewGormStore(gormDB), closeFn, nil
}

func serve(logger *log.Logger, cfg *config.Config) error {
	appStore, closeDB, err := openStore(logger, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
		logger.Println("VAPID keys are not configured; push notifications will fail to send")
	}
	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workers := notification.NewWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize, appStore, &webpushOptions)
	workers.Start(ctx)

	m := metrics.New()
	engine := circulation.NewEngine(appStore,
		circulation.WithPolicy(circulation.PolicyFromConfig(cfg.Circulation)),
		circulation.WithNotifier(m.Notifier(workers)),
	)

	sweeperSvc := sweeper.NewService(cfg.Sweeper, cfg.Circulation.ChallengeWindow(), engine)
	go sweeperSvc.Run(ctx)

	router := api.NewRouter(engine, appStore, &webpushOptions, m, cfg.Server)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Println("Shutdown signal received, stopping services...")
	case err := <-serverErr:
		return fmt.Errorf("HTTP server ListenAndServe: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server Shutdown: %w", err)
	}
	cancel()
	workers.Wait()

	logger.Println("Server gracefully stopped")
	return nil
}

func sweepOnce(ctx context.Context, logger *log.Logger, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	appStore, closeDB, err := openStore(logger, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	engine := circulation.NewEngine(appStore, circulation.WithPolicy(circulation.PolicyFromConfig(cfg.Circulation)))
	svc := sweeper.NewService(cfg.Sweeper, cfg.Circulation.ChallengeWindow(), engine)

	res, err := svc.SweepOnce(ctx)
	if err != nil {
		return err
	}
	logger.Printf("sweep finished: expired=%d skipped=%d failed=%d", res.Expired, res.Skipped, res.Failed)
	return nil
}
