package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"vboard/internal/config"
	"vboard/internal/discover"
	"vboard/internal/imagehealth"
	"vboard/internal/server"
	"vboard/internal/store"
	"vboard/internal/uploadstore"
)

func newSrvCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "srv",
		Short: "Run the vboard API server and background image checker",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg == nil {
				return fmt.Errorf("config not initialized")
			}
			if cfg.DBPath == "" {
				return fmt.Errorf("db path is required")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg, slog.Default())
		},
	}
}

func runServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	addr, err := server.ListenAddr(cfg.APIURL)
	if err != nil {
		return err
	}

	logger.Info("opening database", "path", cfg.DBPath)
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	uploads, err := uploadstore.NewLocalStore(uploadRoot(cfg))
	if err != nil {
		return fmt.Errorf("open upload dir: %w", err)
	}

	publicURL := cfg.EffectivePublicURL()
	prober := imagehealth.NewHTTPProber(imagehealth.ProberConfig{
		PublicURL:               publicURL,
		Uploads:                 uploads,
		Timeout:                 cfg.ImageHealth.ProbeTimeout.Duration,
		Concurrency:             cfg.ImageHealth.ProbeConcurrency,
		RequireImageContentType: cfg.ImageHealth.RequireImageContentType,
	})
	scheduler := imagehealth.NewScheduler(st, prober, imagehealth.SchedulerConfig{
		BatchSize:   cfg.ImageHealth.BatchSize,
		Cooldown:    cfg.ImageHealth.Cooldown.Duration,
		Concurrency: cfg.ImageHealth.ProbeConcurrency,
		Logger:      logger,
	})
	runner := imagehealth.NewRunner(scheduler, imagehealth.RunnerConfig{
		Interval:   cfg.ImageHealth.CheckInterval.Duration,
		RunOnStart: cfg.ImageHealth.RunOnStart,
		Logger:     logger,
	})
	runner.Start(ctx)
	defer runner.Stop()

	srv := server.New(server.Options{
		Addr:           addr,
		Version:        version,
		PublicURL:      publicURL,
		AllowedOrigins: cfg.AllowedOrigins,
		Backend:        st,
		ImageHealth:    imagehealth.NewService(st, prober, cfg.ImageHealth.Cooldown.Duration, logger),
		Checks:         runner,
		Discover: discover.NewClient(discover.Config{
			BaseURL:   cfg.Discover.BaseURL,
			AccessKey: cfg.Discover.AccessKey,
			CacheSize: cfg.Discover.CacheSize,
			CacheTTL:  cfg.Discover.CacheTTL.Duration,
			Logger:    logger,
		}),
		Uploads:           uploads,
		UploadMaxBytes:    cfg.Uploads.MaxUploadBytes,
		AllowedExtensions: cfg.Uploads.AllowedExtensions,
		Logger:            logger,
	})
	return srv.ListenAndServe(ctx)
}

// uploadRoot resolves a relative upload dir against the database directory.
func uploadRoot(cfg *config.Config) string {
	if filepath.IsAbs(cfg.Uploads.Dir) {
		return cfg.Uploads.Dir
	}
	return filepath.Join(filepath.Dir(cfg.DBPath), cfg.Uploads.Dir)
}
