package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"vboard/internal/api"
	"vboard/internal/config"
	"vboard/internal/imagehealth"
	"vboard/internal/store"
	"vboard/internal/uploadstore"
)

func newCheckCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var (
		userID string
		local  bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Schedule an image verification batch",
		Long: "Schedule an image verification batch on the server. With --local the batch runs " +
			"in this process directly against the database and the result is printed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if local {
				result, err := runLocalBatch(cmd.Context(), cfg, imagehealth.OwnerScope(userID))
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(result)
				}
				return writePlain("scope=%s checked=%d deactivated=%d active=%d skipped=%d\n",
					result.Scope, result.Checked, result.Deactivated, result.StillActive, result.Skipped)
			}

			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.TriggerImageCheck(cmd.Context(), userID)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				return writePlain("%s (scope: %s)\n", resp.Message, resp.Scope)
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "only check posts owned by this user")
	cmd.Flags().BoolVar(&local, "local", false, "run the batch in-process instead of on the server")
	return cmd
}

func runLocalBatch(ctx context.Context, cfg *config.Config, scope imagehealth.Scope) (imagehealth.BatchResult, error) {
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return imagehealth.BatchResult{}, err
	}
	defer st.Close()

	uploads, err := uploadstore.NewLocalStore(uploadRoot(cfg))
	if err != nil {
		return imagehealth.BatchResult{}, fmt.Errorf("open upload dir: %w", err)
	}

	prober := imagehealth.NewHTTPProber(imagehealth.ProberConfig{
		PublicURL:               cfg.EffectivePublicURL(),
		Uploads:                 uploads,
		Timeout:                 cfg.ImageHealth.ProbeTimeout.Duration,
		Concurrency:             cfg.ImageHealth.ProbeConcurrency,
		RequireImageContentType: cfg.ImageHealth.RequireImageContentType,
	})
	scheduler := imagehealth.NewScheduler(st, prober, imagehealth.SchedulerConfig{
		BatchSize:   cfg.ImageHealth.BatchSize,
		Cooldown:    cfg.ImageHealth.Cooldown.Duration,
		Concurrency: cfg.ImageHealth.ProbeConcurrency,
		Logger:      slog.Default(),
	})
	return scheduler.RunBatch(ctx, scope)
}
