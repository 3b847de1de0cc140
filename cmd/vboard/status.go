package main

import (
	"github.com/spf13/cobra"

	"vboard/internal/api"
	"vboard/internal/config"
)

func newStatusCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show image health counts across all posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.ImageHealthStatus(cmd.Context())
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				_ = writePlain("total_posts: %d\n", resp.TotalPosts)
				_ = writePlain("active_posts: %d\n", resp.ActivePosts)
				_ = writePlain("inactive_posts: %d\n", resp.InactivePosts)
				_ = writePlain("unchecked_posts: %d\n", resp.UncheckedPosts)
				return writePlain("health_percentage: %.2f\n", resp.HealthPercentage)
			})
		},
	}
}
