package main

import (
	"github.com/spf13/cobra"

	"vboard/internal/api"
	"vboard/internal/config"
)

func newInfoCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show server name, version and endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.GetInfo(cmd.Context())
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				return writeLines(
					"name: "+resp.Name,
					"version: "+resp.Version,
					"api_url: "+cfg.APIURL,
					"db_path: "+cfg.DBPath,
				)
			})
		},
	}
}

func newHealthCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show API, database and discover feed health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.Health(cmd.Context())
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				_ = writePlain("status: %s\n", resp.Status)
				_ = writePlain("timestamp: %s\n", formatTime(resp.Timestamp))
				_ = writePlain("api: %t\n", resp.Services.API)
				_ = writePlain("database: %t\n", resp.Services.Database)
				return writePlain("unsplash: %t\n", resp.Services.Unsplash)
			})
		},
	}
}
