package main

import (
	"github.com/spf13/cobra"

	"vboard/internal/api"
	"vboard/internal/config"
)

func newVerifyCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <post_id>",
		Short: "Probe one post's image now and record the verdict",
		Args:  requirePostIDArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := parsePostID(args[0])
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.CheckSinglePost(cmd.Context(), id)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				return writePlain("post %d: accessible=%t %s\n  %s\n",
					resp.PostID, resp.IsAccessible, activeLabel(resp.IsActive), resp.ImageURL)
			})
		},
	}
}

func newReactivateCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var (
		userID   string
		imageURL string
	)

	cmd := &cobra.Command{
		Use:   "reactivate <post_id>",
		Short: "Reactivate a post, optionally replacing its image",
		Args:  requirePostIDArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := parsePostID(args[0])
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.ReactivatePost(cmd.Context(), id, userID, imageURL)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				return writePlain("%s: post %d is %s\n  %s\n",
					resp.Message, resp.PostID, activeLabel(resp.IsActive), resp.ImageURL)
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "owner of the post (required)")
	cmd.Flags().StringVar(&imageURL, "image-url", "", "replacement image URL; must be reachable")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
