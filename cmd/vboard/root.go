package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vboard/internal/config"
	"vboard/internal/format"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	var (
		jsonOutput   bool
		outputFormat string
		logLevel     string
	)

	cmd := &cobra.Command{
		Use:           "vboard",
		Short:         "vboard is a visual board API with image liveness verification",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			warning, err := configureLoggerForCLI(logLevel, cfg.LogLevel)
			if err != nil {
				return err
			}
			if warning != "" {
				fmt.Fprintln(os.Stderr, warning)
			}

			formatter, err := format.ByName(outputFormat)
			if err != nil {
				return err
			}
			outputFormatter = formatter
			if cmd.Flags().Changed("output") {
				jsonOutput = true
			}
			return nil
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")
	cmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "json", "structured output format: json or yaml")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")

	cmd.AddCommand(
		newSrvCmd(cfg),
		newInfoCmd(cfg, &jsonOutput),
		newHealthCmd(cfg, &jsonOutput),
		newStatusCmd(cfg, &jsonOutput),
		newCheckCmd(cfg, &jsonOutput),
		newVerifyCmd(cfg, &jsonOutput),
		newReactivateCmd(cfg, &jsonOutput),
		newMigrateCmd(cfg, &jsonOutput),
		newConfigCmd(cfg),
	)

	return cmd
}
