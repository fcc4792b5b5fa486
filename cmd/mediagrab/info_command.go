package main

import (
	"time"

	"github.com/spf13/cobra"
)

func newInfoCommand(ctx *commandContext) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "info URL",
		Short: "Fetch media metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if timeout > 0 {
				cfg.Extractor.InfoTimeout = timeout
			}

			info, err := ctx.mediaService(cmd, cfg).FetchInfo(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd, info)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Override the metadata timeout (e.g. 30s)")
	return cmd
}
