package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/iconidentify/mediagrab/internal/domain"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var kindFlag, qualityFlag, outputDir string

	cmd := &cobra.Command{
		Use:   "download URL",
		Short: "Download media using the format fallback chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseKind(kindFlag)
			if err != nil {
				return err
			}
			tier, err := domain.ParseTier(qualityFlag)
			if err != nil {
				return err
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if outputDir != "" {
				cfg.Storage.DownloadPath = outputDir
			}

			result, err := ctx.mediaService(cmd, cfg).Download(cmd.Context(), domain.DownloadRequest{
				URL:     args[0],
				Kind:    kind,
				Quality: tier,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", result.FilePath, humanize.Bytes(uint64(result.Size)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&kindFlag, "format", "f", string(domain.KindVideo), "Output kind: video or audio")
	cmd.Flags().StringVarP(&qualityFlag, "quality", "q", string(domain.TierBest), "Quality: best, 1080p, 720p or 480p")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Download directory (overrides storage.download_path)")
	return cmd
}
