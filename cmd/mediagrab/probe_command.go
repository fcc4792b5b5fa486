package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iconidentify/mediagrab/pkg/ffmpeg"
)

const probeVersionTimeout = 10 * time.Second

type probeReport struct {
	MediaTool        ffmpeg.Capability `json:"media_tool"`
	MediaToolVersion string            `json:"media_tool_version,omitempty"`
	ExtractorPath    string            `json:"extractor_path,omitempty"`
	ExtractorVersion string            `json:"extractor_version,omitempty"`
	ExtractorError   string            `json:"extractor_error,omitempty"`
}

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Report which external tools are available",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			report := probeReport{MediaTool: ctx.prober(cfg).Probe()}

			vctx, cancel := context.WithTimeout(cmd.Context(), probeVersionTimeout)
			defer cancel()

			if report.MediaTool.Available {
				report.MediaToolVersion, _ = ffmpeg.Version(vctx, report.MediaTool.FFmpegPath)
			}

			ytdlp := ctx.extractor(cfg)
			if path, err := ytdlp.Path(); err != nil {
				report.ExtractorError = err.Error()
			} else {
				report.ExtractorPath = path
				report.ExtractorVersion, _ = ytdlp.Version(vctx)
			}

			if asJSON {
				return writeJSON(cmd, report)
			}

			rows := [][]string{
				{"media tool", yesNo(report.MediaTool.Available), sourceLabel(report.MediaTool.Source), report.MediaTool.Location, report.MediaToolVersion},
				{"extractor", yesNo(report.ExtractorPath != ""), "", report.ExtractorPath, report.ExtractorVersion},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Tool", "Available", "Source", "Location", "Version"},
				rows,
			))
			if !report.MediaTool.Available {
				fmt.Fprintln(cmd.OutOrStdout(), "Downloads are limited to pre-merged streams in their native container.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func sourceLabel(s ffmpeg.Source) string {
	if s == ffmpeg.SourceNone {
		return "-"
	}
	return string(s)
}
