package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iconidentify/mediagrab/internal/domain"
	"github.com/iconidentify/mediagrab/internal/format"
)

func newFormatsCommand() *cobra.Command {
	var onlyAvailable, onlyUnavailable bool

	cmd := &cobra.Command{
		Use:   "formats",
		Short: "Show the format fallback chain for every kind and quality",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if onlyAvailable && onlyUnavailable {
				return fmt.Errorf("--available and --unavailable are mutually exclusive")
			}

			states := []bool{true, false}
			switch {
			case onlyAvailable:
				states = []bool{true}
			case onlyUnavailable:
				states = []bool{false}
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Tool", "Kind", "Quality", "Chain", "Output"},
				formatRows(states),
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&onlyAvailable, "available", false, "Only show chains used when the media tool is present")
	cmd.Flags().BoolVar(&onlyUnavailable, "unavailable", false, "Only show chains used without the media tool")
	return cmd
}

func formatRows(states []bool) [][]string {
	var rows [][]string
	for _, available := range states {
		for _, kind := range []domain.MediaKind{domain.KindVideo, domain.KindAudio} {
			output := outputLabel(format.PostProcessFor(kind, available))
			for _, tier := range domain.Tiers {
				rows = append(rows, []string{
					yesNo(available),
					kind.String(),
					tier.String(),
					format.Select(kind, tier, available).String(),
					output,
				})
			}
		}
	}
	return rows
}

func outputLabel(p format.PostProcess) string {
	if !p.Applied() {
		return "native"
	}
	return p.Extension
}
