package main

import (
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/iconidentify/mediagrab/internal/config"
	"github.com/iconidentify/mediagrab/internal/extractor"
	"github.com/iconidentify/mediagrab/internal/service"
	"github.com/iconidentify/mediagrab/pkg/ffmpeg"
)

type commandContext struct {
	configFlag *string
	verbose    *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		c.config, c.configErr = config.Load(strings.TrimSpace(*c.configFlag))
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if *c.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (c *commandContext) prober(cfg *config.Config) ffmpeg.Prober {
	return ffmpeg.Prober{
		LocalDir:  cfg.Media.ToolDir,
		ToolName:  cfg.Media.ToolName,
		ProbeName: cfg.Media.ProbeName,
	}
}

func (c *commandContext) extractor(cfg *config.Config) *extractor.YtDLP {
	return extractor.NewYtDLP(extractor.Options{
		Binary:             cfg.Extractor.Binary,
		SocketTimeout:      cfg.Extractor.SocketTimeout,
		Retries:            cfg.Extractor.Retries,
		FragmentRetries:    cfg.Extractor.FragmentRetries,
		ExtractorRetries:   cfg.Extractor.ExtractorRetries,
		NoCheckCertificate: cfg.Extractor.NoCheckCertificate,
	})
}

func (c *commandContext) mediaService(cmd *cobra.Command, cfg *config.Config) *service.MediaService {
	return service.NewMediaService(
		c.extractor(cfg),
		c.prober(cfg),
		nil,
		cfg.Storage,
		cfg.Extractor,
		c.logger(cmd.ErrOrStderr()),
	)
}

func newRootCommand() *cobra.Command {
	var configFlag string
	var verbose bool

	ctx := &commandContext{configFlag: &configFlag, verbose: &verbose}

	rootCmd := &cobra.Command{
		Use:           "mediagrab",
		Short:         "Fetch media info and downloads through yt-dlp",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level to stderr")

	rootCmd.AddCommand(newProbeCommand(ctx))
	rootCmd.AddCommand(newFormatsCommand())
	rootCmd.AddCommand(newInfoCommand(ctx))
	rootCmd.AddCommand(newDownloadCommand(ctx))

	return rootCmd
}
