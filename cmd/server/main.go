package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/iconidentify/mediagrab/internal/api"
	"github.com/iconidentify/mediagrab/internal/api/handler"
	"github.com/iconidentify/mediagrab/internal/config"
	"github.com/iconidentify/mediagrab/internal/domain"
	"github.com/iconidentify/mediagrab/internal/extractor"
	"github.com/iconidentify/mediagrab/internal/service"
	"github.com/iconidentify/mediagrab/pkg/ffmpeg"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("mediagrab %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if lvl, err := config.ParseLevel(cfg.Log.Level); err == nil {
		level.Set(lvl)
	}

	logger.Info("starting mediagrab",
		"version", Version,
		"build_time", BuildTime,
	)

	if err := os.MkdirAll(cfg.Storage.DownloadPath, 0755); err != nil {
		logger.Error("failed to create download directory", "error", err)
		os.Exit(1)
	}

	events, err := service.NewEventService(service.EventServiceConfig{
		RingBufferSize:  cfg.Events.RingBufferSize,
		PersistToSQLite: cfg.Events.Persist,
		SQLitePath:      cfg.Events.SQLitePath,
		RetentionDays:   cfg.Events.RetentionDays,
	}, logger)
	if err != nil {
		logger.Error("failed to initialize event service", "error", err)
		os.Exit(1)
	}

	ytdlp := extractor.NewYtDLP(extractor.Options{
		Binary:             cfg.Extractor.Binary,
		SocketTimeout:      cfg.Extractor.SocketTimeout,
		Retries:            cfg.Extractor.Retries,
		FragmentRetries:    cfg.Extractor.FragmentRetries,
		ExtractorRetries:   cfg.Extractor.ExtractorRetries,
		NoCheckCertificate: cfg.Extractor.NoCheckCertificate,
	})
	prober := ffmpeg.Prober{
		LocalDir:  cfg.Media.ToolDir,
		ToolName:  cfg.Media.ToolName,
		ProbeName: cfg.Media.ProbeName,
	}

	mediaSvc := service.NewMediaService(ytdlp, prober, events, cfg.Storage, cfg.Extractor, logger)

	reportStartup(logger, events, ytdlp, prober, cfg.Storage.DownloadPath)

	router := api.NewRouter(api.Handlers{
		Media:  handler.NewMediaHandler(mediaSvc, logger),
		Health: handler.NewHealthHandler(ytdlp, mediaSvc, cfg.Storage.DownloadPath, events),
		Events: handler.NewEventHandler(events, logger),
		UI:     handler.NewUIHandler(),
	}, api.RouterConfig{
		APIKey:         cfg.Server.APIKey,
		RequestTimeout: cfg.Server.RequestTimeout,
	}, logger)

	cleanupCtx, cancelCleanup := context.WithCancel(context.Background())
	go runEventCleanup(cleanupCtx, events, logger)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cancelCleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if err := events.Close(); err != nil {
		logger.Error("event service close error", "error", err)
	}

	logger.Info("shutdown complete")
}

// reportStartup logs and records which external tools were found.
func reportStartup(logger *slog.Logger, events *service.EventService, ytdlp *extractor.YtDLP, prober ffmpeg.Prober, downloadPath string) {
	capability := prober.Probe()
	if capability.Available {
		logger.Info("media tool available", "location", capability.Location, "source", capability.Source)
		events.EmitSuccess(domain.EventCategoryCapability, "server", "media tool available", domain.EventMetadata{
			"location": capability.Location,
			"source":   string(capability.Source),
		})
	} else {
		logger.Warn("media tool not found; downloads limited to pre-merged streams without conversion",
			"local_dir", prober.LocalDir)
		events.EmitWarning(domain.EventCategoryCapability, "server", "media tool not found", nil)
	}

	if path, err := ytdlp.Path(); err != nil {
		logger.Error("extractor binary not found", "error", err)
		events.EmitError(domain.EventCategoryCapability, "server", "extractor binary not found", nil)
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		version, _ := ytdlp.Version(ctx)
		cancel()
		logger.Info("extractor available", "path", path, "version", version)
	}

	if free, total, err := service.DiskUsage(downloadPath); err == nil {
		logger.Info("download volume",
			"path", downloadPath,
			"free", humanize.Bytes(free),
			"total", humanize.Bytes(total),
		)
	}
}

// runEventCleanup prunes persisted events once a day.
func runEventCleanup(ctx context.Context, events *service.EventService, logger *slog.Logger) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		if err := events.CleanupOldEvents(ctx); err != nil {
			logger.Warn("event cleanup failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
