package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/iconidentify/mediagrab/internal/config"
	"github.com/iconidentify/mediagrab/internal/domain"
	"github.com/iconidentify/mediagrab/internal/extractor"
	"github.com/iconidentify/mediagrab/internal/format"
	"github.com/iconidentify/mediagrab/pkg/ffmpeg"
)

// OutputTemplate names downloaded files after the media title and the
// extension the extractor produces.
const OutputTemplate = "%(title)s.%(ext)s"

const eventSource = "media"

// CapabilityProber reports whether the media tool is usable.
type CapabilityProber interface {
	Probe() ffmpeg.Capability
}

// MediaService fetches metadata and runs downloads.
type MediaService struct {
	extractor    extractor.Service
	prober       CapabilityProber
	events       domain.EventEmitter
	storage      config.StorageConfig
	extractorCfg config.ExtractorConfig
	logger       *slog.Logger

	diskUsage func(path string) (free, total uint64, err error)
}

// NewMediaService creates a new media service. events may be nil.
func NewMediaService(
	ext extractor.Service,
	prober CapabilityProber,
	events domain.EventEmitter,
	storageCfg config.StorageConfig,
	extractorCfg config.ExtractorConfig,
	logger *slog.Logger,
) *MediaService {
	if events == nil {
		events = domain.NopEmitter{}
	}
	return &MediaService{
		extractor:    ext,
		prober:       prober,
		events:       events,
		storage:      storageCfg,
		extractorCfg: extractorCfg,
		logger:       logger,
		diskUsage:    DiskUsage,
	}
}

// Capability probes the media tool. The result is never cached.
func (s *MediaService) Capability() ffmpeg.Capability {
	return s.prober.Probe()
}

// DownloadPath returns the root download directory.
func (s *MediaService) DownloadPath() string {
	return s.storage.DownloadPath
}

// RemoveAfterServe reports whether served files should be deleted.
func (s *MediaService) RemoveAfterServe() bool {
	return s.storage.RemoveAfterServe
}

// FetchInfo returns metadata for url within the configured timeout.
func (s *MediaService) FetchInfo(ctx context.Context, url string) (*domain.MediaInfo, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, domain.ErrMissingURL
	}

	capability := s.Capability()
	start := time.Now()

	info, err := extractor.FetchInfo(ctx, s.extractor, url, extractor.FetchOptions{
		Timeout:         s.extractorCfg.InfoTimeout,
		ToolLocation:    toolLocation(capability),
		SkipLightweight: !s.extractorCfg.LightweightFirst,
	})
	if err != nil {
		s.logger.Warn("info fetch failed", "url", url, "error", err, "duration", time.Since(start))
		s.events.EmitError(domain.EventCategoryInfo, eventSource, "info fetch failed", domain.EventMetadata{
			"url":   url,
			"error": err.Error(),
		})
		return nil, err
	}

	s.logger.Info("info fetched",
		"url", url,
		"title", info.TitleOr(""),
		"formats", len(info.Formats),
		"duration", time.Since(start),
	)
	s.events.EmitInfo(domain.EventCategoryInfo, eventSource, "info fetched", domain.EventMetadata{
		"url":   url,
		"title": info.TitleOr(""),
	})
	return info, nil
}

// Download resolves the format chain for req and downloads the media into
// a fresh directory under the download path. On any failure the directory
// is removed and a MediaError wrapping ErrDownloadFailed is returned.
func (s *MediaService) Download(ctx context.Context, req domain.DownloadRequest) (*domain.DownloadResult, error) {
	req, err := req.Normalize()
	if err != nil {
		return nil, err
	}

	capability := s.Capability()
	selector := format.Select(req.Kind, req.Quality, capability.Available)
	post := format.PostProcessFor(req.Kind, capability.Available)

	if err := os.MkdirAll(s.storage.DownloadPath, 0755); err != nil {
		return nil, s.downloadFailed(req, "", fmt.Errorf("create download directory: %w", err))
	}
	if err := s.checkFreeSpace(); err != nil {
		return nil, s.downloadFailed(req, "", err)
	}

	id := uuid.New().String()
	dir := filepath.Join(s.storage.DownloadPath, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, s.downloadFailed(req, "", fmt.Errorf("create request directory: %w", err))
	}

	if s.extractorCfg.DownloadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.extractorCfg.DownloadTimeout)
		defer cancel()
	}

	s.logger.Info("download started",
		"id", id,
		"url", req.URL,
		"kind", req.Kind,
		"quality", req.Quality,
		"selector", selector.String(),
		"tool_available", capability.Available,
	)
	start := time.Now()

	info, reported, err := s.extractor.ExtractAndDownload(ctx, req.URL, extractor.DownloadOptions{
		Selector:       selector,
		OutputTemplate: filepath.Join(dir, OutputTemplate),
		PostProcess:    post,
		ToolLocation:   toolLocation(capability),
	})
	if err != nil {
		return nil, s.downloadFailed(req, dir, err)
	}

	path := FinalPath(reported, post)
	stat, err := os.Stat(path)
	if err != nil {
		return nil, s.downloadFailed(req, dir, fmt.Errorf("output file missing: %w", err))
	}
	if stat.IsDir() {
		return nil, s.downloadFailed(req, dir, fmt.Errorf("output path %s is a directory", path))
	}

	s.logger.Info("download completed",
		"id", id,
		"url", req.URL,
		"file", filepath.Base(path),
		"size", humanize.Bytes(uint64(stat.Size())),
		"duration", time.Since(start),
	)
	s.events.EmitSuccess(domain.EventCategoryDownload, eventSource, "download completed", domain.EventMetadata{
		"id":    id,
		"url":   req.URL,
		"file":  filepath.Base(path),
		"bytes": stat.Size(),
	})

	return &domain.DownloadResult{
		ID:       id,
		FilePath: path,
		Size:     stat.Size(),
		Info:     info,
	}, nil
}

// Remove deletes the request directory of a finished download.
func (s *MediaService) Remove(result *domain.DownloadResult) error {
	if result == nil || result.ID == "" {
		return nil
	}
	dir := filepath.Join(s.storage.DownloadPath, result.ID)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove %s: %w", dir, err)
	}
	return nil
}

// FinalPath rewrites the extension of the extractor's reported path to the
// forced output extension when post-processing was applied.
func FinalPath(reported string, post format.PostProcess) string {
	if !post.Applied() || post.Extension == "" {
		return reported
	}
	return strings.TrimSuffix(reported, filepath.Ext(reported)) + post.Extension
}

func (s *MediaService) checkFreeSpace() error {
	if s.storage.MinFreeBytes <= 0 {
		return nil
	}
	free, _, err := s.diskUsage(s.storage.DownloadPath)
	if err != nil {
		s.logger.Warn("free space check skipped", "path", s.storage.DownloadPath, "error", err)
		return nil
	}
	if free < uint64(s.storage.MinFreeBytes) {
		s.events.EmitWarning(domain.EventCategoryDisk, eventSource, "download volume low on space", domain.EventMetadata{
			"free":     humanize.Bytes(free),
			"required": humanize.Bytes(uint64(s.storage.MinFreeBytes)),
		})
		return fmt.Errorf("%w: %s free, %s required", domain.ErrStorageFull,
			humanize.Bytes(free), humanize.Bytes(uint64(s.storage.MinFreeBytes)))
	}
	return nil
}

func (s *MediaService) downloadFailed(req domain.DownloadRequest, dir string, cause error) error {
	if dir != "" {
		if err := os.RemoveAll(dir); err != nil {
			s.logger.Warn("failed to remove request directory", "dir", dir, "error", err)
		}
	}

	s.logger.Error("download failed", "url", req.URL, "kind", req.Kind, "quality", req.Quality, "error", cause)
	s.events.EmitError(domain.EventCategoryDownload, eventSource, "download failed", domain.EventMetadata{
		"url":   req.URL,
		"error": cause.Error(),
	})

	if !errors.Is(cause, domain.ErrDownloadFailed) {
		cause = fmt.Errorf("%w: %w", domain.ErrDownloadFailed, cause)
	}
	return domain.NewMediaError(req.URL, "download", cause)
}

// toolLocation is the directory passed to the extractor. A PATH hit is left
// to the extractor's own lookup, since ffprobe may sit in another directory.
func toolLocation(c ffmpeg.Capability) string {
	if !c.Available || c.Source == ffmpeg.SourcePath {
		return ""
	}
	return c.Location
}
