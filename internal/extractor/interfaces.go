package extractor

import (
	"context"
	"time"

	"github.com/iconidentify/mediagrab/internal/domain"
	"github.com/iconidentify/mediagrab/internal/format"
)

// Service resolves URLs into stream metadata and downloads them.
type Service interface {
	// ExtractInfo returns metadata for a single item. Playlist expansion is
	// always disabled.
	ExtractInfo(ctx context.Context, url string, opts ExtractOptions) (*domain.MediaInfo, error)

	// ExtractAndDownload downloads the media and returns its metadata and the
	// output path the extractor reports, before any extension change made by
	// post-processing.
	ExtractAndDownload(ctx context.Context, url string, opts DownloadOptions) (*domain.MediaInfo, string, error)
}

// ExtractOptions controls a metadata extraction.
type ExtractOptions struct {
	// Lightweight skips full format resolution.
	Lightweight bool
	// ToolLocation is the directory holding the media tool, if available.
	ToolLocation string
}

// DownloadOptions controls a download.
type DownloadOptions struct {
	Selector format.Selector
	// OutputTemplate is the extractor's filename template.
	OutputTemplate string
	PostProcess    format.PostProcess
	ToolLocation   string
}

// Options holds settings passed through to the extractor on every call.
type Options struct {
	Binary             string
	SocketTimeout      time.Duration
	Retries            int
	FragmentRetries    int
	ExtractorRetries   int
	NoCheckCertificate bool
}
