package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/iconidentify/mediagrab/internal/domain"
	"github.com/iconidentify/mediagrab/pkg/ffmpeg"
)

// testLogger returns a silent logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockMediaService is a test implementation of MediaService.
type mockMediaService struct {
	info     *domain.MediaInfo
	infoErr  error
	result   *domain.DownloadResult
	dlErr    error
	removeOn bool

	lastURL     string
	lastRequest domain.DownloadRequest
	removed     []*domain.DownloadResult
}

func (m *mockMediaService) FetchInfo(ctx context.Context, url string) (*domain.MediaInfo, error) {
	m.lastURL = url
	if m.infoErr != nil {
		return nil, m.infoErr
	}
	return m.info, nil
}

func (m *mockMediaService) Download(ctx context.Context, req domain.DownloadRequest) (*domain.DownloadResult, error) {
	m.lastRequest = req
	if m.dlErr != nil {
		return nil, m.dlErr
	}
	return m.result, nil
}

func (m *mockMediaService) Remove(result *domain.DownloadResult) error {
	m.removed = append(m.removed, result)
	return nil
}

func (m *mockMediaService) RemoveAfterServe() bool {
	return m.removeOn
}

// mockExtractor is a test implementation of ExtractorLocator.
type mockExtractor struct {
	path string
}

func (m mockExtractor) Path() (string, error) {
	if m.path == "" {
		return "", errors.New("extractor binary not found")
	}
	return m.path, nil
}

// mockCapability is a test implementation of CapabilityProvider.
type mockCapability struct {
	capability ffmpeg.Capability
}

func (m mockCapability) Capability() ffmpeg.Capability {
	return m.capability
}
