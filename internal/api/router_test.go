package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iconidentify/mediagrab/internal/api/handler"
	"github.com/iconidentify/mediagrab/internal/domain"
	"github.com/iconidentify/mediagrab/internal/service"
	"github.com/iconidentify/mediagrab/pkg/ffmpeg"
)

type stubMedia struct{}

func (stubMedia) FetchInfo(ctx context.Context, url string) (*domain.MediaInfo, error) {
	return &domain.MediaInfo{Title: domain.StringPtr("Test")}, nil
}

func (stubMedia) Download(ctx context.Context, req domain.DownloadRequest) (*domain.DownloadResult, error) {
	panic("download exploded")
}

func (stubMedia) Remove(*domain.DownloadResult) error { return nil }
func (stubMedia) RemoveAfterServe() bool              { return false }
func (stubMedia) Capability() ffmpeg.Capability       { return ffmpeg.Capability{} }

type stubExtractor struct{}

func (stubExtractor) Path() (string, error) { return "/usr/bin/yt-dlp", nil }

func newTestRouter(t *testing.T, apiKey string) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	events, err := service.NewEventService(service.EventServiceConfig{RingBufferSize: 10}, logger)
	if err != nil {
		t.Fatalf("NewEventService: %v", err)
	}
	t.Cleanup(func() { events.Close() })

	return NewRouter(Handlers{
		Media:  handler.NewMediaHandler(stubMedia{}, logger),
		Health: handler.NewHealthHandler(stubExtractor{}, stubMedia{}, t.TempDir(), events),
		Events: handler.NewEventHandler(events, logger),
		UI:     handler.NewUIHandler(),
	}, RouterConfig{APIKey: apiKey}, logger)
}

func TestRouter_Routes(t *testing.T) {
	router := newTestRouter(t, "")

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "//health", "", http.StatusOK},
		{http.MethodGet, "/ready", "", http.StatusOK},
		{http.MethodGet, "/", "", http.StatusOK},
		{http.MethodPost, "/api/info", `{"url":"https://x"}`, http.StatusOK},
		{http.MethodGet, "/api/capabilities", "", http.StatusOK},
		{http.MethodGet, "/api/stats", "", http.StatusOK},
		{http.MethodGet, "/api/events", "", http.StatusOK},
		{http.MethodGet, "/api/info", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/nope", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestRouter_APIKey(t *testing.T) {
	router := newTestRouter(t, "secret")

	req := httptest.NewRequest(http.MethodPost, "/api/info", strings.NewReader(`{"url":"https://x"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("without key: status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/info", strings.NewReader(`{"url":"https://x"}`))
	req.Header.Set("X-API-Key", "secret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("with key: status = %d, want 200", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("health should not need a key, status = %d", w.Code)
	}
}

func TestRouter_PanicRecovered(t *testing.T) {
	router := newTestRouter(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/download", strings.NewReader(`{"url":"https://x"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"error"`) {
		t.Errorf("body = %s, want JSON error", w.Body.String())
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := newTestRouter(t, "secret")

	req := httptest.NewRequest(http.MethodOptions, "/api/download", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}
