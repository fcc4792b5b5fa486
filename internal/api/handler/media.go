package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/iconidentify/mediagrab/internal/domain"
)

// MediaService is the subset of service.MediaService the handler uses.
type MediaService interface {
	FetchInfo(ctx context.Context, url string) (*domain.MediaInfo, error)
	Download(ctx context.Context, req domain.DownloadRequest) (*domain.DownloadResult, error)
	Remove(result *domain.DownloadResult) error
	RemoveAfterServe() bool
}

// MediaHandler serves the info and download endpoints.
type MediaHandler struct {
	svc    MediaService
	logger *slog.Logger
}

// NewMediaHandler creates a new media handler.
func NewMediaHandler(svc MediaService, logger *slog.Logger) *MediaHandler {
	return &MediaHandler{
		svc:    svc,
		logger: logger,
	}
}

// InfoRequest is the body of POST /api/info.
type InfoRequest struct {
	URL string `json:"url"`
}

// DownloadRequest is the body of POST /api/download.
type DownloadRequest struct {
	URL     string `json:"url"`
	Format  string `json:"format"`
	Quality string `json:"quality"`
}

// Info handles POST /api/info.
func (h *MediaHandler) Info(w http.ResponseWriter, r *http.Request) {
	var req InfoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	info, err := h.svc.FetchInfo(r.Context(), req.URL)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := *info
	if resp.Formats == nil {
		resp.Formats = []json.RawMessage{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Download handles POST /api/download and streams the finished file back
// as an attachment.
func (h *MediaHandler) Download(w http.ResponseWriter, r *http.Request) {
	var body DownloadRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if strings.TrimSpace(body.URL) == "" {
		h.fail(w, r, domain.ErrMissingURL)
		return
	}
	kind, err := domain.ParseKind(body.Format)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	quality, err := domain.ParseTier(body.Quality)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.svc.Download(r.Context(), domain.DownloadRequest{
		URL:     body.URL,
		Kind:    kind,
		Quality: quality,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if h.svc.RemoveAfterServe() {
		defer func() {
			if err := h.svc.Remove(result); err != nil {
				h.logger.Warn("failed to remove served file", "id", result.ID, "error", err)
			}
		}()
	}

	f, err := os.Open(result.FilePath)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	name := filepath.Base(result.FilePath)
	contentType := contentTypeFor(name)
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": name})
	if disposition == "" {
		disposition = "attachment"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", disposition)
	http.ServeContent(w, r, name, stat.ModTime(), f)
}

func (h *MediaHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeError(w, status, publicMessage(err))
}

// mediaTypes covers containers the extractor commonly produces; the
// platform mime table often lacks them.
var mediaTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4a":  "audio/mp4",
	".mp3":  "audio/mpeg",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".opus": "audio/ogg",
	".ogg":  "audio/ogg",
	".flv":  "video/x-flv",
}

func contentTypeFor(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := mediaTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}
