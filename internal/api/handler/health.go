package handler

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/iconidentify/mediagrab/internal/service"
	"github.com/iconidentify/mediagrab/pkg/ffmpeg"
)

var startTime = time.Now()

// ExtractorLocator resolves the extractor binary.
type ExtractorLocator interface {
	Path() (string, error)
}

// CapabilityProvider reports the current media tool capability.
type CapabilityProvider interface {
	Capability() ffmpeg.Capability
}

// HealthHandler handles health, capability and stats endpoints.
type HealthHandler struct {
	extractor    ExtractorLocator
	capability   CapabilityProvider
	downloadPath string
	events       *service.EventService
	diskUsage    func(path string) (free, total uint64, err error)
	toolVersion  func(ctx context.Context, path string) (string, error)
}

// NewHealthHandler creates a new health handler. events may be nil.
func NewHealthHandler(extractor ExtractorLocator, capability CapabilityProvider, downloadPath string, events *service.EventService) *HealthHandler {
	return &HealthHandler{
		extractor:    extractor,
		capability:   capability,
		downloadPath: downloadPath,
		events:       events,
		diskUsage:    service.DiskUsage,
		toolVersion:  ffmpeg.Version,
	}
}

// HealthResponse is the JSON response for health checks.
type HealthResponse struct {
	Status     string             `json:"status"`
	Timestamp  string             `json:"timestamp"`
	Error      string             `json:"error,omitempty"`
	Extractor  string             `json:"extractor,omitempty"`
	Capability *ffmpeg.Capability `json:"capability,omitempty"`
}

// Live handles GET /health.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready. The service is ready when the extractor binary
// resolves; a missing media tool only degrades output formats.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	capability := h.capability.Capability()
	resp := HealthResponse{
		Status:     "ok",
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Capability: &capability,
	}

	path, err := h.extractor.Path()
	if err != nil {
		resp.Status = "error"
		resp.Error = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	resp.Extractor = path

	writeJSON(w, http.StatusOK, resp)
}

// CapabilityResponse describes the tools the server can use.
type CapabilityResponse struct {
	MediaTool          ffmpeg.Capability `json:"media_tool"`
	MediaToolVersion   string            `json:"media_tool_version,omitempty"`
	ExtractorAvailable bool              `json:"extractor_available"`
	ExtractorPath      string            `json:"extractor_path,omitempty"`
}

// Capabilities handles GET /api/capabilities.
func (h *HealthHandler) Capabilities(w http.ResponseWriter, r *http.Request) {
	resp := CapabilityResponse{MediaTool: h.capability.Capability()}

	if resp.MediaTool.Available {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if v, err := h.toolVersion(ctx, resp.MediaTool.FFmpegPath); err == nil {
			resp.MediaToolVersion = v
		}
	}
	if path, err := h.extractor.Path(); err == nil {
		resp.ExtractorAvailable = true
		resp.ExtractorPath = path
	}

	writeJSON(w, http.StatusOK, resp)
}

// SystemStats contains process and download volume statistics.
type SystemStats struct {
	Uptime         int64               `json:"uptime_seconds"`
	UptimeHuman    string              `json:"uptime_human"`
	MemAllocMB     int64               `json:"mem_alloc_mb"`
	MemSysMB       int64               `json:"mem_sys_mb"`
	NumGoroutines  int                 `json:"num_goroutines"`
	NumCPU         int                 `json:"num_cpu"`
	DownloadPath   string              `json:"download_path"`
	DiskFreeBytes  uint64              `json:"disk_free_bytes"`
	DiskTotalBytes uint64              `json:"disk_total_bytes"`
	DiskUsedPct    float64             `json:"disk_used_pct"`
	DiskFreeHuman  string              `json:"disk_free_human,omitempty"`
	Events         *service.EventStats `json:"events,omitempty"`
}

// Stats handles GET /api/stats.
func (h *HealthHandler) Stats(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(startTime)
	stats := SystemStats{
		Uptime:        int64(uptime.Seconds()),
		UptimeHuman:   formatUptime(uptime),
		MemAllocMB:    int64(m.Alloc / 1024 / 1024),
		MemSysMB:      int64(m.Sys / 1024 / 1024),
		NumGoroutines: runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		DownloadPath:  h.downloadPath,
	}

	if free, total, err := h.diskUsage(h.downloadPath); err == nil {
		stats.DiskFreeBytes = free
		stats.DiskTotalBytes = total
		stats.DiskFreeHuman = humanize.Bytes(free)
		if total > 0 {
			stats.DiskUsedPct = float64(total-free) / float64(total) * 100
		}
	}
	if h.events != nil {
		es := h.events.Stats()
		stats.Events = &es
	}

	writeJSON(w, http.StatusOK, stats)
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	mins := int(d.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}
