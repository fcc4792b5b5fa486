package domain

import (
	"encoding/json"
	"strings"
)

// MediaKind is the kind of media a requester wants back.
type MediaKind string

const (
	KindVideo MediaKind = "video"
	KindAudio MediaKind = "audio"
)

// String returns the string representation of the MediaKind.
func (k MediaKind) String() string {
	return string(k)
}

// ParseKind converts a request value into a MediaKind.
// An empty value defaults to video.
func ParseKind(s string) (MediaKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "video":
		return KindVideo, nil
	case "audio":
		return KindAudio, nil
	default:
		return "", ErrInvalidKind
	}
}

// QualityTier caps the vertical resolution of a video download.
type QualityTier string

const (
	TierBest  QualityTier = "best"
	Tier1080p QualityTier = "1080p"
	Tier720p  QualityTier = "720p"
	Tier480p  QualityTier = "480p"
)

// Tiers lists every supported tier, best first.
var Tiers = []QualityTier{TierBest, Tier1080p, Tier720p, Tier480p}

// String returns the string representation of the QualityTier.
func (q QualityTier) String() string {
	return string(q)
}

// MaxHeight returns the height ceiling in pixels, or 0 for TierBest.
func (q QualityTier) MaxHeight() int {
	switch q {
	case Tier1080p:
		return 1080
	case Tier720p:
		return 720
	case Tier480p:
		return 480
	default:
		return 0
	}
}

// ParseTier converts a request value into a QualityTier.
// An empty value defaults to best.
func ParseTier(s string) (QualityTier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "best":
		return TierBest, nil
	case "1080p", "1080":
		return Tier1080p, nil
	case "720p", "720":
		return Tier720p, nil
	case "480p", "480":
		return Tier480p, nil
	default:
		return "", ErrInvalidQuality
	}
}

// MediaInfo is the metadata the extraction service reports for a URL.
// Optional fields stay nil when the extractor did not provide them.
type MediaInfo struct {
	Title         *string           `json:"title"`
	Thumbnail     *string           `json:"thumbnail"`
	Duration      *float64          `json:"duration"`
	Formats       []json.RawMessage `json:"formats"`
	WebpageURL    *string           `json:"webpage_url"`
	ExtractorName *string           `json:"extractor"`
}

// HasTitle reports whether the extractor returned a non-empty title.
func (m *MediaInfo) HasTitle() bool {
	return m != nil && m.Title != nil && *m.Title != ""
}

// TitleOr returns the title, or fallback when it is missing.
func (m *MediaInfo) TitleOr(fallback string) string {
	if m.HasTitle() {
		return *m.Title
	}
	return fallback
}

// DownloadRequest describes a single download.
type DownloadRequest struct {
	URL     string
	Kind    MediaKind
	Quality QualityTier
}

// Validate checks that the request can be processed.
func (r DownloadRequest) Validate() error {
	_, err := r.Normalize()
	return err
}

// Normalize validates the request and returns a copy with the URL trimmed
// and the quality in canonical form, so aliases like "1080" keep their
// height ceiling.
func (r DownloadRequest) Normalize() (DownloadRequest, error) {
	r.URL = strings.TrimSpace(r.URL)
	if r.URL == "" {
		return r, ErrMissingURL
	}
	switch r.Kind {
	case KindVideo, KindAudio:
	default:
		return r, ErrInvalidKind
	}
	tier, err := ParseTier(string(r.Quality))
	if err != nil {
		return r, err
	}
	r.Quality = tier
	return r, nil
}

// DownloadResult is the outcome of a successful download.
type DownloadResult struct {
	// ID names the per-request directory the file was written to.
	ID       string
	FilePath string
	Size     int64
	Info     *MediaInfo
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
