package domain

import "errors"

// Domain errors.
var (
	// ErrMissingURL is returned when a request carries no URL.
	ErrMissingURL = errors.New("URL is required")

	// ErrInvalidKind is returned for a format other than video or audio.
	ErrInvalidKind = errors.New("format must be video or audio")

	// ErrInvalidQuality is returned for an unsupported quality tier.
	ErrInvalidQuality = errors.New("quality must be best, 1080p, 720p or 480p")

	// ErrExtractionTimeout is returned when metadata extraction exceeds its deadline.
	ErrExtractionTimeout = errors.New("metadata extraction timed out")

	// ErrExtractionFailed is returned when the extraction service reports an error.
	ErrExtractionFailed = errors.New("metadata extraction failed")

	// ErrNoResponse is returned when the extraction worker exits without a result.
	ErrNoResponse = errors.New("no response from extractor")

	// ErrDownloadFailed is returned when any step of a download fails.
	ErrDownloadFailed = errors.New("download failed")

	// ErrStorageFull is returned when there is insufficient storage space.
	ErrStorageFull = errors.New("insufficient storage space")

	// ErrExtractorUnavailable is returned when the extractor binary cannot be found.
	ErrExtractorUnavailable = errors.New("extractor binary not found")
)

// ExtractionError carries the message reported by the extraction service.
type ExtractionError struct {
	Message string
}

func (e *ExtractionError) Error() string {
	if e.Message == "" {
		return ErrExtractionFailed.Error()
	}
	return e.Message
}

// Is makes errors.Is(err, ErrExtractionFailed) hold for every ExtractionError.
func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtractionFailed
}

// MediaError wraps an error with the URL and operation it belongs to.
type MediaError struct {
	URL string
	Op  string
	Err error
}

func (e *MediaError) Error() string {
	if e.URL != "" {
		return e.Op + " [" + e.URL + "]: " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *MediaError) Unwrap() error {
	return e.Err
}

// NewMediaError creates a new MediaError.
func NewMediaError(url, op string, err error) *MediaError {
	return &MediaError{
		URL: url,
		Op:  op,
		Err: err,
	}
}
