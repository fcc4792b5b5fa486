package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/iconidentify/mediagrab/internal/domain"
)

// errBadRequest marks a request body that could not be decoded.
var errBadRequest = errors.New("invalid request body")

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		return errBadRequest
	}
	return nil
}

// statusFor maps an error to its HTTP status: 400 for input problems and
// 500 for everything else.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, domain.ErrMissingURL),
		errors.Is(err, domain.ErrInvalidKind),
		errors.Is(err, domain.ErrInvalidQuality):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage strips the operation context a MediaError adds, leaving the
// short message shown to the requester.
func publicMessage(err error) string {
	var mediaErr *domain.MediaError
	if errors.As(err, &mediaErr) && mediaErr.Err != nil {
		return mediaErr.Err.Error()
	}
	return err.Error()
}
