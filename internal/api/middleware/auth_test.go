package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("success"))
	})
}

func TestAPIKeyAuth(t *testing.T) {
	const apiKey = "test-api-key"

	tests := []struct {
		name   string
		target string
		header map[string]string
		want   int
	}{
		{name: "x-api-key header", target: "/api/info", header: map[string]string{"X-API-Key": apiKey}, want: http.StatusOK},
		{name: "bearer token", target: "/api/info", header: map[string]string{"Authorization": "Bearer " + apiKey}, want: http.StatusOK},
		{name: "key param", target: "/api/info?key=" + apiKey, want: http.StatusOK},
		{name: "api_key param", target: "/api/info?api_key=" + apiKey, want: http.StatusOK},
		{name: "missing key", target: "/api/info", want: http.StatusUnauthorized},
		{name: "wrong key", target: "/api/info", header: map[string]string{"X-API-Key": "wrong"}, want: http.StatusUnauthorized},
		{name: "short bearer", target: "/api/info", header: map[string]string{"Authorization": "Bear"}, want: http.StatusUnauthorized},
		{name: "lowercase bearer", target: "/api/info", header: map[string]string{"Authorization": "bearer " + apiKey}, want: http.StatusUnauthorized},
		{name: "header wins over query", target: "/api/info?key=wrong", header: map[string]string{"X-API-Key": apiKey}, want: http.StatusOK},
		{name: "bearer wins over query", target: "/api/info?key=wrong", header: map[string]string{"Authorization": "Bearer " + apiKey}, want: http.StatusOK},
	}

	handler := APIKeyAuth(apiKey)(okHandler())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.target, nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			if tt.want == http.StatusUnauthorized {
				if ct := w.Header().Get("Content-Type"); ct != "application/json" {
					t.Errorf("Content-Type = %q, want application/json", ct)
				}
			}
		})
	}
}

func TestAPIKeyAuth_Disabled(t *testing.T) {
	handler := APIKeyAuth("")(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/info", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestCORS(t *testing.T) {
	handler := CORS(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/download", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	tests := []struct {
		header string
		want   string
	}{
		{"Access-Control-Allow-Origin", "*"},
		{"Access-Control-Allow-Methods", "GET, POST, OPTIONS"},
		{"Access-Control-Allow-Headers", "Content-Type, X-API-Key, Authorization"},
		{"Access-Control-Expose-Headers", "Content-Disposition, Content-Length"},
		{"Access-Control-Max-Age", "86400"},
	}
	for _, tt := range tests {
		if got := w.Header().Get(tt.header); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/download", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if called {
		t.Error("next handler should not be called for OPTIONS request")
	}
}
