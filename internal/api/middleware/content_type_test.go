package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestContentTypeJSON_SetsDefault(t *testing.T) {
	rec := httptest.NewRecorder()
	ContentTypeJSON(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestRequireJSON(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		contentType string
		wantStatus  int
	}{
		{"post with json", http.MethodPost, "application/json", http.StatusOK},
		{"post with charset", http.MethodPost, "application/json; charset=utf-8", http.StatusOK},
		{"post with xml", http.MethodPost, "application/xml", http.StatusUnsupportedMediaType},
		{"patch with form", http.MethodPatch, "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"post without content type", http.MethodPost, "", http.StatusOK},
		{"get ignores content type", http.MethodGet, "text/plain", http.StatusOK},
		{"delete ignores content type", http.MethodDelete, "text/plain", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", strings.NewReader("{}"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}

			rec := httptest.NewRecorder()
			RequireJSON(okHandler()).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
