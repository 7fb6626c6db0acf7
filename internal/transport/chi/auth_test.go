package chi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBearerAuthMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		keys       []string
		path       string
		authHeader string
		wantStatus int
	}{
		{
			name:       "no keys disables auth",
			keys:       nil,
			path:       "/api/v1/indices/books/search",
			wantStatus: http.StatusOK,
		},
		{
			name:       "health is exempt",
			keys:       []string{"secret"},
			path:       "/health",
			wantStatus: http.StatusOK,
		},
		{
			name:       "metrics is exempt",
			keys:       []string{"secret"},
			path:       "/metrics",
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing header",
			keys:       []string{"secret"},
			path:       "/api/v1/indices/books/search",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			keys:       []string{"secret"},
			path:       "/api/v1/indices/books/search",
			authHeader: "Basic c2VjcmV0",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid key",
			keys:       []string{"secret"},
			path:       "/api/v1/indices/books/search",
			authHeader: "Bearer wrong",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "valid key",
			keys:       []string{"secret"},
			path:       "/api/v1/indices/books/search",
			authHeader: "Bearer secret",
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := BearerAuthMiddleware(tt.keys)(next)

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
