package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/geocycle/geocycle/internal/api/middleware"
)

func serveRequestID(t *testing.T, incoming string) (ctxID, headerID string) {
	t.Helper()

	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = middleware.GetRequestID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/generate", http.NoBody)
	if incoming != "" {
		req.Header.Set(middleware.RequestIDHeader, incoming)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return ctxID, rec.Header().Get(middleware.RequestIDHeader)
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{name: "generated when absent", incoming: ""},
		{name: "caller id kept", incoming: "web-client-7f3a", keep: true},
		{name: "whitespace rejected", incoming: "two words"},
		{name: "non-ascii rejected", incoming: "餃子"},
		{name: "overlong rejected", incoming: strings.Repeat("a", 129)},
		{name: "max length kept", incoming: strings.Repeat("a", 128), keep: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctxID, headerID := serveRequestID(t, tt.incoming)

			assert.Equal(t, ctxID, headerID)
			if tt.keep {
				assert.Equal(t, tt.incoming, headerID)
				return
			}
			assert.True(t, strings.HasPrefix(headerID, "req_"), "got %q", headerID)
			assert.Len(t, headerID, len("req_")+22)
		})
	}
}

func TestRequestID_Unique(t *testing.T) {
	seen := make(map[string]struct{}, 50)
	for i := 0; i < 50; i++ {
		_, id := serveRequestID(t, "")
		_, dup := seen[id]
		assert.False(t, dup, "duplicate request ID %s", id)
		seen[id] = struct{}{}
	}
}

func TestGetRequestID_EmptyWithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/place-photo", http.NoBody)
	assert.Empty(t, middleware.GetRequestID(req.Context()))
	assert.Equal(t, "req_x", middleware.GetRequestID(middleware.WithRequestID(req.Context(), "req_x")))
}
