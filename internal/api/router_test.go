package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geocycle/geocycle/internal/api"
	"github.com/geocycle/geocycle/internal/api/models"
	"github.com/geocycle/geocycle/internal/photo"
	"github.com/geocycle/geocycle/internal/planner"
	"github.com/geocycle/geocycle/internal/provider/resilience"
)

type stubPlanner struct{}

func (stubPlanner) PlanCourses(context.Context, planner.TripRequest) ([]planner.Course, error) {
	return []planner.Course{{Title: "餃子めぐり"}}, nil
}

func (stubPlanner) PlanCourse(context.Context, planner.TripRequest) (*planner.Course, error) {
	return &planner.Course{Title: "餃子めぐり"}, nil
}

func (stubPlanner) PlanShop(context.Context, planner.TripRequest) (*planner.ShopPlan, error) {
	return &planner.ShopPlan{Shop: planner.ShopLocation{Name: "みんみん"}}, nil
}

type stubPhotos struct{}

func (stubPhotos) Fetch(context.Context, string, int) (*photo.Photo, error) {
	return &photo.Photo{ContentType: "image/jpeg", Body: []byte("jpeg")}, nil
}

func (stubPhotos) DefaultMaxWidth() int { return 400 }

func newTestRouter(mods ...func(*api.RouterConfig)) http.Handler {
	cfg := api.RouterConfig{
		Version:   "test",
		BuildTime: "2024-01-01T00:00:00Z",
		Logger:    zerolog.New(io.Discard),
		Planner:   stubPlanner{},
		Photos:    stubPhotos{},
		Providers: resilience.NewRegistry(),
	}
	for _, m := range mods {
		m(&cfg)
	}
	return api.NewRouter(cfg)
}

func TestRouter_HealthCheck(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/ops/health", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	var health models.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
}

func TestRouter_ReadinessAndStatus(t *testing.T) {
	registry := resilience.NewRegistry()
	resilience.NewClient(func() resilience.ClientConfig {
		cfg := resilience.DefaultClientConfig("google-maps")
		cfg.Registry = registry
		return cfg
	}())
	router := newTestRouter(func(c *api.RouterConfig) { c.Providers = registry })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ops/ready", http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ops/status", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)

	var status struct {
		Status    models.HealthStatus `json:"status"`
		Providers []struct {
			Provider     string `json:"provider"`
			CircuitState string `json:"circuitState"`
		} `json:"providers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, models.HealthStatusOK, status.Status)
	require.Len(t, status.Providers, 1)
	assert.Equal(t, "google-maps", status.Providers[0].Provider)
	assert.Equal(t, "closed", status.Providers[0].CircuitState)
}

func TestRouter_Generate(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/generate",
		strings.NewReader(`{"course":"half-day","food_type":"juicy","include_sightseeing":false,"start_point":"宇都宮駅"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var courses []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &courses))
	require.Len(t, courses, 1)
	assert.Equal(t, "餃子めぐり", courses[0]["title"])
}

func TestRouter_GenerateRequiresJSON(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader("course=half-day"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestRouter_GenerateRateLimited(t *testing.T) {
	router := newTestRouter(func(c *api.RouterConfig) { c.GenerateRateLimitPerMin = 1 })

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/generate",
			strings.NewReader(`{"course":"half-day","food_type":"juicy","start_point":"宇都宮駅"}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "198.51.100.7:4000"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
}

func TestRouter_PlacePhoto(t *testing.T) {
	router := newTestRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/place-photo?ref=abc", http.NoBody))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, "jpeg", w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/place-photo", http.NoBody))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodOptions, "/generate", http.NoBody)
	req.Header.Set("Origin", "http://localhost:5000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_NotFound(t *testing.T) {
	router := newTestRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/me", http.NoBody))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_OptionalRoutes(t *testing.T) {
	router := newTestRouter(func(c *api.RouterConfig) {
		c.Planner = nil
		c.Photos = nil
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/place-photo?ref=abc", http.NoBody))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ops/health", http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)
}
