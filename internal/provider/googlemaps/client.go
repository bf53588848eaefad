// Package googlemaps builds the Google Maps client shared by the places,
// directions and elevation adapters.
package googlemaps

import (
	"errors"
	"fmt"
	"net/http"

	"googlemaps.github.io/maps"
)

// ProviderName is the registry and circuit-breaker name for Maps traffic.
const ProviderName = "google-maps"

// ErrMissingAPIKey indicates no API key was configured.
var ErrMissingAPIKey = errors.New("google maps api key is required")

// Config holds configuration for the shared Maps client.
type Config struct {
	// APIKey authenticates every request (required).
	APIKey string

	// HTTPClient carries the requests. Production passes the
	// circuit-breaking client from the resilience package.
	HTTPClient *http.Client

	// BaseURL overrides the API host (tests only).
	BaseURL string

	// RequestsPerSecond caps outgoing calls; 0 keeps the library default.
	RequestsPerSecond int
}

// NewClient creates the Maps client.
func NewClient(cfg Config) (*maps.Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	opts := []maps.ClientOption{maps.WithAPIKey(cfg.APIKey)}
	if cfg.HTTPClient != nil {
		opts = append(opts, maps.WithHTTPClient(cfg.HTTPClient))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, maps.WithBaseURL(cfg.BaseURL))
	}
	if cfg.RequestsPerSecond > 0 {
		opts = append(opts, maps.WithRateLimit(cfg.RequestsPerSecond))
	}

	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create maps client: %w", err)
	}
	return client, nil
}
