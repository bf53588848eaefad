// Package googleelevation adapts the Google Elevation API to elevation.Provider.
package googleelevation

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"googlemaps.github.io/maps"

	"github.com/geocycle/geocycle/internal/geo"
)

// ProviderName identifies this elevation provider.
const ProviderName = "google-elevation"

// ClientConfig holds configuration for the Elevation client.
type ClientConfig struct {
	// Maps is the shared Google Maps client (required).
	Maps *maps.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a Google Elevation client.
type Client struct {
	maps   *maps.Client
	logger zerolog.Logger
}

// NewClient creates a new Elevation client.
func NewClient(cfg ClientConfig) *Client {
	return &Client{
		maps:   cfg.Maps,
		logger: cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Elevations requests the elevation of every location in a single call.
func (c *Client) Elevations(ctx context.Context, locations []geo.Coordinate) ([]float64, error) {
	req := &maps.ElevationRequest{
		Locations: make([]maps.LatLng, len(locations)),
	}
	for i, loc := range locations {
		req.Locations[i] = maps.LatLng{Lat: loc.Lat, Lng: loc.Lng}
	}

	c.logger.Debug().
		Int("locations", len(locations)).
		Msg("requesting elevations")

	results, err := c.maps.Elevation(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("elevation: %w", err)
	}

	elevations := make([]float64, len(results))
	for i, r := range results {
		elevations[i] = r.Elevation
	}
	return elevations, nil
}
