// Package googleplaces adapts the Google Places text search API to places.Provider.
package googleplaces

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"googlemaps.github.io/maps"

	"github.com/geocycle/geocycle/internal/geo"
	"github.com/geocycle/geocycle/internal/places"
)

// ProviderName identifies this place provider.
const ProviderName = "google-places"

// ClientConfig holds configuration for the Places client.
type ClientConfig struct {
	// Maps is the shared Google Maps client (required).
	Maps *maps.Client

	// Language is the result language (optional, defaults to "ja").
	Language string

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a Google Places text search client.
type Client struct {
	maps     *maps.Client
	language string
	logger   zerolog.Logger
}

// NewClient creates a new Places client.
func NewClient(cfg ClientConfig) *Client {
	language := cfg.Language
	if language == "" {
		language = "ja"
	}

	return &Client{
		maps:     cfg.Maps,
		language: language,
		logger:   cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// TextSearch runs a Places text search. ZERO_RESULTS yields an empty slice.
func (c *Client) TextSearch(ctx context.Context, query string) ([]places.Result, error) {
	c.logger.Debug().
		Str("query", query).
		Msg("requesting place text search")

	resp, err := c.maps.TextSearch(ctx, &maps.TextSearchRequest{
		Query:    query,
		Language: c.language,
	})
	if err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}

	results := make([]places.Result, 0, len(resp.Results))
	for i := range resp.Results {
		r := &resp.Results[i]
		result := places.Result{
			Name:             r.Name,
			FormattedAddress: r.FormattedAddress,
			PlaceID:          r.PlaceID,
			Location: geo.Coordinate{
				Lat: r.Geometry.Location.Lat,
				Lng: r.Geometry.Location.Lng,
			},
		}
		for _, photo := range r.Photos {
			if photo.PhotoReference != "" {
				result.PhotoReferences = append(result.PhotoReferences, photo.PhotoReference)
			}
		}
		results = append(results, result)
	}

	return results, nil
}
