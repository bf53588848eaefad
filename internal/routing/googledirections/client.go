// Package googledirections adapts the Google Directions API to routing.Provider.
package googledirections

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"googlemaps.github.io/maps"

	"github.com/geocycle/geocycle/internal/geo"
	"github.com/geocycle/geocycle/internal/routing"
)

// ProviderName identifies this directions provider.
const ProviderName = "google-directions"

// notFoundStatus is reported when an origin, destination or waypoint could not
// be geocoded.
const notFoundStatus = "maps: NOT_FOUND"

// ClientConfig holds configuration for the Directions client.
type ClientConfig struct {
	// Maps is the shared Google Maps client (required).
	Maps *maps.Client

	// Language is the response language (optional, defaults to "ja").
	Language string

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a Google Directions client. Travel mode is always driving.
type Client struct {
	maps     *maps.Client
	language string
	logger   zerolog.Logger
}

// NewClient creates a new Directions client.
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

// GetDirections requests a driving route through the waypoints in order.
func (c *Client) GetDirections(ctx context.Context, req routing.DirectionsRequest) ([]routing.Route, error) {
	mreq := &maps.DirectionsRequest{
		Origin:      req.Origin.String(),
		Destination: req.Destination.String(),
		Mode:        maps.TravelModeDriving,
		Language:    c.language,
	}
	for _, wp := range req.Waypoints {
		mreq.Waypoints = append(mreq.Waypoints, wp.String())
	}

	c.logger.Debug().
		Str("origin", mreq.Origin).
		Str("destination", mreq.Destination).
		Int("waypoints", len(mreq.Waypoints)).
		Msg("requesting directions")

	routes, _, err := c.maps.Directions(ctx, mreq)
	if err != nil {
		if strings.HasPrefix(err.Error(), notFoundStatus) {
			return nil, nil
		}
		return nil, fmt.Errorf("directions: %w", err)
	}

	return toRoutes(routes), nil
}

func toRoutes(routes []maps.Route) []routing.Route {
	out := make([]routing.Route, 0, len(routes))
	for _, r := range routes {
		route := routing.Route{
			OverviewPolyline: r.OverviewPolyline.Points,
			Legs:             make([]routing.Leg, 0, len(r.Legs)),
		}
		for _, leg := range r.Legs {
			if leg == nil {
				continue
			}
			route.Legs = append(route.Legs, routing.Leg{
				DistanceMeters:  leg.Meters,
				DurationSeconds: int(leg.Duration.Seconds()),
				Start:           geo.Coordinate{Lat: leg.StartLocation.Lat, Lng: leg.StartLocation.Lng},
				End:             geo.Coordinate{Lat: leg.EndLocation.Lat, Lng: leg.EndLocation.Lng},
			})
		}
		out = append(out, route)
	}
	return out
}
