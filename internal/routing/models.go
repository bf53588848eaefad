// Package routing fetches driving directions through an ordered list of stops.
package routing

import (
	"context"
	"errors"
	"strings"

	"github.com/geocycle/geocycle/internal/geo"
)

// Sentinel errors for routing operations.
var (
	// ErrNoRouteFound indicates no valid route exists between the given points.
	ErrNoRouteFound = errors.New("no route found between the given points")
	// ErrInvalidCoordinates indicates the provided coordinates are invalid or out of range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// Provider defines the interface for directions providers.
type Provider interface {
	// GetDirections retrieves driving routes for the request.
	// An empty slice means the provider found no route.
	GetDirections(ctx context.Context, req DirectionsRequest) ([]Route, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// Location is a route endpoint, either a free-text address or a coordinate.
type Location struct {
	Address    string
	Coordinate geo.Coordinate
}

// AddressLocation returns a Location addressed by free text.
func AddressLocation(address string) Location {
	return Location{Address: strings.TrimSpace(address)}
}

// CoordinateLocation returns a Location addressed by coordinate.
func CoordinateLocation(c geo.Coordinate) Location {
	return Location{Coordinate: c}
}

// String returns the form accepted by the directions API.
func (l Location) String() string {
	if l.Address != "" {
		return l.Address
	}
	return l.Coordinate.String()
}

func (l Location) validate() error {
	if l.Address != "" {
		return nil
	}
	return l.Coordinate.Validate()
}

// DirectionsRequest is the request for a driving route.
type DirectionsRequest struct {
	Origin      Location
	Destination Location
	Waypoints   []Location // Intermediate stops, visited in order
}

// Route is a single driving route.
type Route struct {
	Legs             []Leg
	OverviewPolyline string // Encoded polyline (precision 5)
}

// Leg is the part of a route between two consecutive stops.
type Leg struct {
	DistanceMeters  int
	DurationSeconds int
	Start           geo.Coordinate
	End             geo.Coordinate
}

// TotalDistanceMeters sums the distance of every leg.
func (r *Route) TotalDistanceMeters() int {
	total := 0
	for _, leg := range r.Legs {
		total += leg.DistanceMeters
	}
	return total
}

// TotalDurationSeconds sums the duration of every leg.
func (r *Route) TotalDurationSeconds() int {
	total := 0
	for _, leg := range r.Legs {
		total += leg.DurationSeconds
	}
	return total
}

// Error provides detailed error information from the routing provider.
type Error struct {
	Provider string // Provider that generated the error
	Code     string // Error code
	Message  string // Human-readable error message
	Err      error  // Underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}
