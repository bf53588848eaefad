// Package places resolves free-text place names to coordinates and photo references.
package places

import (
	"context"
	"errors"

	"github.com/geocycle/geocycle/internal/geo"
)

// ErrPlaceNotFound indicates the place search returned no results.
var ErrPlaceNotFound = errors.New("place not found")

// Provider defines the interface for place search providers.
type Provider interface {
	// TextSearch returns ranked results for a free-text query. An empty slice
	// (not an error) means the provider found nothing.
	TextSearch(ctx context.Context, query string) ([]Result, error)
	// Name returns the provider identifier for logging.
	Name() string
}

// Result is a single ranked place search result.
type Result struct {
	Name             string
	FormattedAddress string
	PlaceID          string
	Location         geo.Coordinate
	PhotoReferences  []string
}

// Place is a resolved stop: the first-ranked result for a query.
type Place struct {
	// Name is the name that was asked for, not the provider's display name.
	Name           string
	Query          string
	Location       geo.Coordinate
	PhotoReference string // empty when the place has no photos
}

// Error provides detailed error information for a failed resolution.
type Error struct {
	Provider string // Provider that generated the error
	Code     string // NOT_FOUND, EMPTY_NAME or UPSTREAM
	Name     string // Stop name that failed to resolve
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
