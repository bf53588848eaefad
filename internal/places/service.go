package places

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/geocycle/geocycle/internal/provider"
)

// DefaultTimeout bounds a single place search call.
const DefaultTimeout = 10 * time.Second

// ServiceConfig holds configuration for the place resolver.
type ServiceConfig struct {
	// Provider is the place search provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// QuerySuffix is appended to every query to bias results to the service
	// region (e.g. "宇都宮").
	QuerySuffix string

	// Timeout is the per-call timeout (default: 10s).
	Timeout time.Duration
}

// Service resolves stop names to places. It holds no per-request state.
type Service struct {
	provider    Provider
	logger      zerolog.Logger
	querySuffix string
	timeout     time.Duration
}

// NewService creates a new place resolver.
func NewService(cfg ServiceConfig) *Service {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Service{
		provider:    cfg.Provider,
		logger:      cfg.Logger,
		querySuffix: strings.TrimSpace(cfg.QuerySuffix),
		timeout:     timeout,
	}
}

// Query builds the provider query for a stop name.
func (s *Service) Query(name string) string {
	name = strings.TrimSpace(name)
	if s.querySuffix == "" {
		return name
	}
	return name + " " + s.querySuffix
}

// Resolve returns the first-ranked place for name.
// Zero results yield an *Error wrapping ErrPlaceNotFound.
func (s *Service) Resolve(ctx context.Context, name string) (*Place, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &Error{
			Provider: s.provider.Name(),
			Code:     "EMPTY_NAME",
			Message:  "cannot resolve an empty stop name",
			Err:      ErrPlaceNotFound,
		}
	}

	query := s.Query(name)

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	results, err := s.provider.TextSearch(callCtx, query)
	if err != nil {
		s.logger.Error().Err(err).
			Str("query", query).
			Str("provider", s.provider.Name()).
			Msg("place search failed")
		return nil, &Error{
			Provider: s.provider.Name(),
			Code:     "UPSTREAM",
			Name:     name,
			Message:  fmt.Sprintf("place search for %q failed", name),
			Err:      provider.Classify("place search", err),
		}
	}

	if len(results) == 0 {
		s.logger.Warn().
			Str("query", query).
			Msg("place search returned no results")
		return nil, &Error{
			Provider: s.provider.Name(),
			Code:     "NOT_FOUND",
			Name:     name,
			Message:  fmt.Sprintf("could not resolve stop %q", name),
			Err:      ErrPlaceNotFound,
		}
	}

	first := results[0]
	place := &Place{
		Name:     name,
		Query:    query,
		Location: first.Location,
	}
	if len(first.PhotoReferences) > 0 {
		place.PhotoReference = first.PhotoReferences[0]
	}

	s.logger.Debug().
		Str("query", query).
		Str("matched", first.Name).
		Float64("lat", place.Location.Lat).
		Float64("lng", place.Location.Lng).
		Dur("duration", time.Since(start)).
		Msg("resolved place")

	return place, nil
}
