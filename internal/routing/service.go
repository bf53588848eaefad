package routing

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/geocycle/geocycle/internal/provider"
)

// DefaultTimeout bounds a single directions call.
const DefaultTimeout = 10 * time.Second

// ServiceConfig holds configuration for the routing service.
type ServiceConfig struct {
	// Provider is the directions provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// Timeout is the per-call timeout (default: 10s).
	Timeout time.Duration
}

// Service fetches driving directions. Results are never cached.
type Service struct {
	provider Provider
	logger   zerolog.Logger
	timeout  time.Duration
}

// NewService creates a new routing service.
func NewService(cfg ServiceConfig) *Service {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Service{
		provider: cfg.Provider,
		logger:   cfg.Logger,
		timeout:  timeout,
	}
}

// GetDirections returns the first route the provider proposes.
func (s *Service) GetDirections(ctx context.Context, req DirectionsRequest) (*Route, error) {
	if err := req.Origin.validate(); err != nil {
		return nil, &Error{
			Provider: s.provider.Name(),
			Code:     "INVALID_ORIGIN",
			Message:  "invalid origin coordinates",
			Err:      ErrInvalidCoordinates,
		}
	}
	if err := req.Destination.validate(); err != nil {
		return nil, &Error{
			Provider: s.provider.Name(),
			Code:     "INVALID_DESTINATION",
			Message:  "invalid destination coordinates",
			Err:      ErrInvalidCoordinates,
		}
	}
	for i, wp := range req.Waypoints {
		if err := wp.validate(); err != nil {
			return nil, &Error{
				Provider: s.provider.Name(),
				Code:     "INVALID_WAYPOINT",
				Message:  fmt.Sprintf("invalid coordinates for waypoint %d", i),
				Err:      ErrInvalidCoordinates,
			}
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.logger.Debug().
		Str("origin", req.Origin.String()).
		Str("destination", req.Destination.String()).
		Int("waypoints", len(req.Waypoints)).
		Str("provider", s.provider.Name()).
		Msg("fetching directions from provider")

	routes, err := s.provider.GetDirections(callCtx, req)
	if err != nil {
		s.logger.Error().Err(err).
			Str("origin", req.Origin.String()).
			Str("destination", req.Destination.String()).
			Msg("failed to fetch directions")
		return nil, &Error{
			Provider: s.provider.Name(),
			Code:     "UPSTREAM",
			Message:  "directions request failed",
			Err:      provider.Classify("directions", err),
		}
	}

	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return nil, &Error{
			Provider: s.provider.Name(),
			Code:     "NO_ROUTE",
			Message:  fmt.Sprintf("no route from %s to %s", req.Origin, req.Destination),
			Err:      ErrNoRouteFound,
		}
	}

	route := routes[0]
	s.logger.Debug().
		Int("legs", len(route.Legs)).
		Int("distance_m", route.TotalDistanceMeters()).
		Int("duration_s", route.TotalDurationSeconds()).
		Msg("fetched directions")

	return &route, nil
}

// ProviderName returns the name of the underlying provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}
