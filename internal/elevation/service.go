package elevation

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/geocycle/geocycle/internal/geo"
	"github.com/geocycle/geocycle/pkg/polyline"
)

// DefaultTimeout bounds a single elevation call.
const DefaultTimeout = 10 * time.Second

// ServiceConfig holds configuration for the elevation sampler.
type ServiceConfig struct {
	// Provider is the elevation provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// Timeout is the per-call timeout (default: 10s).
	Timeout time.Duration
}

// Service samples a route and computes its elevation gain.
type Service struct {
	provider Provider
	logger   zerolog.Logger
	timeout  time.Duration
}

// NewService creates a new elevation sampler.
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

// Gain decodes an encoded route polyline and returns its elevation gain.
// It never fails: any problem is logged and reported as Unavailable.
func (s *Service) Gain(ctx context.Context, encoded string) Gain {
	gain, err := s.gain(ctx, encoded)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("provider", s.provider.Name()).
			Msg("elevation gain unavailable")
		return Unavailable()
	}
	return Meters(gain)
}

func (s *Service) gain(ctx context.Context, encoded string) (float64, error) {
	points, err := polyline.Decode(encoded)
	if err != nil {
		return 0, fmt.Errorf("decode route polyline: %w", err)
	}

	samples := Sample(geo.FromPolyline(points))
	if len(samples) < 2 {
		return 0, fmt.Errorf("%w: got %d", ErrTooFewSamples, len(samples))
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	elevations, err := s.provider.Elevations(callCtx, samples)
	if err != nil {
		return 0, fmt.Errorf("fetch elevations: %w", err)
	}
	if len(elevations) < 2 {
		return 0, fmt.Errorf("%w: provider returned %d", ErrTooFewSamples, len(elevations))
	}

	gain := CumulativeGain(elevations)
	s.logger.Debug().
		Int("points", len(points)).
		Int("samples", len(samples)).
		Float64("gain_m", gain).
		Msg("computed elevation gain")

	return gain, nil
}
