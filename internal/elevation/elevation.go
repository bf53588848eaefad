// Package elevation estimates the cumulative climb along a route.
//
// The route polyline is thinned to at most MaxSamples points, the provider is
// asked for the elevation of every sample in one batched call, and the gain is
// the sum of positive deltas between consecutive samples. Any failure yields
// the Unavailable sentinel instead of an error.
package elevation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/geocycle/geocycle/internal/geo"
)

// MaxSamples is the maximum number of points sent to the elevation provider.
const MaxSamples = 20

// unavailableLabel is the JSON form of an unavailable gain.
const unavailableLabel = "unavailable"

// ErrTooFewSamples indicates the route has fewer than two points.
var ErrTooFewSamples = errors.New("at least two samples are required")

// Provider defines the interface for elevation providers.
type Provider interface {
	// Elevations returns one elevation in meters per location, in order.
	Elevations(ctx context.Context, locations []geo.Coordinate) ([]float64, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// Gain is a cumulative climb in meters, or unavailable.
type Gain struct {
	meters    float64
	available bool
}

// Meters returns a known gain.
func Meters(m float64) Gain {
	return Gain{meters: m, available: true}
}

// Unavailable returns the sentinel for a gain that could not be computed.
func Unavailable() Gain {
	return Gain{}
}

// Available reports whether the gain was computed.
func (g Gain) Available() bool {
	return g.available
}

// Value returns the gain in meters and whether it is available.
func (g Gain) Value() (float64, bool) {
	return g.meters, g.available
}

// Rounded returns the gain rounded to one decimal place.
func (g Gain) Rounded() Gain {
	if !g.available {
		return g
	}
	return Meters(math.Round(g.meters*10) / 10)
}

// MarshalJSON renders a number, or the string "unavailable".
func (g Gain) MarshalJSON() ([]byte, error) {
	if !g.available {
		return json.Marshal(unavailableLabel)
	}
	return json.Marshal(g.meters)
}

// UnmarshalJSON accepts the forms produced by MarshalJSON.
func (g *Gain) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		if label != unavailableLabel {
			return fmt.Errorf("elevation gain: unexpected label %q", label)
		}
		*g = Unavailable()
		return nil
	}
	var m float64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*g = Meters(m)
	return nil
}

// Sample thins points with stride ceil(len/MaxSamples) starting at index 0.
// The samples span the whole route and never exceed MaxSamples.
func Sample(points []geo.Coordinate) []geo.Coordinate {
	if len(points) == 0 {
		return nil
	}

	stride := (len(points) + MaxSamples - 1) / MaxSamples

	samples := make([]geo.Coordinate, 0, MaxSamples)
	for i := 0; i < len(points); i += stride {
		samples = append(samples, points[i])
	}
	return samples
}

// CumulativeGain sums the positive differences between consecutive elevations.
func CumulativeGain(elevations []float64) float64 {
	gain := 0.0
	for i := 1; i < len(elevations); i++ {
		if d := elevations[i] - elevations[i-1]; d > 0 {
			gain += d
		}
	}
	return gain
}
