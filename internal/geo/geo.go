// Package geo provides the coordinate type shared by the place, directions and
// elevation packages.
package geo

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/geocycle/geocycle/pkg/polyline"
)

// ErrInvalidCoordinate indicates a latitude or longitude out of range.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Coordinate represents a geographic point in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate checks that the coordinate is within valid ranges.
func (c Coordinate) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %f out of range [-90, 90]", ErrInvalidCoordinate, c.Lat)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("%w: longitude %f out of range [-180, 180]", ErrInvalidCoordinate, c.Lng)
	}
	return nil
}

// String formats the coordinate as "lat,lng", the form accepted by the maps APIs.
func (c Coordinate) String() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'f', -1, 64)
}

// FromPolyline converts decoded polyline points to coordinates.
func FromPolyline(points []polyline.Point) []Coordinate {
	coords := make([]Coordinate, len(points))
	for i, p := range points {
		coords[i] = Coordinate{Lat: p.Lat, Lng: p.Lng}
	}
	return coords
}
