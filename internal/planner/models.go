package planner

import (
	"errors"

	"github.com/geocycle/geocycle/internal/elevation"
	"github.com/geocycle/geocycle/internal/generation"
	"github.com/geocycle/geocycle/internal/geo"
	"github.com/geocycle/geocycle/internal/provider"
)

// Sentinel errors for planning.
var (
	// ErrTooFar is a business rejection: the start point lies outside the
	// service area. It is reported to clients as a notice, not a failure.
	ErrTooFar = errors.New("start point is too far from the service area")
	// ErrTooFewStops indicates a generated course with fewer than two stops.
	ErrTooFewStops = errors.New("course needs at least two stops")

	// ErrUpstreamTimeout indicates an upstream call exceeded its deadline.
	ErrUpstreamTimeout = provider.ErrUpstreamTimeout
	// ErrUpstreamUnavailable indicates an upstream call failed at the transport level.
	ErrUpstreamUnavailable = provider.ErrUpstreamUnavailable
)

// Version selects the response contract of POST /generate.
type Version string

const (
	// VersionCourses returns an array of courses.
	VersionCourses Version = "v3"
	// VersionCourse returns a single course object.
	VersionCourse Version = "v2"
	// VersionShop returns one gyoza shop with a route from the reference location.
	VersionShop Version = "v1"
)

// TripRequest holds the user's trip parameters.
type TripRequest struct {
	Version            Version                 `json:"version,omitempty" validate:"omitempty,oneof=v1 v2 v3"`
	Course             generation.CourseLength `json:"course" validate:"omitempty,oneof=half-day full-day"`
	FoodType           string                  `json:"food_type" validate:"max=200"`
	IncludeSightseeing bool                    `json:"include_sightseeing"`
	StartPoint         string                  `json:"start_point" validate:"max=200"`

	// Legacy shop contract.
	Distance   int    `json:"distance,omitempty" validate:"gte=0"`
	Elevation  int    `json:"elevation,omitempty" validate:"gte=0"`
	Time       int    `json:"time,omitempty" validate:"gte=0"`
	GyotzaType string `json:"gyotza_type,omitempty" validate:"max=200"`
}

// ResolvedStop is a stop name with its coordinate.
type ResolvedStop struct {
	Name string `json:"name"`
	geo.Coordinate
	PhotoURL string `json:"photo_url,omitempty"`

	photoReference string
}

// Spot is a generated spot record with its photo.
type Spot struct {
	generation.Spot
	PhotoURL string `json:"photo_url,omitempty"`
}

// RouteSummary holds the values derived from directions and elevation data.
type RouteSummary struct {
	DistanceKm       float64        `json:"distance_km"`
	DurationMin      int            `json:"duration_min"`
	ElevationGainM   elevation.Gain `json:"elevation_gain_m"`
	CaloriesKcal     float64        `json:"calories_kcal"`
	FoodCaloriesKcal *float64       `json:"food_calories_kcal,omitempty"`
}

// Course is an assembled cycling course.
type Course struct {
	Title            string           `json:"title"`
	ShortDescription string           `json:"short_description"`
	Description      string           `json:"description"`
	Summary          RouteSummary     `json:"route_summary"`
	Stops            []ResolvedStop   `json:"stops"`
	Polyline         []geo.Coordinate `json:"polyline"`
	Spots            []Spot           `json:"spots"`
}

// ShopPlan is the legacy single-shop response.
type ShopPlan struct {
	Shop    ShopLocation `json:"gyotza_shop"`
	Summary RouteSummary `json:"route_summary"`
}

// ShopLocation is a recommended shop and where it is.
type ShopLocation struct {
	Name    string `json:"name"`
	Comment string `json:"comment"`
	geo.Coordinate
}
