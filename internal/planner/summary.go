package planner

import (
	"math"

	"github.com/geocycle/geocycle/internal/elevation"
	"github.com/geocycle/geocycle/internal/generation"
	"github.com/geocycle/geocycle/internal/routing"
)

// Calorie model constants.
const (
	CyclingMETs  = 8.0
	BodyWeightKg = 60.0
)

// BurnedCalories estimates kcal burned cycling for the given duration.
func BurnedCalories(durationSeconds int) float64 {
	return CyclingMETs * BodyWeightKg * float64(durationSeconds) / 3600
}

// Summarize derives the route summary from directions legs and a gain.
func Summarize(route *routing.Route, gain elevation.Gain) RouteSummary {
	meters := route.TotalDistanceMeters()
	seconds := route.TotalDurationSeconds()

	return RouteSummary{
		DistanceKm:     round(float64(meters)/1000, 2),
		DurationMin:    int(math.Round(float64(seconds) / 60)),
		ElevationGainM: gain.Rounded(),
		CaloriesKcal:   round(BurnedCalories(seconds), 1),
	}
}

// FoodCalories sums the parseable spot calories, or returns nil when none parse.
func FoodCalories(spots []generation.Spot) *float64 {
	total := 0.0
	found := false
	for _, s := range spots {
		if v, ok := s.Calories.Value(); ok {
			total += v
			found = true
		}
	}
	if !found {
		return nil
	}
	total = round(total, 1)
	return &total
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
