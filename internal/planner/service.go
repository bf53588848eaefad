// Package planner assembles gyoza cycling courses: it asks the model for
// candidate courses, resolves every stop, fetches a driving route through
// them and derives the route summary.
package planner

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/geocycle/geocycle/internal/elevation"
	"github.com/geocycle/geocycle/internal/generation"
	"github.com/geocycle/geocycle/internal/geo"
	"github.com/geocycle/geocycle/internal/places"
	"github.com/geocycle/geocycle/internal/routing"
	"github.com/geocycle/geocycle/internal/telemetry"
	"github.com/geocycle/geocycle/pkg/polyline"
)

// Defaults for ServiceConfig.
const (
	DefaultReferenceName      = "宇都宮駅"
	DefaultMaxStartDistanceKm = 100
	DefaultResolveConcurrency = 4
	DefaultPhotoBaseURL       = "/place-photo"
	DefaultPhotoMaxWidth      = 400
)

// DefaultReferenceLocation is Utsunomiya Station.
var DefaultReferenceLocation = geo.Coordinate{Lat: 36.5594, Lng: 139.8985}

// PlaceResolver resolves stop names to places.
type PlaceResolver interface {
	Resolve(ctx context.Context, name string) (*places.Place, error)
}

// DirectionsFetcher fetches driving routes.
type DirectionsFetcher interface {
	GetDirections(ctx context.Context, req routing.DirectionsRequest) (*routing.Route, error)
}

// ElevationSampler estimates the climb along an encoded route polyline.
type ElevationSampler interface {
	Gain(ctx context.Context, encoded string) elevation.Gain
}

// CourseGenerator asks the model for courses or a shop.
type CourseGenerator interface {
	Courses(ctx context.Context, in generation.PromptInput) ([]generation.Candidate, error)
	Course(ctx context.Context, in generation.PromptInput) (*generation.Candidate, error)
	Shop(ctx context.Context, in generation.PromptInput) (*generation.Shop, error)
}

// ServiceConfig holds configuration for the planner.
type ServiceConfig struct {
	Places     PlaceResolver
	Directions DirectionsFetcher
	Elevation  ElevationSampler
	Generator  CourseGenerator

	// Logger for service operations.
	Logger zerolog.Logger

	// ReferenceName is the default start point and service area centre.
	ReferenceName string
	// ReferenceLocation is the coordinate of ReferenceName.
	ReferenceLocation geo.Coordinate
	// MaxStartDistanceKm is the driving distance limit from the start point
	// to the reference location (default: 100).
	MaxStartDistanceKm float64

	// ResolveConcurrency bounds concurrent place searches per course (default: 4).
	ResolveConcurrency int

	// PhotoBaseURL is the photo proxy URL used to build photo links.
	PhotoBaseURL string
	// PhotoMaxWidth is passed to the photo proxy (default: 400).
	PhotoMaxWidth int
}

// Service plans courses. It is safe for concurrent use.
type Service struct {
	places     PlaceResolver
	directions DirectionsFetcher
	elevation  ElevationSampler
	generator  CourseGenerator
	logger     zerolog.Logger

	referenceName      string
	referenceLocation  geo.Coordinate
	maxStartDistanceKm float64
	resolveConcurrency int
	photoBaseURL       string
	photoMaxWidth      int
}

// NewService creates a new planner.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		places:             cfg.Places,
		directions:         cfg.Directions,
		elevation:          cfg.Elevation,
		generator:          cfg.Generator,
		logger:             cfg.Logger,
		referenceName:      strings.TrimSpace(cfg.ReferenceName),
		referenceLocation:  cfg.ReferenceLocation,
		maxStartDistanceKm: cfg.MaxStartDistanceKm,
		resolveConcurrency: cfg.ResolveConcurrency,
		photoBaseURL:       cfg.PhotoBaseURL,
		photoMaxWidth:      cfg.PhotoMaxWidth,
	}

	if s.referenceName == "" {
		s.referenceName = DefaultReferenceName
	}
	if s.referenceLocation == (geo.Coordinate{}) {
		s.referenceLocation = DefaultReferenceLocation
	}
	if s.maxStartDistanceKm <= 0 {
		s.maxStartDistanceKm = DefaultMaxStartDistanceKm
	}
	if s.resolveConcurrency <= 0 {
		s.resolveConcurrency = DefaultResolveConcurrency
	}
	if s.photoBaseURL == "" {
		s.photoBaseURL = DefaultPhotoBaseURL
	}
	if s.photoMaxWidth <= 0 {
		s.photoMaxWidth = DefaultPhotoMaxWidth
	}

	return s
}

// PlanCourses generates and assembles several courses.
// It fails with ErrTooFar, before any model call, when the start point is
// outside the service area.
func (s *Service) PlanCourses(ctx context.Context, req TripRequest) ([]Course, error) {
	start := s.startPoint(req)
	if err := s.validateOrigin(ctx, start); err != nil {
		return nil, err
	}

	candidates, err := s.generator.Courses(ctx, s.promptInput(req, start))
	if err != nil {
		return nil, fmt.Errorf("generate courses: %w", err)
	}

	s.logger.Info().
		Int("candidates", len(candidates)).
		Str("start_point", start).
		Msg("model proposed courses")

	courses := make([]Course, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	for i := range candidates {
		g.Go(func() error {
			course, err := s.assemble(gctx, &candidates[i])
			if err != nil {
				return fmt.Errorf("course %q: %w", candidates[i].Title, err)
			}
			courses[i] = *course
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return courses, nil
}

// PlanCourse generates and assembles a single course.
func (s *Service) PlanCourse(ctx context.Context, req TripRequest) (*Course, error) {
	start := s.startPoint(req)
	if err := s.validateOrigin(ctx, start); err != nil {
		return nil, err
	}

	candidate, err := s.generator.Course(ctx, s.promptInput(req, start))
	if err != nil {
		return nil, fmt.Errorf("generate course: %w", err)
	}

	course, err := s.assemble(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("course %q: %w", candidate.Title, err)
	}
	return course, nil
}

// PlanShop recommends one gyoza shop and summarizes the ride to it from the
// reference location.
func (s *Service) PlanShop(ctx context.Context, req TripRequest) (*ShopPlan, error) {
	foodType := req.GyotzaType
	if foodType == "" {
		foodType = req.FoodType
	}

	shop, err := s.generator.Shop(ctx, generation.PromptInput{
		FoodType:    foodType,
		DistanceKm:  req.Distance,
		ElevationM:  req.Elevation,
		DurationMin: req.Time,
	})
	if err != nil {
		return nil, fmt.Errorf("generate shop: %w", err)
	}

	place, err := s.places.Resolve(ctx, shop.Name)
	if err != nil {
		return nil, err
	}

	route, err := s.directions.GetDirections(ctx, routing.DirectionsRequest{
		Origin:      routing.CoordinateLocation(s.referenceLocation),
		Destination: routing.CoordinateLocation(place.Location),
	})
	if err != nil {
		return nil, err
	}

	gain := s.elevation.Gain(ctx, route.OverviewPolyline)

	return &ShopPlan{
		Shop: ShopLocation{
			Name:       shop.Name,
			Comment:    shop.Comment,
			Coordinate: place.Location,
		},
		Summary: Summarize(route, gain),
	}, nil
}

func (s *Service) startPoint(req TripRequest) string {
	if start := strings.TrimSpace(req.StartPoint); start != "" {
		return start
	}
	return s.referenceName
}

func (s *Service) promptInput(req TripRequest, start string) generation.PromptInput {
	course := req.Course
	if course == "" {
		course = generation.HalfDay
	}
	return generation.PromptInput{
		StartPoint:         start,
		FoodType:           req.FoodType,
		IncludeSightseeing: req.IncludeSightseeing,
		Course:             course,
	}
}

// validateOrigin resolves the start point and rejects it when its driving
// distance to the reference location exceeds the limit. Start points that
// cannot be found or routed are rejected too.
func (s *Service) validateOrigin(ctx context.Context, start string) (err error) {
	if start == s.referenceName {
		return nil
	}

	ctx, span := telemetry.StartSpan(ctx, "planner.validate_origin",
		attribute.String("planner.start_point", start))
	defer func() { telemetry.End(span, err) }()

	origin, err := s.places.Resolve(ctx, start)
	if errors.Is(err, places.ErrPlaceNotFound) {
		return fmt.Errorf("%w: start point %s could not be found", ErrTooFar, start)
	}
	if err != nil {
		return fmt.Errorf("resolve start point: %w", err)
	}

	route, err := s.directions.GetDirections(ctx, routing.DirectionsRequest{
		Origin:      routing.CoordinateLocation(origin.Location),
		Destination: routing.CoordinateLocation(s.referenceLocation),
	})
	if errors.Is(err, routing.ErrNoRouteFound) {
		return fmt.Errorf("%w: no driving route from %s to %s", ErrTooFar, start, s.referenceName)
	}
	if err != nil {
		return fmt.Errorf("validate start point: %w", err)
	}

	km := float64(route.TotalDistanceMeters()) / 1000
	if km > s.maxStartDistanceKm {
		s.logger.Info().
			Str("start_point", start).
			Float64("distance_km", km).
			Msg("start point outside service area")
		return fmt.Errorf("%w: %s is %.1f km from %s (limit %.0f km)", ErrTooFar, start, km, s.referenceName, s.maxStartDistanceKm)
	}
	return nil
}

// assemble resolves a candidate's stops, routes through them and builds the course.
func (s *Service) assemble(ctx context.Context, c *generation.Candidate) (_ *Course, err error) {
	ctx, span := telemetry.StartSpan(ctx, "planner.assemble",
		attribute.String("planner.course", c.Title),
		attribute.Int("planner.stops", len(c.Stops)))
	defer func() { telemetry.End(span, err) }()

	if len(c.Stops) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewStops, len(c.Stops))
	}

	stops, err := s.resolveStops(ctx, c.Stops)
	if err != nil {
		return nil, err
	}

	req := routing.DirectionsRequest{
		Origin:      routing.CoordinateLocation(stops[0].Coordinate),
		Destination: routing.CoordinateLocation(stops[len(stops)-1].Coordinate),
	}
	for _, stop := range stops[1 : len(stops)-1] {
		req.Waypoints = append(req.Waypoints, routing.CoordinateLocation(stop.Coordinate))
	}

	route, err := s.directions.GetDirections(ctx, req)
	if err != nil {
		return nil, err
	}

	points, err := polyline.Decode(route.OverviewPolyline)
	if err != nil {
		return nil, fmt.Errorf("decode route polyline: %w", err)
	}

	gain := s.elevation.Gain(ctx, route.OverviewPolyline)

	summary := Summarize(route, gain)
	summary.FoodCaloriesKcal = FoodCalories(c.Spots)

	return &Course{
		Title:            c.Title,
		ShortDescription: c.ShortDescription,
		Description:      c.Description,
		Summary:          summary,
		Stops:            stops,
		Polyline:         geo.FromPolyline(points),
		Spots:            s.enrichSpots(ctx, c.Spots, stops),
	}, nil
}

// resolveStops resolves every stop name, preserving order. The first failure
// cancels the remaining searches.
func (s *Service) resolveStops(ctx context.Context, names []string) ([]ResolvedStop, error) {
	stops := make([]ResolvedStop, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.resolveConcurrency)
	for i, name := range names {
		g.Go(func() error {
			place, err := s.places.Resolve(gctx, name)
			if err != nil {
				return err
			}
			stops[i] = ResolvedStop{
				Name:           name,
				Coordinate:     place.Location,
				PhotoURL:       s.photoURL(place.PhotoReference),
				photoReference: place.PhotoReference,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return stops, nil
}

// enrichSpots attaches a photo to every spot. A spot named like a resolved
// stop reuses that stop's photo; others get one best-effort search.
func (s *Service) enrichSpots(ctx context.Context, spots []generation.Spot, stops []ResolvedStop) []Spot {
	byName := make(map[string]string, len(stops))
	for _, stop := range stops {
		if stop.photoReference != "" {
			byName[strings.TrimSpace(stop.Name)] = stop.photoReference
		}
	}

	out := make([]Spot, len(spots))

	var g errgroup.Group
	g.SetLimit(s.resolveConcurrency)
	for i, spot := range spots {
		out[i] = Spot{Spot: spot}

		name := strings.TrimSpace(spot.Name)
		if ref, ok := byName[name]; ok {
			out[i].PhotoURL = s.photoURL(ref)
			continue
		}
		if name == "" {
			continue
		}

		g.Go(func() error {
			place, err := s.places.Resolve(ctx, name)
			if err != nil {
				s.logger.Debug().Err(err).
					Str("spot", name).
					Msg("no photo for spot")
				return nil
			}
			out[i].PhotoURL = s.photoURL(place.PhotoReference)
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (s *Service) photoURL(ref string) string {
	if ref == "" {
		return ""
	}
	q := url.Values{}
	q.Set("ref", ref)
	q.Set("maxwidth", strconv.Itoa(s.photoMaxWidth))
	return s.photoBaseURL + "?" + q.Encode()
}
