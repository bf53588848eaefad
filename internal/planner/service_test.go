package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geocycle/geocycle/internal/elevation"
	"github.com/geocycle/geocycle/internal/generation"
	"github.com/geocycle/geocycle/internal/geo"
	"github.com/geocycle/geocycle/internal/places"
	"github.com/geocycle/geocycle/internal/routing"
	"github.com/geocycle/geocycle/pkg/polyline"
)

type fakePlaces struct {
	mu     sync.Mutex
	known  map[string]places.Place
	calls  map[string]int
	failOn map[string]error
}

func newFakePlaces() *fakePlaces {
	return &fakePlaces{
		known: map[string]places.Place{
			"宇都宮駅":       {Location: geo.Coordinate{Lat: 36.5594, Lng: 139.8985}, PhotoReference: "ref-station"},
			"宇都宮みんみん 本店": {Location: geo.Coordinate{Lat: 36.5589, Lng: 139.8826}, PhotoReference: "ref-minmin"},
			"正嗣 宮島町店":    {Location: geo.Coordinate{Lat: 36.5621, Lng: 139.8812}},
			"大谷資料館":      {Location: geo.Coordinate{Lat: 36.6003, Lng: 139.8199}, PhotoReference: "ref-oya"},
			"香蘭":         {Location: geo.Coordinate{Lat: 36.5570, Lng: 139.8790}, PhotoReference: "ref-koran"},
			"東京駅":        {Location: geo.Coordinate{Lat: 35.6812, Lng: 139.7671}},
			"鹿沼駅":        {Location: geo.Coordinate{Lat: 36.5664, Lng: 139.7456}},
			"ホノルル":       {Location: geo.Coordinate{Lat: 21.3069, Lng: -157.8583}},
		},
		calls:  map[string]int{},
		failOn: map[string]error{},
	}
}

func (f *fakePlaces) Resolve(ctx context.Context, name string) (*places.Place, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[name]++
	if err, ok := f.failOn[name]; ok {
		return nil, err
	}
	p, ok := f.known[name]
	if !ok {
		return nil, &places.Error{
			Provider: "fake",
			Code:     "NOT_FOUND",
			Name:     name,
			Message:  fmt.Sprintf("could not resolve stop %q", name),
			Err:      places.ErrPlaceNotFound,
		}
	}
	p.Name = name
	return &p, nil
}

func (f *fakePlaces) callsFor(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakePlaces) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

type fakeDirections struct {
	mu       sync.Mutex
	requests []routing.DirectionsRequest
	route    func(req routing.DirectionsRequest) (*routing.Route, error)
}

func (f *fakeDirections) GetDirections(ctx context.Context, req routing.DirectionsRequest) (*routing.Route, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return f.route(req)
}

func (f *fakeDirections) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakeElevation struct {
	gain  elevation.Gain
	calls atomic.Int32
}

func (f *fakeElevation) Gain(ctx context.Context, encoded string) elevation.Gain {
	f.calls.Add(1)
	return f.gain
}

type fakeGenerator struct {
	candidates []generation.Candidate
	shop       *generation.Shop
	err        error
	calls      atomic.Int32

	mu        sync.Mutex
	lastInput generation.PromptInput
}

func (f *fakeGenerator) record(in generation.PromptInput) {
	f.calls.Add(1)
	f.mu.Lock()
	f.lastInput = in
	f.mu.Unlock()
}

func (f *fakeGenerator) Courses(ctx context.Context, in generation.PromptInput) ([]generation.Candidate, error) {
	f.record(in)
	return f.candidates, f.err
}

func (f *fakeGenerator) Course(ctx context.Context, in generation.PromptInput) (*generation.Candidate, error) {
	f.record(in)
	if f.err != nil {
		return nil, f.err
	}
	return &f.candidates[0], nil
}

func (f *fakeGenerator) Shop(ctx context.Context, in generation.PromptInput) (*generation.Shop, error) {
	f.record(in)
	return f.shop, f.err
}

// legRoute returns a route with one leg per hop, each of the given length.
func legRoute(req routing.DirectionsRequest, metersPerLeg, secondsPerLeg int) *routing.Route {
	hops := len(req.Waypoints) + 1
	route := &routing.Route{
		OverviewPolyline: polyline.Encode([]polyline.Point{
			{Lat: 36.5594, Lng: 139.8985},
			{Lat: 36.5589, Lng: 139.8826},
			{Lat: 36.5594, Lng: 139.8985},
		}),
	}
	for i := 0; i < hops; i++ {
		route.Legs = append(route.Legs, routing.Leg{DistanceMeters: metersPerLeg, DurationSeconds: secondsPerLeg})
	}
	return route
}

func gyozaCandidate() generation.Candidate {
	return generation.Candidate{
		Title:            "肉汁餃子めぐり",
		ShortDescription: "駅から気軽に回れる餃子コース",
		Description:      "宇都宮駅を出発して人気の餃子店を巡ります。",
		Stops:            []string{"宇都宮駅", "宇都宮みんみん 本店", "正嗣 宮島町店", "宇都宮駅"},
		Spots: []generation.Spot{
			{Name: "宇都宮みんみん 本店", Menu: "焼餃子", Calories: generation.NewAmount(350)},
			{Name: "正嗣 宮島町店", Menu: "水餃子", Calories: generation.NewAmount(300)},
		},
	}
}

type fixture struct {
	places     *fakePlaces
	directions *fakeDirections
	elevation  *fakeElevation
	generator  *fakeGenerator
	svc        *Service
}

func newFixture(candidates ...generation.Candidate) *fixture {
	f := &fixture{
		places: newFakePlaces(),
		directions: &fakeDirections{route: func(req routing.DirectionsRequest) (*routing.Route, error) {
			return legRoute(req, 2500, 600), nil
		}},
		elevation: &fakeElevation{gain: elevation.Meters(42.36)},
		generator: &fakeGenerator{candidates: candidates},
	}
	f.svc = NewService(ServiceConfig{
		Places:     f.places,
		Directions: f.directions,
		Elevation:  f.elevation,
		Generator:  f.generator,
		Logger:     zerolog.Nop(),
	})
	return f
}

func TestService_PlanCourses_HappyPath(t *testing.T) {
	f := newFixture(gyozaCandidate())

	courses, err := f.svc.PlanCourses(context.Background(), TripRequest{
		Course:             generation.HalfDay,
		FoodType:           "juicy",
		IncludeSightseeing: false,
		StartPoint:         "宇都宮駅",
	})
	require.NoError(t, err)
	require.Len(t, courses, 1)

	assert.Equal(t, int32(1), f.generator.calls.Load())
	assert.Equal(t, "宇都宮駅", f.generator.lastInput.StartPoint)
	assert.Equal(t, generation.HalfDay, f.generator.lastInput.Course)
	assert.Equal(t, "juicy", f.generator.lastInput.FoodType)
	assert.False(t, f.generator.lastInput.IncludeSightseeing)

	// Start point is the reference location: only the course route is fetched.
	assert.Equal(t, 1, f.directions.count())

	course := courses[0]
	assert.Len(t, course.Stops, 4)
	assert.Greater(t, course.Summary.DistanceKm, 0.0)
	assert.Equal(t, "肉汁餃子めぐり", course.Title)
	assert.Len(t, course.Polyline, 3)

	for _, name := range gyozaCandidate().Stops {
		assert.Positive(t, f.places.callsFor(name), "stop %s was not resolved", name)
	}
}

func TestService_PlanCourses_DefaultStartPoint(t *testing.T) {
	f := newFixture(gyozaCandidate())

	_, err := f.svc.PlanCourses(context.Background(), TripRequest{FoodType: "crispy"})
	require.NoError(t, err)

	assert.Equal(t, DefaultReferenceName, f.generator.lastInput.StartPoint)
	assert.Equal(t, generation.HalfDay, f.generator.lastInput.Course)
	assert.Equal(t, 1, f.directions.count())
}

func TestService_PlanCourses_TooFar(t *testing.T) {
	f := newFixture(gyozaCandidate())
	f.directions.route = func(req routing.DirectionsRequest) (*routing.Route, error) {
		return &routing.Route{Legs: []routing.Leg{
			{DistanceMeters: 60_000, DurationSeconds: 3600},
			{DistanceMeters: 50_000, DurationSeconds: 3000},
		}}, nil
	}

	_, err := f.svc.PlanCourses(context.Background(), TripRequest{StartPoint: "東京駅", Course: generation.FullDay})
	require.ErrorIs(t, err, ErrTooFar)

	assert.Equal(t, int32(0), f.generator.calls.Load())
	assert.Equal(t, 1, f.places.totalCalls())
	assert.Equal(t, 1, f.places.callsFor("東京駅"))
	require.Equal(t, 1, f.directions.count())

	origin := f.directions.requests[0].Origin
	assert.Empty(t, origin.Address, "resolved start point is routed by coordinate")
	assert.Equal(t, geo.Coordinate{Lat: 35.6812, Lng: 139.7671}, origin.Coordinate)
}

func TestService_PlanCourses_UnknownStartIsTooFar(t *testing.T) {
	f := newFixture(gyozaCandidate())

	_, err := f.svc.PlanCourses(context.Background(), TripRequest{StartPoint: "存在しない町"})
	require.ErrorIs(t, err, ErrTooFar)
	assert.Contains(t, err.Error(), "存在しない町")

	assert.Equal(t, 0, f.directions.count())
	assert.Equal(t, int32(0), f.generator.calls.Load())
}

func TestService_PlanCourses_StartResolutionFailure(t *testing.T) {
	f := newFixture(gyozaCandidate())
	f.places.failOn["鹿沼駅"] = fmt.Errorf("place search: %w", ErrUpstreamTimeout)

	_, err := f.svc.PlanCourses(context.Background(), TripRequest{StartPoint: "鹿沼駅"})
	assert.ErrorIs(t, err, ErrUpstreamTimeout)
	assert.NotErrorIs(t, err, ErrTooFar)
	assert.Equal(t, 0, f.directions.count())
}

func TestService_PlanCourses_WithinRange(t *testing.T) {
	f := newFixture(gyozaCandidate())
	f.directions.route = func(req routing.DirectionsRequest) (*routing.Route, error) {
		if req.Origin.Coordinate == (geo.Coordinate{Lat: 36.5664, Lng: 139.7456}) {
			return &routing.Route{Legs: []routing.Leg{{DistanceMeters: 25_000, DurationSeconds: 1800}}}, nil
		}
		return legRoute(req, 2500, 600), nil
	}

	_, err := f.svc.PlanCourses(context.Background(), TripRequest{StartPoint: "鹿沼駅"})
	require.NoError(t, err)

	assert.Equal(t, int32(1), f.generator.calls.Load())
	assert.Equal(t, "鹿沼駅", f.generator.lastInput.StartPoint)
}

func TestService_PlanCourses_UnroutableStartIsTooFar(t *testing.T) {
	f := newFixture(gyozaCandidate())
	f.directions.route = func(req routing.DirectionsRequest) (*routing.Route, error) {
		return nil, &routing.Error{Code: "NO_ROUTE", Message: "no route", Err: routing.ErrNoRouteFound}
	}

	_, err := f.svc.PlanCourses(context.Background(), TripRequest{StartPoint: "ホノルル"})
	assert.ErrorIs(t, err, ErrTooFar)
	assert.Equal(t, int32(0), f.generator.calls.Load())
}

func TestService_PlanCourses_StartValidationFailure(t *testing.T) {
	f := newFixture(gyozaCandidate())
	f.directions.route = func(req routing.DirectionsRequest) (*routing.Route, error) {
		return nil, fmt.Errorf("directions: %w", ErrUpstreamUnavailable)
	}

	_, err := f.svc.PlanCourses(context.Background(), TripRequest{StartPoint: "鹿沼駅"})
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.NotErrorIs(t, err, ErrTooFar)
	assert.Equal(t, int32(0), f.generator.calls.Load())
}

func TestService_PlanCourses_UnresolvedStop(t *testing.T) {
	c := gyozaCandidate()
	c.Stops = []string{"宇都宮駅", "幻の餃子店", "宇都宮駅"}
	f := newFixture(c)

	_, err := f.svc.PlanCourses(context.Background(), TripRequest{})
	require.ErrorIs(t, err, places.ErrPlaceNotFound)
	assert.Contains(t, err.Error(), "幻の餃子店")

	// The course route is never requested.
	assert.Equal(t, 0, f.directions.count())
}

func TestService_PlanCourses_OneFailingCandidateFailsRequest(t *testing.T) {
	bad := gyozaCandidate()
	bad.Title = "存在しないコース"
	bad.Stops = []string{"宇都宮駅", "閉店した店", "宇都宮駅"}
	f := newFixture(gyozaCandidate(), bad, gyozaCandidate())

	courses, err := f.svc.PlanCourses(context.Background(), TripRequest{})
	assert.ErrorIs(t, err, places.ErrPlaceNotFound)
	assert.Contains(t, err.Error(), "閉店した店")
	assert.Nil(t, courses)
}

func TestService_PlanCourses_SumsEveryLeg(t *testing.T) {
	f := newFixture(gyozaCandidate())
	f.directions.route = func(req routing.DirectionsRequest) (*routing.Route, error) {
		return &routing.Route{
			Legs: []routing.Leg{
				{DistanceMeters: 1234, DurationSeconds: 300},
				{DistanceMeters: 5678, DurationSeconds: 1200},
				{DistanceMeters: 4321, DurationSeconds: 1500},
			},
			OverviewPolyline: polyline.Encode([]polyline.Point{{Lat: 36.5594, Lng: 139.8985}, {Lat: 36.56, Lng: 139.88}}),
		}, nil
	}

	courses, err := f.svc.PlanCourses(context.Background(), TripRequest{})
	require.NoError(t, err)

	summary := courses[0].Summary
	assert.Equal(t, 11.23, summary.DistanceKm)
	assert.Equal(t, 50, summary.DurationMin)
	assert.Equal(t, 400.0, summary.CaloriesKcal)
	require.NotNil(t, summary.FoodCaloriesKcal)
	assert.Equal(t, 650.0, *summary.FoodCaloriesKcal)

	m, ok := summary.ElevationGainM.Value()
	assert.True(t, ok)
	assert.Equal(t, 42.4, m)
}

func TestService_PlanCourses_RoutesThroughStopsInOrder(t *testing.T) {
	f := newFixture(gyozaCandidate())

	_, err := f.svc.PlanCourses(context.Background(), TripRequest{})
	require.NoError(t, err)

	require.Equal(t, 1, f.directions.count())
	req := f.directions.requests[0]
	assert.Equal(t, "36.5594,139.8985", req.Origin.String())
	assert.Equal(t, "36.5594,139.8985", req.Destination.String())
	require.Len(t, req.Waypoints, 2)
	assert.Equal(t, "36.5589,139.8826", req.Waypoints[0].String())
	assert.Equal(t, "36.5621,139.8812", req.Waypoints[1].String())
}

func TestService_PlanCourses_ElevationUnavailable(t *testing.T) {
	f := newFixture(gyozaCandidate())
	f.elevation.gain = elevation.Unavailable()

	courses, err := f.svc.PlanCourses(context.Background(), TripRequest{})
	require.NoError(t, err)

	b, err := json.Marshal(courses[0].Summary)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"elevation_gain_m":"unavailable"`)
}

func TestService_PlanCourses_SpotPhotosDeduplicated(t *testing.T) {
	c := gyozaCandidate()
	c.Spots = append(c.Spots, generation.Spot{Name: "香蘭"}, generation.Spot{Name: "謎の屋台"})
	f := newFixture(c)

	courses, err := f.svc.PlanCourses(context.Background(), TripRequest{})
	require.NoError(t, err)

	spots := courses[0].Spots
	require.Len(t, spots, 4)

	// Matching stop with a photo: reused.
	assert.Equal(t, "/place-photo?maxwidth=400&ref=ref-minmin", spots[0].PhotoURL)
	assert.Equal(t, 1, f.places.callsFor("宇都宮みんみん 本店"))

	// Matching stop without a photo gets a second search.
	assert.Empty(t, spots[1].PhotoURL)
	assert.Equal(t, 2, f.places.callsFor("正嗣 宮島町店"))

	// Spot not on the stop list: one best-effort search.
	assert.Equal(t, "/place-photo?maxwidth=400&ref=ref-koran", spots[2].PhotoURL)
	assert.Equal(t, 1, f.places.callsFor("香蘭"))

	// Unresolvable spot leaves the photo empty without failing.
	assert.Empty(t, spots[3].PhotoURL)

	assert.Equal(t, "/place-photo?maxwidth=400&ref=ref-station", courses[0].Stops[0].PhotoURL)
}

func TestService_PlanCourses_TooFewStops(t *testing.T) {
	c := gyozaCandidate()
	c.Stops = []string{"宇都宮駅"}
	f := newFixture(c)

	_, err := f.svc.PlanCourses(context.Background(), TripRequest{})
	assert.ErrorIs(t, err, ErrTooFewStops)
}

func TestService_PlanCourses_GenerationFailure(t *testing.T) {
	f := newFixture()
	f.generator.err = fmt.Errorf("parse: %w", generation.ErrGenerationParse)

	_, err := f.svc.PlanCourses(context.Background(), TripRequest{})
	assert.ErrorIs(t, err, generation.ErrGenerationParse)
	assert.Equal(t, 0, f.directions.count())
}

func TestService_PlanCourses_NoCandidates(t *testing.T) {
	f := newFixture()

	courses, err := f.svc.PlanCourses(context.Background(), TripRequest{})
	require.NoError(t, err)
	assert.Empty(t, courses)
}

func TestService_PlanCourse(t *testing.T) {
	f := newFixture(gyozaCandidate())

	course, err := f.svc.PlanCourse(context.Background(), TripRequest{Course: generation.FullDay, IncludeSightseeing: true})
	require.NoError(t, err)

	assert.Equal(t, "肉汁餃子めぐり", course.Title)
	assert.Len(t, course.Stops, 4)
	assert.Equal(t, generation.FullDay, f.generator.lastInput.Course)
	assert.True(t, f.generator.lastInput.IncludeSightseeing)
}

func TestService_PlanShop(t *testing.T) {
	f := newFixture()
	f.generator.shop = &generation.Shop{Name: "香蘭", Comment: "皮がもちもち"}
	f.directions.route = func(req routing.DirectionsRequest) (*routing.Route, error) {
		return &routing.Route{
			Legs:             []routing.Leg{{DistanceMeters: 3456, DurationSeconds: 720}},
			OverviewPolyline: "_p~iF~ps|U_ulLnnqC",
		}, nil
	}

	plan, err := f.svc.PlanShop(context.Background(), TripRequest{
		Distance:   20,
		Elevation:  100,
		Time:       60,
		GyotzaType: "焼き",
	})
	require.NoError(t, err)

	assert.Equal(t, "焼き", f.generator.lastInput.FoodType)
	assert.Equal(t, 20, f.generator.lastInput.DistanceKm)
	assert.Equal(t, "香蘭", plan.Shop.Name)
	assert.Equal(t, 36.5570, plan.Shop.Lat)
	assert.Equal(t, 3.46, plan.Summary.DistanceKm)
	assert.Equal(t, 12, plan.Summary.DurationMin)
	assert.Equal(t, 96.0, plan.Summary.CaloriesKcal)

	req := f.directions.requests[0]
	assert.Equal(t, DefaultReferenceLocation.String(), req.Origin.String())

	b, err := json.Marshal(plan)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"gyotza_shop": {"name": "香蘭", "comment": "皮がもちもち", "lat": 36.557, "lng": 139.879},
		"route_summary": {"distance_km": 3.46, "duration_min": 12, "elevation_gain_m": 42.4, "calories_kcal": 96}
	}`, string(b))
}

func TestService_PlanShop_UnresolvedShop(t *testing.T) {
	f := newFixture()
	f.generator.shop = &generation.Shop{Name: "架空の餃子店"}

	_, err := f.svc.PlanShop(context.Background(), TripRequest{FoodType: "水餃子"})
	assert.ErrorIs(t, err, places.ErrPlaceNotFound)
	assert.Contains(t, err.Error(), "架空の餃子店")
	assert.Equal(t, "水餃子", f.generator.lastInput.FoodType)
}

func TestService_PlanCourses_Concurrent(t *testing.T) {
	f := newFixture(gyozaCandidate(), gyozaCandidate(), gyozaCandidate())

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			courses, err := f.svc.PlanCourses(context.Background(), TripRequest{})
			if err == nil && len(courses) != 3 {
				err = errors.New("expected three courses")
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}
