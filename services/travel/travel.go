package travel

import (
	"context"
	"errors"
	"math"

	"tutorroute/models"
)

// ErrNoRoute is returned by providers that found no route between two points.
var ErrNoRoute = errors.New("no route found")

// Leg is the travel cost between two locations.
type Leg struct {
	DurationSeconds int  `json:"durationSeconds"`
	DistanceMeters  int  `json:"distanceMeters"`
	Estimated       bool `json:"estimated"`
}

// Provider computes a travel leg. Implementations are expected to fail
// occasionally (network, quota); callers fall back to Estimate.
type Provider interface {
	Leg(ctx context.Context, origin, destination models.Location, mode models.TravelMode) (Leg, error)
}

// ProviderFunc adapts a plain function to the Provider interface.
type ProviderFunc func(ctx context.Context, origin, destination models.Location, mode models.TravelMode) (Leg, error)

func (f ProviderFunc) Leg(ctx context.Context, origin, destination models.Location, mode models.TravelMode) (Leg, error) {
	return f(ctx, origin, destination, mode)
}

// AverageSpeedKmh is the speed used by Estimate for each mode.
var AverageSpeedKmh = map[models.TravelMode]float64{
	models.ModeWalking:   5,
	models.ModeBicycling: 15,
	models.ModeTransit:   25,
	models.ModeDriving:   40,
}

// Haversine calculates the great-circle distance (in km) between two points.
func Haversine(a, b models.Location) float64 {
	const R = 6371
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lng - a.Lng) * math.Pi / 180
	lat1Rad := a.Lat * math.Pi / 180
	lat2Rad := b.Lat * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return R * c
}

// Estimate derives a leg from the straight-line distance and the mode's
// average speed. Unknown modes use the driving speed.
func Estimate(origin, destination models.Location, mode models.TravelMode) Leg {
	km := Haversine(origin, destination)
	speed, ok := AverageSpeedKmh[mode]
	if !ok {
		speed = AverageSpeedKmh[models.ModeDriving]
	}
	hours := km / speed
	return Leg{
		DurationSeconds: int(math.Ceil(hours * 3600)),
		DistanceMeters:  int(math.Round(km * 1000)),
		Estimated:       true,
	}
}
