// Package maps wraps the Google Maps Directions API for road distance and
// duration lookups.
package maps

import (
	"context"
	"fmt"
	"time"

	"googlemaps.github.io/maps"

	"github.com/arvindrao/savaari/internal/geo"
)

// RouteProvider yields road distance/duration between two points. The
// estimate service falls back to a Haversine heuristic when no provider is
// configured or a lookup fails.
type RouteProvider interface {
	Route(ctx context.Context, origin, destination geo.Point) (distanceKm float64, duration time.Duration, err error)
}

type routeService struct {
	client *maps.Client
}

// NewRouteService creates a Directions-backed RouteProvider.
func NewRouteService(apiKey string) (RouteProvider, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating maps client: %w", err)
	}
	return &routeService{client: client}, nil
}

func (s *routeService) Route(ctx context.Context, origin, destination geo.Point) (float64, time.Duration, error) {
	req := &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", origin.Lat, origin.Lng),
		Destination: fmt.Sprintf("%f,%f", destination.Lat, destination.Lng),
		Mode:        maps.TravelModeDriving,
		Region:      "IN",
	}

	routes, _, err := s.client.Directions(ctx, req)
	if err != nil {
		return 0, 0, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return 0, 0, fmt.Errorf("no route between %v and %v", origin, destination)
	}

	leg := routes[0].Legs[0]
	return float64(leg.Distance.Meters) / 1000.0, leg.Duration, nil
}
