package service

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/arvindrao/savaari/internal/fare"
	"github.com/arvindrao/savaari/internal/geo"
	"github.com/arvindrao/savaari/internal/maps"
	"github.com/arvindrao/savaari/internal/models"
)

// roadFactor scales straight-line distance to approximate road distance
// when no route provider is available.
const roadFactor = 1.3

// cityAvgSpeedKmh is the assumed city traffic speed for duration estimates.
const cityAvgSpeedKmh = 25.0

type EstimateService interface {
	Estimate(ctx context.Context, req *models.FareEstimateRequest, at time.Time) (*fare.Estimate, error)
	RouteEstimate(ctx context.Context, pickup, dropoff models.Location) (distanceKm float64, durationMins int)
}

type estimateService struct {
	estimator *fare.Estimator
	routes    maps.RouteProvider // nil disables road routing
}

func NewEstimateService(estimator *fare.Estimator, routes maps.RouteProvider) EstimateService {
	return &estimateService{
		estimator: estimator,
		routes:    routes,
	}
}

// Estimate computes the server-side fare figure. It always carries the
// authoritative tag: the fallback tag is reserved for locally computed
// approximations when this call cannot be reached at all.
func (s *estimateService) Estimate(ctx context.Context, req *models.FareEstimateRequest, at time.Time) (*fare.Estimate, error) {
	distanceKm, durationMins := s.RouteEstimate(ctx, req.Pickup, req.Dropoff)

	breakdown, err := s.estimator.Estimate(fare.Input{
		City:         req.City,
		VehicleType:  req.VehicleType,
		DistanceKm:   distanceKm,
		DurationMins: durationMins,
		SeatCount:    req.SeatCount,
		At:           at,
	})
	if err != nil {
		return nil, err
	}

	return &fare.Estimate{
		Source:    fare.SourceAuthoritative,
		Breakdown: *breakdown,
	}, nil
}

// RouteEstimate returns road distance and duration, preferring the
// Directions API and degrading to the Haversine heuristic.
func (s *estimateService) RouteEstimate(ctx context.Context, pickup, dropoff models.Location) (float64, int) {
	origin := geo.Point{Lat: pickup.Lat, Lng: pickup.Lng}
	dest := geo.Point{Lat: dropoff.Lat, Lng: dropoff.Lng}

	if s.routes != nil {
		distanceKm, duration, err := s.routes.Route(ctx, origin, dest)
		if err == nil {
			mins := int(math.Ceil(duration.Minutes()))
			if mins < 1 {
				mins = 1
			}
			return round2(distanceKm), mins
		}
		log.Printf("route lookup failed, using haversine heuristic: %v", err)
	}

	distanceKm := round2(geo.DistanceKm(origin, dest) * roadFactor)
	durationMins := int(math.Ceil(distanceKm / cityAvgSpeedKmh * 60))
	if durationMins < 5 {
		durationMins = 5
	}
	return distanceKm, durationMins
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
