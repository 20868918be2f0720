package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/arvindrao/savaari/internal/fare"
	"github.com/arvindrao/savaari/internal/geo"
	"github.com/arvindrao/savaari/internal/models"
)

// Local approximation, mirrors the server heuristic so offline numbers
// stay in the same ballpark.
const (
	fallbackRoadFactor  = 1.3
	fallbackAvgSpeedKmh = 25.0
)

type estimateFetcher interface {
	FetchFareEstimate(ctx context.Context, req *models.FareEstimateRequest) (*fare.Estimate, error)
}

// EstimateSession serializes fare estimate requests for one booking
// screen. The rider drags the pin faster than the network answers, so
// each new request cancels the in-flight one and only the latest
// response is ever surfaced. When the server is unreachable the session
// answers from the local rate table, tagged as a fallback so the UI can
// say "approximate".
type EstimateSession struct {
	fetcher   estimateFetcher
	estimator *fare.Estimator

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc

	latestMu sync.RWMutex
	latest   *fare.Estimate
}

func NewEstimateSession(fetcher estimateFetcher, table fare.Table) *EstimateSession {
	return &EstimateSession{
		fetcher:   fetcher,
		estimator: fare.NewEstimator(table),
	}
}

// ErrSuperseded is returned when a newer Estimate call started while this
// one was in flight; the stale result is discarded.
var ErrSuperseded = errors.New("estimate superseded by a newer request")

// Estimate fetches a fare for the given request, cancelling any estimate
// still in flight.
func (s *EstimateSession) Estimate(ctx context.Context, req *models.FareEstimateRequest) (*fare.Estimate, error) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	seq := s.seq
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	defer cancel()

	estimate, err := s.fetcher.FetchFareEstimate(ctx, req)
	if err != nil {
		if s.isSuperseded(seq) {
			return nil, ErrSuperseded
		}

		// Server rejections pass through untouched; only transport
		// failures get the local approximation.
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return nil, apiErr
		}

		estimate, fbErr := s.fallback(req)
		if fbErr != nil {
			return nil, err
		}
		s.store(seq, estimate)
		return estimate, nil
	}

	if !s.store(seq, estimate) {
		return nil, ErrSuperseded
	}
	return estimate, nil
}

// Latest returns the most recent estimate the session surfaced, or nil.
func (s *EstimateSession) Latest() *fare.Estimate {
	s.latestMu.RLock()
	defer s.latestMu.RUnlock()
	return s.latest
}

func (s *EstimateSession) isSuperseded(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return seq != s.seq
}

func (s *EstimateSession) store(seq uint64, estimate *fare.Estimate) bool {
	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()

	s.latestMu.Lock()
	s.latest = estimate
	s.latestMu.Unlock()
	return true
}

func (s *EstimateSession) fallback(req *models.FareEstimateRequest) (*fare.Estimate, error) {
	pickup := geo.Point{Lat: req.Pickup.Lat, Lng: req.Pickup.Lng}
	dropoff := geo.Point{Lat: req.Dropoff.Lat, Lng: req.Dropoff.Lng}

	distanceKm := geo.DistanceKm(pickup, dropoff) * fallbackRoadFactor
	durationMins := int(distanceKm / fallbackAvgSpeedKmh * 60)
	if durationMins < 5 {
		durationMins = 5
	}

	breakdown, err := s.estimator.Fallback(fare.Input{
		City:         req.City,
		VehicleType:  req.VehicleType,
		DistanceKm:   distanceKm,
		DurationMins: durationMins,
		SeatCount:    req.SeatCount,
		At:           time.Now(),
	})
	if err != nil {
		return nil, err
	}

	return &fare.Estimate{
		Source:    fare.SourceFallback,
		Breakdown: *breakdown,
	}, nil
}
