package client

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/arvindrao/savaari/internal/fare"
	"github.com/arvindrao/savaari/internal/models"
)

type fakeFetcher struct {
	mu       sync.Mutex
	started  chan struct{}
	estimate *fare.Estimate
	err      error
	block    bool
}

func (f *fakeFetcher) FetchFareEstimate(ctx context.Context, req *models.FareEstimateRequest) (*fare.Estimate, error) {
	f.mu.Lock()
	block := f.block
	estimate := f.estimate
	err := f.err
	started := f.started
	f.mu.Unlock()

	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return estimate, nil
}

func estimateRequest() *models.FareEstimateRequest {
	return &models.FareEstimateRequest{
		Pickup:      models.Location{Lat: 28.6139, Lng: 77.2090},
		Dropoff:     models.Location{Lat: 28.6304, Lng: 77.2177},
		City:        "delhi",
		VehicleType: "sedan",
		SeatCount:   1,
	}
}

func TestEstimateSessionLatestWins(t *testing.T) {
	fetcher := &fakeFetcher{
		started: make(chan struct{}, 1),
		block:   true,
	}
	session := NewEstimateSession(fetcher, fare.DefaultTable())

	firstDone := make(chan error, 1)
	go func() {
		_, err := session.Estimate(context.Background(), estimateRequest())
		firstDone <- err
	}()

	select {
	case <-fetcher.started:
	case <-time.After(2 * time.Second):
		t.Fatal("first request never reached the fetcher")
	}

	want := &fare.Estimate{
		Source:    fare.SourceAuthoritative,
		Breakdown: fare.Breakdown{BaseFare: 50, Total: 306.8},
	}
	fetcher.mu.Lock()
	fetcher.block = false
	fetcher.estimate = want
	fetcher.mu.Unlock()

	got, err := session.Estimate(context.Background(), estimateRequest())
	if err != nil {
		t.Fatalf("second estimate failed: %v", err)
	}
	if got.Breakdown.Total != want.Breakdown.Total {
		t.Errorf("Total = %v, want %v", got.Breakdown.Total, want.Breakdown.Total)
	}

	select {
	case err := <-firstDone:
		if !errors.Is(err, ErrSuperseded) {
			t.Errorf("first estimate error = %v, want ErrSuperseded", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first estimate never returned")
	}

	if latest := session.Latest(); latest == nil || latest.Breakdown.Total != want.Breakdown.Total {
		t.Errorf("Latest() = %+v, want the second estimate", latest)
	}
}

func TestEstimateSessionFallbackOnNetworkError(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("dial tcp: connection refused")}
	session := NewEstimateSession(fetcher, fare.DefaultTable())

	req := estimateRequest()
	req.Dropoff = req.Pickup // zero distance keeps the numbers exact

	got, err := session.Estimate(context.Background(), req)
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}

	if got.Source != fare.SourceFallback {
		t.Errorf("Source = %s, want %s", got.Source, fare.SourceFallback)
	}

	// Zero distance leaves only the base fare, topped up to the delhi
	// sedan minimum of 80, plus 18% tax.
	if got.Breakdown.BaseFare != 80 {
		t.Errorf("BaseFare = %v, want 80", got.Breakdown.BaseFare)
	}
	if got.Breakdown.Taxes != 14.4 {
		t.Errorf("Taxes = %v, want 14.4", got.Breakdown.Taxes)
	}
	if got.Breakdown.Total != 94.4 {
		t.Errorf("Total = %v, want 94.4", got.Breakdown.Total)
	}
}

func TestEstimateSessionServerErrorsPassThrough(t *testing.T) {
	apiErr := &APIError{StatusCode: http.StatusUnprocessableEntity, Code: "fare_not_configured"}
	fetcher := &fakeFetcher{err: apiErr}
	session := NewEstimateSession(fetcher, fare.DefaultTable())

	_, err := session.Estimate(context.Background(), estimateRequest())
	var got *APIError
	if !errors.As(err, &got) || got.Code != "fare_not_configured" {
		t.Errorf("Estimate() error = %v, want the server's APIError", err)
	}
}

func TestEstimateSessionFallbackUnknownCity(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("connection refused")}
	session := NewEstimateSession(fetcher, fare.DefaultTable())

	req := estimateRequest()
	req.City = "gotham"

	_, err := session.Estimate(context.Background(), req)
	if err == nil {
		t.Fatal("Estimate() succeeded for an unknown city with the network down")
	}
}
