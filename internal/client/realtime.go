package client

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/arvindrao/savaari/internal/models"
)

const (
	reconnectBaseDelay = time.Second
	reconnectMaxDelay  = 30 * time.Second
)

// RideStream follows a ride's realtime events over a websocket and feeds
// them into a tracker. On a dropped connection it resyncs the tracker via
// the REST API, then redials with exponential backoff, so missed events
// never leave the tracker behind.
type RideStream struct {
	client  *Client
	tracker *RideTracker
	rideID  string
}

func NewRideStream(client *Client, tracker *RideTracker, rideID string) *RideStream {
	return &RideStream{
		client:  client,
		tracker: tracker,
		rideID:  rideID,
	}
}

// Run blocks until the ride reaches a terminal status or the context is
// cancelled.
func (s *RideStream) Run(ctx context.Context) {
	delay := reconnectBaseDelay

	for {
		if ctx.Err() != nil {
			return
		}
		if models.IsTerminalStatus(s.tracker.State().Confirmed) {
			return
		}

		err := s.connectAndRead(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Printf("ride stream for %s dropped: %v", s.rideID, err)
		}

		// Events may have been missed while disconnected.
		s.tracker.Resync(ctx)
		if models.IsTerminalStatus(s.tracker.State().Confirmed) {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
		if delay > reconnectMaxDelay {
			delay = reconnectMaxDelay
		}
	}
}

func (s *RideStream) connectAndRead(ctx context.Context) error {
	header := http.Header{}
	if token := s.client.Token(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, s.streamURL(), header)
	if err != nil {
		return err
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// Close the socket when the context ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}

		var event models.RideEvent
		if err := json.Unmarshal(data, &event); err != nil {
			log.Printf("ride stream for %s: dropping malformed event: %v", s.rideID, err)
			continue
		}

		s.tracker.Apply(event)

		if status, ok := models.StatusForEvent(event.Type); ok && models.IsTerminalStatus(status) {
			return nil
		}
	}
}

func (s *RideStream) streamURL() string {
	base := s.client.BaseURL()
	base = strings.Replace(base, "https://", "wss://", 1)
	base = strings.Replace(base, "http://", "ws://", 1)
	return base + "/v1/rides/" + s.rideID + "/stream"
}
