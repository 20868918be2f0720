package handler

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/arvindrao/savaari/internal/cache"
)

// EventHub fans ride events out from the Redis channel to the SSE and
// websocket connections watching a particular ride.
type EventHub struct {
	rideCache cache.RideCache
	clients   map[string]map[chan []byte]bool // rideID -> clients
	mu        sync.RWMutex
}

func NewEventHub(rideCache cache.RideCache) *EventHub {
	hub := &EventHub{
		rideCache: rideCache,
		clients:   make(map[string]map[chan []byte]bool),
	}

	go hub.listen()

	return hub
}

// Subscribe registers a listener for one ride. The returned channel is
// closed by Unsubscribe, never by the hub.
func (h *EventHub) Subscribe(rideID string) chan []byte {
	ch := make(chan []byte, 16)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[rideID] == nil {
		h.clients[rideID] = make(map[chan []byte]bool)
	}
	h.clients[rideID][ch] = true

	return ch
}

func (h *EventHub) Unsubscribe(rideID string, ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[rideID]; ok {
		delete(clients, ch)
		if len(clients) == 0 {
			delete(h.clients, rideID)
		}
	}
	close(ch)
}

func (h *EventHub) broadcast(rideID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.clients[rideID]; ok {
		for ch := range clients {
			select {
			case ch <- data:
			default:
				// Client too slow, skip
			}
		}
	}
}

func (h *EventHub) listen() {
	ctx := context.Background()
	pubsub := h.rideCache.SubscribeRideEvents(ctx)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var envelope struct {
			RideID string `json:"ride_id"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
			log.Printf("event hub: dropping malformed event: %v", err)
			continue
		}
		if envelope.RideID == "" {
			continue
		}

		h.broadcast(envelope.RideID, []byte(msg.Payload))
	}
}
