package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/arvindrao/savaari/internal/cache"
	"github.com/arvindrao/savaari/internal/models"
	"github.com/arvindrao/savaari/internal/repository"
)

type SSEHandler struct {
	rideRepo  repository.RideRepository
	rideCache cache.RideCache
	hub       *EventHub
}

func NewSSEHandler(rideRepo repository.RideRepository, rideCache cache.RideCache, hub *EventHub) *SSEHandler {
	return &SSEHandler{
		rideRepo:  rideRepo,
		rideCache: rideCache,
		hub:       hub,
	}
}

func (h *SSEHandler) RegisterRoutes(r chi.Router) {
	r.Get("/rides/{id}/track", h.TrackRide)
}

// TrackRide streams ride events over SSE until the ride reaches a
// terminal status or the client disconnects.
func (h *SSEHandler) TrackRide(w http.ResponseWriter, r *http.Request) {
	rideID := chi.URLParam(r, "id")
	if rideID == "" {
		http.Error(w, "ride id required", http.StatusBadRequest)
		return
	}

	ride, err := h.rideRepo.GetByID(r.Context(), rideID)
	if err != nil || ride == nil {
		http.Error(w, "ride not found", http.StatusNotFound)
		return
	}

	if models.IsTerminalStatus(ride.Status) {
		http.Error(w, "ride already finished", http.StatusGone)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	clientChan := h.hub.Subscribe(rideID)
	defer h.hub.Unsubscribe(rideID, clientChan)

	// Send the last known driver position so late joiners see the car
	// immediately.
	if ride.DriverID != nil {
		if loc, err := h.rideCache.GetDriverLocation(r.Context(), *ride.DriverID); err == nil && loc != nil {
			event := models.RideEvent{
				Type:      models.EventLocationUpdate,
				RideID:    rideID,
				DriverID:  *ride.DriverID,
				Lat:       &loc.Lat,
				Lng:       &loc.Lng,
				Timestamp: time.Unix(loc.UpdatedAt, 0),
			}
			data, _ := json.Marshal(event)
			fmt.Fprintf(w, "event: ride\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}

	ctx := r.Context()
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-clientChan:
			fmt.Fprintf(w, "event: ride\ndata: %s\n\n", msg)
			flusher.Flush()

			var event models.RideEvent
			if err := json.Unmarshal(msg, &event); err == nil && models.IsTerminalStatus(event.Status) {
				return
			}
		case <-ticker.C:
			fmt.Fprintf(w, "event: heartbeat\ndata: {\"time\": \"%s\"}\n\n", time.Now().Format(time.RFC3339))
			flusher.Flush()
		}
	}
}
