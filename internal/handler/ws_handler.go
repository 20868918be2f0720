package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/arvindrao/savaari/internal/models"
	"github.com/arvindrao/savaari/internal/repository"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
	wsPongWait   = 40 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSHandler struct {
	rideRepo repository.RideRepository
	hub      *EventHub
}

func NewWSHandler(rideRepo repository.RideRepository, hub *EventHub) *WSHandler {
	return &WSHandler{
		rideRepo: rideRepo,
		hub:      hub,
	}
}

func (h *WSHandler) RegisterRoutes(r chi.Router) {
	r.Get("/rides/{id}/stream", h.StreamRide)
}

// StreamRide pushes ride events over a websocket. The connection closes
// after the ride reaches a terminal status.
func (h *WSHandler) StreamRide(w http.ResponseWriter, r *http.Request) {
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

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed for ride %s: %v", rideID, err)
		return
	}
	defer conn.Close()

	clientChan := h.hub.Subscribe(rideID)
	defer h.hub.Unsubscribe(rideID, clientChan)

	done := make(chan struct{})

	// Reader drains control frames and detects disconnects.
	go func() {
		defer close(done)
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case msg := <-clientChan:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

			var event models.RideEvent
			if err := json.Unmarshal(msg, &event); err == nil && models.IsTerminalStatus(event.Status) {
				conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "ride finished"))
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
