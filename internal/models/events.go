package models

import (
	"time"
)

// Realtime event types delivered on the per-ride channel.
const (
	EventLocationUpdate = "location-update"
	EventRideAccepted   = "ride-accepted"
	EventDriverArrived  = "driver-arrived"
	EventRideStarted    = "ride-started"
	EventRideCompleted  = "ride-completed"
	EventRideCancelled  = "ride-cancelled"
)

// RideEvent is the wire payload for the tracking channel (SSE and
// websocket share it).
type RideEvent struct {
	Type      string    `json:"type"`
	RideID    string    `json:"ride_id"`
	Status    string    `json:"status,omitempty"`
	DriverID  string    `json:"driver_id,omitempty"`
	Lat       *float64  `json:"lat,omitempty"`
	Lng       *float64  `json:"lng,omitempty"`
	Heading   *float64  `json:"heading,omitempty"`
	Speed     *float64  `json:"speed,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusForEvent maps a lifecycle event type to the ride status it
// announces. Location updates carry no status.
func StatusForEvent(eventType string) (string, bool) {
	switch eventType {
	case EventRideAccepted:
		return RideStatusAccepted, true
	case EventDriverArrived:
		return RideStatusDriverArrived, true
	case EventRideStarted:
		return RideStatusStarted, true
	case EventRideCompleted:
		return RideStatusCompleted, true
	case EventRideCancelled:
		return RideStatusCancelled, true
	default:
		return "", false
	}
}

// EventForStatus is the inverse mapping, used when publishing.
func EventForStatus(status string) (string, bool) {
	switch status {
	case RideStatusAccepted:
		return EventRideAccepted, true
	case RideStatusDriverArrived:
		return EventDriverArrived, true
	case RideStatusStarted:
		return EventRideStarted, true
	case RideStatusCompleted:
		return EventRideCompleted, true
	case RideStatusCancelled:
		return EventRideCancelled, true
	default:
		return "", false
	}
}
