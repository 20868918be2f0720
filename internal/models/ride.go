package models

import (
	"time"
)

// Ride status constants
const (
	RideStatusRequested     = "requested"
	RideStatusAccepted      = "accepted"
	RideStatusDriverArrived = "driver_arrived"
	RideStatusStarted       = "started"
	RideStatusCompleted     = "completed"
	RideStatusCancelled     = "cancelled"
)

// Ride modes
const (
	RideModeRegular = "regular"
	RideModePooled  = "pooled"
)

// Payment status constants
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// Payment methods
const (
	PaymentMethodCash   = "cash"
	PaymentMethodWallet = "wallet"
	PaymentMethodCard   = "card"
	PaymentMethodUPI    = "upi"
)

// ValidRideTransitions defines the forward edges of the ride lifecycle.
// cancelled is an absorbing state reachable from every non-terminal status.
var ValidRideTransitions = map[string][]string{
	RideStatusRequested:     {RideStatusAccepted, RideStatusCancelled},
	RideStatusAccepted:      {RideStatusDriverArrived, RideStatusCancelled},
	RideStatusDriverArrived: {RideStatusStarted, RideStatusCancelled},
	RideStatusStarted:       {RideStatusCompleted, RideStatusCancelled},
	RideStatusCompleted:     {},
	RideStatusCancelled:     {},
}

// statusRank orders the lifecycle so stale updates can be recognized.
var statusRank = map[string]int{
	RideStatusRequested:     0,
	RideStatusAccepted:      1,
	RideStatusDriverArrived: 2,
	RideStatusStarted:       3,
	RideStatusCompleted:     4,
	RideStatusCancelled:     5,
}

// StatusRank returns the monotonic position of a status, or -1 for an
// unknown one.
func StatusRank(status string) int {
	rank, ok := statusRank[status]
	if !ok {
		return -1
	}
	return rank
}

// IsTerminalStatus reports whether no further transitions are possible.
func IsTerminalStatus(status string) bool {
	return status == RideStatusCompleted || status == RideStatusCancelled
}

// IsStaleStatus reports whether an incoming status update is not newer than
// the currently held one per the lifecycle order. Equal statuses count as
// stale, so replayed events are ignored and delivery stays idempotent.
func IsStaleStatus(held, incoming string) bool {
	return StatusRank(incoming) <= StatusRank(held)
}

type Ride struct {
	ID                 string     `db:"id" json:"id"`
	UserID             string     `db:"user_id" json:"user_id"`
	DriverID           *string    `db:"driver_id" json:"driver_id,omitempty"`
	PickupLat          float64    `db:"pickup_lat" json:"pickup_lat"`
	PickupLng          float64    `db:"pickup_lng" json:"pickup_lng"`
	PickupAddress      *string    `db:"pickup_address" json:"pickup_address,omitempty"`
	DropoffLat         float64    `db:"dropoff_lat" json:"dropoff_lat"`
	DropoffLng         float64    `db:"dropoff_lng" json:"dropoff_lng"`
	DropoffAddress     *string    `db:"dropoff_address" json:"dropoff_address,omitempty"`
	City               string     `db:"city" json:"city"`
	VehicleType        string     `db:"vehicle_type" json:"vehicle_type"`
	RideMode           string     `db:"ride_mode" json:"ride_mode"`
	SeatCount          int        `db:"seat_count" json:"seat_count"`
	Status             string     `db:"status" json:"status"`
	EstimatedFare      *float64   `db:"estimated_fare" json:"estimated_fare,omitempty"`
	DiscountAmount     float64    `db:"discount_amount" json:"discount_amount"`
	TotalFare          *float64   `db:"total_fare" json:"total_fare,omitempty"`
	EstimatedDistance  *float64   `db:"estimated_distance_km" json:"estimated_distance_km,omitempty"`
	EstimatedDuration  *int       `db:"estimated_duration_mins" json:"estimated_duration_mins,omitempty"`
	PaymentMethod      string     `db:"payment_method" json:"payment_method"`
	PaymentStatus      string     `db:"payment_status" json:"payment_status"`
	IdempotencyKey     *string    `db:"idempotency_key" json:"idempotency_key,omitempty"`
	CancelledBy        *string    `db:"cancelled_by" json:"cancelled_by,omitempty"`
	CancellationReason *string    `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	RequestedAt        time.Time  `db:"requested_at" json:"requested_at"`
	AcceptedAt         *time.Time `db:"accepted_at" json:"accepted_at,omitempty"`
	ArrivedAt          *time.Time `db:"arrived_at" json:"arrived_at,omitempty"`
	StartedAt          *time.Time `db:"started_at" json:"started_at,omitempty"`
	CompletedAt        *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CancelledAt        *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// RidePassenger is one seat on a ride. Pooled rides carry several, each
// with its own pickup/dropoff and fare share.
type RidePassenger struct {
	ID         string    `db:"id" json:"id"`
	RideID     string    `db:"ride_id" json:"ride_id"`
	UserID     string    `db:"user_id" json:"user_id"`
	PickupLat  float64   `db:"pickup_lat" json:"pickup_lat"`
	PickupLng  float64   `db:"pickup_lng" json:"pickup_lng"`
	DropoffLat float64   `db:"dropoff_lat" json:"dropoff_lat"`
	DropoffLng float64   `db:"dropoff_lng" json:"dropoff_lng"`
	Fare       *float64  `db:"fare" json:"fare,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type Location struct {
	Lat     float64 `json:"lat" validate:"required,latitude"`
	Lng     float64 `json:"lng" validate:"required,longitude"`
	Address string  `json:"address,omitempty"`
}

type CreateRideRequest struct {
	Pickup        Location `json:"pickup" validate:"required"`
	Dropoff       Location `json:"dropoff" validate:"required"`
	City          string   `json:"city" validate:"required"`
	VehicleType   string   `json:"vehicle_type" validate:"required,oneof=auto mini sedan suv"`
	RideMode      string   `json:"ride_mode" validate:"required,oneof=regular pooled"`
	SeatCount     int      `json:"seat_count" validate:"required,min=1,max=8"`
	PaymentMethod string   `json:"payment_method" validate:"required,oneof=cash wallet card upi"`
}

type FareEstimateRequest struct {
	Pickup      Location `json:"pickup" validate:"required"`
	Dropoff     Location `json:"dropoff" validate:"required"`
	City        string   `json:"city" validate:"required"`
	VehicleType string   `json:"vehicle_type" validate:"required,oneof=auto mini sedan suv"`
	SeatCount   int      `json:"seat_count" validate:"required,min=1,max=8"`
}

type CancelRideRequest struct {
	Reason      string `json:"reason,omitempty"`
	CancelledBy string `json:"cancelled_by" validate:"required,oneof=rider driver system"`
}

type UpdateRideStatusRequest struct {
	Status   string `json:"status" validate:"required,oneof=accepted driver_arrived started completed"`
	DriverID string `json:"driver_id,omitempty" validate:"omitempty,uuid"`
}

type RideResponse struct {
	ID                 string          `json:"id"`
	Status             string          `json:"status"`
	User               *UserResponse   `json:"user,omitempty"`
	Driver             *DriverResponse `json:"driver,omitempty"`
	Pickup             Location        `json:"pickup"`
	Dropoff            Location        `json:"dropoff"`
	City               string          `json:"city"`
	VehicleType        string          `json:"vehicle_type"`
	RideMode           string          `json:"ride_mode"`
	SeatCount          int             `json:"seat_count"`
	Passengers         []RidePassenger `json:"passengers,omitempty"`
	EstimatedFare      *float64        `json:"estimated_fare,omitempty"`
	DiscountAmount     float64         `json:"discount_amount"`
	TotalFare          *float64        `json:"total_fare,omitempty"`
	EstimatedDistance  *float64        `json:"estimated_distance_km,omitempty"`
	EstimatedDuration  *int            `json:"estimated_duration_mins,omitempty"`
	PaymentMethod      string          `json:"payment_method"`
	PaymentStatus      string          `json:"payment_status"`
	CancelledBy        *string         `json:"cancelled_by,omitempty"`
	CancellationReason *string         `json:"cancellation_reason,omitempty"`
	RequestedAt        time.Time       `json:"requested_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func (r *Ride) ToResponse() *RideResponse {
	resp := &RideResponse{
		ID:     r.ID,
		Status: r.Status,
		Pickup: Location{
			Lat: r.PickupLat,
			Lng: r.PickupLng,
		},
		Dropoff: Location{
			Lat: r.DropoffLat,
			Lng: r.DropoffLng,
		},
		City:               r.City,
		VehicleType:        r.VehicleType,
		RideMode:           r.RideMode,
		SeatCount:          r.SeatCount,
		EstimatedFare:      r.EstimatedFare,
		DiscountAmount:     r.DiscountAmount,
		TotalFare:          r.TotalFare,
		EstimatedDistance:  r.EstimatedDistance,
		EstimatedDuration:  r.EstimatedDuration,
		PaymentMethod:      r.PaymentMethod,
		PaymentStatus:      r.PaymentStatus,
		CancelledBy:        r.CancelledBy,
		CancellationReason: r.CancellationReason,
		RequestedAt:        r.RequestedAt,
		UpdatedAt:          r.UpdatedAt,
	}

	if r.PickupAddress != nil {
		resp.Pickup.Address = *r.PickupAddress
	}
	if r.DropoffAddress != nil {
		resp.Dropoff.Address = *r.DropoffAddress
	}

	return resp
}

// CanTransitionTo checks if a ride can transition to a new status.
func (r *Ride) CanTransitionTo(newStatus string) bool {
	validNextStates, exists := ValidRideTransitions[r.Status]
	if !exists {
		return false
	}

	for _, state := range validNextStates {
		if state == newStatus {
			return true
		}
	}
	return false
}

// IsActive returns true if the ride is not in a terminal state.
func (r *Ride) IsActive() bool {
	return !IsTerminalStatus(r.Status)
}
