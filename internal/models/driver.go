package models

import (
	"time"
)

// Driver status constants
const (
	DriverStatusOffline = "offline"
	DriverStatusOnline  = "online"
	DriverStatusBusy    = "busy"
)

// Vehicle types
const (
	VehicleTypeAuto  = "auto"
	VehicleTypeMini  = "mini"
	VehicleTypeSedan = "sedan"
	VehicleTypeSUV   = "suv"
)

type Driver struct {
	ID            string    `db:"id" json:"id"`
	Phone         string    `db:"phone" json:"phone"`
	Name          string    `db:"name" json:"name"`
	LicenseNumber string    `db:"license_number" json:"license_number"`
	VehicleType   string    `db:"vehicle_type" json:"vehicle_type"`
	VehicleNumber string    `db:"vehicle_number" json:"vehicle_number"`
	VehicleModel  *string   `db:"vehicle_model" json:"vehicle_model,omitempty"`
	Status        string    `db:"status" json:"status"`
	Rating        float64   `db:"rating" json:"rating"`
	CurrentLat    *float64  `db:"current_lat" json:"current_lat,omitempty"`
	CurrentLng    *float64  `db:"current_lng" json:"current_lng,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

type UpdateDriverLocationRequest struct {
	Lat     float64  `json:"lat" validate:"required,latitude"`
	Lng     float64  `json:"lng" validate:"required,longitude"`
	Heading *float64 `json:"heading,omitempty"`
	Speed   *float64 `json:"speed,omitempty"`
}

type DriverResponse struct {
	ID            string   `json:"id"`
	Phone         string   `json:"phone"`
	Name          string   `json:"name"`
	Rating        float64  `json:"rating"`
	VehicleType   string   `json:"vehicle_type"`
	VehicleNumber string   `json:"vehicle_number"`
	VehicleModel  *string  `json:"vehicle_model,omitempty"`
	CurrentLat    *float64 `json:"current_lat,omitempty"`
	CurrentLng    *float64 `json:"current_lng,omitempty"`
}

func (d *Driver) ToResponse() *DriverResponse {
	return &DriverResponse{
		ID:            d.ID,
		Phone:         d.Phone,
		Name:          d.Name,
		Rating:        d.Rating,
		VehicleType:   d.VehicleType,
		VehicleNumber: d.VehicleNumber,
		VehicleModel:  d.VehicleModel,
		CurrentLat:    d.CurrentLat,
		CurrentLng:    d.CurrentLng,
	}
}

func IsValidVehicleType(vt string) bool {
	return vt == VehicleTypeAuto || vt == VehicleTypeMini || vt == VehicleTypeSedan || vt == VehicleTypeSUV
}
