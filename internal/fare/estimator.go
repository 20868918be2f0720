// Package fare computes rider fare estimates from a city/vehicle rate card.
package fare

import (
	"math"
	"time"
)

// TaxRate is GST applied to the pre-tax subtotal.
const TaxRate = 0.18

// Source tags where an estimate came from, so a locally computed fallback
// can never be mistaken for the authoritative figure.
type Source string

const (
	SourceAuthoritative Source = "authoritative"
	SourceFallback      Source = "fallback"
)

// Breakdown is an itemized fare. Total is always the rounded sum of the
// other components; a new estimate produces a new breakdown.
type Breakdown struct {
	BaseFare           float64 `json:"base_fare"`
	DistanceFare       float64 `json:"distance_fare"`
	DurationFare       float64 `json:"duration_fare"`
	FuelSurcharge      float64 `json:"fuel_surcharge"`
	TollCharges        float64 `json:"toll_charges"`
	ParkingCharges     float64 `json:"parking_charges"`
	SeatSurcharge      float64 `json:"seat_surcharge"`
	PeakHourSurcharge  float64 `json:"peak_hour_surcharge"`
	NightTimeSurcharge float64 `json:"night_time_surcharge"`
	WaitingCharges     float64 `json:"waiting_charges"`
	Taxes              float64 `json:"taxes"`
	Total              float64 `json:"total"`
}

// Estimate pairs a breakdown with its source tag.
type Estimate struct {
	Source    Source    `json:"source"`
	Breakdown Breakdown `json:"breakdown"`
}

// Input carries everything the estimator needs. At must be local time for
// the city so peak/night windows line up with the rider's clock.
type Input struct {
	City           string
	VehicleType    string
	DistanceKm     float64
	DurationMins   int
	SeatCount      int
	TollCharges    float64
	ParkingCharges float64
	WaitingMins    int
	At             time.Time
}

type Estimator struct {
	table Table
}

func NewEstimator(table Table) *Estimator {
	return &Estimator{table: table}
}

// Estimate computes the full itemized fare. It is pure: no clock reads, no
// network, identical input yields an identical breakdown.
func (e *Estimator) Estimate(in Input) (*Breakdown, error) {
	city, rate, err := e.lookup(in.City, in.VehicleType)
	if err != nil {
		return nil, err
	}

	b := &Breakdown{
		BaseFare:       roundMoney(rate.BaseFare),
		DistanceFare:   roundMoney(in.DistanceKm * rate.PerKmRate),
		DurationFare:   roundMoney(float64(in.DurationMins) * rate.PerMinRate),
		FuelSurcharge:  roundMoney(rate.FuelSurcharge),
		TollCharges:    roundMoney(in.TollCharges),
		ParkingCharges: roundMoney(in.ParkingCharges),
	}

	if in.SeatCount > 1 {
		b.SeatSurcharge = roundMoney(float64(in.SeatCount-1) * rate.SeatSurcharge)
	}

	hour := in.At.Hour()
	for _, w := range city.PeakWindows {
		if w.Contains(hour) {
			b.PeakHourSurcharge = roundMoney(city.PeakSurcharge)
			break
		}
	}
	if city.NightWindow.Contains(hour) {
		b.NightTimeSurcharge = roundMoney(city.NightSurcharge)
	}

	if extra := in.WaitingMins - city.FreeWaitingMins; extra > 0 {
		b.WaitingCharges = roundMoney(float64(extra) * rate.WaitingPerMin)
	}

	subtotal := b.preTaxSubtotal()
	if subtotal < rate.MinFare {
		// Top up the base fare so short hops still meet the city minimum.
		b.BaseFare = roundMoney(b.BaseFare + rate.MinFare - subtotal)
		subtotal = b.preTaxSubtotal()
	}

	b.Taxes = roundMoney(subtotal * TaxRate)
	b.Total = roundMoney(subtotal + b.Taxes)

	return b, nil
}

// Fallback computes the linear approximation (base fare + per-km rate, plus
// tax) used when the authoritative estimate is unavailable. Callers must
// carry the SourceFallback tag alongside it.
func (e *Estimator) Fallback(in Input) (*Breakdown, error) {
	_, rate, err := e.lookup(in.City, in.VehicleType)
	if err != nil {
		return nil, err
	}

	b := &Breakdown{
		BaseFare:     roundMoney(rate.BaseFare),
		DistanceFare: roundMoney(in.DistanceKm * rate.PerKmRate),
	}

	subtotal := b.preTaxSubtotal()
	if subtotal < rate.MinFare {
		b.BaseFare = roundMoney(b.BaseFare + rate.MinFare - subtotal)
		subtotal = b.preTaxSubtotal()
	}

	b.Taxes = roundMoney(subtotal * TaxRate)
	b.Total = roundMoney(subtotal + b.Taxes)

	return b, nil
}

func (e *Estimator) lookup(cityName, vehicleType string) (CityConfig, Rate, error) {
	city, ok := e.table[cityName]
	if !ok {
		return CityConfig{}, Rate{}, &ConfigurationError{City: cityName, VehicleType: vehicleType}
	}
	rate, ok := city.Rates[vehicleType]
	if !ok {
		return CityConfig{}, Rate{}, &ConfigurationError{City: cityName, VehicleType: vehicleType}
	}
	return city, rate, nil
}

func (b *Breakdown) preTaxSubtotal() float64 {
	return roundMoney(b.BaseFare + b.DistanceFare + b.DurationFare + b.FuelSurcharge +
		b.TollCharges + b.ParkingCharges + b.SeatSurcharge + b.PeakHourSurcharge +
		b.NightTimeSurcharge + b.WaitingCharges)
}

// roundMoney rounds to two decimal places, half away from zero. Fares are
// non-negative, so this is round-half-up on the currency's minor unit.
func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
