package fare

import "fmt"

// Rate holds the pricing coefficients for one (city, vehicle type) pair.
type Rate struct {
	BaseFare      float64
	PerKmRate     float64
	PerMinRate    float64
	MinFare       float64
	FuelSurcharge float64
	// SeatSurcharge is charged per seat beyond the first.
	SeatSurcharge float64
	// WaitingPerMin is charged per waiting minute beyond the city's free allowance.
	WaitingPerMin float64
}

// HourWindow is a local hour-of-day range [Start, End). Windows that wrap
// midnight (Start > End, e.g. 22..5) are supported.
type HourWindow struct {
	Start int
	End   int
}

// Contains reports whether the given local hour falls inside the window.
func (w HourWindow) Contains(hour int) bool {
	if w.Start == w.End {
		return false
	}
	if w.Start < w.End {
		return hour >= w.Start && hour < w.End
	}
	return hour >= w.Start || hour < w.End
}

// CityConfig is the per-city pricing configuration. Peak and night windows
// vary by city, so they live here rather than in code.
type CityConfig struct {
	Rates             map[string]Rate
	PeakWindows       []HourWindow
	PeakSurcharge     float64
	NightWindow       HourWindow
	NightSurcharge    float64
	FreeWaitingMins   int
}

// Table maps a city name to its pricing configuration.
type Table map[string]CityConfig

// ConfigurationError indicates a fare lookup for a (city, vehicle type)
// combination that has no configured rates. Pricing with a guessed default
// is a business-critical mistake, so this is a hard failure.
type ConfigurationError struct {
	City        string
	VehicleType string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("no fare configuration for city %q vehicle type %q", e.City, e.VehicleType)
}

// DefaultTable returns the built-in rate card. Deployments override it via
// NewEstimator with their own table.
func DefaultTable() Table {
	return Table{
		"delhi": {
			Rates: map[string]Rate{
				"auto":  {BaseFare: 25, PerKmRate: 12, PerMinRate: 1.0, MinFare: 30, FuelSurcharge: 0, SeatSurcharge: 0, WaitingPerMin: 1.0},
				"mini":  {BaseFare: 40, PerKmRate: 14, PerMinRate: 1.2, MinFare: 50, FuelSurcharge: 5, SeatSurcharge: 10, WaitingPerMin: 1.5},
				"sedan": {BaseFare: 50, PerKmRate: 17, PerMinRate: 1.5, MinFare: 80, FuelSurcharge: 10, SeatSurcharge: 15, WaitingPerMin: 2.0},
				"suv":   {BaseFare: 80, PerKmRate: 22, PerMinRate: 2.0, MinFare: 120, FuelSurcharge: 15, SeatSurcharge: 20, WaitingPerMin: 2.5},
			},
			PeakWindows:     []HourWindow{{Start: 8, End: 11}, {Start: 17, End: 21}},
			PeakSurcharge:   20,
			NightWindow:     HourWindow{Start: 22, End: 5},
			NightSurcharge:  30,
			FreeWaitingMins: 5,
		},
		"bengaluru": {
			Rates: map[string]Rate{
				"auto":  {BaseFare: 30, PerKmRate: 13, PerMinRate: 1.0, MinFare: 35, FuelSurcharge: 0, SeatSurcharge: 0, WaitingPerMin: 1.0},
				"mini":  {BaseFare: 45, PerKmRate: 15, PerMinRate: 1.3, MinFare: 60, FuelSurcharge: 5, SeatSurcharge: 10, WaitingPerMin: 1.5},
				"sedan": {BaseFare: 55, PerKmRate: 18, PerMinRate: 1.6, MinFare: 90, FuelSurcharge: 10, SeatSurcharge: 15, WaitingPerMin: 2.0},
				"suv":   {BaseFare: 90, PerKmRate: 24, PerMinRate: 2.2, MinFare: 130, FuelSurcharge: 15, SeatSurcharge: 20, WaitingPerMin: 2.5},
			},
			PeakWindows:     []HourWindow{{Start: 8, End: 11}, {Start: 16, End: 20}},
			PeakSurcharge:   25,
			NightWindow:     HourWindow{Start: 23, End: 5},
			NightSurcharge:  35,
			FreeWaitingMins: 5,
		},
		"mumbai": {
			Rates: map[string]Rate{
				"auto":  {BaseFare: 28, PerKmRate: 13, PerMinRate: 1.0, MinFare: 33, FuelSurcharge: 0, SeatSurcharge: 0, WaitingPerMin: 1.2},
				"mini":  {BaseFare: 45, PerKmRate: 16, PerMinRate: 1.4, MinFare: 60, FuelSurcharge: 5, SeatSurcharge: 10, WaitingPerMin: 1.8},
				"sedan": {BaseFare: 60, PerKmRate: 19, PerMinRate: 1.7, MinFare: 100, FuelSurcharge: 10, SeatSurcharge: 15, WaitingPerMin: 2.2},
				"suv":   {BaseFare: 95, PerKmRate: 25, PerMinRate: 2.3, MinFare: 140, FuelSurcharge: 15, SeatSurcharge: 20, WaitingPerMin: 2.8},
			},
			PeakWindows:     []HourWindow{{Start: 9, End: 12}, {Start: 18, End: 22}},
			PeakSurcharge:   30,
			NightWindow:     HourWindow{Start: 23, End: 5},
			NightSurcharge:  40,
			FreeWaitingMins: 3,
		},
	}
}
