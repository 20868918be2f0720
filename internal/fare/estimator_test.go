package fare

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"
)

func offPeakNoon() time.Time {
	return time.Date(2025, 3, 10, 14, 0, 0, 0, time.Local)
}

func TestEstimateDelhiSedan(t *testing.T) {
	e := NewEstimator(DefaultTable())

	b, err := e.Estimate(Input{
		City:         "delhi",
		VehicleType:  "sedan",
		DistanceKm:   10,
		DurationMins: 20,
		SeatCount:    1,
		At:           offPeakNoon(),
	})
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}

	// 50 base + 170 distance + 30 duration + 10 fuel = 260; 18% tax = 46.8
	if b.BaseFare != 50 || b.DistanceFare != 170 || b.DurationFare != 30 || b.FuelSurcharge != 10 {
		t.Errorf("unexpected components: %+v", b)
	}
	if b.Taxes != 46.8 {
		t.Errorf("Taxes = %v, want 46.8", b.Taxes)
	}
	if b.Total != 306.8 {
		t.Errorf("Total = %v, want 306.8", b.Total)
	}
}

func TestEstimateSeatSurcharge(t *testing.T) {
	e := NewEstimator(DefaultTable())

	single, err := e.Estimate(Input{City: "delhi", VehicleType: "sedan", DistanceKm: 5, DurationMins: 10, SeatCount: 1, At: offPeakNoon()})
	if err != nil {
		t.Fatal(err)
	}
	if single.SeatSurcharge != 0 {
		t.Errorf("SeatSurcharge for one seat = %v, want 0", single.SeatSurcharge)
	}

	triple, err := e.Estimate(Input{City: "delhi", VehicleType: "sedan", DistanceKm: 5, DurationMins: 10, SeatCount: 3, At: offPeakNoon()})
	if err != nil {
		t.Fatal(err)
	}
	// Two extra seats at 15 each.
	if triple.SeatSurcharge != 30 {
		t.Errorf("SeatSurcharge for three seats = %v, want 30", triple.SeatSurcharge)
	}
}

func TestEstimateTimeWindows(t *testing.T) {
	e := NewEstimator(DefaultTable())
	base := Input{City: "delhi", VehicleType: "mini", DistanceKm: 8, DurationMins: 18, SeatCount: 1}

	tests := []struct {
		name      string
		hour      int
		wantPeak  float64
		wantNight float64
	}{
		{"mid-afternoon", 14, 0, 0},
		{"morning peak", 9, 20, 0},
		{"evening peak", 18, 20, 0},
		{"late night", 23, 0, 30},
		{"pre-dawn wraps the window", 3, 0, 30},
		{"peak window end is exclusive", 21, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			in.At = time.Date(2025, 3, 10, tt.hour, 30, 0, 0, time.Local)
			b, err := e.Estimate(in)
			if err != nil {
				t.Fatal(err)
			}
			if b.PeakHourSurcharge != tt.wantPeak {
				t.Errorf("PeakHourSurcharge = %v, want %v", b.PeakHourSurcharge, tt.wantPeak)
			}
			if b.NightTimeSurcharge != tt.wantNight {
				t.Errorf("NightTimeSurcharge = %v, want %v", b.NightTimeSurcharge, tt.wantNight)
			}
		})
	}
}

func TestEstimateWaitingCharges(t *testing.T) {
	e := NewEstimator(DefaultTable())

	within, err := e.Estimate(Input{City: "delhi", VehicleType: "sedan", DistanceKm: 5, DurationMins: 10, SeatCount: 1, WaitingMins: 5, At: offPeakNoon()})
	if err != nil {
		t.Fatal(err)
	}
	if within.WaitingCharges != 0 {
		t.Errorf("WaitingCharges within free allowance = %v, want 0", within.WaitingCharges)
	}

	over, err := e.Estimate(Input{City: "delhi", VehicleType: "sedan", DistanceKm: 5, DurationMins: 10, SeatCount: 1, WaitingMins: 12, At: offPeakNoon()})
	if err != nil {
		t.Fatal(err)
	}
	// 7 chargeable minutes at 2.0.
	if over.WaitingCharges != 14 {
		t.Errorf("WaitingCharges = %v, want 14", over.WaitingCharges)
	}
}

func TestEstimateMinimumFare(t *testing.T) {
	e := NewEstimator(DefaultTable())

	b, err := e.Estimate(Input{City: "delhi", VehicleType: "auto", DistanceKm: 0.1, DurationMins: 1, SeatCount: 1, At: offPeakNoon()})
	if err != nil {
		t.Fatal(err)
	}

	// 25 + 1.2 + 1 = 27.2 pre-tax, below the 30 minimum: base is topped up.
	subtotal := b.Total - b.Taxes
	if math.Abs(subtotal-30) > 0.01 {
		t.Errorf("pre-tax subtotal = %v, want 30 (city minimum)", subtotal)
	}
	if b.Total != 35.4 {
		t.Errorf("Total = %v, want 35.4", b.Total)
	}
}

func TestEstimateUnknownConfiguration(t *testing.T) {
	e := NewEstimator(DefaultTable())

	for _, in := range []Input{
		{City: "gotham", VehicleType: "sedan"},
		{City: "delhi", VehicleType: "rickshaw"},
	} {
		in.At = offPeakNoon()
		_, err := e.Estimate(in)

		var confErr *ConfigurationError
		if !errors.As(err, &confErr) {
			t.Errorf("Estimate(%s/%s) error = %v, want *ConfigurationError", in.City, in.VehicleType, err)
		}
	}
}

func TestEstimateDeterministic(t *testing.T) {
	e := NewEstimator(DefaultTable())
	in := Input{City: "mumbai", VehicleType: "suv", DistanceKm: 12.34, DurationMins: 28, SeatCount: 4, TollCharges: 65, ParkingCharges: 20, WaitingMins: 9, At: offPeakNoon()}

	first, err := e.Estimate(in)
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Estimate(in)
	if err != nil {
		t.Fatal(err)
	}
	if *first != *second {
		t.Errorf("identical inputs produced different breakdowns:\n%+v\n%+v", first, second)
	}
}

func TestTotalEqualsComponentSum(t *testing.T) {
	e := NewEstimator(DefaultTable())
	rng := rand.New(rand.NewSource(7))

	cities := []string{"delhi", "bengaluru", "mumbai"}
	vehicles := []string{"auto", "mini", "sedan", "suv"}

	for i := 0; i < 200; i++ {
		in := Input{
			City:           cities[rng.Intn(len(cities))],
			VehicleType:    vehicles[rng.Intn(len(vehicles))],
			DistanceKm:     rng.Float64() * 40,
			DurationMins:   rng.Intn(90),
			SeatCount:      1 + rng.Intn(8),
			TollCharges:    rng.Float64() * 120,
			ParkingCharges: rng.Float64() * 50,
			WaitingMins:    rng.Intn(25),
			At:             time.Date(2025, 3, 10, rng.Intn(24), 0, 0, 0, time.Local),
		}

		b, err := e.Estimate(in)
		if err != nil {
			t.Fatal(err)
		}

		sum := b.BaseFare + b.DistanceFare + b.DurationFare + b.FuelSurcharge +
			b.TollCharges + b.ParkingCharges + b.SeatSurcharge + b.PeakHourSurcharge +
			b.NightTimeSurcharge + b.WaitingCharges + b.Taxes
		if math.Abs(b.Total-sum) > 0.011 {
			t.Fatalf("Total = %v but components sum to %v (input %+v)", b.Total, sum, in)
		}
	}
}

func TestFallbackIsLinear(t *testing.T) {
	e := NewEstimator(DefaultTable())

	b, err := e.Fallback(Input{City: "delhi", VehicleType: "sedan", DistanceKm: 10, At: offPeakNoon()})
	if err != nil {
		t.Fatal(err)
	}

	// Base 50 + 170 distance, tax on 220.
	if b.BaseFare != 50 || b.DistanceFare != 170 {
		t.Errorf("unexpected fallback components: %+v", b)
	}
	if b.DurationFare != 0 || b.FuelSurcharge != 0 || b.PeakHourSurcharge != 0 {
		t.Errorf("fallback must only carry base and distance: %+v", b)
	}
	if b.Total != 259.6 {
		t.Errorf("Total = %v, want 259.6", b.Total)
	}
}

func TestHourWindowContains(t *testing.T) {
	tests := []struct {
		name   string
		window HourWindow
		hour   int
		want   bool
	}{
		{"inside simple window", HourWindow{8, 11}, 9, true},
		{"start inclusive", HourWindow{8, 11}, 8, true},
		{"end exclusive", HourWindow{8, 11}, 11, false},
		{"wrapped window late side", HourWindow{22, 5}, 23, true},
		{"wrapped window early side", HourWindow{22, 5}, 4, true},
		{"wrapped window gap", HourWindow{22, 5}, 12, false},
		{"empty window", HourWindow{7, 7}, 7, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.window.Contains(tt.hour); got != tt.want {
				t.Errorf("Contains(%d) = %v, want %v", tt.hour, got, tt.want)
			}
		})
	}
}
