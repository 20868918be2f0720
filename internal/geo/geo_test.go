package geo

import (
	"math"
	"testing"
)

func TestDistanceKmIdenticalPoints(t *testing.T) {
	p := Point{Lat: 28.6139, Lng: 77.2090}
	if d := DistanceKm(p, p); d != 0 {
		t.Errorf("DistanceKm(p, p) = %v, want 0", d)
	}
}

func TestDistanceKmSymmetry(t *testing.T) {
	pairs := []struct {
		a, b Point
	}{
		{Point{28.6139, 77.2090}, Point{28.6333, 77.2315}},
		{Point{12.9716, 77.5946}, Point{12.9352, 77.6245}},
		{Point{-33.8688, 151.2093}, Point{51.5074, -0.1278}},
		{Point{0, 0}, Point{0, 180}},
	}

	for _, pair := range pairs {
		ab := DistanceKm(pair.a, pair.b)
		ba := DistanceKm(pair.b, pair.a)
		if math.Abs(ab-ba) > 1e-9 {
			t.Errorf("DistanceKm(%v, %v) = %v but reverse = %v", pair.a, pair.b, ab, ba)
		}
	}
}

func TestDistanceKmReference(t *testing.T) {
	// One degree of latitude is ~111.19 km on a 6371 km sphere.
	a := Point{Lat: 28.6139, Lng: 77.2090}
	b := Point{Lat: a.Lat + 0.0922, Lng: a.Lng}

	want := 0.0922 * math.Pi / 180 * 6371.0
	got := DistanceKm(a, b)

	if math.Abs(got-want)/want > 0.01 {
		t.Errorf("DistanceKm() = %v, want within 1%% of %v", got, want)
	}
}

func TestDistanceKmDelhiShortHop(t *testing.T) {
	// Connaught Place to ITO, roughly 3 km apart.
	d := DistanceKm(Point{28.6139, 77.2090}, Point{28.6333, 77.2315})
	if d < 2.5 || d > 3.5 {
		t.Errorf("DistanceKm() = %v, expected ~3.0 km", d)
	}
}

func TestBearingDegrees(t *testing.T) {
	tests := []struct {
		name string
		a, b Point
		want float64
	}{
		{"due north", Point{28, 77}, Point{29, 77}, 0},
		{"due east", Point{0, 77}, Point{0, 78}, 90},
		{"due south", Point{29, 77}, Point{28, 77}, 180},
		{"due west", Point{0, 78}, Point{0, 77}, 270},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BearingDegrees(tt.a, tt.b)
			if math.Abs(got-tt.want) > 0.5 {
				t.Errorf("BearingDegrees() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBearingDegreesRange(t *testing.T) {
	points := []Point{
		{28.6139, 77.2090}, {12.9716, 77.5946}, {-33.8688, 151.2093}, {51.5074, -0.1278},
	}
	for _, a := range points {
		for _, b := range points {
			if a == b {
				continue
			}
			got := BearingDegrees(a, b)
			if got < 0 || got >= 360 {
				t.Errorf("BearingDegrees(%v, %v) = %v, outside [0,360)", a, b, got)
			}
		}
	}
}

func TestWithinBounds(t *testing.T) {
	ne := Point{Lat: 28.7, Lng: 77.3}
	sw := Point{Lat: 28.5, Lng: 77.1}

	tests := []struct {
		name string
		p    Point
		want bool
	}{
		{"inside", Point{28.6, 77.2}, true},
		{"on north edge", Point{28.7, 77.2}, true},
		{"on south-west corner", Point{28.5, 77.1}, true},
		{"north of box", Point{28.8, 77.2}, false},
		{"west of box", Point{28.6, 77.0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WithinBounds(tt.p, ne, sw); got != tt.want {
				t.Errorf("WithinBounds(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}
