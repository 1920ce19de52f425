package coordinates

import (
	"math"
	"testing"
)

// TestHaversineDistanceKnownFixture verifies the San Diego to Los Angeles fixture.
func TestHaversineDistanceKnownFixture(t *testing.T) {
	got := HaversineDistance(32.7336, -117.1897, 33.9425, -118.4081)
	if got != 95 {
		t.Errorf("Expected KSAN-KLAX distance 95, got %d", got)
	}
}

// TestHaversineDistanceIdentity verifies that a point is zero distance from itself.
func TestHaversineDistanceIdentity(t *testing.T) {
	points := []Geographic{
		{Latitude: 0, Longitude: 0},
		{Latitude: 32.7336, Longitude: -117.1897},
		{Latitude: -33.9461, Longitude: 151.1772},
		{Latitude: 89.9999, Longitude: 179.9999},
		{Latitude: -90, Longitude: -180},
	}

	for _, p := range points {
		if d := HaversineDistance(p.Latitude, p.Longitude, p.Latitude, p.Longitude); d != 0 {
			t.Errorf("distance(%v, %v) = %d, expected 0", p, p, d)
		}
	}
}

// TestHaversineDistanceSymmetry verifies distance(a, b) == distance(b, a).
func TestHaversineDistanceSymmetry(t *testing.T) {
	tests := []struct {
		name string
		a, b Geographic
	}{
		{"KSAN-KLAX", Geographic{32.7336, -117.1897}, Geographic{33.9425, -118.4081}},
		{"EGLL-KJFK", Geographic{51.4700, -0.4543}, Geographic{40.6413, -73.7781}},
		{"Across dateline", Geographic{21.3187, -157.9225}, Geographic{-33.9461, 151.1772}},
		{"Across equator", Geographic{1.3644, 103.9915}, Geographic{-6.1256, 106.6559}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ab := HaversineDistance(tt.a.Latitude, tt.a.Longitude, tt.b.Latitude, tt.b.Longitude)
			ba := HaversineDistance(tt.b.Latitude, tt.b.Longitude, tt.a.Latitude, tt.a.Longitude)
			if ab != ba {
				t.Errorf("Asymmetric distance: %d vs %d", ab, ba)
			}
			if ab <= 0 {
				t.Errorf("Expected positive distance, got %d", ab)
			}
		})
	}
}

// TestHaversineDistanceAntipodal verifies antipodes produce half the circumference.
func TestHaversineDistanceAntipodal(t *testing.T) {
	tests := []struct {
		name string
		a, b Geographic
	}{
		{"Equator", Geographic{0, 0}, Geographic{0, 180}},
		{"Poles", Geographic{90, 0}, Geographic{-90, 0}},
		{"Offset", Geographic{45, 30}, Geographic{-45, -150}},
	}

	want := int(math.Round(math.Pi * EarthRadiusNM))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineDistance(tt.a.Latitude, tt.a.Longitude, tt.b.Latitude, tt.b.Longitude)
			if absInt(got-want) > 1 {
				t.Errorf("Expected ~%d, got %d", want, got)
			}
		})
	}
}

// TestDistanceUnits verifies the unit helpers agree with each other.
func TestDistanceUnits(t *testing.T) {
	ksan := Geographic{Latitude: 32.7336, Longitude: -117.1897}
	klax := Geographic{Latitude: 33.9425, Longitude: -118.4081}

	nm := DistanceNauticalMiles(ksan, klax)
	km := DistanceKilometers(ksan, klax)
	sm := DistanceStatuteMiles(ksan, klax)

	if math.Abs(nm*1.852-km) > 0.001 {
		t.Errorf("nm/km mismatch: %f nm vs %f km", nm, km)
	}
	if math.Abs(sm*1.609344-km) > 0.001 {
		t.Errorf("sm/km mismatch: %f sm vs %f km", sm, km)
	}
	if sm < 108 || sm > 110 {
		t.Errorf("Expected ~109 statute miles, got %f", sm)
	}
}

// TestDistanceNeverNaN verifies clamping keeps results finite.
func TestDistanceNeverNaN(t *testing.T) {
	for lon := -180.0; lon <= 180.0; lon += 0.5 {
		d := DistanceNauticalMiles(Geographic{0, 0}, Geographic{0, lon})
		if math.IsNaN(d) || math.IsInf(d, 0) {
			t.Fatalf("Non-finite distance for lon %f: %f", lon, d)
		}
	}
}

// TestBearing verifies cardinal bearings.
func TestBearing(t *testing.T) {
	origin := Geographic{Latitude: 0, Longitude: 0}
	tests := []struct {
		name     string
		to       Geographic
		expected float64
	}{
		{"North", Geographic{1, 0}, 0},
		{"East", Geographic{0, 1}, 90},
		{"South", Geographic{-1, 0}, 180},
		{"West", Geographic{0, -1}, 270},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bearing(origin, tt.to)
			if math.Abs(got-tt.expected) > 0.01 {
				t.Errorf("Expected bearing %f, got %f", tt.expected, got)
			}
		})
	}
}

// TestNormalizeBearing tests bearing normalization.
func TestNormalizeBearing(t *testing.T) {
	tests := []struct {
		input    float64
		expected float64
	}{
		{0, 0},
		{360, 0},
		{-90, 270},
		{450, 90},
		{-450, 270},
	}

	for _, tt := range tests {
		if got := NormalizeBearing(tt.input); math.Abs(got-tt.expected) > 1e-9 {
			t.Errorf("NormalizeBearing(%f) = %f, expected %f", tt.input, got, tt.expected)
		}
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestCardinal(t *testing.T) {
	tests := []struct {
		bearing float64
		want    string
	}{
		{0, "N"},
		{11, "N"},
		{12, "NNE"},
		{90, "E"},
		{225, "SW"},
		{300, "WNW"},
		{355, "N"},
		{-90, "W"},
	}

	for _, tt := range tests {
		if got := Cardinal(tt.bearing); got != tt.want {
			t.Errorf("Cardinal(%v): expected %s, got %s", tt.bearing, tt.want, got)
		}
	}
}
