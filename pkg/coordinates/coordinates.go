// Package coordinates provides the great-circle geometry used to relate
// positions reported on the network (pilots, transceivers) to fixed ground
// references such as airports.
package coordinates

import "math"

// Constants for coordinate calculations
const (
	// DegreesToRadians converts degrees to radians
	DegreesToRadians = math.Pi / 180.0

	// RadiansToDegrees converts radians to degrees
	RadiansToDegrees = 180.0 / math.Pi

	// EarthRadiusKm is the Earth's mean radius in kilometers
	EarthRadiusKm = 6371.0

	// EarthRadiusNM is the Earth's mean radius in nautical miles
	EarthRadiusNM = EarthRadiusKm / 1.852

	// EarthRadiusSM is the Earth's mean radius in statute miles
	EarthRadiusSM = EarthRadiusKm / 1.609344

	// FeetToMeters converts feet to meters
	FeetToMeters = 0.3048

	// MetersToFeet converts meters to feet
	MetersToFeet = 3.28084
)

// Geographic represents a position on Earth's surface.
// No range validation is performed; callers supply valid coordinates.
type Geographic struct {
	// Latitude in decimal degrees (-90 to +90)
	// Positive = North, Negative = South
	Latitude float64

	// Longitude in decimal degrees (-180 to +180)
	// Positive = East, Negative = West
	Longitude float64
}

// ToRadians converts the Geographic coordinates to radians.
// Returns (latRad, lonRad).
func (g Geographic) ToRadians() (float64, float64) {
	return g.Latitude * DegreesToRadians, g.Longitude * DegreesToRadians
}

// HaversineDistance returns the great-circle distance between two points
// given in decimal degrees, in nautical miles rounded to the nearest whole
// mile. Identical points yield 0.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) int {
	d := Distance(
		Geographic{Latitude: lat1, Longitude: lon1},
		Geographic{Latitude: lat2, Longitude: lon2},
		EarthRadiusNM,
	)
	return int(math.Round(d))
}

// Distance calculates the unrounded great-circle distance between two points
// on a sphere of the given radius. The result is in the radius' unit.
func Distance(from, to Geographic, radius float64) float64 {
	lat1Rad, lon1Rad := from.ToRadians()
	lat2Rad, lon2Rad := to.ToRadians()

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	// Haversine formula
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	// Rounding can push a fractionally outside [0, 1] near antipodes.
	a = math.Max(0, math.Min(1, a))

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return radius * c
}

// DistanceNauticalMiles calculates the great-circle distance in nautical miles.
func DistanceNauticalMiles(from, to Geographic) float64 {
	return Distance(from, to, EarthRadiusNM)
}

// DistanceStatuteMiles calculates the great-circle distance in statute miles.
func DistanceStatuteMiles(from, to Geographic) float64 {
	return Distance(from, to, EarthRadiusSM)
}

// DistanceKilometers calculates the great-circle distance in kilometers.
func DistanceKilometers(from, to Geographic) float64 {
	return Distance(from, to, EarthRadiusKm)
}

// Bearing calculates the initial bearing (forward azimuth) from one point to another.
// Returns bearing in degrees (0-360), where 0/360 = North, 90 = East, 180 = South, 270 = West.
func Bearing(from, to Geographic) float64 {
	lat1, lon1 := from.ToRadians()
	lat2, lon2 := to.ToRadians()

	dLon := lon2 - lon1
	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	bearing := math.Atan2(y, x) * RadiansToDegrees

	return NormalizeBearing(bearing)
}

// NormalizeBearing normalizes a bearing to the range [0, 360).
func NormalizeBearing(bearing float64) float64 {
	bearing = math.Mod(bearing, 360.0)
	if bearing < 0 {
		bearing += 360.0
	}
	return bearing
}

// Cardinal converts a bearing to one of the 16 compass points.
func Cardinal(bearing float64) string {
	directions := []string{"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
		"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW"}
	index := int((NormalizeBearing(bearing) + 11.25) / 22.5)
	return directions[index%16]
}
