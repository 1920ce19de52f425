// Package airports holds a static, process-wide table of airport reference
// points keyed by ICAO code.
//
// The table is built once on first use and never written afterwards, so it
// can be read from any goroutine without synchronisation.
package airports

import (
	"strings"
	"sync"

	"github.com/unklstewy/vatsim-scope/pkg/coordinates"
)

// Airport is a ground reference point.
type Airport struct {
	// ICAO is the four-letter location indicator (e.g., "KSAN")
	ICAO string

	// Location is the airport reference point in decimal degrees
	Location coordinates.Geographic
}

// table is ordered by region, then by code.
var table = []Airport{
	// North America
	{"CYUL", coordinates.Geographic{Latitude: 45.4706, Longitude: -73.7408}},
	{"CYVR", coordinates.Geographic{Latitude: 49.1967, Longitude: -123.1815}},
	{"CYYZ", coordinates.Geographic{Latitude: 43.6777, Longitude: -79.6248}},
	{"KATL", coordinates.Geographic{Latitude: 33.6407, Longitude: -84.4277}},
	{"KAUS", coordinates.Geographic{Latitude: 30.1975, Longitude: -97.6664}},
	{"KBOS", coordinates.Geographic{Latitude: 42.3656, Longitude: -71.0096}},
	{"KBUR", coordinates.Geographic{Latitude: 34.1975, Longitude: -118.3585}},
	{"KBWI", coordinates.Geographic{Latitude: 39.1774, Longitude: -76.6684}},
	{"KCLT", coordinates.Geographic{Latitude: 35.2144, Longitude: -80.9473}},
	{"KCRQ", coordinates.Geographic{Latitude: 33.1283, Longitude: -117.2803}},
	{"KDCA", coordinates.Geographic{Latitude: 38.8512, Longitude: -77.0402}},
	{"KDEN", coordinates.Geographic{Latitude: 39.8561, Longitude: -104.6737}},
	{"KDFW", coordinates.Geographic{Latitude: 32.8998, Longitude: -97.0403}},
	{"KDTW", coordinates.Geographic{Latitude: 42.2162, Longitude: -83.3554}},
	{"KEWR", coordinates.Geographic{Latitude: 40.6895, Longitude: -74.1745}},
	{"KIAD", coordinates.Geographic{Latitude: 38.9531, Longitude: -77.4565}},
	{"KIAH", coordinates.Geographic{Latitude: 29.9902, Longitude: -95.3368}},
	{"KJFK", coordinates.Geographic{Latitude: 40.6413, Longitude: -73.7781}},
	{"KLAS", coordinates.Geographic{Latitude: 36.0840, Longitude: -115.1537}},
	{"KLAX", coordinates.Geographic{Latitude: 33.9425, Longitude: -118.4081}},
	{"KLGA", coordinates.Geographic{Latitude: 40.7769, Longitude: -73.8740}},
	{"KLGB", coordinates.Geographic{Latitude: 33.8177, Longitude: -118.1516}},
	{"KMCI", coordinates.Geographic{Latitude: 39.2976, Longitude: -94.7139}},
	{"KMCO", coordinates.Geographic{Latitude: 28.4312, Longitude: -81.3081}},
	{"KMIA", coordinates.Geographic{Latitude: 25.7959, Longitude: -80.2870}},
	{"KMSP", coordinates.Geographic{Latitude: 44.8848, Longitude: -93.2223}},
	{"KMYF", coordinates.Geographic{Latitude: 32.8157, Longitude: -117.1396}},
	{"KNKX", coordinates.Geographic{Latitude: 32.8684, Longitude: -117.1425}},
	{"KOAK", coordinates.Geographic{Latitude: 37.7213, Longitude: -122.2208}},
	{"KONT", coordinates.Geographic{Latitude: 34.0560, Longitude: -117.6012}},
	{"KORD", coordinates.Geographic{Latitude: 41.9742, Longitude: -87.9073}},
	{"KPDX", coordinates.Geographic{Latitude: 45.5898, Longitude: -122.5951}},
	{"KPHL", coordinates.Geographic{Latitude: 39.8744, Longitude: -75.2424}},
	{"KPHX", coordinates.Geographic{Latitude: 33.4342, Longitude: -112.0116}},
	{"KPSP", coordinates.Geographic{Latitude: 33.8297, Longitude: -116.5067}},
	{"KSAN", coordinates.Geographic{Latitude: 32.7336, Longitude: -117.1897}},
	{"KSAT", coordinates.Geographic{Latitude: 29.5337, Longitude: -98.4698}},
	{"KSEA", coordinates.Geographic{Latitude: 47.4502, Longitude: -122.3088}},
	{"KSEE", coordinates.Geographic{Latitude: 32.8262, Longitude: -116.9724}},
	{"KSFO", coordinates.Geographic{Latitude: 37.6213, Longitude: -122.3790}},
	{"KSJC", coordinates.Geographic{Latitude: 37.3639, Longitude: -121.9289}},
	{"KSLC", coordinates.Geographic{Latitude: 40.7899, Longitude: -111.9791}},
	{"KSMF", coordinates.Geographic{Latitude: 38.6951, Longitude: -121.5908}},
	{"KSNA", coordinates.Geographic{Latitude: 33.6762, Longitude: -117.8675}},
	{"KSTL", coordinates.Geographic{Latitude: 38.7487, Longitude: -90.3700}},
	{"KTPA", coordinates.Geographic{Latitude: 27.9755, Longitude: -82.5332}},
	{"MMMX", coordinates.Geographic{Latitude: 19.4363, Longitude: -99.0721}},
	{"PANC", coordinates.Geographic{Latitude: 61.1743, Longitude: -149.9962}},
	{"PHNL", coordinates.Geographic{Latitude: 21.3187, Longitude: -157.9225}},

	// South America
	{"SAEZ", coordinates.Geographic{Latitude: -34.8222, Longitude: -58.5358}},
	{"SBGR", coordinates.Geographic{Latitude: -23.4356, Longitude: -46.4731}},

	// Europe
	{"EDDF", coordinates.Geographic{Latitude: 50.0379, Longitude: 8.5622}},
	{"EDDM", coordinates.Geographic{Latitude: 48.3538, Longitude: 11.7861}},
	{"EGKK", coordinates.Geographic{Latitude: 51.1537, Longitude: -0.1821}},
	{"EGLL", coordinates.Geographic{Latitude: 51.4700, Longitude: -0.4543}},
	{"EHAM", coordinates.Geographic{Latitude: 52.3105, Longitude: 4.7683}},
	{"EIDW", coordinates.Geographic{Latitude: 53.4264, Longitude: -6.2499}},
	{"EKCH", coordinates.Geographic{Latitude: 55.6180, Longitude: 12.6508}},
	{"ENGM", coordinates.Geographic{Latitude: 60.1976, Longitude: 11.1004}},
	{"ESSA", coordinates.Geographic{Latitude: 59.6498, Longitude: 17.9238}},
	{"LEMD", coordinates.Geographic{Latitude: 40.4983, Longitude: -3.5676}},
	{"LFPG", coordinates.Geographic{Latitude: 49.0097, Longitude: 2.5479}},
	{"LIRF", coordinates.Geographic{Latitude: 41.8003, Longitude: 12.2389}},
	{"LOWW", coordinates.Geographic{Latitude: 48.1103, Longitude: 16.5697}},
	{"LSZH", coordinates.Geographic{Latitude: 47.4582, Longitude: 8.5555}},
	{"LTFM", coordinates.Geographic{Latitude: 41.2753, Longitude: 28.7519}},

	// Africa & Middle East
	{"FAOR", coordinates.Geographic{Latitude: -26.1392, Longitude: 28.2460}},
	{"HECA", coordinates.Geographic{Latitude: 30.1219, Longitude: 31.4056}},
	{"OMDB", coordinates.Geographic{Latitude: 25.2532, Longitude: 55.3657}},
	{"OTHH", coordinates.Geographic{Latitude: 25.2731, Longitude: 51.6081}},

	// Asia & Pacific
	{"NZAA", coordinates.Geographic{Latitude: -37.0082, Longitude: 174.7850}},
	{"RJAA", coordinates.Geographic{Latitude: 35.7720, Longitude: 140.3929}},
	{"RJTT", coordinates.Geographic{Latitude: 35.5494, Longitude: 139.7798}},
	{"RKSI", coordinates.Geographic{Latitude: 37.4602, Longitude: 126.4407}},
	{"VHHH", coordinates.Geographic{Latitude: 22.3080, Longitude: 113.9185}},
	{"VIDP", coordinates.Geographic{Latitude: 28.5562, Longitude: 77.1000}},
	{"WIII", coordinates.Geographic{Latitude: -6.1256, Longitude: 106.6559}},
	{"WSSS", coordinates.Geographic{Latitude: 1.3644, Longitude: 103.9915}},
	{"YMML", coordinates.Geographic{Latitude: -37.6690, Longitude: 144.8410}},
	{"YSSY", coordinates.Geographic{Latitude: -33.9461, Longitude: 151.1772}},
	{"ZBAA", coordinates.Geographic{Latitude: 40.0799, Longitude: 116.6031}},
}

var airportsMap = sync.OnceValue(func() map[string][2]float64 {
	m := make(map[string][2]float64, len(table))
	for _, ap := range table {
		m[ap.ICAO] = [2]float64{ap.Location.Latitude, ap.Location.Longitude}
	}
	return m
})

// All returns a copy of the airport table.
func All() []Airport {
	out := make([]Airport, len(table))
	copy(out, table)
	return out
}

// Map returns the ICAO -> [latitude, longitude] mapping.
// The returned map is shared and must not be modified.
func Map() map[string][2]float64 {
	return airportsMap()
}

// Lookup returns the reference point for an ICAO code. The code is matched
// case-insensitively.
func Lookup(icao string) (coordinates.Geographic, bool) {
	ll, ok := airportsMap()[strings.ToUpper(strings.TrimSpace(icao))]
	if !ok {
		return coordinates.Geographic{}, false
	}
	return coordinates.Geographic{Latitude: ll[0], Longitude: ll[1]}, true
}

// Nearest returns the airport closest to p along with its distance in
// nautical miles.
func Nearest(p coordinates.Geographic) (Airport, int) {
	var best Airport
	bestDist := -1
	for _, ap := range table {
		d := coordinates.HaversineDistance(p.Latitude, p.Longitude, ap.Location.Latitude, ap.Location.Longitude)
		if bestDist < 0 || d < bestDist {
			best, bestDist = ap, d
		}
	}
	return best, bestDist
}
