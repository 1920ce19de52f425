package vatsim

import (
	"cmp"
	"slices"

	"github.com/unklstewy/vatsim-scope/pkg/airports"
	"github.com/unklstewy/vatsim-scope/pkg/coordinates"
)

// PilotDistance is a pilot together with its range and bearing from a
// reference point.
type PilotDistance struct {
	Pilot      Pilot
	DistanceNM int
	BearingDeg float64
}

// TransceiverDistance is a transceiver together with its owning callsign
// and its range from a reference point.
type TransceiverDistance struct {
	Callsign    string
	Transceiver Transceiver
	DistanceNM  int
}

// PilotsNear returns the pilots of snap within radiusNM of center, closest
// first. Ties are broken by callsign so the order is stable.
func PilotsNear(snap *LiveSnapshot, center coordinates.Geographic, radiusNM int) []PilotDistance {
	if snap == nil {
		return nil
	}

	var out []PilotDistance
	for _, p := range snap.Pilots {
		pos := p.Position()
		d := coordinates.HaversineDistance(center.Latitude, center.Longitude, pos.Latitude, pos.Longitude)
		if d > radiusNM {
			continue
		}
		out = append(out, PilotDistance{
			Pilot:      p,
			DistanceNM: d,
			BearingDeg: coordinates.Bearing(center, pos),
		})
	}

	slices.SortFunc(out, func(a, b PilotDistance) int {
		return cmp.Or(
			cmp.Compare(a.DistanceNM, b.DistanceNM),
			cmp.Compare(a.Pilot.Callsign, b.Pilot.Callsign),
		)
	})
	return out
}

// TransceiversNear returns every transceiver within radiusNM of center,
// closest first.
func TransceiversNear(entries []TransceiverEntry, center coordinates.Geographic, radiusNM int) []TransceiverDistance {
	var out []TransceiverDistance
	for _, e := range entries {
		for _, x := range e.Transceivers {
			d := coordinates.HaversineDistance(center.Latitude, center.Longitude, x.LatDeg, x.LonDeg)
			if d > radiusNM {
				continue
			}
			out = append(out, TransceiverDistance{Callsign: e.Callsign, Transceiver: x, DistanceNM: d})
		}
	}

	slices.SortFunc(out, func(a, b TransceiverDistance) int {
		return cmp.Or(
			cmp.Compare(a.DistanceNM, b.DistanceNM),
			cmp.Compare(a.Callsign, b.Callsign),
			cmp.Compare(a.Transceiver.ID, b.Transceiver.ID),
		)
	})
	return out
}

// NearestAirport returns the known airport closest to the pilot and the
// distance to it in nautical miles.
func NearestAirport(p Pilot) (airports.Airport, int) {
	return airports.Nearest(p.Position())
}
