package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/unklstewy/vatsim-scope/pkg/vatsim"
)

// Observation is one pilot seen within range of an airport during a poll.
type Observation struct {
	Airport        string    `json:"airport"`
	Callsign       string    `json:"callsign"`
	CID            int       `json:"cid"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	AltitudeFt     int       `json:"altitude_ft"`
	GroundspeedKts int       `json:"groundspeed_kts"`
	HeadingDeg     int       `json:"heading_deg"`
	DistanceNM     int       `json:"distance_nm"`
	BearingDeg     float64   `json:"bearing_deg"`
	Departure      string    `json:"departure,omitempty"`
	Arrival        string    `json:"arrival,omitempty"`
	AircraftType   string    `json:"aircraft_type,omitempty"`
	ObservedAt     time.Time `json:"observed_at"`
	Mirror         string    `json:"mirror"`
}

// ObservationsFromProximity converts a proximity query result into rows.
// observedAt is normally the snapshot's update timestamp and mirror the live
// URL it was fetched from.
func ObservationsFromProximity(airport string, near []vatsim.PilotDistance, observedAt time.Time, mirror string) []Observation {
	airport = strings.ToUpper(airport)
	out := make([]Observation, 0, len(near))
	for _, pd := range near {
		p := pd.Pilot
		o := Observation{
			Airport:        airport,
			Callsign:       p.Callsign,
			CID:            p.CID,
			Latitude:       p.Latitude,
			Longitude:      p.Longitude,
			AltitudeFt:     p.Altitude,
			GroundspeedKts: p.Groundspeed,
			HeadingDeg:     p.Heading,
			DistanceNM:     pd.DistanceNM,
			BearingDeg:     pd.BearingDeg,
			ObservedAt:     observedAt.UTC(),
			Mirror:         mirror,
		}
		if fp := p.FlightPlan; fp != nil {
			o.Departure = fp.Departure
			o.Arrival = fp.Arrival
			o.AircraftType = fp.AircraftShort
		}
		out = append(out, o)
	}
	return out
}

// ObservationRepository handles database operations for proximity observations.
type ObservationRepository struct {
	db *DB
}

// NewObservationRepository creates a new observation repository.
func NewObservationRepository(db *DB) *ObservationRepository {
	return &ObservationRepository{db: db}
}

// InsertObservations writes all rows in a single transaction.
func (r *ObservationRepository) InsertObservations(ctx context.Context, obs []Observation) error {
	if len(obs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert observations: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO observations (
			airport, callsign, cid, latitude, longitude,
			altitude_ft, groundspeed_kts, heading_deg,
			distance_nm, bearing_deg,
			departure, arrival, aircraft_type,
			observed_at, mirror
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`)
	if err != nil {
		return fmt.Errorf("insert observations: prepare: %w", err)
	}
	defer stmt.Close()

	for _, o := range obs {
		if _, err := stmt.ExecContext(ctx,
			o.Airport, o.Callsign, o.CID, o.Latitude, o.Longitude,
			o.AltitudeFt, o.GroundspeedKts, o.HeadingDeg,
			o.DistanceNM, o.BearingDeg,
			nullString(o.Departure), nullString(o.Arrival), nullString(o.AircraftType),
			o.ObservedAt, o.Mirror,
		); err != nil {
			return fmt.Errorf("insert observation %s@%s: %w", o.Callsign, o.Airport, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert observations: commit: %w", err)
	}
	return nil
}

// RecentForAirport returns observations for an airport at or after since,
// newest first, closest first within a poll.
func (r *ObservationRepository) RecentForAirport(ctx context.Context, icao string, since time.Time, limit int) ([]Observation, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT airport, callsign, cid, latitude, longitude,
		       altitude_ft, groundspeed_kts, heading_deg,
		       distance_nm, bearing_deg,
		       departure, arrival, aircraft_type,
		       observed_at, mirror
		FROM observations
		WHERE airport = $1 AND observed_at >= $2
		ORDER BY observed_at DESC, distance_nm ASC, callsign ASC
		LIMIT $3`,
		strings.ToUpper(icao), since.UTC(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	var out []Observation
	for rows.Next() {
		var (
			o                      Observation
			dep, arr, aircraftType sql.NullString
		)
		if err := rows.Scan(
			&o.Airport, &o.Callsign, &o.CID, &o.Latitude, &o.Longitude,
			&o.AltitudeFt, &o.GroundspeedKts, &o.HeadingDeg,
			&o.DistanceNM, &o.BearingDeg,
			&dep, &arr, &aircraftType,
			&o.ObservedAt, &o.Mirror,
		); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		o.Departure, o.Arrival, o.AircraftType = dep.String, arr.String, aircraftType.String
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read observations: %w", err)
	}

	return out, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
