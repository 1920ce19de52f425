package vatsim

import (
	"time"

	"github.com/unklstewy/vatsim-scope/pkg/coordinates"
)

// StatusData lists the mirror pools published by the status directory.
type StatusData struct {
	// V3 holds the live network snapshot mirrors
	V3 []string `json:"v3"`

	// Transceivers holds the transceiver position mirrors
	Transceivers []string `json:"transceivers"`

	// Servers, ServersSweatbox and ServersAll are FSD server lists
	Servers         []string `json:"servers"`
	ServersSweatbox []string `json:"servers_sweatbox"`
	ServersAll      []string `json:"servers_all"`
}

// Status is the status directory document.
type Status struct {
	Data  StatusData `json:"data"`
	User  []string   `json:"user"`
	Metar []string   `json:"metar"`
}

// General is the metadata block of a live snapshot.
type General struct {
	Version          int       `json:"version"`
	Reload           int       `json:"reload"`
	Update           string    `json:"update"`
	UpdateTimestamp  time.Time `json:"update_timestamp"`
	ConnectedClients int       `json:"connected_clients"`
	UniqueUsers      int       `json:"unique_users"`
}

// FlightPlan is a flight plan as it appears in the live snapshot.
// The historical REST API uses a different shape, see RESTFlightPlan.
type FlightPlan struct {
	FlightRules         string `json:"flight_rules"`
	Aircraft            string `json:"aircraft"`
	AircraftFAA         string `json:"aircraft_faa"`
	AircraftShort       string `json:"aircraft_short"`
	Departure           string `json:"departure"`
	Arrival             string `json:"arrival"`
	Alternate           string `json:"alternate"`
	CruiseTAS           string `json:"cruise_tas"`
	Altitude            string `json:"altitude"`
	DepTime             string `json:"deptime"`
	EnrouteTime         string `json:"enroute_time"`
	FuelTime            string `json:"fuel_time"`
	Remarks             string `json:"remarks"`
	Route               string `json:"route"`
	RevisionID          int    `json:"revision_id"`
	AssignedTransponder string `json:"assigned_transponder"`
}

// Pilot is a connected pilot.
type Pilot struct {
	CID            int         `json:"cid"`
	Name           string      `json:"name"`
	Callsign       string      `json:"callsign"`
	Server         string      `json:"server"`
	PilotRating    int         `json:"pilot_rating"`
	MilitaryRating int         `json:"military_rating"`
	Latitude       float64     `json:"latitude"`
	Longitude      float64     `json:"longitude"`
	Altitude       int         `json:"altitude"`
	Groundspeed    int         `json:"groundspeed"`
	Transponder    string      `json:"transponder"`
	Heading        int         `json:"heading"`
	QNHiHg         float64     `json:"qnh_i_hg"`
	QNHMb          int         `json:"qnh_mb"`
	FlightPlan     *FlightPlan `json:"flight_plan"`
	LogonTime      time.Time   `json:"logon_time"`
	LastUpdated    time.Time   `json:"last_updated"`
}

// Position returns the pilot's reported position.
func (p Pilot) Position() coordinates.Geographic {
	return coordinates.Geographic{Latitude: p.Latitude, Longitude: p.Longitude}
}

// Controller is a connected controller or observer.
type Controller struct {
	CID         int       `json:"cid"`
	Name        string    `json:"name"`
	Callsign    string    `json:"callsign"`
	Frequency   string    `json:"frequency"`
	Facility    int       `json:"facility"`
	Rating      int       `json:"rating"`
	Server      string    `json:"server"`
	VisualRange int       `json:"visual_range"`
	TextATIS    []string  `json:"text_atis"`
	LastUpdated time.Time `json:"last_updated"`
	LogonTime   time.Time `json:"logon_time"`
}

// ATIS is a connected ATIS station.
type ATIS struct {
	CID         int       `json:"cid"`
	Name        string    `json:"name"`
	Callsign    string    `json:"callsign"`
	Frequency   string    `json:"frequency"`
	Facility    int       `json:"facility"`
	Rating      int       `json:"rating"`
	Server      string    `json:"server"`
	VisualRange int       `json:"visual_range"`
	ATISCode    *string   `json:"atis_code"`
	TextATIS    []string  `json:"text_atis"`
	LastUpdated time.Time `json:"last_updated"`
	LogonTime   time.Time `json:"logon_time"`
}

// Server is an FSD server.
type Server struct {
	Ident                    string `json:"ident"`
	HostnameOrIP             string `json:"hostname_or_ip"`
	Location                 string `json:"location"`
	Name                     string `json:"name"`
	ClientsConnectionAllowed int    `json:"clients_connection_allowed"`
	ClientConnectionsAllowed bool   `json:"client_connections_allowed"`
	IsSweatbox               bool   `json:"is_sweatbox"`
}

// Prefile is a flight plan filed by a pilot who has not yet connected.
type Prefile struct {
	CID         int         `json:"cid"`
	Name        string      `json:"name"`
	Callsign    string      `json:"callsign"`
	FlightPlan  *FlightPlan `json:"flight_plan"`
	LastUpdated time.Time   `json:"last_updated"`
}

// ReferenceItem is an entry of the facility and controller rating tables.
type ReferenceItem struct {
	ID    int    `json:"id"`
	Short string `json:"short"`
	Long  string `json:"long"`
}

// ReferenceNameItem is an entry of the pilot and military rating tables.
type ReferenceNameItem struct {
	ID        int    `json:"id"`
	ShortName string `json:"short_name"`
	LongName  string `json:"long_name"`
}

// LiveSnapshot is the full live network snapshot.
type LiveSnapshot struct {
	General         General             `json:"general"`
	Pilots          []Pilot             `json:"pilots"`
	Controllers     []Controller        `json:"controllers"`
	ATIS            []ATIS              `json:"atis"`
	Servers         []Server            `json:"servers"`
	Prefiles        []Prefile           `json:"prefiles"`
	Facilities      []ReferenceItem     `json:"facilities"`
	Ratings         []ReferenceItem     `json:"ratings"`
	PilotRatings    []ReferenceNameItem `json:"pilot_ratings"`
	MilitaryRatings []ReferenceNameItem `json:"military_ratings"`
}

// FacilityName returns the short name for a facility id, or "" if unknown.
func (s *LiveSnapshot) FacilityName(id int) string {
	for _, f := range s.Facilities {
		if f.ID == id {
			return f.Short
		}
	}
	return ""
}

// RatingName returns the short name for a controller rating id, or "" if unknown.
func (s *LiveSnapshot) RatingName(id int) string {
	for _, r := range s.Ratings {
		if r.ID == id {
			return r.Short
		}
	}
	return ""
}

// Transceiver is a single radio of a connected client.
type Transceiver struct {
	ID         int     `json:"id"`
	Frequency  int64   `json:"frequency"` // Hz
	LatDeg     float64 `json:"latDeg"`
	LonDeg     float64 `json:"lonDeg"`
	HeightMslM float64 `json:"heightMslM"`
	HeightAglM float64 `json:"heightAglM"`
}

// Position returns the transceiver's reported position.
func (t Transceiver) Position() coordinates.Geographic {
	return coordinates.Geographic{Latitude: t.LatDeg, Longitude: t.LonDeg}
}

// TransceiverEntry groups the transceivers of one callsign.
type TransceiverEntry struct {
	Callsign     string        `json:"callsign"`
	Transceivers []Transceiver `json:"transceivers"`
}

// UserRatingsSimple is a member's rating summary.
type UserRatingsSimple struct {
	ID               string  `json:"id"`
	Rating           int     `json:"rating"`
	PilotRating      int     `json:"pilot_rating"`
	SuspDate         *string `json:"susp_date"`
	RegDate          string  `json:"reg_date"`
	Region           string  `json:"region"`
	Division         string  `json:"division"`
	Subdivision      string  `json:"subdivision"`
	LastRatingChange string  `json:"lastratingchange"`
}

// RatingsTimeData is the time, in hours, a member has spent per position type.
type RatingsTimeData struct {
	ID    int     `json:"id"`
	ATC   float64 `json:"atc"`
	Pilot float64 `json:"pilot"`
	S1    float64 `json:"s1"`
	S2    float64 `json:"s2"`
	S3    float64 `json:"s3"`
	C1    float64 `json:"c1"`
	C2    float64 `json:"c2"`
	C3    float64 `json:"c3"`
	I1    float64 `json:"i1"`
	I2    float64 `json:"i2"`
	I3    float64 `json:"i3"`
	SUP   float64 `json:"sup"`
	ADM   float64 `json:"adm"`
}

// ConnectionEntry is one historical connection of a member.
type ConnectionEntry struct {
	ID       int     `json:"id"`
	VatsimID string  `json:"vatsim_id"`
	Type     int     `json:"type"`
	Rating   int     `json:"rating"`
	Callsign string  `json:"callsign"`
	Start    string  `json:"start"`
	End      *string `json:"end"`
	Server   string  `json:"server"`
}

// PaginatedResponse wraps a page of results from the historical API.
// Next and Previous are nil on the last and first page respectively.
type PaginatedResponse[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// ATCSessionEntry is one controlling session, with per-session and
// per-callsign totals.
type ATCSessionEntry struct {
	ConnectionID            int     `json:"connection_id"`
	Start                   string  `json:"start"`
	End                     string  `json:"end"`
	Server                  string  `json:"server"`
	VatsimID                string  `json:"vatsim_id"`
	Type                    int     `json:"type"`
	Rating                  int     `json:"rating"`
	Callsign                string  `json:"callsign"`
	MinutesOnCallsign       string  `json:"minutes_on_callsign"`
	TotalMinutesOnCallsign  float64 `json:"total_minutes_on_callsign"`
	TotalAircraftTracked    int     `json:"total_aircraft_tracked"`
	TotalAircraftSeen       int     `json:"total_aircraft_seen"`
	TotalFlightsAmended     int     `json:"total_flights_amended"`
	TotalHandoffsInitiated  int     `json:"total_handoffs_initiated"`
	TotalHandoffsReceived   int     `json:"total_handoffs_received"`
	TotalHandoffsRefused    int     `json:"total_handoffs_refused"`
	TotalSquawksAssigned    int     `json:"total_squawks_assigned"`
	TotalCruisealtsModified int     `json:"total_cruisealts_modified"`
	TotalTempaltsModified   int     `json:"total_tempalts_modified"`
	TotalScratchpadMods     int     `json:"total_scratchpadmods"`
	AircraftTracked         int     `json:"aircrafttracked"`
	AircraftSeen            int     `json:"aircraftseen"`
	FlightsAmended          int     `json:"flightsamended"`
	HandoffsInitiated       int     `json:"handoffsinitiated"`
	HandoffsReceived        int     `json:"handoffsreceived"`
	HandoffsRefused         int     `json:"handoffsrefused"`
	SquawksAssigned         int     `json:"squawksassigned"`
	CruisealtsModified      int     `json:"cruisealtsmodified"`
	TempaltsModified        int     `json:"tempaltsmodified"`
	ScratchpadMods          int     `json:"scratchpadmods"`
}

// RESTFlightPlan is a flight plan as returned by the historical API.
type RESTFlightPlan struct {
	ID                 int    `json:"id"`
	ConnectionID       int    `json:"connection_id"`
	VatsimID           string `json:"vatsim_id"`
	FlightType         string `json:"flight_type"`
	Callsign           string `json:"callsign"`
	Aircraft           string `json:"aircraft"`
	CruiseSpeed        string `json:"cruisespeed"`
	Dep                string `json:"dep"`
	Arr                string `json:"arr"`
	Alt                string `json:"alt"`
	Altitude           string `json:"altitude"`
	Remarks            string `json:"rmks"`
	Route              string `json:"route"`
	DepTime            string `json:"deptime"`
	HrsEnroute         int    `json:"hrsenroute"`
	MinEnroute         int    `json:"minenroute"`
	HrsFuel            int    `json:"hrsfuel"`
	MinsFuel           int    `json:"minsfuel"`
	Filed              string `json:"filed"`
	AssignedSquawk     string `json:"assignedsquawk"`
	ModifiedByCID      string `json:"modifiedbycid"`
	ModifiedByCallsign string `json:"modifiedbycallsign"`
}

// Region is a VATSIM region.
type Region struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Director string `json:"director"`
}

// Facility is an ATC facility currently staffed.
type Facility struct {
	ID       string `json:"id"`
	Start    string `json:"start"`
	Callsign string `json:"callsign"`
	Rating   int    `json:"rating"`
}
