package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/unklstewy/vatsim-scope/internal/db"
)

const (
	defaultObservationLimit = 100
	maxObservationLimit     = 1000
	defaultObservationSince = time.Hour
)

// Server exposes the collector's state over HTTP.
type Server struct {
	router    *chi.Mux
	collector *Collector
	store     observationStore
	health    func(ctx context.Context) error
	metrics   http.Handler
	logger    *slog.Logger
}

// NewServer builds the router. store and health may be nil when the
// collector runs without a database.
func NewServer(c *Collector, store observationStore, health func(ctx context.Context) error, metricsHandler http.Handler, allowedOrigins []string, logger *slog.Logger) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		collector: c,
		store:     store,
		health:    health,
		metrics:   metricsHandler,
		logger:    logger,
	}
	s.setupRoutes(allowedOrigins)
	return s
}

func (s *Server) setupRoutes(allowedOrigins []string) {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Link"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/airports/{icao}/nearby", s.handleNearby)
		r.Get("/airports/{icao}/observations", s.handleObservations)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusResponse struct {
	LiveURL          string         `json:"live_url,omitempty"`
	TransceiversURL  string         `json:"transceivers_url,omitempty"`
	PolledAt         *time.Time     `json:"polled_at,omitempty"`
	SnapshotAt       *time.Time     `json:"snapshot_at,omitempty"`
	Pilots           int            `json:"pilots"`
	Controllers      int            `json:"controllers"`
	Near             map[string]int `json:"near"`
	NearTransceivers map[string]int `json:"near_transceivers,omitempty"`
	Polls            int            `json:"polls"`
	Errors           int            `json:"errors"`
	LastError        string         `json:"last_error,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	last, polls, errs := s.collector.Last()

	resp := statusResponse{
		LiveURL:          last.Endpoints.LiveURL(),
		TransceiversURL:  last.Endpoints.TransceiversURL(),
		Pilots:           last.Pilots,
		Controllers:      last.Controllers,
		Near:             make(map[string]int, len(last.Near)),
		NearTransceivers: last.NearTransceivers,
		Polls:            polls,
		Errors:           errs,
	}
	if !last.PolledAt.IsZero() {
		resp.PolledAt = &last.PolledAt
	}
	if !last.SnapshotAt.IsZero() {
		resp.SnapshotAt = &last.SnapshotAt
	}
	for icao, near := range last.Near {
		resp.Near[icao] = len(near)
	}
	if last.Err != nil {
		resp.LastError = last.Err.Error()
	}

	respondJSON(w, http.StatusOK, resp)
}

type nearbyPilot struct {
	Callsign       string  `json:"callsign"`
	CID            int     `json:"cid"`
	DistanceNM     int     `json:"distance_nm"`
	BearingDeg     float64 `json:"bearing_deg"`
	AltitudeFt     int     `json:"altitude_ft"`
	GroundspeedKts int     `json:"groundspeed_kts"`
	Departure      string  `json:"departure,omitempty"`
	Arrival        string  `json:"arrival,omitempty"`
}

// handleNearby serves the proximity result of the last successful poll.
func (s *Server) handleNearby(w http.ResponseWriter, r *http.Request) {
	icao := strings.ToUpper(chi.URLParam(r, "icao"))
	if !s.collector.hasTarget(icao) {
		respondError(w, http.StatusNotFound, "airport not collected: "+icao)
		return
	}

	last, _, _ := s.collector.Last()
	near := last.Near[icao]

	out := make([]nearbyPilot, 0, len(near))
	for _, pd := range near {
		np := nearbyPilot{
			Callsign:       pd.Pilot.Callsign,
			CID:            pd.Pilot.CID,
			DistanceNM:     pd.DistanceNM,
			BearingDeg:     pd.BearingDeg,
			AltitudeFt:     pd.Pilot.Altitude,
			GroundspeedKts: pd.Pilot.Groundspeed,
		}
		if fp := pd.Pilot.FlightPlan; fp != nil {
			np.Departure = fp.Departure
			np.Arrival = fp.Arrival
		}
		out = append(out, np)
	}

	respondJSON(w, http.StatusOK, out)
}

// handleObservations serves stored observations.
// Query parameters: since (a duration such as 30m, default 1h) and limit.
func (s *Server) handleObservations(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, http.StatusServiceUnavailable, "observation storage disabled")
		return
	}

	icao := strings.ToUpper(chi.URLParam(r, "icao"))
	if !s.collector.hasTarget(icao) {
		respondError(w, http.StatusNotFound, "airport not collected: "+icao)
		return
	}

	since := defaultObservationSince
	if v := r.URL.Query().Get("since"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			respondError(w, http.StatusBadRequest, "invalid since duration")
			return
		}
		since = d
	}

	limit := defaultObservationLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, maxObservationLimit)
	}

	obs, err := s.store.RecentForAirport(r.Context(), icao, time.Now().Add(-since), limit)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "observation query failed",
			slog.String("airport", icao), slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "failed to query observations")
		return
	}
	if obs == nil {
		obs = []db.Observation{}
	}

	respondJSON(w, http.StatusOK, obs)
}

// requestLogger logs one line per request through slog.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.DebugContext(r.Context(), "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}

// respondJSON writes a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
