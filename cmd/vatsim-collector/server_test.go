package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/unklstewy/vatsim-scope/internal/db"
)

// newPolledServer returns a server whose collector has completed one poll.
func newPolledServer(t *testing.T, store *fakeStore, health func(context.Context) error) *Server {
	t.Helper()
	fs := newFeedServer(t)

	var st observationStore
	if store != nil {
		st = store
	}
	c, m := newTestCollector(t, fs.URL+"/status.json", st)
	if err := c.Poll(context.Background()); err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	return NewServer(c, st, health, m.Handler(), []string{"*"}, slog.New(slog.DiscardHandler))
}

func doRequest(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	t.Run("Healthy without database", func(t *testing.T) {
		s := newPolledServer(t, nil, nil)
		rec := doRequest(t, s, "/healthz")
		if rec.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", rec.Code)
		}
	})

	t.Run("Unhealthy database", func(t *testing.T) {
		s := newPolledServer(t, nil, func(context.Context) error { return errors.New("ping: refused") })
		rec := doRequest(t, s, "/healthz")
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected 503, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "ping: refused") {
			t.Errorf("Expected error in body, got %s", rec.Body.String())
		}
	})
}

func TestHandleStatus(t *testing.T) {
	s := newPolledServer(t, nil, nil)
	rec := doRequest(t, s, "/api/v1/status")

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected application/json, got %s", ct)
	}

	var resp statusResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !strings.HasSuffix(resp.LiveURL, "/v3") || !strings.HasSuffix(resp.TransceiversURL, "/transceivers") {
		t.Errorf("Expected resolved endpoints, got %s and %s", resp.LiveURL, resp.TransceiversURL)
	}
	if resp.Pilots != 3 || resp.Polls != 1 || resp.Errors != 0 {
		t.Errorf("Unexpected counters: %+v", resp)
	}
	if resp.Near["KSAN"] != 1 || resp.Near["KLAX"] != 1 {
		t.Errorf("Expected one pilot near each airport, got %v", resp.Near)
	}
	if resp.NearTransceivers["KSAN"] != 1 || resp.NearTransceivers["KLAX"] != 0 {
		t.Errorf("Expected one transceiver near KSAN only, got %v", resp.NearTransceivers)
	}
	if resp.SnapshotAt == nil {
		t.Error("Expected snapshot time")
	}
}

func TestHandleNearby(t *testing.T) {
	s := newPolledServer(t, nil, nil)

	t.Run("Collected airport", func(t *testing.T) {
		rec := doRequest(t, s, "/api/v1/airports/ksan/nearby")
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
		var pilots []nearbyPilot
		if err := json.NewDecoder(rec.Body).Decode(&pilots); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if len(pilots) != 1 || pilots[0].Callsign != "UAL300" {
			t.Fatalf("Expected UAL300, got %+v", pilots)
		}
		if pilots[0].Departure != "KSAN" || pilots[0].Arrival != "KSFO" {
			t.Errorf("Expected route KSAN-KSFO, got %s-%s", pilots[0].Departure, pilots[0].Arrival)
		}
	})

	t.Run("Unknown airport", func(t *testing.T) {
		rec := doRequest(t, s, "/api/v1/airports/EGLL/nearby")
		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", rec.Code)
		}
	})
}

func TestHandleObservations(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		store := &fakeStore{}
		s := newPolledServer(t, store, nil)

		before := time.Now()
		rec := doRequest(t, s, "/api/v1/airports/KLAX/observations")
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var obs []db.Observation
		if err := json.NewDecoder(rec.Body).Decode(&obs); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if len(obs) != 1 || obs[0].Callsign != "SWA200" {
			t.Errorf("Expected SWA200, got %+v", obs)
		}
		if store.lastQuery.limit != defaultObservationLimit {
			t.Errorf("Expected default limit, got %d", store.lastQuery.limit)
		}
		if d := before.Sub(store.lastQuery.since); d < 59*time.Minute || d > 61*time.Minute {
			t.Errorf("Expected since about an hour ago, got %v", d)
		}
	})

	t.Run("Query parameters", func(t *testing.T) {
		store := &fakeStore{}
		s := newPolledServer(t, store, nil)

		rec := doRequest(t, s, "/api/v1/airports/KSAN/observations?since=10m&limit=5000")
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
		if store.lastQuery.limit != maxObservationLimit {
			t.Errorf("Expected limit capped at %d, got %d", maxObservationLimit, store.lastQuery.limit)
		}
		if store.lastQuery.icao != "KSAN" {
			t.Errorf("Expected KSAN, got %s", store.lastQuery.icao)
		}
	})

	t.Run("Empty result is an array", func(t *testing.T) {
		s := newPolledServer(t, nil, nil)
		s.store = &fakeStore{}
		rec := doRequest(t, s, "/api/v1/airports/KSAN/observations")
		if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
			t.Errorf("Expected [], got %s", body)
		}
	})

	tests := []struct {
		name   string
		target string
		store  *fakeStore
		want   int
	}{
		{"bad since", "/api/v1/airports/KSAN/observations?since=yesterday", &fakeStore{}, http.StatusBadRequest},
		{"negative since", "/api/v1/airports/KSAN/observations?since=-1h", &fakeStore{}, http.StatusBadRequest},
		{"bad limit", "/api/v1/airports/KSAN/observations?limit=0", &fakeStore{}, http.StatusBadRequest},
		{"unknown airport", "/api/v1/airports/EGLL/observations", &fakeStore{}, http.StatusNotFound},
		{"query error", "/api/v1/airports/KSAN/observations", &fakeStore{queryErr: errors.New("boom")}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newPolledServer(t, tt.store, nil)
			if rec := doRequest(t, s, tt.target); rec.Code != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, rec.Code)
			}
		})
	}

	t.Run("Storage disabled", func(t *testing.T) {
		s := newPolledServer(t, nil, nil)
		rec := doRequest(t, s, "/api/v1/airports/KSAN/observations")
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected 503, got %d", rec.Code)
		}
	})
}

func TestMetricsEndpoint(t *testing.T) {
	s := newPolledServer(t, &fakeStore{}, nil)
	rec := doRequest(t, s, "/metrics")

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`vatsim_pilots_near{airport="KSAN"} 1`, "vatsim_observations_stored_total 2"} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected metrics to contain %q", want)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newPolledServer(t, nil, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/status", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Expected Access-Control-Allow-Origin *, got %q", got)
	}
}
