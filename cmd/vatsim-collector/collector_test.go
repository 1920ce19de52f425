package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/unklstewy/vatsim-scope/internal/db"
	"github.com/unklstewy/vatsim-scope/internal/metrics"
	"github.com/unklstewy/vatsim-scope/pkg/vatsim"
)

const testSnapshotJSON = `{
  "general": {"version": 3, "update_timestamp": "2024-05-01T12:00:00.1234567Z", "connected_clients": 3},
  "pilots": [
    {"cid": 1, "callsign": "UAL300", "latitude": 32.7336, "longitude": -117.1897, "altitude": 1200,
     "flight_plan": {"departure": "KSAN", "arrival": "KSFO", "aircraft_short": "B738"}},
    {"cid": 2, "callsign": "SWA200", "latitude": 33.9425, "longitude": -118.4081, "altitude": 0},
    {"cid": 3, "callsign": "AAL100", "latitude": 40.6413, "longitude": -73.7781, "altitude": 35000}
  ],
  "controllers": [{"cid": 4, "callsign": "SAN_TWR"}]
}`

const testTransceiversJSON = `[
  {"callsign": "SAN_TWR", "transceivers": [{"id": 0, "frequency": 118300000, "latDeg": 32.7336, "lonDeg": -117.1897}]}
]`

// feedServer fakes the status directory and both data feeds.
type feedServer struct {
	*httptest.Server
	statusFails       atomic.Bool
	transceiversFails atomic.Bool
}

func newFeedServer(t *testing.T) *feedServer {
	t.Helper()
	fs := &feedServer{}
	mux := http.NewServeMux()
	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)

	mux.HandleFunc("/status.json", func(w http.ResponseWriter, r *http.Request) {
		if fs.statusFails.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(vatsim.Status{Data: vatsim.StatusData{
			V3:           []string{fs.URL + "/v3"},
			Transceivers: []string{fs.URL + "/transceivers"},
		}})
	})
	mux.HandleFunc("/v3", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testSnapshotJSON))
	})
	mux.HandleFunc("/transceivers", func(w http.ResponseWriter, r *http.Request) {
		if fs.transceiversFails.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(testTransceiversJSON))
	})
	return fs
}

// fakeStore records inserted observations in memory.
type fakeStore struct {
	mu        sync.Mutex
	obs       []db.Observation
	insertErr error
	queryErr  error
	lastQuery struct {
		icao  string
		since time.Time
		limit int
	}
}

func (s *fakeStore) InsertObservations(ctx context.Context, obs []db.Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	s.obs = append(s.obs, obs...)
	return nil
}

func (s *fakeStore) RecentForAirport(ctx context.Context, icao string, since time.Time, limit int) ([]db.Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastQuery.icao, s.lastQuery.since, s.lastQuery.limit = icao, since, limit
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	var out []db.Observation
	for _, o := range s.obs {
		if o.Airport == icao {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *fakeStore) stored() []db.Observation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]db.Observation(nil), s.obs...)
}

// fakeMaintainer records maintenance calls in order.
type fakeMaintainer struct {
	ensureErr error
	statsErr  error
	maxAge    time.Duration
	calls     []string
}

func (f *fakeMaintainer) Ensure(ctx context.Context) error {
	f.calls = append(f.calls, "ensure")
	return f.ensureErr
}

func (f *fakeMaintainer) CleanupOldData(ctx context.Context, maxAge time.Duration) (int64, error) {
	f.calls = append(f.calls, "cleanup")
	f.maxAge = maxAge
	return 3, nil
}

func (f *fakeMaintainer) GetStats(ctx context.Context) (map[string]interface{}, error) {
	f.calls = append(f.calls, "stats")
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return map[string]interface{}{"observations": int64(42), "airports": 2}, nil
}

func newTestCollector(t *testing.T, statusURL string, store observationStore) (*Collector, *metrics.Collector) {
	t.Helper()
	client, err := vatsim.NewClient(vatsim.Config{
		StatusURL: statusURL,
		Selector:  &vatsim.RoundRobinSelector{},
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	m, err := metrics.New(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("Failed to create metrics: %v", err)
	}
	targets, _ := resolveTargets([]string{"KSAN", "KLAX"})

	return &Collector{
		client:   client,
		store:    store,
		metrics:  m,
		logger:   slog.New(slog.DiscardHandler),
		targets:  targets,
		radiusNM: 50,
		retry: vatsim.RetryConfig{
			MaxRetries:   1,
			InitialDelay: time.Millisecond,
			MaxDelay:     time.Millisecond,
			Multiplier:   2,
		},
		interval:  time.Hour,
		retention: 24 * time.Hour,
	}, m
}

func TestResolveTargets(t *testing.T) {
	targets, unknown := resolveTargets([]string{"ksan", " KLAX ", "KSAN", "ZZZZ", ""})

	if len(targets) != 2 || targets[0].ICAO != "KSAN" || targets[1].ICAO != "KLAX" {
		t.Errorf("Expected targets [KSAN KLAX], got %+v", targets)
	}
	if len(unknown) != 1 || unknown[0] != "ZZZZ" {
		t.Errorf("Expected unknown [ZZZZ], got %v", unknown)
	}
}

func TestCollectorPoll(t *testing.T) {
	fs := newFeedServer(t)
	store := &fakeStore{}
	c, m := newTestCollector(t, fs.URL+"/status.json", store)

	if err := c.Poll(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	obs := store.stored()
	if len(obs) != 2 {
		t.Fatalf("Expected 2 observations, got %d: %+v", len(obs), obs)
	}
	if obs[0].Airport != "KSAN" || obs[0].Callsign != "UAL300" {
		t.Errorf("Expected UAL300 at KSAN first, got %s at %s", obs[0].Callsign, obs[0].Airport)
	}
	if obs[0].AircraftType != "B738" || obs[0].Arrival != "KSFO" {
		t.Errorf("Expected flight plan fields, got %+v", obs[0])
	}
	if obs[1].Airport != "KLAX" || obs[1].Callsign != "SWA200" {
		t.Errorf("Expected SWA200 at KLAX second, got %s at %s", obs[1].Callsign, obs[1].Airport)
	}
	if obs[0].Mirror != fs.URL+"/v3" {
		t.Errorf("Expected mirror %s/v3, got %s", fs.URL, obs[0].Mirror)
	}
	wantTime := time.Date(2024, 5, 1, 12, 0, 0, 123456700, time.UTC)
	if !obs[0].ObservedAt.Equal(wantTime) {
		t.Errorf("Expected observed_at %v, got %v", wantTime, obs[0].ObservedAt)
	}

	last, polls, errs := c.Last()
	if polls != 1 || errs != 0 {
		t.Errorf("Expected 1 poll and 0 errors, got %d and %d", polls, errs)
	}
	if last.Pilots != 3 || last.Controllers != 1 {
		t.Errorf("Expected 3 pilots and 1 controller, got %d and %d", last.Pilots, last.Controllers)
	}
	if len(last.Near["KSAN"]) != 1 || len(last.Near["KLAX"]) != 1 {
		t.Errorf("Expected one pilot near each airport, got %+v", last.Near)
	}
	if last.NearTransceivers["KSAN"] != 1 || last.NearTransceivers["KLAX"] != 0 {
		t.Errorf("Expected one transceiver near KSAN, got %v", last.NearTransceivers)
	}

	if got := testutil.ToFloat64(m.PilotsNear.WithLabelValues("KSAN")); got != 1 {
		t.Errorf("Expected pilots_near KSAN 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.ObservationsStored); got != 2 {
		t.Errorf("Expected 2 observations stored, got %v", got)
	}
	if got := testutil.ToFloat64(m.FetchTotal.WithLabelValues(metrics.FeedLive, "ok")); got != 1 {
		t.Errorf("Expected 1 successful live fetch, got %v", got)
	}
}

func TestCollectorPollWithoutStore(t *testing.T) {
	fs := newFeedServer(t)
	c, m := newTestCollector(t, fs.URL+"/status.json", nil)

	if err := c.Poll(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if got := testutil.ToFloat64(m.ObservationsStored); got != 0 {
		t.Errorf("Expected nothing stored, got %v", got)
	}
	if last, _, _ := c.Last(); last.Stored != 0 {
		t.Errorf("Expected Stored 0, got %d", last.Stored)
	}
}

func TestCollectorPollFailures(t *testing.T) {
	t.Run("Directory unavailable", func(t *testing.T) {
		fs := newFeedServer(t)
		fs.statusFails.Store(true)
		store := &fakeStore{}
		c, m := newTestCollector(t, fs.URL+"/status.json", store)

		err := c.Poll(context.Background())
		if _, ok := vatsim.IsUpstreamUnavailable(err); !ok {
			t.Fatalf("Expected UpstreamUnavailable, got: %v", err)
		}
		if len(store.stored()) != 0 {
			t.Error("Expected no observations stored")
		}
		_, polls, errs := c.Last()
		if polls != 1 || errs != 1 {
			t.Errorf("Expected 1 poll and 1 error, got %d and %d", polls, errs)
		}
		// initial attempt + 1 retry
		if got := testutil.ToFloat64(m.FetchTotal.WithLabelValues(metrics.FeedStatus, "upstream_unavailable")); got != 2 {
			t.Errorf("Expected 2 failed status fetches, got %v", got)
		}
	})

	t.Run("Failure keeps last good view", func(t *testing.T) {
		fs := newFeedServer(t)
		c, _ := newTestCollector(t, fs.URL+"/status.json", nil)

		if err := c.Poll(context.Background()); err != nil {
			t.Fatalf("Expected first poll to succeed, got: %v", err)
		}
		fs.statusFails.Store(true)
		if err := c.Poll(context.Background()); err == nil {
			t.Fatal("Expected second poll to fail")
		}

		last, _, _ := c.Last()
		if last.Err == nil {
			t.Error("Expected last error to be recorded")
		}
		if len(last.Near["KSAN"]) != 1 {
			t.Errorf("Expected previous proximity view to be kept, got %+v", last.Near)
		}
	})

	t.Run("Transceiver failure is not fatal", func(t *testing.T) {
		fs := newFeedServer(t)
		fs.transceiversFails.Store(true)
		store := &fakeStore{}
		c, m := newTestCollector(t, fs.URL+"/status.json", store)

		if err := c.Poll(context.Background()); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if len(store.stored()) != 2 {
			t.Errorf("Expected 2 observations, got %d", len(store.stored()))
		}
		if got := testutil.ToFloat64(m.FetchTotal.WithLabelValues(metrics.FeedTransceivers, "fetch_failed")); got != 1 {
			t.Errorf("Expected 1 failed transceiver fetch, got %v", got)
		}
		if last, _, _ := c.Last(); last.NearTransceivers != nil {
			t.Errorf("Expected no transceiver counts, got %v", last.NearTransceivers)
		}
	})

	t.Run("Store failure", func(t *testing.T) {
		fs := newFeedServer(t)
		insertErr := errors.New("disk full")
		c, _ := newTestCollector(t, fs.URL+"/status.json", &fakeStore{insertErr: insertErr})

		if err := c.Poll(context.Background()); !errors.Is(err, insertErr) {
			t.Errorf("Expected insert error, got: %v", err)
		}
	})

	t.Run("Cancelled context", func(t *testing.T) {
		fs := newFeedServer(t)
		c, _ := newTestCollector(t, fs.URL+"/status.json", nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := c.Poll(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got: %v", err)
		}
	})
}

func TestCollectorCleanup(t *testing.T) {
	t.Run("No database configured", func(t *testing.T) {
		c, _ := newTestCollector(t, "http://unused/status.json", nil)
		c.cleanup(context.Background())
	})

	t.Run("Reconnects, cleans up and reports stats", func(t *testing.T) {
		var buf bytes.Buffer
		c, _ := newTestCollector(t, "http://unused/status.json", nil)
		c.logger = slog.New(slog.NewTextHandler(&buf, nil))
		f := &fakeMaintainer{}
		c.maintainer = f

		c.cleanup(context.Background())

		if got := strings.Join(f.calls, ","); got != "ensure,cleanup,stats" {
			t.Errorf("Expected ensure,cleanup,stats, got %s", got)
		}
		if f.maxAge != 24*time.Hour {
			t.Errorf("Expected 24h retention, got %v", f.maxAge)
		}
		out := buf.String()
		if !strings.Contains(out, "deleted=3") {
			t.Errorf("Expected deleted count in log, got %s", out)
		}
		if !strings.Contains(out, "database stats") || !strings.Contains(out, "observations=42") {
			t.Errorf("Expected stats in log, got %s", out)
		}
	})

	t.Run("No retention skips cleanup", func(t *testing.T) {
		c, _ := newTestCollector(t, "http://unused/status.json", nil)
		c.retention = 0
		f := &fakeMaintainer{}
		c.maintainer = f

		c.cleanup(context.Background())
		if got := strings.Join(f.calls, ","); got != "ensure,stats" {
			t.Errorf("Expected ensure,stats, got %s", got)
		}
	})

	t.Run("Unreachable database stops maintenance", func(t *testing.T) {
		c, _ := newTestCollector(t, "http://unused/status.json", nil)
		f := &fakeMaintainer{ensureErr: errors.New("database unavailable after 3 attempts")}
		c.maintainer = f

		c.cleanup(context.Background())
		if got := strings.Join(f.calls, ","); got != "ensure" {
			t.Errorf("Expected only ensure, got %s", got)
		}
	})
}

func TestCollectorRunStopsOnCancel(t *testing.T) {
	fs := newFeedServer(t)
	store := &fakeStore{}
	c, _ := newTestCollector(t, fs.URL+"/status.json", store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	deadline := time.After(5 * time.Second)
	for {
		if _, polls, _ := c.Last(); polls > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("Timed out waiting for initial poll")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
