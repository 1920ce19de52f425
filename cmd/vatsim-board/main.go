// Command vatsim-board is a terminal radar of the VATSIM pilots around an
// airport, refreshed from the live feed.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/unklstewy/vatsim-scope/internal/logging"
	"github.com/unklstewy/vatsim-scope/pkg/airports"
	"github.com/unklstewy/vatsim-scope/pkg/config"
	"github.com/unklstewy/vatsim-scope/pkg/coordinates"
	"github.com/unklstewy/vatsim-scope/pkg/vatsim"
)

const (
	minRadiusNM = 5
	maxRadiusNM = 500
)

// fetcher is the part of vatsim.Client the board needs.
type fetcher interface {
	Resolve(ctx context.Context) (vatsim.Endpoints, error)
	FetchLiveSnapshot(ctx context.Context, ep vatsim.Endpoints) (*vatsim.LiveSnapshot, error)
}

type model struct {
	client  fetcher
	refresh time.Duration

	airport  string
	center   coordinates.Geographic
	radiusNM int

	snap      *vatsim.LiveSnapshot
	endpoints vatsim.Endpoints
	pilots    []vatsim.PilotDistance
	selected  int
	updated   time.Time
	loading   bool
	err       error

	inputMode   bool
	inputBuffer string

	width  int
	height int
}

type tickMsg time.Time

// snapshotMsg carries the result of one resolve-then-fetch cycle.
type snapshotMsg struct {
	endpoints vatsim.Endpoints
	snap      *vatsim.LiveSnapshot
	err       error
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetchSnapshot resolves fresh mirrors and downloads the live snapshot.
func fetchSnapshot(client fetcher, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		ep, err := client.Resolve(ctx)
		if err != nil {
			return snapshotMsg{err: err}
		}
		snap, err := client.FetchLiveSnapshot(ctx, ep)
		return snapshotMsg{endpoints: ep, snap: snap, err: err}
	}
}

func (m model) fetch() tea.Cmd {
	return fetchSnapshot(m.client, max(m.refresh, 10*time.Second))
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), tick(m.refresh))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case tea.KeyMsg:
		if m.inputMode {
			return m.updateInput(msg)
		}

		// Clear error on any keypress (but don't quit)
		if m.err != nil && msg.String() != "q" && msg.String() != "ctrl+c" {
			m.err = nil
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "a":
			m.inputMode = true
			m.inputBuffer = ""
		case "r":
			if !m.loading {
				m.loading = true
				return m, m.fetch()
			}
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
		case "down", "j":
			if m.selected < len(m.pilots)-1 {
				m.selected++
			}
		case "+", "=":
			m.setRadius(m.radiusNM * 3 / 2)
		case "-", "_":
			m.setRadius(m.radiusNM * 2 / 3)
		}

	case tickMsg:
		if m.loading {
			return m, tick(m.refresh)
		}
		m.loading = true
		return m, tea.Batch(m.fetch(), tick(m.refresh))

	case snapshotMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.endpoints = msg.endpoints
		m.snap = msg.snap
		m.updated = time.Now()
		m.recompute()
	}

	return m, nil
}

// updateInput handles airport code entry.
func (m model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		code := strings.ToUpper(strings.TrimSpace(m.inputBuffer))
		m.inputMode = false
		m.inputBuffer = ""
		loc, ok := airports.Lookup(code)
		if !ok {
			m.err = fmt.Errorf("airport %s not found", code)
			return m, nil
		}
		m.airport = code
		m.center = loc
		m.recompute()
	case "esc":
		m.inputMode = false
		m.inputBuffer = ""
	case "backspace":
		if len(m.inputBuffer) > 0 {
			m.inputBuffer = m.inputBuffer[:len(m.inputBuffer)-1]
		}
	default:
		if len(msg.String()) == 1 && len(m.inputBuffer) < 4 {
			m.inputBuffer += msg.String()
		}
	}
	return m, nil
}

func (m *model) setRadius(nm int) {
	m.radiusNM = min(max(nm, minRadiusNM), maxRadiusNM)
	m.recompute()
}

// recompute reruns the proximity query against the last snapshot, keeping the
// selection on the same callsign where possible.
func (m *model) recompute() {
	var selectedCallsign string
	if m.selected < len(m.pilots) {
		selectedCallsign = m.pilots[m.selected].Pilot.Callsign
	}

	m.pilots = vatsim.PilotsNear(m.snap, m.center, m.radiusNM)
	m.selected = 0
	for i, pd := range m.pilots {
		if pd.Pilot.Callsign == selectedCallsign {
			m.selected = i
			break
		}
	}
}

func newModel(client fetcher, airport string, radiusNM int, refresh time.Duration) (model, error) {
	airport = strings.ToUpper(airport)
	center, ok := airports.Lookup(airport)
	if !ok {
		return model{}, fmt.Errorf("unknown airport %q", airport)
	}
	if refresh <= 0 {
		refresh = 15 * time.Second
	}
	return model{
		client:   client,
		refresh:  refresh,
		airport:  airport,
		center:   center,
		radiusNM: min(max(radiusNM, minRadiusNM), maxRadiusNM),
		loading:  true,
		width:    140,
		height:   40,
	}, nil
}

func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	airport := flag.String("airport", "", "ICAO code at the centre of the board (default from config)")
	radius := flag.Int("radius", 0, "Board radius in nautical miles (default from config)")
	flag.Parse()

	if err := run(*configPath, *airport, *radius); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, airport string, radius int) error {
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if airport == "" {
		airport = cfg.Board.Airport
	}
	if radius <= 0 {
		radius = cfg.Board.RadiusNM
	}

	// The terminal belongs to the board; logs only go to a file if configured.
	logCfg := cfg.Logging
	if logCfg.File == "" {
		logCfg.Level = "error"
	}
	logger, closer := logging.New(logCfg)
	defer closer.Close()

	selector, err := vatsim.NewSelector(cfg.VATSIM.MirrorStrategy)
	if err != nil {
		return err
	}
	client, err := vatsim.NewClient(vatsim.Config{
		StatusURL:  cfg.VATSIM.StatusURL,
		HTTPClient: &http.Client{Timeout: cfg.VATSIM.Timeout()},
		Selector:   selector,
		Logger:     logger,
		UserAgent:  cfg.VATSIM.UserAgent,
	})
	if err != nil {
		return err
	}

	m, err := newModel(client, airport, radius, time.Duration(cfg.Board.RefreshSeconds)*time.Second)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

// formatAltitude renders an altitude as feet, or as a flight level above
// the transition altitude.
func formatAltitude(ft int) string {
	if ft >= 18000 {
		return "FL" + strconv.Itoa((ft+50)/100)
	}
	return strconv.Itoa(ft)
}
