// Command vatsim-fetch resolves the VATSIM data mirrors once, downloads the
// live snapshot and prints the pilots near an airport.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"github.com/unklstewy/vatsim-scope/internal/logging"
	"github.com/unklstewy/vatsim-scope/pkg/airports"
	"github.com/unklstewy/vatsim-scope/pkg/config"
	"github.com/unklstewy/vatsim-scope/pkg/coordinates"
	"github.com/unklstewy/vatsim-scope/pkg/vatsim"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	airport := flag.String("airport", "", "ICAO code to search around (default from config)")
	radius := flag.Int("radius", 0, "Search radius in nautical miles (default from config)")
	withTransceivers := flag.Bool("transceivers", false, "Also list transceivers in range")
	asJSON := flag.Bool("json", false, "Print JSON instead of a table")
	flag.Parse()

	if err := run(*configPath, *airport, *radius, *withTransceivers, *asJSON); err != nil {
		fmt.Fprintf(os.Stderr, "vatsim-fetch: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, airport string, radius int, withTransceivers, asJSON bool) error {
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
	airport = strings.ToUpper(airport)
	center, ok := airports.Lookup(airport)
	if !ok {
		return fmt.Errorf("unknown airport %q", airport)
	}

	logger, closer := logging.New(cfg.Logging)
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	retry := vatsim.DefaultRetryConfig()
	retry.Logger = logger

	ep, err := vatsim.RetryWithBackoffResult(ctx, retry, func() (vatsim.Endpoints, error) {
		return client.Resolve(ctx)
	})
	if err != nil {
		return err
	}
	snap, err := vatsim.RetryWithBackoffResult(ctx, retry, func() (*vatsim.LiveSnapshot, error) {
		return client.FetchLiveSnapshot(ctx, ep)
	})
	if err != nil {
		return err
	}

	rep := report{
		Endpoints: endpointsJSON{Live: ep.LiveURL(), Transceivers: ep.TransceiversURL()},
		Summary:   summarize(snap),
		Airport:   airport,
		RadiusNM:  radius,
		Pilots:    vatsim.PilotsNear(snap, center, radius),
	}

	if withTransceivers {
		xcvrs, err := client.FetchTransceivers(ctx, ep)
		if err != nil {
			return err
		}
		rep.Transceivers = vatsim.TransceiversNear(xcvrs, center, radius)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	return writeReport(os.Stdout, rep)
}

type endpointsJSON struct {
	Live         string `json:"live"`
	Transceivers string `json:"transceivers"`
}

// snapshotSummary counts the connected clients of a snapshot.
type snapshotSummary struct {
	Updated     string `json:"updated"`
	Clients     int    `json:"connected_clients"`
	Pilots      int    `json:"pilots"`
	Controllers int    `json:"controllers"`
	ATIS        int    `json:"atis"`
	Prefiles    int    `json:"prefiles"`
	Servers     int    `json:"servers"`
}

type report struct {
	Endpoints    endpointsJSON                `json:"endpoints"`
	Summary      snapshotSummary              `json:"summary"`
	Airport      string                       `json:"airport"`
	RadiusNM     int                          `json:"radius_nm"`
	Pilots       []vatsim.PilotDistance       `json:"pilots"`
	Transceivers []vatsim.TransceiverDistance `json:"transceivers,omitempty"`
}

func summarize(snap *vatsim.LiveSnapshot) snapshotSummary {
	s := snapshotSummary{
		Clients:     snap.General.ConnectedClients,
		Pilots:      len(snap.Pilots),
		Controllers: len(snap.Controllers),
		ATIS:        len(snap.ATIS),
		Prefiles:    len(snap.Prefiles),
		Servers:     len(snap.Servers),
	}
	if !snap.General.UpdateTimestamp.IsZero() {
		s.Updated = snap.General.UpdateTimestamp.UTC().Format("2006-01-02 15:04:05Z")
	}
	return s
}

func writeReport(w io.Writer, rep report) error {
	fmt.Fprintf(w, "Live feed:     %s\n", rep.Endpoints.Live)
	fmt.Fprintf(w, "Transceivers:  %s\n", rep.Endpoints.Transceivers)
	fmt.Fprintf(w, "Updated:       %s\n", rep.Summary.Updated)
	fmt.Fprintf(w, "Clients:       %d (%d pilots, %d controllers, %d ATIS, %d prefiles)\n",
		rep.Summary.Clients, rep.Summary.Pilots, rep.Summary.Controllers, rep.Summary.ATIS, rep.Summary.Prefiles)
	fmt.Fprintln(w, "=====================================")
	fmt.Fprintf(w, "%d pilots within %d NM of %s\n\n", len(rep.Pilots), rep.RadiusNM, rep.Airport)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CALLSIGN\tDIST\tBRG\tALT\tGS\tROUTE\tTYPE")
	for _, pd := range rep.Pilots {
		p := pd.Pilot
		route, acType := "-", "-"
		if fp := p.FlightPlan; fp != nil {
			route = fp.Departure + "-" + fp.Arrival
			if fp.AircraftShort != "" {
				acType = fp.AircraftShort
			}
		}
		fmt.Fprintf(tw, "%s\t%d\t%s %s\t%d\t%d\t%s\t%s\n",
			p.Callsign, pd.DistanceNM, formatBearing(pd.BearingDeg), coordinates.Cardinal(pd.BearingDeg),
			p.Altitude, p.Groundspeed, route, acType)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(rep.Transceivers) == 0 {
		return nil
	}

	fmt.Fprintf(w, "\n%d transceivers in range\n\n", len(rep.Transceivers))
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CALLSIGN\tID\tFREQ\tDIST")
	for _, td := range rep.Transceivers {
		fmt.Fprintf(tw, "%s\t%d\t%.3f\t%d\n",
			td.Callsign, td.Transceiver.ID, float64(td.Transceiver.Frequency)/1e6, td.DistanceNM)
	}
	return tw.Flush()
}

// formatBearing renders a bearing as three whole degrees, 000 to 359.
func formatBearing(b float64) string {
	return fmt.Sprintf("%03.0f", math.Mod(math.Round(coordinates.NormalizeBearing(b)), 360))
}
