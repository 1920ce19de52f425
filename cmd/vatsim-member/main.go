// Command vatsim-member is a terminal viewer for a member's ratings and
// history from the VATSIM REST API.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/unklstewy/vatsim-scope/pkg/config"
	"github.com/unklstewy/vatsim-scope/pkg/vatsim"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	cid := flag.Int("cid", 0, "Member to load on start")
	flag.Parse()

	if err := run(*configPath, *cid); err != nil {
		fmt.Fprintf(os.Stderr, "vatsim-member: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, cid int) error {
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	api := vatsim.NewRESTClient(vatsim.RESTConfig{
		BaseURL:           cfg.VATSIM.APIBaseURL,
		StatsBaseURL:      cfg.VATSIM.StatsBaseURL,
		HTTPClient:        &http.Client{Timeout: cfg.VATSIM.Timeout()},
		UserAgent:         cfg.VATSIM.UserAgent,
		RequestsPerMinute: cfg.VATSIM.RESTRequestsPerMinute,
	})

	app := NewApp(api, 30*time.Second)
	if cid > 0 {
		app.input.SetText(strconv.Itoa(cid))
		app.lookup(strconv.Itoa(cid))
	}
	return app.Run()
}
