// Package vatsim is a client for the VATSIM network's public data services.
//
// Live data is served from a pool of mirrors listed by the status directory.
// A caller resolves once to pin one live-snapshot mirror and one transceiver
// mirror, then fetches both feeds against the same pair:
//
//	client, _ := vatsim.NewClient(vatsim.Config{})
//	ep, err := client.Resolve(ctx)
//	snap, err := client.FetchLiveSnapshot(ctx, ep)
//	xcvrs, err := client.FetchTransceivers(ctx, ep)
//
// The client keeps no state between calls: it does not cache, retry or
// rate limit. Callers that want resilience wrap calls with RetryWithBackoff.
package vatsim

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

// StatusURL is the well-known location of the status directory.
const StatusURL = "https://status.vatsim.net/status.json"

// Endpoints is one resolved pair of mirrors. It never changes after
// construction; re-resolving produces a new value.
type Endpoints struct {
	liveURL         string
	transceiversURL string
}

// NewEndpoints builds an Endpoints from known URLs, e.g. to replay a
// previously resolved pair.
func NewEndpoints(liveURL, transceiversURL string) Endpoints {
	return Endpoints{liveURL: liveURL, transceiversURL: transceiversURL}
}

// LiveURL returns the live snapshot mirror.
func (e Endpoints) LiveURL() string { return e.liveURL }

// TransceiversURL returns the transceiver data mirror.
func (e Endpoints) TransceiversURL() string { return e.transceiversURL }

func (e Endpoints) String() string {
	return fmt.Sprintf("live=%s transceivers=%s", e.liveURL, e.transceiversURL)
}

// Config contains configuration for the live data client.
type Config struct {
	// StatusURL overrides the status directory location (default: StatusURL)
	StatusURL string

	// HTTPClient is used for all requests (default: a client with no timeout)
	HTTPClient *http.Client

	// Selector chooses mirrors (default: uniform random)
	Selector Selector

	// Logger receives debug output about mirror selection (default: discard)
	Logger *slog.Logger

	// UserAgent is sent with every request (default: DefaultUserAgent)
	UserAgent string
}

// Client resolves mirrors and fetches live feeds. It is safe for
// concurrent use.
type Client struct {
	req       requester
	statusURL string
	selector  Selector
	logger    *slog.Logger
}

// NewClient creates a new live data client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.StatusURL == "" {
		cfg.StatusURL = StatusURL
	}
	if cfg.Selector == nil {
		sel, err := NewSelector(StrategyRandom)
		if err != nil {
			return nil, err
		}
		cfg.Selector = sel
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		req:       newRequester(cfg.HTTPClient, cfg.UserAgent),
		statusURL: cfg.StatusURL,
		selector:  cfg.Selector,
		logger:    cfg.Logger,
	}, nil
}

// FetchStatus retrieves the status directory. Any status other than 200
// fails with an UpstreamUnavailableError.
func (c *Client) FetchStatus(ctx context.Context) (*Status, error) {
	resp, err := c.req.get(ctx, c.statusURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamUnavailableError{StatusCode: resp.StatusCode}
	}

	var status Status
	if err := decodeBody(resp, c.statusURL, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Resolve reads the status directory and picks one live snapshot mirror and
// one transceiver mirror. An empty pool is an error.
func (c *Client) Resolve(ctx context.Context) (Endpoints, error) {
	status, err := c.FetchStatus(ctx)
	if err != nil {
		return Endpoints{}, err
	}

	live, err := c.selector.Pick(status.Data.V3)
	if err != nil {
		return Endpoints{}, fmt.Errorf("select v3 mirror: %w", err)
	}
	transceivers, err := c.selector.Pick(status.Data.Transceivers)
	if err != nil {
		return Endpoints{}, fmt.Errorf("select transceivers mirror: %w", err)
	}

	c.logger.DebugContext(ctx, "resolved mirrors",
		slog.String("live", live),
		slog.Int("live_pool", len(status.Data.V3)),
		slog.String("transceivers", transceivers),
		slog.Int("transceivers_pool", len(status.Data.Transceivers)))

	return NewEndpoints(live, transceivers), nil
}

// FetchLiveSnapshot retrieves the full network snapshot from the resolved
// live mirror.
func (c *Client) FetchLiveSnapshot(ctx context.Context, ep Endpoints) (*LiveSnapshot, error) {
	var snap LiveSnapshot
	if err := c.req.getJSON(ctx, ep.LiveURL(), &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// FetchTransceivers retrieves per-callsign transceiver positions from the
// resolved transceiver mirror.
func (c *Client) FetchTransceivers(ctx context.Context, ep Endpoints) ([]TransceiverEntry, error) {
	var entries []TransceiverEntry
	if err := c.req.getJSON(ctx, ep.TransceiversURL(), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
