package vatsim

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// APIBaseURL is the historical REST API base URL
	APIBaseURL = "https://api.vatsim.net/api"

	// StatsBaseURL is the base of the public member statistics pages
	StatsBaseURL = "https://stats.vatsim.net/stats"
)

// RESTConfig contains configuration for the historical API client.
type RESTConfig struct {
	BaseURL      string
	StatsBaseURL string
	HTTPClient   *http.Client
	UserAgent    string

	// RequestsPerMinute paces outgoing requests. Zero disables pacing.
	RequestsPerMinute int
}

// RESTClient reads member and facility history from the VATSIM API.
type RESTClient struct {
	req          requester
	baseURL      string
	statsBaseURL string
	rateLimiter  *rate.Limiter
}

// SessionQuery filters ATC session listings. Zero fields are omitted.
type SessionQuery struct {
	Page      int
	Specifier string
	Start     string
	Date      string
}

func (q SessionQuery) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Specifier != "" {
		v.Set("specifier", q.Specifier)
	}
	if q.Start != "" {
		v.Set("start", q.Start)
	}
	if q.Date != "" {
		v.Set("date", q.Date)
	}
	return v
}

// NewRESTClient creates a new historical API client.
func NewRESTClient(cfg RESTConfig) *RESTClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = APIBaseURL
	}
	if cfg.StatsBaseURL == "" {
		cfg.StatsBaseURL = StatsBaseURL
	}

	c := &RESTClient{
		req:          newRequester(cfg.HTTPClient, cfg.UserAgent),
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		statsBaseURL: strings.TrimRight(cfg.StatsBaseURL, "/"),
	}
	if cfg.RequestsPerMinute > 0 {
		c.rateLimiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return c
}

// StatsURL returns the public statistics page for a member. No request is made.
func (c *RESTClient) StatsURL(cid int) string {
	return fmt.Sprintf("%s/%d", c.statsBaseURL, cid)
}

// UserRatings retrieves a member's rating summary.
func (c *RESTClient) UserRatings(ctx context.Context, cid int) (*UserRatingsSimple, error) {
	var out UserRatingsSimple
	if err := c.get(ctx, fmt.Sprintf("/ratings/%d/", cid), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RatingsTimes retrieves the hours a member has logged per position type.
func (c *RESTClient) RatingsTimes(ctx context.Context, cid int) (*RatingsTimeData, error) {
	var out RatingsTimeData
	if err := c.get(ctx, fmt.Sprintf("/ratings/%d/rating_times", cid), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Connections retrieves one page of a member's connection history.
// A page of zero or less requests the first page.
func (c *RESTClient) Connections(ctx context.Context, cid, page int) (*PaginatedResponse[ConnectionEntry], error) {
	var out PaginatedResponse[ConnectionEntry]
	if err := c.get(ctx, fmt.Sprintf("/ratings/%d/connections", cid), pageValues(page), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ATCSessions retrieves a member's controlling sessions.
func (c *RESTClient) ATCSessions(ctx context.Context, cid int, q SessionQuery) (*PaginatedResponse[ATCSessionEntry], error) {
	var out PaginatedResponse[ATCSessionEntry]
	if err := c.get(ctx, fmt.Sprintf("/ratings/%d/atcsessions/", cid), q.values(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FlightPlans retrieves one page of a member's filed flight plans.
func (c *RESTClient) FlightPlans(ctx context.Context, cid, page int) (*PaginatedResponse[RESTFlightPlan], error) {
	var out PaginatedResponse[RESTFlightPlan]
	if err := c.get(ctx, fmt.Sprintf("/ratings/%d/flight_plans", cid), pageValues(page), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Regions lists the network's regions.
func (c *RESTClient) Regions(ctx context.Context) ([]Region, error) {
	var out []Region
	if err := c.get(ctx, "/regions/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// OnlineFacilities lists the ATC facilities currently staffed.
func (c *RESTClient) OnlineFacilities(ctx context.Context) ([]Facility, error) {
	var out []Facility
	if err := c.get(ctx, "/facilities/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FacilityHistory retrieves controlling sessions on a facility callsign
// such as "KSAN_TWR". The Specifier field of q is ignored.
func (c *RESTClient) FacilityHistory(ctx context.Context, specifier string, q SessionQuery) (*PaginatedResponse[ATCSessionEntry], error) {
	q.Specifier = ""
	var out PaginatedResponse[ATCSessionEntry]
	if err := c.get(ctx, "/facilities/"+url.PathEscape(specifier), q.values(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *RESTClient) get(ctx context.Context, path string, query url.Values, dest any) error {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return c.req.getJSON(ctx, u, dest)
}

func pageValues(page int) url.Values {
	if page <= 0 {
		return nil
	}
	return url.Values{"page": {strconv.Itoa(page)}}
}
