package main

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/unklstewy/vatsim-scope/pkg/vatsim"
)

// memberAPI is the part of vatsim.RESTClient the member viewer reads.
type memberAPI interface {
	StatsURL(cid int) string
	UserRatings(ctx context.Context, cid int) (*vatsim.UserRatingsSimple, error)
	RatingsTimes(ctx context.Context, cid int) (*vatsim.RatingsTimeData, error)
	Connections(ctx context.Context, cid, page int) (*vatsim.PaginatedResponse[vatsim.ConnectionEntry], error)
	ATCSessions(ctx context.Context, cid int, q vatsim.SessionQuery) (*vatsim.PaginatedResponse[vatsim.ATCSessionEntry], error)
	FlightPlans(ctx context.Context, cid, page int) (*vatsim.PaginatedResponse[vatsim.RESTFlightPlan], error)
	OnlineFacilities(ctx context.Context) ([]vatsim.Facility, error)
}

// profile is everything shown for one member.
type profile struct {
	CID         int
	StatsURL    string
	Ratings     *vatsim.UserRatingsSimple
	Times       *vatsim.RatingsTimeData
	Connections *vatsim.PaginatedResponse[vatsim.ConnectionEntry]
	Sessions    *vatsim.PaginatedResponse[vatsim.ATCSessionEntry]
	FlightPlans *vatsim.PaginatedResponse[vatsim.RESTFlightPlan]
}

// loadProfile fetches a member's rating summary, hours and first page of
// history concurrently. Any failed request fails the whole load.
func loadProfile(ctx context.Context, api memberAPI, cid int) (*profile, error) {
	if cid <= 0 {
		return nil, fmt.Errorf("invalid CID %d", cid)
	}

	p := &profile{CID: cid, StatsURL: api.StatsURL(cid)}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r, err := api.UserRatings(ctx, cid)
		if err != nil {
			return fmt.Errorf("ratings: %w", err)
		}
		p.Ratings = r
		return nil
	})
	g.Go(func() error {
		t, err := api.RatingsTimes(ctx, cid)
		if err != nil {
			return fmt.Errorf("rating times: %w", err)
		}
		p.Times = t
		return nil
	})
	g.Go(func() error {
		c, err := api.Connections(ctx, cid, 1)
		if err != nil {
			return fmt.Errorf("connections: %w", err)
		}
		p.Connections = c
		return nil
	})
	g.Go(func() error {
		s, err := api.ATCSessions(ctx, cid, vatsim.SessionQuery{Page: 1})
		if err != nil {
			return fmt.Errorf("atc sessions: %w", err)
		}
		p.Sessions = s
		return nil
	})
	g.Go(func() error {
		f, err := api.FlightPlans(ctx, cid, 1)
		if err != nil {
			return fmt.Errorf("flight plans: %w", err)
		}
		p.FlightPlans = f
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return p, nil
}
