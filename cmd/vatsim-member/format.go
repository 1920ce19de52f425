package main

import (
	"fmt"
	"strings"

	"github.com/unklstewy/vatsim-scope/pkg/vatsim"
)

var controllerRatings = map[int]string{
	-1: "INA", 0: "SUS", 1: "OBS", 2: "S1", 3: "S2", 4: "S3",
	5: "C1", 6: "C2", 7: "C3", 8: "I1", 9: "I2", 10: "I3",
	11: "SUP", 12: "ADM",
}

// controllerRating names a controller rating id.
func controllerRating(id int) string {
	if name, ok := controllerRatings[id]; ok {
		return name
	}
	return fmt.Sprintf("#%d", id)
}

// pilotRatings decodes the pilot rating bit field.
func pilotRatings(bits int) string {
	if bits == 0 {
		return "P0"
	}
	var names []string
	for i, name := range []string{"PPL", "IR", "CMEL", "ATPL", "FI", "FE"} {
		if bits&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return fmt.Sprintf("#%d", bits)
	}
	return strings.Join(names, ", ")
}

// formatSummary renders the member overview with tview color tags.
func formatSummary(p *profile) string {
	var b strings.Builder
	r := p.Ratings

	fmt.Fprintf(&b, "[yellow]MEMBER:[-] [white]%d[-]\n\n", p.CID)
	if r != nil {
		fmt.Fprintf(&b, "[gray]ATC rating:[-]    [white]%s[-]\n", controllerRating(r.Rating))
		fmt.Fprintf(&b, "[gray]Pilot ratings:[-] [white]%s[-]\n", pilotRatings(r.PilotRating))
		fmt.Fprintf(&b, "[gray]Region:[-]        [white]%s[-]\n", r.Region)
		fmt.Fprintf(&b, "[gray]Division:[-]      [white]%s[-]\n", r.Division)
		if r.Subdivision != "" {
			fmt.Fprintf(&b, "[gray]Subdivision:[-]   [white]%s[-]\n", r.Subdivision)
		}
		fmt.Fprintf(&b, "[gray]Registered:[-]    [white]%s[-]\n", r.RegDate)
		if r.SuspDate != nil {
			fmt.Fprintf(&b, "[red]Suspended until %s[-]\n", *r.SuspDate)
		}
	}

	if t := p.Times; t != nil {
		b.WriteString("\n[yellow]HOURS[-]\n")
		fmt.Fprintf(&b, "[gray]Pilot:[-] [white]%.1f[-]  [gray]ATC:[-] [white]%.1f[-]\n", t.Pilot, t.ATC)
		for _, row := range []struct {
			name  string
			hours float64
		}{
			{"S1", t.S1}, {"S2", t.S2}, {"S3", t.S3},
			{"C1", t.C1}, {"C2", t.C2}, {"C3", t.C3},
			{"I1", t.I1}, {"I2", t.I2}, {"I3", t.I3},
			{"SUP", t.SUP}, {"ADM", t.ADM},
		} {
			if row.hours > 0 {
				fmt.Fprintf(&b, "  [gray]%-4s[-] [white]%7.1f[-]\n", row.name, row.hours)
			}
		}
	}

	if p.StatsURL != "" {
		fmt.Fprintf(&b, "\n[gray]Stats:[-] [blue]%s[-]\n", p.StatsURL)
	}
	return b.String()
}

// pageFooter describes the position within a paginated result.
func pageFooter[T any](page *vatsim.PaginatedResponse[T]) string {
	more := ""
	if page.Next != nil {
		more = ", more available"
	}
	return fmt.Sprintf("[gray]%d of %d shown%s[-]\n", len(page.Results), page.Count, more)
}

func formatConnections(page *vatsim.PaginatedResponse[vatsim.ConnectionEntry]) string {
	if page == nil || len(page.Results) == 0 {
		return "[gray]No connections[-]\n"
	}
	var b strings.Builder
	b.WriteString(pageFooter(page))
	b.WriteString("\n")
	for _, c := range page.Results {
		end := "online"
		if c.End != nil {
			end = *c.End
		}
		fmt.Fprintf(&b, "[white]%-12s[-] [gray]%s → %s[-] [gray](%s)[-]\n", c.Callsign, c.Start, end, c.Server)
	}
	return b.String()
}

func formatSessions(page *vatsim.PaginatedResponse[vatsim.ATCSessionEntry]) string {
	if page == nil || len(page.Results) == 0 {
		return "[gray]No ATC sessions[-]\n"
	}
	var b strings.Builder
	b.WriteString(pageFooter(page))
	b.WriteString("\n")
	for _, s := range page.Results {
		fmt.Fprintf(&b, "[white]%-12s[-] [yellow]%-3s[-] [gray]%s[-] [white]%s min[-]\n",
			s.Callsign, controllerRating(s.Rating), s.Start, s.MinutesOnCallsign)
		fmt.Fprintf(&b, "  [gray]tracked %d, handoffs %d/%d, squawks %d[-]\n",
			s.AircraftTracked, s.HandoffsInitiated, s.HandoffsReceived, s.SquawksAssigned)
	}
	return b.String()
}

func formatFlightPlans(page *vatsim.PaginatedResponse[vatsim.RESTFlightPlan]) string {
	if page == nil || len(page.Results) == 0 {
		return "[gray]No flight plans[-]\n"
	}
	var b strings.Builder
	b.WriteString(pageFooter(page))
	b.WriteString("\n")
	for _, fp := range page.Results {
		fmt.Fprintf(&b, "[white]%-10s[-] [yellow]%s → %s[-] [gray]%s %s FL/ALT %s[-]\n",
			fp.Callsign, fp.Dep, fp.Arr, fp.Aircraft, fp.FlightType, fp.Altitude)
		if fp.Route != "" {
			fmt.Fprintf(&b, "  [gray]%s[-]\n", fp.Route)
		}
	}
	return b.String()
}

func formatFacilities(facilities []vatsim.Facility) string {
	if len(facilities) == 0 {
		return "[gray]No facilities online[-]\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[yellow]%d facilities online[-]\n\n", len(facilities))
	for _, f := range facilities {
		fmt.Fprintf(&b, "[white]%-14s[-] [yellow]%-3s[-] [gray]since %s[-]\n", f.Callsign, controllerRating(f.Rating), f.Start)
	}
	return b.String()
}
