package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/unklstewy/vatsim-scope/pkg/coordinates"
	"github.com/unklstewy/vatsim-scope/pkg/vatsim"
)

// Terminal characters are roughly twice as tall as they are wide.
const aspectRatio = 0.5

const (
	infoWidth = 44
	listRows  = 8
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")).Background(lipgloss.Color("235")).Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	selStyle    = lipgloss.NewStyle().Background(lipgloss.Color("237"))
)

func (m model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf("VATSIM BOARD  %s  %d NM", m.airport, m.radiusNM)))
	s.WriteString("\n\n")

	if m.inputMode {
		s.WriteString(headerStyle.Render("Enter airport ICAO code:"))
		s.WriteString("\n")
		s.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Render("> " + m.inputBuffer + "_"))
		s.WriteString("\n\n")
		s.WriteString(helpStyle.Render("ENTER: Submit  ESC: Cancel"))
		return s.String()
	}

	if m.err != nil {
		s.WriteString(errStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		s.WriteString("\n\n")
		s.WriteString(helpStyle.Render("Press any key to continue, Q to quit"))
		return s.String()
	}

	w, h := m.radarSize()
	radarLines := strings.Split(m.renderRadar(w, h), "\n")
	infoLines := strings.Split(m.renderInfo(), "\n")

	for i := 0; i < max(len(radarLines), len(infoLines)); i++ {
		if i < len(radarLines) {
			s.WriteString(radarLines[i])
		} else {
			s.WriteString(strings.Repeat(" ", w))
		}
		s.WriteString("  ")
		if i < len(infoLines) {
			s.WriteString(infoLines[i])
		}
		s.WriteString("\n")
	}

	s.WriteString(m.renderList())
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("↑/↓: Select  A: Airport  +/-: Radius  R: Refresh  Q: Quit"))
	s.WriteString("\n")

	return s.String()
}

// radarSize returns the radar grid dimensions for the current window.
func (m model) radarSize() (int, int) {
	w := max(m.width-infoWidth-4, 60)
	h := max(m.height-listRows-8, 20)
	return w, h
}

// radarScale returns the grid centre and the rows per nautical mile.
func radarScale(w, h, radiusNM int) (cx, cy int, scale float64) {
	cx = (w - 2) / 2
	cy = h / 2
	maxY := float64(h/2 - 1)
	maxX := float64(w/2-3) * aspectRatio
	return cx, cy, min(maxX, maxY) / float64(radiusNM)
}

// radarToScreen places a pilot on the grid. ok is false when the pilot falls
// outside the grid.
func radarToScreen(pd vatsim.PilotDistance, w, h, radiusNM int) (x, y int, ok bool) {
	cx, cy, scale := radarScale(w, h, radiusNM)
	rad := pd.BearingDeg * math.Pi / 180
	dist := float64(pd.DistanceNM) * scale

	x = cx + int(math.Round(dist*math.Sin(rad)/aspectRatio))
	y = cy - int(math.Round(dist*math.Cos(rad)))
	if x < 0 || x >= w-2 || y < 0 || y >= h {
		return 0, 0, false
	}
	return x, y, true
}

func newGrid(w, h int) [][]rune {
	grid := make([][]rune, h)
	for i := range grid {
		grid[i] = make([]rune, w-2)
		for j := range grid[i] {
			grid[i][j] = ' '
		}
	}
	return grid
}

// renderRadar draws the pilots around the centre airport with range rings.
func (m model) renderRadar(w, h int) string {
	grid := newGrid(w, h)
	cx, cy, scale := radarScale(w, h, m.radiusNM)

	for _, ring := range ringDistances(m.radiusNM) {
		r := int(float64(ring) * scale)
		drawCircle(grid, cx, cy, r, '─')
		label := fmt.Sprint(ring)
		putString(grid, cx-len(label)/2, cy-r, label)
	}

	edge := int(float64(m.radiusNM) * scale)
	setCell(grid, cx, cy-edge, 'N')
	setCell(grid, cx, cy+edge, 'S')
	setCell(grid, cx+int(float64(edge)/aspectRatio), cy, 'E')
	setCell(grid, cx-int(float64(edge)/aspectRatio), cy, 'W')
	grid[cy][cx] = '✈'

	for i, pd := range m.pilots {
		x, y, ok := radarToScreen(pd, w, h, m.radiusNM)
		if !ok {
			continue
		}
		if pd.Pilot.Groundspeed > 50 {
			drawVector(grid, x, y, float64(pd.Pilot.Heading), pd.Pilot.Groundspeed)
		}
		if i == m.selected {
			grid[y][x] = '●'
			putString(grid, x+2, y, pd.Pilot.Callsign)
		} else {
			grid[y][x] = '○'
		}
	}

	var b strings.Builder
	b.WriteString(borderStyle.Render("┌" + strings.Repeat("─", w-2) + "┐"))
	b.WriteString("\n")
	for _, row := range grid {
		b.WriteString(borderStyle.Render("│"))
		for _, ch := range row {
			b.WriteString(styleCell(ch))
		}
		b.WriteString(borderStyle.Render("│"))
		b.WriteString("\n")
	}
	b.WriteString(borderStyle.Render("└" + strings.Repeat("─", w-2) + "┘"))
	return b.String()
}

func styleCell(ch rune) string {
	switch ch {
	case '✈':
		return lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true).Render(string(ch))
	case '●':
		return lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Render(string(ch))
	case '○':
		return lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Render(string(ch))
	case 'N', 'E', 'S', 'W':
		return lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Bold(true).Render(string(ch))
	case '─':
		return lipgloss.NewStyle().Foreground(lipgloss.Color("238")).Render(string(ch))
	case '·':
		return lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Render(string(ch))
	}
	return string(ch)
}

// ringDistances picks at most four evenly spaced range rings inside radiusNM.
func ringDistances(radiusNM int) []int {
	for _, step := range []int{5, 10, 25, 50, 100, 250} {
		if radiusNM/step <= 4 {
			var rings []int
			for d := step; d < radiusNM; d += step {
				rings = append(rings, d)
			}
			return rings
		}
	}
	return nil
}

// drawCircle draws a ring with the midpoint circle algorithm, stretching X
// to compensate for the character aspect ratio.
func drawCircle(grid [][]rune, cx, cy, radius int, ch rune) {
	x, y, err := radius, 0, 0
	for x >= y {
		xs := int(float64(x) / aspectRatio)
		ys := int(float64(y) / aspectRatio)

		setCell(grid, cx+xs, cy+y, ch)
		setCell(grid, cx+ys, cy+x, ch)
		setCell(grid, cx-ys, cy+x, ch)
		setCell(grid, cx-xs, cy+y, ch)
		setCell(grid, cx-xs, cy-y, ch)
		setCell(grid, cx-ys, cy-x, ch)
		setCell(grid, cx+ys, cy-x, ch)
		setCell(grid, cx+xs, cy-y, ch)

		y++
		err += 1 + 2*y
		if 2*(err-x)+1 > 0 {
			x--
			err += 1 - 2*x
		}
	}
}

// drawVector draws a short heading trail ahead of a pilot.
func drawVector(grid [][]rune, x, y int, headingDeg float64, speedKts int) {
	length := min(speedKts/150+1, 4)
	rad := headingDeg * math.Pi / 180
	for i := 1; i <= length; i++ {
		nx := x + int(math.Round(float64(i)*math.Sin(rad)/aspectRatio))
		ny := y - int(math.Round(float64(i)*math.Cos(rad)))
		setCell(grid, nx, ny, '·')
	}
}

// setCell writes ch if the cell is in bounds and holds only background.
func setCell(grid [][]rune, x, y int, ch rune) {
	if y < 0 || y >= len(grid) || x < 0 || x >= len(grid[y]) {
		return
	}
	if grid[y][x] == ' ' || grid[y][x] == '─' {
		grid[y][x] = ch
	}
}

func putString(grid [][]rune, x, y int, s string) {
	for i, ch := range []rune(s) {
		setCell(grid, x+i, y, ch)
	}
}

func (m model) renderInfo() string {
	var info strings.Builder

	info.WriteString(headerStyle.Render("STATION"))
	info.WriteString("\n\n")
	info.WriteString(fmt.Sprintf("Centre:  %s\n", m.airport))
	info.WriteString(fmt.Sprintf("Pos:     %.4f°, %.4f°\n", m.center.Latitude, m.center.Longitude))
	info.WriteString(fmt.Sprintf("Radius:  %d NM\n", m.radiusNM))
	info.WriteString(fmt.Sprintf("Pilots:  %d in range\n", len(m.pilots)))
	if m.snap != nil {
		info.WriteString(fmt.Sprintf("Network: %d pilots, %d ATC\n", len(m.snap.Pilots), len(m.snap.Controllers)))
	}
	info.WriteString("\n")

	switch {
	case m.loading && m.updated.IsZero():
		info.WriteString(helpStyle.Render("Loading..."))
	case !m.updated.IsZero():
		info.WriteString(helpStyle.Render("Updated " + m.updated.Format("15:04:05")))
	}
	info.WriteString("\n")
	if host := m.endpoints.LiveURL(); host != "" {
		info.WriteString(helpStyle.Render(truncate(host, infoWidth)))
		info.WriteString("\n")
	}

	if m.selected < len(m.pilots) {
		pd := m.pilots[m.selected]
		p := pd.Pilot
		info.WriteString("\n")
		info.WriteString(headerStyle.Render(p.Callsign))
		info.WriteString("\n")
		info.WriteString(fmt.Sprintf("Range:   %d NM %s\n", pd.DistanceNM, coordinates.Cardinal(pd.BearingDeg)))
		info.WriteString(fmt.Sprintf("Alt:     %s\n", formatAltitude(p.Altitude)))
		info.WriteString(fmt.Sprintf("GS/HDG:  %d kt / %03d°\n", p.Groundspeed, p.Heading))
		info.WriteString(fmt.Sprintf("Squawk:  %s\n", p.Transponder))
		if fp := p.FlightPlan; fp != nil {
			info.WriteString(fmt.Sprintf("Route:   %s → %s\n", fp.Departure, fp.Arrival))
			info.WriteString(fmt.Sprintf("Type:    %s (%s)\n", fp.AircraftShort, fp.FlightRules))
		}
		if ap, d := vatsim.NearestAirport(p); ap.ICAO != "" {
			info.WriteString(fmt.Sprintf("Nearest: %s %d NM\n", ap.ICAO, d))
		}
	}

	return info.String()
}

func (m model) renderList() string {
	var list strings.Builder

	list.WriteString(headerStyle.Render("Pilots in range:"))
	list.WriteString(fmt.Sprintf(" (%d)", len(m.pilots)))
	list.WriteString("\n")

	if len(m.pilots) == 0 {
		list.WriteString(helpStyle.Render("  No pilots in range"))
		return list.String()
	}

	start := 0
	if m.selected > listRows/2 && len(m.pilots) > listRows {
		start = min(m.selected-listRows/2, len(m.pilots)-listRows)
	}
	end := min(start+listRows, len(m.pilots))

	for i := start; i < end; i++ {
		list.WriteString(pilotLine(m.pilots[i], i == m.selected))
		list.WriteString("\n")
	}
	return list.String()
}

// pilotLine formats one row of the pilot list.
func pilotLine(pd vatsim.PilotDistance, selected bool) string {
	p := pd.Pilot
	prefix := "  "
	if selected {
		prefix = "→ "
	}
	route := "----/----"
	acType := "----"
	if fp := p.FlightPlan; fp != nil {
		route = fmt.Sprintf("%-4s/%-4s", fp.Departure, fp.Arrival)
		if fp.AircraftShort != "" {
			acType = fp.AircraftShort
		}
	}

	line := fmt.Sprintf("%s%-9s %4d NM %-3s %7s %4d kt  %s  %s",
		prefix, p.Callsign, pd.DistanceNM, coordinates.Cardinal(pd.BearingDeg),
		formatAltitude(p.Altitude), p.Groundspeed, route, acType)
	if selected {
		return selStyle.Render(line)
	}
	return line
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
