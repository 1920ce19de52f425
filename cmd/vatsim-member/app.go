package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/unklstewy/vatsim-scope/pkg/vatsim"
)

// section is the detail pane currently shown.
type section int

const (
	sectionSummary section = iota
	sectionConnections
	sectionSessions
	sectionFlightPlans
	sectionFacilities
)

var sectionNames = []string{"Summary", "Connections", "ATC sessions", "Flight plans", "Online facilities"}

func (s section) String() string {
	if int(s) < len(sectionNames) {
		return sectionNames[s]
	}
	return "Unknown"
}

// App is the member lookup application.
type App struct {
	api     memberAPI
	timeout time.Duration

	// UI components
	tviewApp *tview.Application
	input    *tview.InputField
	sections *tview.List
	detail   *tview.TextView
	logs     *tview.TextView

	// State
	mu         sync.RWMutex
	profile    *profile
	facilities []vatsim.Facility
	current    section
	loading    bool
}

// NewApp creates the application and its widgets.
func NewApp(api memberAPI, timeout time.Duration) *App {
	a := &App{api: api, timeout: timeout}
	a.setupUI()
	return a
}

func (a *App) setupUI() {
	a.tviewApp = tview.NewApplication()

	a.input = tview.NewInputField().
		SetLabel("CID: ").
		SetFieldWidth(12).
		SetAcceptanceFunc(tview.InputFieldInteger)
	a.input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			a.lookup(a.input.GetText())
		}
	})

	a.sections = tview.NewList().ShowSecondaryText(false)
	for i, name := range sectionNames {
		s := section(i)
		a.sections.AddItem(name, "", rune('1'+i), func() { a.show(s) })
	}
	a.sections.SetChangedFunc(func(i int, _, _ string, _ rune) { a.show(section(i)) })
	a.sections.SetBorder(true).SetTitle(" Sections ")

	a.detail = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	a.detail.SetBorder(true).SetTitle(" Member ")
	a.detail.SetText("[gray]Enter a CID and press ENTER[-]")

	a.logs = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetMaxLines(100)
	a.logs.SetBorder(true).SetTitle(" Logs ")

	body := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(a.sections, 24, 0, false).
		AddItem(a.detail, 0, 1, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.input, 1, 0, true).
		AddItem(body, 0, 1, false).
		AddItem(a.logs, 6, 0, false)

	a.tviewApp.SetRoot(root, true)
	a.tviewApp.SetInputCapture(a.handleKeyboard)

	a.addLog("INFO", "Ready")
}

// handleKeyboard switches focus between the CID field and the sections.
func (a *App) handleKeyboard(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyTab:
		if a.input.HasFocus() {
			a.tviewApp.SetFocus(a.sections)
		} else {
			a.tviewApp.SetFocus(a.input)
		}
		return nil
	case tcell.KeyEscape:
		a.tviewApp.Stop()
		return nil
	}
	if !a.input.HasFocus() {
		switch event.Rune() {
		case 'q':
			a.tviewApp.Stop()
			return nil
		case 'r':
			a.lookup(a.input.GetText())
			return nil
		}
	}
	return event
}

// lookup loads a member in the background and redraws when done.
func (a *App) lookup(text string) {
	cid, err := parseCID(text)
	if err != nil {
		a.addLog("WARN", err.Error())
		return
	}

	a.mu.Lock()
	if a.loading {
		a.mu.Unlock()
		return
	}
	a.loading = true
	a.mu.Unlock()

	a.addLog("INFO", fmt.Sprintf("Loading %d", cid))

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()

		p, err := loadProfile(ctx, a.api, cid)
		var facilities []vatsim.Facility
		var facErr error
		if err == nil {
			facilities, facErr = a.api.OnlineFacilities(ctx)
		}

		a.tviewApp.QueueUpdateDraw(func() {
			a.mu.Lock()
			a.loading = false
			if err == nil {
				a.profile = p
			}
			if facErr == nil && facilities != nil {
				a.facilities = facilities
			}
			a.mu.Unlock()

			switch {
			case err != nil:
				a.addLog("ERROR", err.Error())
			case facErr != nil:
				a.addLog("WARN", "facilities: "+facErr.Error())
				a.addLog("INFO", fmt.Sprintf("Loaded %d", cid))
			default:
				a.addLog("INFO", fmt.Sprintf("Loaded %d", cid))
			}
			a.show(a.current)
		})
	}()
}

// show renders a section into the detail pane.
func (a *App) show(s section) {
	a.mu.Lock()
	a.current = s
	text := renderSection(a.profile, a.facilities, s)
	a.mu.Unlock()

	a.detail.SetTitle(" " + s.String() + " ")
	a.detail.SetText(text)
	a.detail.ScrollToBeginning()
}

// renderSection produces the detail text for a section.
func renderSection(p *profile, facilities []vatsim.Facility, s section) string {
	if s == sectionFacilities {
		return formatFacilities(facilities)
	}
	if p == nil {
		return "[gray]Enter a CID and press ENTER[-]"
	}
	switch s {
	case sectionConnections:
		return formatConnections(p.Connections)
	case sectionSessions:
		return formatSessions(p.Sessions)
	case sectionFlightPlans:
		return formatFlightPlans(p.FlightPlans)
	default:
		return formatSummary(p)
	}
}

// parseCID validates a member id typed by the user.
func parseCID(text string) (int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, fmt.Errorf("enter a CID")
	}
	cid, err := strconv.Atoi(text)
	if err != nil || cid <= 0 {
		return 0, fmt.Errorf("invalid CID %q", text)
	}
	return cid, nil
}

// addLog appends a line to the log panel.
func (a *App) addLog(level, message string) {
	color := "white"
	switch level {
	case "ERROR":
		color = "red"
	case "WARN":
		color = "yellow"
	}
	fmt.Fprintf(a.logs, "[gray]%s[-] [%s]%-5s[-] %s\n", time.Now().Format("15:04:05"), color, level, tview.Escape(message))
	a.logs.ScrollToEnd()
}

// Run starts the event loop.
func (a *App) Run() error {
	return a.tviewApp.Run()
}
