// Package term is the line-oriented terminal front end of the client. It
// renders component state as text and turns typed commands into the same
// actions a browser user would take.
package term

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/eventfinder/internal/domain/entities"
	"github.com/zatekoja/eventfinder/internal/frontend/app"
	"github.com/zatekoja/eventfinder/internal/frontend/bus"
	"github.com/zatekoja/eventfinder/internal/frontend/loop"
	"github.com/zatekoja/eventfinder/internal/frontend/results"
)

const helpText = `Commands:
  search <text>   look up locations (suggestions follow after a short pause)
  pick <n>        choose suggestion n
  go <name>       choose the suggestion with exactly this name
  here            use the device location
  radius <km>     change the search radius
  refresh         search again at the current location
  open <n>        expand or collapse card n
  marker <n>      click the map marker of card n
  detail <n>      show the server-rendered card n
  up, down        scroll the list
  show            redraw
  help            this text
  quit            exit`

// Screen draws the app to out. Every method must run on the loop.
type Screen struct {
	ctx      context.Context
	sched    loop.Scheduler
	app      *app.App
	viewport *Viewport
	out      io.Writer
	pending  bool
}

// NewScreen attaches a screen to a wired app. viewport must be the one
// passed to app.New.
func NewScreen(ctx context.Context, sched loop.Scheduler, a *app.App, viewport *Viewport, out io.Writer) *Screen {
	s := &Screen{ctx: ctx, sched: sched, app: a, viewport: viewport, out: out}
	viewport.Attach(func() []string {
		events := a.Results.Events()
		ids := make([]string, len(events))
		for i := range events {
			ids[i] = events[i].ID
		}
		return ids
	})

	bus.Subscribe(a.Bus, bus.EventsDataLoaded, func(bus.EventsDetail) { viewport.Reset() })
	a.Selector.OnChange(s.invalidate)
	a.Results.OnChange(s.invalidate)
	a.Markers.OnChange(s.invalidate)
	a.Distance.OnChange(s.invalidate)
	return s
}

// invalidate coalesces change notifications into one redraw
func (s *Screen) invalidate() {
	if s.pending {
		return
	}
	s.pending = true
	s.sched.Post(func() {
		s.pending = false
		s.Render()
	})
}

// Exec runs one command line. It returns false once the user asks to quit.
func (s *Screen) Exec(line string) bool {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "":
	case "quit", "exit", "q":
		return false
	case "help", "?":
		fmt.Fprintln(s.out, helpText)
	case "show":
		s.Render()
	case "search", "s":
		s.app.Selector.Input(arg)
	case "pick", "p":
		if n, ok := s.number(arg); ok {
			if err := s.app.Selector.Select(n - 1); err != nil {
				fmt.Fprintln(s.out, err.Error())
			}
		}
	case "go":
		_ = s.app.Selector.Submit(arg)
	case "here":
		s.app.Selector.UseDeviceLocation()
	case "radius", "r":
		if n, ok := s.number(arg); ok {
			s.app.Selector.SetRadius(n)
		}
	case "refresh":
		s.app.Selector.Refresh()
	case "open", "o":
		if e, ok := s.card(arg); ok {
			s.app.Results.ClickCard(e.ID, false)
		}
	case "marker", "m":
		if e, ok := s.card(arg); ok && !s.app.Markers.ClickMarker(e.ID) {
			fmt.Fprintln(s.out, "That event has no map marker.")
		}
	case "detail", "d":
		if e, ok := s.card(arg); ok {
			s.detail(e)
		}
	case "up":
		s.viewport.Scroll(-1)
		s.Render()
	case "down":
		s.viewport.Scroll(1)
		s.Render()
	default:
		fmt.Fprintf(s.out, "Unknown command %q. Type help for a list.\n", cmd)
	}
	return true
}

func (s *Screen) number(arg string) (int, bool) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		fmt.Fprintf(s.out, "Expected a number, got %q.\n", arg)
		return 0, false
	}
	return n, true
}

func (s *Screen) card(arg string) (entities.EventRecord, bool) {
	n, ok := s.number(arg)
	if !ok {
		return entities.EventRecord{}, false
	}
	events := s.app.Results.Events()
	if n < 1 || n > len(events) {
		fmt.Fprintf(s.out, "No event %d.\n", n)
		return entities.EventRecord{}, false
	}
	return events[n-1], true
}

// detail fetches the card fragment off the loop and prints it in full
func (s *Screen) detail(e entities.EventRecord) {
	s.sched.Go(func() func() {
		markup, err := s.app.API.RenderEventCard(s.ctx, e)
		return func() {
			if err != nil {
				log.Warn().Err(err).Str("event_id", e.ID).Msg("failed to render card")
				fmt.Fprintln(s.out, "Could not load event details.")
				return
			}
			fmt.Fprintln(s.out, "--- "+e.Name)
			for _, line := range fragmentLines(markup, true) {
				fmt.Fprintln(s.out, "  "+line)
			}
		}
	})
}

// Render draws the whole screen
func (s *Screen) Render() {
	w := s.out
	fmt.Fprintln(w)
	s.renderLocation(w)
	s.renderResults(w)
	s.renderMap(w)
}

func (s *Screen) renderLocation(w io.Writer) {
	sel := s.app.Selector
	if loc, ok := s.app.State.Location(); ok {
		fmt.Fprintf(w, "Location: %s (%.6f, %.6f) within %d km\n", loc.DisplayName, loc.Latitude, loc.Longitude, s.app.State.Radius())
	} else {
		fmt.Fprintf(w, "Location: none (radius %d km)\n", s.app.State.Radius())
	}
	if sel.Busy() {
		fmt.Fprintln(w, "Locating device...")
	}
	if msg := sel.Error(); msg != "" {
		fmt.Fprintln(w, "! "+msg)
	}
	if suggestions := sel.Suggestions(); len(suggestions) > 0 {
		fmt.Fprintf(w, "Suggestions for %q:\n", strings.TrimSpace(sel.Text()))
		for i, p := range suggestions {
			fmt.Fprintf(w, "  %d. %s\n", i+1, p.DisplayName)
		}
	}
}

func (s *Screen) renderResults(w io.Writer) {
	r := s.app.Results
	switch r.Status() {
	case results.StatusIdle:
		return
	case results.StatusLoading:
		fmt.Fprintln(w, "Loading events...")
		return
	case results.StatusEmpty, results.StatusError:
		fmt.Fprintf(w, "Events (0): %s\n", r.Message())
		return
	}

	events := r.Events()
	fmt.Fprintf(w, "Events (%d):\n", r.Count())
	start, end := s.viewport.Window(len(events))
	if start > 0 {
		fmt.Fprintf(w, "  ... %d above\n", start)
	}
	for i := start; i < end; i++ {
		e := &events[i]
		mark := " "
		if e.ID == r.Highlighted() {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %d. %s | %s | %s\n", mark, i+1, e.Name, e.VenueLabel(), s.app.Distance.Label(e.ID))
		if e.ID == r.Expanded() {
			s.renderExpanded(w, e)
		}
	}
	if end < len(events) {
		fmt.Fprintf(w, "  ... %d below\n", len(events)-end)
	}
}

func (s *Screen) renderExpanded(w io.Writer, e *entities.EventRecord) {
	lines := []string{e.ArtistsLabel()}
	if e.StartDate != "" {
		lines = append(lines, strings.TrimSpace(e.StartDate+" "+e.StartTime))
	}
	if e.Genre != "" {
		genre := e.Genre
		if e.Subgenre != "" {
			genre += " / " + e.Subgenre
		}
		lines = append(lines, genre)
	}
	lines = append(lines, e.TicketLabel(), e.PriceLabel(), "View Details: "+e.DetailPath())
	if e.URL != "" {
		lines = append(lines, "Buy Tickets: "+e.URL)
	}
	for _, l := range lines {
		fmt.Fprintln(w, "     "+l)
	}
}

func (s *Screen) renderMap(w io.Writer) {
	m := s.app.Markers
	center, ok := m.Center()
	if !ok {
		return
	}
	view := m.View()
	fmt.Fprintf(w, "Map: centre %.4f, %.4f at zoom %d, %d event markers around %s\n",
		view.Center.Lat, view.Center.Lon, view.Zoom, len(m.Markers()), center.Title)

	for _, marker := range m.Markers() {
		if m.Pulsing(marker.ID) {
			fmt.Fprintf(w, "  (pulsing) %s\n", marker.Title)
		}
	}
	if id, markup := m.Popup(); id != "" {
		fmt.Fprintln(w, "  Popup:")
		for _, line := range fragmentLines(markup, false) {
			fmt.Fprintln(w, "    "+line)
		}
	}
}
