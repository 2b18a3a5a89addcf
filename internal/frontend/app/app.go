// Package app assembles the client components around one bus and one
// state object.
package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/eventfinder/internal/frontend/apiclient"
	"github.com/zatekoja/eventfinder/internal/frontend/bus"
	"github.com/zatekoja/eventfinder/internal/frontend/device"
	"github.com/zatekoja/eventfinder/internal/frontend/distance"
	"github.com/zatekoja/eventfinder/internal/frontend/loop"
	"github.com/zatekoja/eventfinder/internal/frontend/markers"
	"github.com/zatekoja/eventfinder/internal/frontend/results"
	"github.com/zatekoja/eventfinder/internal/frontend/selector"
	"github.com/zatekoja/eventfinder/internal/frontend/state"
	"github.com/zatekoja/eventfinder/pkg/config"
	"github.com/zatekoja/eventfinder/pkg/geo"
)

// Options configures the client
type Options struct {
	Client     config.ClientConfig
	Search     config.SearchConfig
	Geolocator device.Geolocator
	Store      state.Store
	Viewport   results.Viewport
}

// App holds the wired components
type App struct {
	API      *apiclient.Client
	Bus      *bus.Bus
	State    *state.AppState
	Selector *selector.Selector
	Results  *results.Renderer
	Markers  *markers.Layer
	Distance *distance.Annotator
}

// Bounds converts the search config into radius bounds
func Bounds(search config.SearchConfig) geo.RadiusBounds {
	return geo.RadiusBounds{Min: search.MinRadiusKm, Max: search.MaxRadiusKm, Default: search.DefaultRadiusKm}
}

// New wires the components. It must run on the scheduler's loop, or
// before the loop starts.
func New(ctx context.Context, sched loop.Scheduler, api *apiclient.Client, opts Options) *App {
	geolocator := opts.Geolocator
	if geolocator == nil {
		geolocator = device.Unsupported{}
	}
	geoOpts := device.Options{Timeout: opts.Client.GeolocationTimeout, MaximumAge: opts.Client.GeolocationMaxAge}

	b := bus.New()
	st := state.New(Bounds(opts.Search), opts.Store)

	markerCfg := markers.DefaultConfig()
	if opts.Client.PulseDuration > 0 {
		markerCfg.PulseDuration = opts.Client.PulseDuration
	}

	a := &App{
		API:   api,
		Bus:   b,
		State: st,
		Selector: selector.New(ctx, sched, b, st, api, geolocator, selector.Config{
			Debounce:           opts.Client.SuggestDebounce,
			SuggestionLimit:    opts.Search.SuggestionLimit,
			MinQueryLength:     opts.Search.MinQueryLength,
			GeolocationTimeout: geoOpts.Timeout,
			GeolocationMaxAge:  geoOpts.MaximumAge,
		}),
		Results: results.New(ctx, sched, b, api, opts.Viewport, results.Config{
			Debounce:    opts.Client.QueryDebounce,
			ScrollDelay: opts.Client.ScrollDelay,
		}),
		Markers:  markers.New(ctx, sched, b, api, markerCfg),
		Distance: distance.New(ctx, sched, b, geolocator, geoOpts),
	}
	return a
}

// Start re-applies the saved location, if there is one
func (a *App) Start() {
	if a.Selector.Restore() {
		loc, _ := a.State.Location()
		log.Info().Str("name", loc.DisplayName).Msg("restored saved location")
	}
}
