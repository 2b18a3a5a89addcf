package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/eventfinder/internal/frontend/apiclient"
	"github.com/zatekoja/eventfinder/internal/frontend/app"
	"github.com/zatekoja/eventfinder/internal/frontend/device"
	"github.com/zatekoja/eventfinder/internal/frontend/loop"
	"github.com/zatekoja/eventfinder/internal/frontend/state"
	"github.com/zatekoja/eventfinder/internal/frontend/term"
	"github.com/zatekoja/eventfinder/internal/infrastructure/observability"
	"github.com/zatekoja/eventfinder/pkg/config"
	"github.com/zatekoja/eventfinder/pkg/geo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	var (
		serverURL string
		storePath string
		logLevel  string
		rows      int
	)
	flag.StringVar(&serverURL, "server", cfg.Client.ServerURL, "eventfinder server URL")
	flag.StringVar(&storePath, "state", cfg.Client.StorePath, "state file (defaults to the user config dir)")
	flag.StringVar(&logLevel, "log-level", "warn", "log level")
	flag.IntVar(&rows, "rows", 8, "event cards shown at a time")
	flag.Parse()

	observability.InitLoggerWithWriter(os.Stderr, "eventfinder-finder", cfg.Log.Environment, logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store state.Store
	fileStore, err := state.NewFileStore(storePath)
	if err != nil {
		log.Warn().Err(err).Msg("saved locations disabled")
		store = state.NewMemoryStore()
	} else {
		store = fileStore
		log.Debug().Str("path", fileStore.Path()).Msg("using state file")
	}

	var geolocator device.Geolocator = device.Unsupported{}
	if cfg.Client.DeviceLocation {
		geolocator = device.NewCached(device.Static{Point: geo.Point{Lat: cfg.Client.DeviceLat, Lon: cfg.Client.DeviceLon}})
	}

	l := loop.New()
	viewport := term.NewViewport(rows)
	api := apiclient.NewClient(serverURL, uuid.NewString(), app.Bounds(cfg.Search))
	a := app.New(ctx, l, api, app.Options{
		Client:     cfg.Client,
		Search:     cfg.Search,
		Geolocator: geolocator,
		Store:      store,
		Viewport:   viewport,
	})
	screen := term.NewScreen(ctx, l, a, viewport, os.Stdout)

	go l.Run(ctx)
	l.Post(func() {
		fmt.Fprintln(os.Stdout, "EventFinder. Type help for commands.")
		a.Start()
		screen.Render()
	})

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			keepGoing := make(chan bool, 1)
			l.Post(func() { keepGoing <- screen.Exec(line) })
			select {
			case <-ctx.Done():
				return
			case more := <-keepGoing:
				if !more {
					return
				}
			}
		}
	}
}
