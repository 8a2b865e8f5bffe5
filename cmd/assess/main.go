// Command assess runs a single field risk screening against the live
// Open-Meteo APIs and prints the plain-text report, or the assessment as JSON.
//
// Usage:
//
//	go run ./cmd/assess -place Bergen -ground wet -terrain hilly -severity medium
//	go run ./cmd/assess -lat 69.65 -lon 18.96 -json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/field-risk-service/internal/adapter/openmeteo"
	"github.com/couchcryptid/field-risk-service/internal/config"
	"github.com/couchcryptid/field-risk-service/internal/domain"
	"github.com/couchcryptid/field-risk-service/internal/monitor"
	"github.com/couchcryptid/field-risk-service/internal/observability"
)

type options struct {
	place    string
	lat, lon float64
	ground   string
	terrain  string
	severity string
	asJSON   bool
}

func main() {
	var o options
	flag.StringVar(&o.place, "place", "", "place name to geocode (overrides -lat/-lon)")
	flag.Float64Var(&o.lat, "lat", math.NaN(), "latitude (defaults to DEFAULT_LAT)")
	flag.Float64Var(&o.lon, "lon", math.NaN(), "longitude (defaults to DEFAULT_LON)")
	flag.StringVar(&o.ground, "ground", "normal", "ground condition: normal, wet, unstable")
	flag.StringVar(&o.terrain, "terrain", "flat", "terrain: flat, hilly")
	flag.StringVar(&o.severity, "severity", "low", "work severity: low, medium, high")
	flag.BoolVar(&o.asJSON, "json", false, "print the assessment state as JSON")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	if code := run(context.Background(), cfg, o, os.Stdout, os.Stderr); code != 0 {
		os.Exit(code)
	}
}

func run(ctx context.Context, cfg *config.Config, o options, stdout, stderr io.Writer) int {
	inputs, err := domain.ParseUserInputs(o.ground, o.terrain, o.severity)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	if math.IsNaN(o.lat) != math.IsNaN(o.lon) {
		fmt.Fprintln(stderr, "-lat and -lon must be given together")
		return 2
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	metrics := observability.NewUnregisteredMetrics()

	forecast := openmeteo.NewForecastClient(cfg.ForecastBaseURL, cfg.ForecastTimeout, openmeteo.BreakerSettings{}, metrics, logger)
	geocoder := openmeteo.NewGeocodingClient(cfg.GeocodingBaseURL, cfg.GeocodingCountry, cfg.GeocodingTimeout, metrics, logger)

	m := monitor.New(forecast, geocoder,
		monitor.WithMetrics(metrics),
		monitor.WithLogger(logger),
		monitor.WithInputs(inputs),
	)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if o.place != "" {
		_, err = m.SearchPlace(ctx, o.place)
	} else {
		loc := domain.Location{
			Name:        cfg.DefaultLocationName,
			Coordinates: domain.Coordinates{Lat: cfg.DefaultLat, Lon: cfg.DefaultLon},
		}
		if !math.IsNaN(o.lat) && !math.IsNaN(o.lon) {
			loc = domain.Location{
				Name:        fmt.Sprintf("%.4f, %.4f", o.lat, o.lon),
				Coordinates: domain.Coordinates{Lat: o.lat, Lon: o.lon},
			}
		}
		err = m.SetLocation(ctx, loc)
	}
	if err != nil {
		fmt.Fprintln(stderr, domain.UserMessage(err))
		fmt.Fprintln(stderr, "detail:", err)
		return 1
	}

	if o.asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(m.State()); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return 0
	}

	fmt.Fprintln(stdout, m.Report())
	return 0
}
