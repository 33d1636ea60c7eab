package main

import (
	"geocam/internal/config"
	"geocam/internal/geo"
	"geocam/internal/logging"
	"geocam/internal/state"
	ui "geocam/internal/ui"
	"geocam/processing/capture"
	"geocam/processing/location"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to the config file")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("loading config failed")
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	policy, err := geo.ParseRangePolicy(cfg.Target.RangePolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid range policy")
	}

	loc, err := location.NewLocator(cfg.Location)
	if err != nil {
		log.Fatal().Err(err).Msg("creating locator failed")
	}
	log.Info().Str("locator", loc.Name()).Str("config", cfg.Path()).Msg("starting")

	cam := capture.NewController(cfg, nil)
	defer cam.Close()

	ev := location.NewEvaluator(loc, cfg.Location.Timeout)
	st := state.NewStore(state.New(cfg.GetTarget(), policy))

	app := ui.CreateApp(cam, ev, st, cfg, policy)

	app.Run()
}
