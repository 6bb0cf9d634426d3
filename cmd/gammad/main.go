package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/gammad/internal/app"
	"github.com/dokzlo13/gammad/internal/config"
	"github.com/dokzlo13/gammad/internal/display"
)

const version = "1.0.0"

func main() {
	os.Exit(run(os.Args))
}

func run(argv []string) int {
	pname := filepath.Base(argv[0])

	opts, err := parseArgs(argv[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR! %v\n", err)
		printUsage(os.Stdout, pname)
		return 1
	}
	if opts.help {
		printUsage(os.Stdout, pname)
		return 0
	}

	// Provisional logging until the configuration is known
	setupLogging(levelFor("info", opts.verbose), opts.logJSON, true)

	cfg := config.Load(opts.configPath)
	setupLogging(levelFor(cfg.Log.Level, opts.verbose), cfg.Log.JSON || opts.logJSON, cfg.Log.Colors)

	if cfg.Source != "" {
		log.Debug().Str("config", cfg.Source).Msg("Using configuration file")
	} else {
		log.Debug().Msg("Using default configuration")
	}

	if opts.history > 0 {
		return runHistory(cfg, opts.history)
	}

	if opts.flux {
		if err := cfg.Validate(); err != nil {
			var verr *config.ValidationError
			if errors.As(err, &verr) {
				for _, fe := range verr.Errors {
					log.Error().Str("field", fe.Field).Msg(fe.Message)
				}
			}
			log.Error().Err(err).Msg("Refusing to start flux")
			return 1
		}
	}

	sink, err := display.OpenX11(opts.display)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open display, ensure DISPLAY is set correctly")
		return 1
	}

	sel := display.Selection{Screen: opts.screen, CRTC: opts.crtc}
	application, err := app.New(cfg, sink, sel)
	if err != nil {
		sink.Close()
		log.Error().Err(err).Msg("Failed to create application")
		return 1
	}
	defer application.Close()

	switch {
	case opts.flux:
		ctx := app.SignalContext()
		err = application.Flux(ctx)
	case opts.estimates():
		err = application.Report(os.Stdout)
	case opts.delta:
		brightness := -1.0
		if opts.hasBrightness {
			brightness = opts.brightness
		}
		err = application.Shift(opts.temperature, brightness)
	default:
		brightness := 1.0
		if opts.hasBrightness {
			brightness = opts.brightness
		}
		err = application.Set(opts.temperature, brightness)
	}

	if err != nil {
		log.Error().Err(err).Msg("Operation failed")
		return 1
	}
	return 0
}

func runHistory(cfg *config.Config, n int) int {
	services, err := app.NewServices(cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open history")
		return 1
	}
	defer services.Close()

	if err := app.PrintHistory(os.Stdout, services.Ledger, n); err != nil {
		log.Error().Err(err).Msg("Failed to print history")
		return 1
	}
	return 0
}

func levelFor(level string, verbose bool) string {
	if verbose {
		return "debug"
	}
	return level
}

func setupLogging(level string, useJSON bool, colors bool) {
	// ISO 8601 format with timezone
	zerolog.TimeFieldFormat = time.RFC3339

	if useJSON {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "15:04:05.000",
			NoColor:    !colors,
		}).With().Timestamp().Logger()
	}

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
