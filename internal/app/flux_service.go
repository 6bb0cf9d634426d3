package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/gammad/internal/config"
	"github.com/dokzlo13/gammad/internal/flux"
	"github.com/dokzlo13/gammad/internal/ledger"
	"github.com/dokzlo13/gammad/internal/notify"
	"github.com/dokzlo13/gammad/internal/policy"
	"github.com/dokzlo13/gammad/internal/timeexpr"
)

// FluxService wires the scheduler to its policy and listeners.
type FluxService struct {
	cfg       *config.Config
	services  *Services
	Scheduler *flux.Scheduler
	Config    flux.Config

	Status *StatusService

	script *policy.Script
	mqtt   *notify.Client
}

// NewFluxService builds the schedule from configuration. extra options are
// applied after the configured ones.
func NewFluxService(cfg *config.Config, services *Services, applier flux.Applier, runID string, extra ...flux.Option) (*FluxService, error) {
	fcfg, err := BuildFluxConfig(cfg, services)
	if err != nil {
		return nil, err
	}

	s := &FluxService{
		cfg:      cfg,
		services: services,
		Config:   fcfg,
		Status:   NewStatusService(cfg, runID),
	}

	opts := []flux.Option{flux.WithListener(s.Status)}
	if cfg.Flux.Script != "" {
		s.script, err = policy.Load(cfg.Flux.Script, fcfg, services.GeoCalc)
		if err != nil {
			return nil, err
		}
		opts = append(opts, flux.WithPolicy(s.script))
	}
	if services.Ledger != nil {
		opts = append(opts, flux.WithListener(ledger.NewRecorder(services.Ledger, runID)))
	}
	if cfg.MQTT.IsEnabled() {
		s.mqtt = notify.NewClient(cfg.MQTT)
		opts = append(opts, flux.WithListener(
			notify.NewNotifier(s.mqtt, cfg.MQTT.Topic, byte(cfg.MQTT.QoS), cfg.MQTT.Retain, runID),
		))
	}
	opts = append(opts, extra...)

	s.Scheduler, err = flux.New(fcfg, applier, opts...)
	if err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// BuildFluxConfig turns the flux section into a scheduler configuration.
func BuildFluxConfig(cfg *config.Config, services *Services) (flux.Config, error) {
	tz, err := cfg.Geo.Location()
	if err != nil {
		return flux.Config{}, fmt.Errorf("invalid timezone: %w", err)
	}
	morning, err := timeexpr.Parse(cfg.Flux.Morning)
	if err != nil {
		return flux.Config{}, fmt.Errorf("invalid morning: %w", err)
	}
	night, err := timeexpr.Parse(cfg.Flux.Night)
	if err != nil {
		return flux.Config{}, fmt.Errorf("invalid night: %w", err)
	}

	window, err := timeexpr.NewWindow(morning, night, services.GeoCalc, tz)
	if err != nil {
		return flux.Config{}, err
	}

	return flux.NewConfig(
		cfg.Flux.MinTemp,
		cfg.Flux.MaxTemp,
		cfg.Flux.Brightness,
		cfg.Flux.StepDistance,
		cfg.Flux.StepInterval.Duration(),
		cfg.Flux.ReevalInterval.Duration(),
		window,
	)
}

// Run connects the optional publisher, starts the status server and history
// cleanup, and blocks in the scheduler until ctx is cancelled.
func (s *FluxService) Run(ctx context.Context, estimated int) error {
	log.Debug().
		Int("min_temp", s.Config.MinTemp).
		Int("max_temp", s.Config.MaxTemp).
		Float64("brightness", s.Config.Brightness).
		Str("morning", s.cfg.Flux.Morning).
		Str("night", s.cfg.Flux.Night).
		Dur("reeval_interval", s.Config.ReevalInterval).
		Dur("step_interval", s.Config.StepInterval).
		Int("step_distance", s.Config.StepDistance).
		Str("config", s.cfg.Source).
		Msg("Flux configuration")

	if s.mqtt != nil {
		connectCtx, cancel := context.WithTimeout(ctx, s.cfg.MQTT.Timeout.Duration())
		if err := s.mqtt.Connect(connectCtx); err != nil {
			log.Warn().Err(err).Msg("MQTT unavailable, state will not be published until it connects")
		}
		cancel()
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.Status.Start(runCtx)

	if s.services.Ledger != nil && s.cfg.Database.RetentionPeriod > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runLedgerCleanup(runCtx)
		}()
	}

	return s.Scheduler.Run(runCtx, estimated)
}

// runLedgerCleanup periodically cleans up old history entries.
func (s *FluxService) runLedgerCleanup(ctx context.Context) {
	retention := s.cfg.Database.RetentionPeriod.Duration()
	interval := s.cfg.Database.RetentionInterval.Duration()

	s.cleanup(retention)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanup(retention)
		}
	}
}

func (s *FluxService) cleanup(retention time.Duration) {
	deleted, err := s.services.Ledger.DeleteOlderThan(retention)
	if err != nil {
		log.Error().Err(err).Msg("Failed to cleanup old history entries")
	} else if deleted > 0 {
		log.Info().Int64("deleted", deleted).Dur("retention", retention).Msg("Cleaned up old history entries")
	}
}

// Close releases the script and the MQTT connection.
func (s *FluxService) Close() {
	if s.script != nil {
		s.script.Close()
	}
	if s.mqtt != nil {
		s.mqtt.Disconnect()
	}
}
