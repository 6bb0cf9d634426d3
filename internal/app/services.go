package app

import (
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/gammad/internal/config"
	"github.com/dokzlo13/gammad/internal/db"
	"github.com/dokzlo13/gammad/internal/geo"
	"github.com/dokzlo13/gammad/internal/ledger"
)

// Services is a container for the optional infrastructure around the display.
type Services struct {
	cfg *config.Config

	// History; nil when database.path is empty
	DB     *db.DB
	Ledger *ledger.Ledger

	// Sun times; nil without coordinates
	GeoCalc *geo.Calculator
}

// NewServices opens the history database and the geo calculator when configured.
func NewServices(cfg *config.Config) (*Services, error) {
	s := &Services{cfg: cfg}

	if cfg.Database.IsEnabled() {
		database, err := db.Open(cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		s.DB = database
		s.Ledger = ledger.New(database.DB)
		log.Debug().Str("path", cfg.Database.Path).Msg("History database opened")
	}

	if cfg.Geo.IsEnabled() {
		tz, err := cfg.Geo.Location()
		if err != nil {
			s.Close()
			return nil, err
		}
		s.GeoCalc, err = geo.NewCalculator(cfg.Geo.Lat, cfg.Geo.Lon, tz)
		if err != nil {
			s.Close()
			return nil, err
		}
	}

	return s, nil
}

// Close releases all resources.
func (s *Services) Close() {
	if s.DB != nil {
		s.DB.Close()
		s.DB = nil
	}
}
