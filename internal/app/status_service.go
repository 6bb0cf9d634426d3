package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/gammad/internal/config"
	"github.com/dokzlo13/gammad/internal/flux"
)

const statusShutdownTimeout = 5 * time.Second

// StatusService serves the latest flux state over HTTP. It implements
// flux.Listener.
type StatusService struct {
	cfg   *config.Config
	runID string

	mu   sync.RWMutex
	last *flux.Event
}

// NewStatusService creates a new StatusService.
func NewStatusService(cfg *config.Config, runID string) *StatusService {
	return &StatusService{cfg: cfg, runID: runID}
}

// OnFluxEvent remembers the event for /state.
func (s *StatusService) OnFluxEvent(_ context.Context, ev flux.Event) {
	s.mu.Lock()
	s.last = &ev
	s.mu.Unlock()
}

// Handler returns the status endpoints.
func (s *StatusService) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	mux.HandleFunc("/state", func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		last := s.last
		s.mu.RUnlock()

		w.Header().Set("Content-Type", "application/json")
		if last == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"starting"}`))
			return
		}

		json.NewEncoder(w).Encode(map[string]any{
			"event":       last.Kind,
			"temperature": last.Setting.Temperature,
			"brightness":  last.Setting.Brightness,
			"target":      last.Target,
			"phase":       last.Phase,
			"run_id":      s.runID,
			"time":        last.Time.UTC(),
		})
	})

	return mux
}

// Start serves the endpoints until ctx is cancelled, if enabled.
func (s *StatusService) Start(ctx context.Context) {
	if !s.cfg.Status.Enabled {
		return
	}

	go s.run(ctx)
}

func (s *StatusService) run(ctx context.Context) {
	addr := fmt.Sprintf("%s:%d", s.cfg.Status.GetHost(), s.cfg.Status.GetPort())
	server := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	log.Info().Str("addr", addr).Msg("Starting status server")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), statusShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Status server shutdown error")
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("Status server error")
	}
}
