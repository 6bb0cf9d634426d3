package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dokzlo13/gammad/internal/config"
	"github.com/dokzlo13/gammad/internal/flux"
	"github.com/dokzlo13/gammad/internal/gamma"
)

func TestStatusService(t *testing.T) {
	s := NewStatusService(config.Default(), "run-7")
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/state")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	s.OnFluxEvent(context.Background(), flux.Event{
		Kind:    flux.EventReached,
		Time:    time.Date(2024, 6, 1, 22, 30, 0, 0, time.UTC),
		Setting: gamma.Setting{Temperature: 3500, Brightness: 0.9},
		Target:  3500,
		Phase:   flux.PhaseNight,
	})

	resp, err = http.Get(srv.URL + "/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "reached", body["event"])
	assert.EqualValues(t, 3500, body["temperature"])
	assert.Equal(t, "night", body["phase"])
	assert.Equal(t, "run-7", body["run_id"])
}
