package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func fieldNames(err error) []string {
	verr, ok := err.(*ValidationError)
	if !ok {
		return nil
	}
	names := make([]string, len(verr.Errors))
	for i, fe := range verr.Errors {
		names[i] = fe.Field
	}
	return names
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 3500, cfg.Flux.MinTemp)
	assert.Equal(t, 6000, cfg.Flux.MaxTemp)
	assert.Equal(t, 10*time.Second, cfg.Flux.ReevalInterval.Duration())
	assert.Equal(t, 50*time.Millisecond, cfg.Flux.StepInterval.Duration())
}

func TestLoadYAML(t *testing.T) {
	t.Setenv("GAMMAD_TEST_BROKER", "tcp://broker:1883")
	path := writeFile(t, "config.yaml", `
log:
  level: debug
flux:
  min_temp: 3000
  max_temp: 6500
  morning: "07:30"
  night: "@sunset + 30m"
  step_interval: 100ms
  reeval_interval: 1m
geo:
  lat: 52.52
  lon: 13.40
  timezone: UTC
mqtt:
  broker: ${GAMMAD_TEST_BROKER}
  client_id: ${GAMMAD_UNSET_VAR:desk}
`)

	cfg, err := LoadYAML(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Source)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 3000, cfg.Flux.MinTemp)
	assert.Equal(t, 6500, cfg.Flux.MaxTemp)
	assert.Equal(t, 1.0, cfg.Flux.Brightness, "unset keys keep defaults")
	assert.Equal(t, "07:30", cfg.Flux.Morning)
	assert.Equal(t, "@sunset + 30m", cfg.Flux.Night)
	assert.Equal(t, 100*time.Millisecond, cfg.Flux.StepInterval.Duration())
	assert.Equal(t, time.Minute, cfg.Flux.ReevalInterval.Duration())
	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)
	assert.Equal(t, "desk", cfg.MQTT.ClientID)
	assert.Equal(t, "gammad/state", cfg.MQTT.Topic)
	assert.NoError(t, cfg.Validate())
}

func TestLoadYAML_BadDuration(t *testing.T) {
	path := writeFile(t, "config.yaml", "flux:\n  step_interval: soon\n")
	_, err := LoadYAML(path)
	assert.Error(t, err)
}

func TestLoad_FallsBackToDefaults(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, Default(), cfg)

	broken := writeFile(t, "broken.yaml", "flux: [unterminated")
	cfg = Load(broken)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_SearchesHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	assert.Equal(t, Default(), Load(""))

	legacy := filepath.Join(home, ".config", "xsctcf")
	require.NoError(t, os.MkdirAll(legacy, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(legacy, "xsctcf.conf"), []byte("USER_MIN=2500\n"), 0o644))
	assert.Equal(t, 2500, Load("").Flux.MinTemp)

	modern := filepath.Join(home, ".config", "gammad")
	require.NoError(t, os.MkdirAll(modern, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(modern, "config.yaml"), []byte("flux:\n  min_temp: 2800\n"), 0o644))
	assert.Equal(t, 2800, Load("").Flux.MinTemp, "YAML takes precedence over the legacy file")
}

func TestLoadLegacy(t *testing.T) {
	path := writeFile(t, "xsctcf.conf", `# comment
USER_MIN=3000
USER_MAX=6200
USER_BRIGHT=0.8
MORNING_TIME=7
MORNING_TIME_MINUTES=15
NIGHT_TIME=21
NIGHT_TIME_MINUTES=45
TIME_SLEEP=30
STEP_SLEEP=20000
STEP_DIST=50
UNKNOWN_KEY=1
this line is garbage
USER_MIN=notanumber
`)

	cfg, err := LoadLegacy(path)
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Flux.MinTemp)
	assert.Equal(t, 6200, cfg.Flux.MaxTemp)
	assert.Equal(t, 0.8, cfg.Flux.Brightness)
	assert.Equal(t, "07:15", cfg.Flux.Morning)
	assert.Equal(t, "21:45", cfg.Flux.Night)
	assert.Equal(t, 30*time.Second, cfg.Flux.ReevalInterval.Duration())
	assert.Equal(t, 20*time.Millisecond, cfg.Flux.StepInterval.Duration())
	assert.Equal(t, 50, cfg.Flux.StepDistance)
	assert.NoError(t, cfg.Validate())
}

func TestLoadLegacy_OutOfRangeHourIsReported(t *testing.T) {
	path := writeFile(t, "xsctcf.conf", "MORNING_TIME=25\n")
	cfg, err := LoadLegacy(path)
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, fieldNames(err), "flux.morning")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"min temp too low", func(c *Config) { c.Flux.MinTemp = 50 }, "flux.min_temp"},
		{"max temp too low", func(c *Config) { c.Flux.MaxTemp = 100 }, "flux.max_temp"},
		{"min not below max", func(c *Config) { c.Flux.MinTemp = 6000 }, "flux.min_temp"},
		{"zero brightness", func(c *Config) { c.Flux.Brightness = 0 }, "flux.brightness"},
		{"zero step", func(c *Config) { c.Flux.StepDistance = 0 }, "flux.step_distance"},
		{"negative reeval", func(c *Config) { c.Flux.ReevalInterval = Duration(-time.Second) }, "flux.reeval_interval"},
		{"negative step interval", func(c *Config) { c.Flux.StepInterval = Duration(-time.Second) }, "flux.step_interval"},
		{"morning equals night", func(c *Config) { c.Flux.Night = "10:00" }, "flux.night"},
		{"morning after night", func(c *Config) { c.Flux.Morning = "23:00" }, "flux.morning"},
		{"bad morning", func(c *Config) { c.Flux.Morning = "10:60" }, "flux.morning"},
		{"bad night", func(c *Config) { c.Flux.Night = "late" }, "flux.night"},
		{"astro without geo", func(c *Config) { c.Flux.Night = "@sunset" }, "geo"},
		{"latitude range", func(c *Config) { c.Geo.Lat = 100 }, "geo.lat"},
		{"unknown timezone", func(c *Config) { c.Geo.Timezone = "Mars/Olympus" }, "geo.timezone"},
		{"qos range", func(c *Config) { c.MQTT.QoS = 3 }, "mqtt.qos"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, fieldNames(err), tt.field)
		})
	}
}

func TestValidate_ReportsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Flux.MinTemp = 50
	cfg.Flux.StepDistance = 0
	cfg.Flux.Brightness = -1

	err := cfg.Validate()
	require.Error(t, err)

	names := fieldNames(err)
	assert.Contains(t, names, "flux.min_temp")
	assert.Contains(t, names, "flux.step_distance")
	assert.Contains(t, names, "flux.brightness")
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestValidate_AstroWithGeo(t *testing.T) {
	cfg := Default()
	cfg.Flux.Morning = "@sunrise"
	cfg.Flux.Night = "@sunset - 1h"
	cfg.Geo.Lat = 40.4
	cfg.Geo.Lon = -3.7
	assert.NoError(t, cfg.Validate())
}
