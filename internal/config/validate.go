package config

import (
	"fmt"
	"strings"

	"github.com/dokzlo13/gammad/internal/timeexpr"
)

// FieldError describes one invalid configuration value
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationError collects every invalid value found by Validate
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Error()
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) add(field, format string, args ...any) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Validate checks the configuration and reports all problems at once.
// It returns nil or a *ValidationError.
func (c *Config) Validate() error {
	verr := &ValidationError{}
	f := c.Flux

	if f.MinTemp <= 100 {
		verr.add("flux.min_temp", "must be greater than 100, got %d", f.MinTemp)
	}
	if f.MaxTemp <= 100 {
		verr.add("flux.max_temp", "must be greater than 100, got %d", f.MaxTemp)
	}
	if f.MinTemp >= f.MaxTemp {
		verr.add("flux.min_temp", "must be lower than max_temp (%d >= %d)", f.MinTemp, f.MaxTemp)
	}
	if f.Brightness <= 0 {
		verr.add("flux.brightness", "must be positive, got %g", f.Brightness)
	}
	if f.StepDistance <= 0 {
		verr.add("flux.step_distance", "must be positive, got %d", f.StepDistance)
	}
	if f.ReevalInterval < 0 {
		verr.add("flux.reeval_interval", "must not be negative, got %s", f.ReevalInterval.Duration())
	}
	if f.StepInterval < 0 {
		verr.add("flux.step_interval", "must not be negative, got %s", f.StepInterval.Duration())
	}

	morning, merr := timeexpr.Parse(f.Morning)
	if merr != nil {
		verr.add("flux.morning", "%v", merr)
	}
	night, nerr := timeexpr.Parse(f.Night)
	if nerr != nil {
		verr.add("flux.night", "%v", nerr)
	}
	if merr == nil && nerr == nil {
		if morning.IsFixed() && night.IsFixed() {
			switch {
			case morning.Clock() == night.Clock():
				verr.add("flux.night", "must differ from morning (%s)", morning)
			case morning.Clock() > night.Clock():
				verr.add("flux.morning", "must be before night (%s > %s)", morning, night)
			}
		}
		if (!morning.IsFixed() || !night.IsFixed()) && !c.Geo.IsEnabled() {
			verr.add("geo", "astronomical boundaries require lat and lon")
		}
	}

	if c.Geo.Lat < -90 || c.Geo.Lat > 90 {
		verr.add("geo.lat", "must be within [-90, 90], got %g", c.Geo.Lat)
	}
	if c.Geo.Lon < -180 || c.Geo.Lon > 180 {
		verr.add("geo.lon", "must be within [-180, 180], got %g", c.Geo.Lon)
	}
	if _, err := c.Geo.Location(); err != nil {
		verr.add("geo.timezone", "%v", err)
	}

	if c.Database.RetentionPeriod < 0 {
		verr.add("database.retention_period", "must not be negative, got %s", c.Database.RetentionPeriod.Duration())
	}
	if c.Database.IsEnabled() && c.Database.RetentionPeriod > 0 && c.Database.RetentionInterval <= 0 {
		verr.add("database.retention_interval", "must be positive when retention is enabled")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		verr.add("mqtt.qos", "must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}
	if c.MQTT.IsEnabled() && c.MQTT.Topic == "" {
		verr.add("mqtt.topic", "must be set when a broker is configured")
	}

	if c.Status.Port < 0 || c.Status.Port > 65535 {
		verr.add("status.port", "must be within [0, 65535], got %d", c.Status.Port)
	}

	if len(verr.Errors) > 0 {
		return verr
	}
	return nil
}
