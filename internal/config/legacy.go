package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// LoadLegacy reads an xsctcf-style KEY=VALUE file on top of the defaults.
// Blank lines and '#' comments are ignored; malformed lines, unknown keys
// and unparseable numbers are skipped with a debug note.
func LoadLegacy(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := Default()
	cfg.Source = path

	morningHour, morningMin := 10, 0
	nightHour, nightMin := 22, 0

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		pairs, err := godotenv.Unmarshal(line)
		if err != nil || len(pairs) != 1 {
			log.Debug().Err(err).Str("path", path).Int("line", lineNo).Msg("Skipping malformed configuration line")
			continue
		}

		for key, value := range pairs {
			value = strings.TrimSpace(value)
			var perr error
			switch key {
			case "USER_MIN":
				perr = setInt(&cfg.Flux.MinTemp, value)
			case "USER_MAX":
				perr = setInt(&cfg.Flux.MaxTemp, value)
			case "USER_BRIGHT":
				var b float64
				if b, perr = strconv.ParseFloat(value, 64); perr == nil {
					cfg.Flux.Brightness = b
				}
			case "MORNING_TIME":
				perr = setInt(&morningHour, value)
			case "MORNING_TIME_MINUTES":
				perr = setInt(&morningMin, value)
			case "NIGHT_TIME":
				perr = setInt(&nightHour, value)
			case "NIGHT_TIME_MINUTES":
				perr = setInt(&nightMin, value)
			case "TIME_SLEEP":
				var secs int
				if perr = setInt(&secs, value); perr == nil {
					cfg.Flux.ReevalInterval = Duration(time.Duration(secs) * time.Second)
				}
			case "STEP_SLEEP":
				var micros int
				if perr = setInt(&micros, value); perr == nil {
					cfg.Flux.StepInterval = Duration(time.Duration(micros) * time.Microsecond)
				}
			case "STEP_DIST":
				perr = setInt(&cfg.Flux.StepDistance, value)
			default:
				log.Debug().Str("key", key).Int("line", lineNo).Msg("Skipping unknown configuration key")
				continue
			}
			if perr != nil {
				log.Debug().Err(perr).Str("key", key).Int("line", lineNo).Msg("Skipping unparseable configuration value")
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg.Flux.Morning = clockString(morningHour, morningMin)
	cfg.Flux.Night = clockString(nightHour, nightMin)

	return cfg, nil
}

func setInt(dst *int, value string) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// clockString formats hour and minute as "HH:MM". Out-of-range values are
// kept so validation can report them.
func clockString(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}
