package main

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

const usageText = `gammad (%s)
Usage: %s [options] [temperature] [brightness]
	If the argument is 0, gammad resets the display to the default temperature (6500K)
	If no arguments are passed, gammad estimates the current display temperature and brightness
Options:
%s`

type options struct {
	help       bool
	verbose    bool
	delta      bool
	flux       bool
	screen     int
	crtc       int
	configPath string
	display    string
	history    int
	logJSON    bool

	hasTemperature bool
	temperature    int
	hasBrightness  bool
	brightness     float64
}

// valueFlags take a separate argument that may itself be negative.
var valueFlags = map[string]bool{
	"-s": true, "--screen": true,
	"-c": true, "--crtc": true,
	"--config": true, "--display": true, "--history": true,
}

var negativeNumber = regexp.MustCompile(`^-\d+(\.\d*)?$`)

func newFlagSet(opts *options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("gammad", pflag.ContinueOnError)
	fs.SortFlags = false

	fs.BoolVarP(&opts.help, "help", "h", false, "display this usage information")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "display debugging information")
	fs.BoolVarP(&opts.delta, "delta", "d", false, "shift temperature by the temperature value")
	fs.IntVarP(&opts.screen, "screen", "s", -1, "only select the screen with this zero-based index")
	fs.BoolVarP(&opts.flux, "chinese-flux", "f", false, "step between day and night temperatures until interrupted")
	fs.IntVarP(&opts.crtc, "crtc", "c", -1, "only select the CRTC with this zero-based index")
	fs.StringVar(&opts.configPath, "config", "", "configuration file (default $HOME/.config/gammad/config.yaml)")
	fs.StringVar(&opts.display, "display", "", "X display to connect to (default $DISPLAY)")
	fs.IntVar(&opts.history, "history", 0, "print the last N applied settings and exit")
	fs.BoolVar(&opts.logJSON, "log-json", false, "log as JSON")
	return fs
}

// parseArgs parses the command line. Negative numbers are treated as
// positional arguments so "gammad -d -500" works.
func parseArgs(args []string) (*options, error) {
	opts := &options{}
	fs := newFlagSet(opts)
	fs.SetOutput(io.Discard)

	if err := fs.Parse(splitPositional(args)); err != nil {
		return nil, err
	}

	rest := fs.Args()
	if len(rest) > 2 {
		return nil, fmt.Errorf("unknown parameter: %s", rest[2])
	}
	if len(rest) > 0 {
		t, err := strconv.Atoi(rest[0])
		if err != nil {
			return nil, fmt.Errorf("invalid temperature %q", rest[0])
		}
		opts.hasTemperature = true
		opts.temperature = t
	}
	if len(rest) > 1 {
		b, err := strconv.ParseFloat(rest[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid brightness %q", rest[1])
		}
		opts.hasBrightness = true
		opts.brightness = b
	}
	return opts, nil
}

// estimates reports whether the command only prints the current estimate.
// A negative absolute temperature is not a valid target and estimates too.
func (o *options) estimates() bool {
	return !o.hasTemperature || (o.temperature < 0 && !o.delta)
}

// splitPositional moves positional arguments, including negative numbers,
// behind a "--" terminator, keeping their order.
func splitPositional(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			positional = append(positional, args[i+1:]...)
			i = len(args)
		case valueFlags[arg] && i+1 < len(args):
			flags = append(flags, arg, args[i+1])
			i++
		case negativeNumber.MatchString(arg) || !strings.HasPrefix(arg, "-"):
			positional = append(positional, arg)
		default:
			flags = append(flags, arg)
		}
	}
	if len(positional) == 0 {
		return flags
	}
	return append(append(flags, "--"), positional...)
}

func printUsage(w io.Writer, pname string) {
	fs := newFlagSet(&options{})
	fmt.Fprintf(w, usageText, version, pname, fs.FlagUsages())
}
