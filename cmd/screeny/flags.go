package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/screenydev/screeny/internal/config"
	"github.com/screenydev/screeny/pkg/screeny"
)

const (
	version = "0.1.0"
	usage   = `USAGE:
  screeny [options] (-u <url> | -f <urls.txt|urls.csv>)

INPUT:
  -u, --url                      single URL to capture
  -f, --file                     file containing URLs (txt: one per line, csv: URL in first column)
                                 URLs may also be piped on stdin

OUTPUT:
  -o,  --output                  output directory                                 (Default: ./screenshots)
       --template                filename template with {domain}, {timestamp},
                                 {index} and {uuid} placeholders                  (Default: {domain}_{timestamp})
       --format                  output format: png or jpeg                       (Default: png)
       --quality                 JPEG quality 1-100                               (Default: 90)
       --imprint-url             draw the page origin under the image            (Default: false)

VIEWPORT:
       --width                   viewport width                                   (Default: 1920)
       --height                  viewport height                                  (Default: 1080)
       --scale                   device scale factor                              (Default: 2.0)
       --mobile                  emulate a mobile device                          (Default: false)
       --viewport-only           capture the viewport instead of the full page   (Default: false)

WAIT:
       --wait-timeout            navigation/selector timeout in ms                (Default: 30000)
       --wait-selector           CSS selector to wait for before capturing
       --wait-state              load, domcontentloaded or networkidle            (Default: networkidle)
       --settle                  settle delay after load state in ms              (Default: 2000)
       --delay                   delay between batch captures in ms               (Default: 1000)

BEHAVIOR:
       --no-animations           disable CSS animations and transitions          (Default: true)
       --no-ads                  block ads and trackers                          (Default: true)
       --engine                  browser backend: chromedp or rod                 (Default: chromedp)
  -ua, --user-agent              custom user agent
       --exclude                 comma-separated patterns to skip
       --skip-duplicates         skip saving near-identical captures             (Default: false)
       --duplicate-threshold     similarity score treated as duplicate (1-100)    (Default: 96)
       --history                 record capture outcomes to a SQLite database
       --config                  config file with defaults (SCREENY_* env also read)

  -s,  --silence                 silence output
  -v,  --verbose                 verbose output
       --version                 display version
  -h,  --help                    display this help
`
)

type cli struct {
	URL      string
	Infile   string
	Output   string
	Excludes string
	History  string
	Config   string
	Silence  bool
	Verbose  bool
	Version  bool
	Help     bool
	Options  *screeny.Options
}

// findConfigPath pre-scans the arguments for --config so the config file can
// seed flag defaults before parsing. Falls back to SCREENY_CONFIG.
func findConfigPath(args []string, envConfig string) string {
	for i, arg := range args {
		for _, name := range []string{"--config", "-config"} {
			if arg == name && i+1 < len(args) {
				return args[i+1]
			}
			if strings.HasPrefix(arg, name+"=") {
				return strings.TrimPrefix(arg, name+"=")
			}
		}
	}
	return envConfig
}

// parseFlags parses the command line. Defaults come from cfg so config-file
// and environment values apply unless a flag is given explicitly.
func parseFlags(cfg config.Config, args []string) (*cli, error) {
	c := &cli{Options: screeny.DefaultOptions()}
	var formatStr, waitStateStr string
	viewportOnly := !cfg.FullPage

	fs := flag.NewFlagSet("screeny", flag.ContinueOnError)
	fs.SetOutput(io.Discard) // errors are reported by the caller
	fs.Usage = func() { fmt.Print(usage) }

	// INPUT
	fs.StringVar(&c.URL, "url", "", "")
	fs.StringVar(&c.URL, "u", "", "")
	fs.StringVar(&c.Infile, "file", "", "")
	fs.StringVar(&c.Infile, "f", "", "")

	// OUTPUT
	fs.StringVar(&c.Output, "output", cfg.Output, "")
	fs.StringVar(&c.Output, "o", cfg.Output, "")
	fs.StringVar(&c.Options.NameTemplate, "template", cfg.Template, "")
	fs.StringVar(&formatStr, "format", cfg.Format, "")
	fs.IntVar(&c.Options.Quality, "quality", cfg.Quality, "")
	fs.BoolVar(&c.Options.ImprintURL, "imprint-url", cfg.ImprintURL, "")

	// VIEWPORT
	fs.IntVar(&c.Options.ViewportWidth, "width", cfg.Width, "")
	fs.IntVar(&c.Options.ViewportHeight, "height", cfg.Height, "")
	fs.Float64Var(&c.Options.Scale, "scale", cfg.Scale, "")
	fs.BoolVar(&c.Options.Mobile, "mobile", cfg.Mobile, "")
	fs.BoolVar(&viewportOnly, "viewport-only", !cfg.FullPage, "")

	// WAIT
	fs.IntVar(&c.Options.WaitTimeout, "wait-timeout", cfg.WaitTimeout, "")
	fs.StringVar(&c.Options.WaitSelector, "wait-selector", cfg.WaitSelector, "")
	fs.StringVar(&waitStateStr, "wait-state", cfg.WaitState, "")
	fs.IntVar(&c.Options.SettleDelay, "settle", cfg.SettleDelay, "")
	fs.IntVar(&c.Options.DelayBetweenCapture, "delay", cfg.DelayBetweenCapture, "")

	// BEHAVIOR
	// Both default true and assertable only, matching the tool's documented
	// flag wiring. The config file is the supported way to turn them off.
	fs.BoolVar(&c.Options.DisableAnimations, "no-animations", cfg.DisableAnimations, "")
	fs.BoolVar(&c.Options.BlockAds, "no-ads", cfg.BlockAds, "")
	fs.StringVar(&c.Options.Engine, "engine", cfg.Engine, "")
	fs.StringVar(&c.Options.UserAgent, "user-agent", cfg.UserAgent, "")
	fs.StringVar(&c.Options.UserAgent, "ua", cfg.UserAgent, "")
	fs.StringVar(&c.Excludes, "exclude", strings.Join(cfg.Excludes, ","), "")
	fs.BoolVar(&c.Options.SkipDuplicates, "skip-duplicates", cfg.SkipDuplicates, "")
	fs.IntVar(&c.Options.DuplicateThreshold, "duplicate-threshold", cfg.DuplicateThreshold, "")
	fs.StringVar(&c.History, "history", cfg.HistoryPath, "")
	fs.StringVar(&c.Config, "config", "", "")

	fs.BoolVar(&c.Silence, "silence", false, "")
	fs.BoolVar(&c.Silence, "s", false, "")
	fs.BoolVar(&c.Verbose, "verbose", false, "")
	fs.BoolVar(&c.Verbose, "v", false, "")
	fs.BoolVar(&c.Version, "version", false, "")
	fs.BoolVar(&c.Help, "help", false, "")
	fs.BoolVar(&c.Help, "h", false, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch screeny.Format(formatStr) {
	case screeny.FormatPNG, screeny.FormatJPEG:
	default:
		return nil, fmt.Errorf("format must be png or jpeg, got %q", formatStr)
	}
	switch screeny.WaitState(waitStateStr) {
	case screeny.WaitLoad, screeny.WaitDOMContentLoaded, screeny.WaitNetworkIdle:
	default:
		return nil, fmt.Errorf("wait-state must be load, domcontentloaded or networkidle, got %q", waitStateStr)
	}

	c.Options.Format = screeny.Format(formatStr)
	c.Options.WaitState = screeny.WaitState(waitStateStr)
	c.Options.FullPage = !viewportOnly
	c.Options.ScrollStepDelay = cfg.ScrollStepDelay
	c.Options.ScrollSettleDelay = cfg.ScrollSettleDelay
	c.Options.IdleQuietPeriod = cfg.IdleQuietPeriod

	return c, nil
}
