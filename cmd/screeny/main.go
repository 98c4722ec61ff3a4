package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/root4loot/goscope"
	"github.com/root4loot/goutils/log"
	"github.com/screenydev/screeny/internal/config"
	"github.com/screenydev/screeny/pkg/history"
	"github.com/screenydev/screeny/pkg/screeny"
	"github.com/screenydev/screeny/pkg/urlloader"
)

func init() {
	log.Init("screeny")
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load(findConfigPath(args, os.Getenv("SCREENY_CONFIG")))
	if err != nil {
		log.Errorf("Error loading config: %v", err)
		return 1
	}

	c, err := parseFlags(cfg, args)
	if err != nil {
		log.Errorf("Error parsing flags: %v", err)
		return 1
	}

	if c.Help {
		fmt.Print(usage)
		return 0
	}
	if c.Version {
		fmt.Println("screeny", version)
		return 0
	}

	setLogLevel(c)

	urls, err := c.collectURLs()
	if err != nil {
		log.Errorf("Error loading URLs: %v", err)
		return 1
	}
	urls = urlloader.ApplyScope(urls, c.scope())

	if len(urls) == 0 {
		log.Error("No valid URLs found")
		fmt.Print(usage)
		return 1
	}

	s, err := screeny.NewWithOptions(c.Options)
	if err != nil {
		log.Errorf("Error starting browser engine: %v", err)
		return 1
	}
	defer s.Close()
	s.Blocklist().Add(cfg.BlockedDomains...)

	var store *history.Store
	if c.History != "" {
		store, err = history.Open(c.History)
		if err != nil {
			log.Errorf("Error opening history database: %v", err)
			return 1
		}
		defer store.Close()
	}

	start := time.Now()
	code := 0
	if len(urls) == 1 {
		code = c.runSingle(s, store, urls[0])
	} else {
		code = c.runBatch(s, store, urls)
	}

	log.Infof("Total time: %.1f seconds", time.Since(start).Seconds())
	return code
}

// runSingle captures one URL. A capture failure aborts the run with exit
// code 1.
func (c *cli) runSingle(s *screeny.Screener, store *history.Store, rawURL string) int {
	ctx := context.Background()
	runID := uuid.NewString()

	filename := screeny.BuildFilename(rawURL, c.Options.NameTemplate, 1, c.Options.Format)
	path := filepath.Join(c.Output, filename)

	result, err := s.CaptureScreenshot(ctx, rawURL)
	if err == nil {
		err = result.Save(path)
	}

	c.record(store, singleRecord(runID, rawURL, path, c.Options, err))

	if err != nil {
		handleCaptureError(rawURL, err)
		log.Error("Screenshot failed")
		return 1
	}

	log.Resultf("Screenshot saved to %s", path)
	return 0
}

// runBatch captures all URLs sequentially and prints a summary. Per-URL
// failures do not affect the exit code.
func (c *cli) runBatch(s *screeny.Screener, store *history.Store, urls []string) int {
	ctx := context.Background()

	summary, err := s.CaptureBatch(ctx, urls, c.Output)
	if err != nil {
		log.Errorf("Error running batch: %v", err)
		return 1
	}

	for _, entry := range summary.Entries {
		c.record(store, history.Record{
			RunID:      summary.RunID,
			URL:        entry.URL,
			OutputPath: entry.OutputPath,
			Format:     string(c.Options.Format),
			Engine:     c.Options.Engine,
			Success:    entry.OK,
			Error:      errorText(entry.Err),
		})
	}

	printSummary(summary)
	return 0
}

func printSummary(summary *screeny.Summary) {
	failed := summary.Failed()

	fmt.Printf("\nBatch results:\n")
	fmt.Printf("  Successful: %d/%d\n", summary.Succeeded(), summary.Total())
	fmt.Printf("  Failed:     %d/%d\n", len(failed), summary.Total())

	if len(failed) > 0 {
		fmt.Printf("\nFailed URLs:\n")
		for _, u := range failed {
			fmt.Printf("  - %s\n", u)
		}
	}
}

// collectURLs gathers targets from --url, --file or piped stdin, in that
// order of precedence. --url and --file are mutually exclusive.
func (c *cli) collectURLs() ([]string, error) {
	if c.URL != "" && c.Infile != "" {
		return nil, fmt.Errorf("--url and --file are mutually exclusive")
	}

	switch {
	case c.URL != "":
		return []string{c.URL}, nil
	case c.Infile != "":
		urls, err := urlloader.Load(c.Infile)
		if err != nil {
			return nil, err
		}
		log.Infof("Loaded %d URLs from %s", len(urls), c.Infile)
		return urls, nil
	case hasStdin():
		var lines []string
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return urlloader.FilterValid(lines), nil
	}

	return nil, fmt.Errorf("no target specified")
}

// scope builds the exclusion scope from --exclude, nil when unset.
func (c *cli) scope() *goscope.Scope {
	if c.Excludes == "" {
		return nil
	}
	scope := goscope.NewScope()
	for _, pattern := range strings.Split(c.Excludes, ",") {
		if pattern = strings.TrimSpace(pattern); pattern != "" {
			scope.AddExclude(pattern)
		}
	}
	return scope
}

// singleRecord builds the history row for a single-URL run. The output path
// is only recorded when a file was actually written.
func singleRecord(runID, rawURL, path string, options *screeny.Options, err error) history.Record {
	rec := history.Record{
		RunID:   runID,
		URL:     rawURL,
		Format:  string(options.Format),
		Engine:  options.Engine,
		Success: err == nil,
		Error:   errorText(err),
	}
	if err == nil {
		rec.OutputPath = path
	}
	return rec
}

func (c *cli) record(store *history.Store, rec history.Record) {
	if store == nil {
		return
	}
	if err := store.Add(context.Background(), rec); err != nil {
		log.Warnf("Error recording capture history: %v", err)
	}
}

func setLogLevel(c *cli) {
	if c.Silence {
		log.SetLevel(log.FatalLevel)
	} else if c.Verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

// hasStdin determines if the user has piped input.
func hasStdin() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}

	mode := stat.Mode()

	isPipedFromChrDev := (mode & os.ModeCharDevice) == 0
	isPipedFromFIFO := (mode & os.ModeNamedPipe) != 0

	return isPipedFromChrDev || isPipedFromFIFO
}
