package screeny

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/root4loot/goutils/log"
)

func init() {
	log.Init("screeny")
}

// Engine is the browser-automation backend boundary. An engine owns one
// browser process for its lifetime and opens a fresh page per capture.
type Engine interface {
	Name() string
	Capture(ctx context.Context, rawURL string) ([]byte, error)
	Close() error
}

// Screener captures screenshots through a browser automation engine.
type Screener struct {
	Options   *Options
	engine    Engine
	blocklist *Blocklist
	results   []*Result
}

// Result contains the result of a single screenshot capture.
type Result struct {
	TargetURL string
	Image     []byte
	Engine    string
	Elapsed   time.Duration
}

// New creates a Screener with default options.
func New() (*Screener, error) {
	return NewWithOptions(DefaultOptions())
}

// NewWithOptions creates a Screener with the provided options and starts its
// browser engine. Close must be called to release the browser process.
func NewWithOptions(options *Options) (*Screener, error) {
	if options == nil {
		options = DefaultOptions()
	}
	if options.SkipDuplicates && (options.DuplicateThreshold < 1 || options.DuplicateThreshold > 100) {
		return nil, fmt.Errorf("invalid duplicate threshold %d: must be between 1 and 100", options.DuplicateThreshold)
	}

	blocklist := DefaultBlocklist()
	engine, err := newEngine(options, blocklist)
	if err != nil {
		return nil, err
	}

	return &Screener{
		Options:   options,
		engine:    engine,
		blocklist: blocklist,
	}, nil
}

func newEngine(options *Options, blocklist *Blocklist) (Engine, error) {
	switch options.Engine {
	case EngineChromedp, "":
		return newChromedpEngine(options, blocklist)
	case EngineRod:
		return newRodEngine(options, blocklist)
	default:
		return nil, fmt.Errorf("unknown engine %q (available: %s, %s)", options.Engine, EngineChromedp, EngineRod)
	}
}

// Blocklist returns the blocklist consulted when ad blocking is enabled.
// Additional domains may be added before the first capture.
func (s *Screener) Blocklist() *Blocklist {
	return s.blocklist
}

// Close shuts down the browser engine.
func (s *Screener) Close() error {
	return s.engine.Close()
}

// CaptureScreenshot captures a single URL and returns the result. Any failure
// during navigation, waiting, scripting or capture surfaces as an error.
func (s *Screener) CaptureScreenshot(ctx context.Context, rawURL string) (*Result, error) {
	log.Infof("Loading %s", rawURL)

	start := time.Now()
	img, err := s.engine.Capture(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("capture %s: %w", rawURL, err)
	}

	result := &Result{
		TargetURL: rawURL,
		Image:     img,
		Engine:    s.engine.Name(),
		Elapsed:   time.Since(start),
	}

	if s.Options.ImprintURL {
		result.Image, err = imprintOrigin(result.Image, rawURL, s.Options.Format)
		if err != nil {
			return nil, fmt.Errorf("imprint %s: %w", rawURL, err)
		}
	}

	return result, nil
}

// Save writes the captured image to path, creating parent directories.
func (r *Result) Save(path string) error {
	if len(r.Image) == 0 {
		return fmt.Errorf("no image data for %s", r.TargetURL)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return err
		}
	}
	return os.WriteFile(path, r.Image, 0644)
}

// BatchEntry records the outcome for one URL in a batch run.
type BatchEntry struct {
	URL        string
	OutputPath string
	OK         bool
	Skipped    bool // duplicate, captured but not saved
	Err        error
}

// Summary is the ordered outcome of a batch run.
type Summary struct {
	RunID   string
	Entries []BatchEntry
	Elapsed time.Duration
}

// Total returns the number of URLs processed.
func (s *Summary) Total() int {
	return len(s.Entries)
}

// Succeeded returns the number of successful captures.
func (s *Summary) Succeeded() int {
	n := 0
	for _, e := range s.Entries {
		if e.OK {
			n++
		}
	}
	return n
}

// Failed returns the failed URLs in input order.
func (s *Summary) Failed() []string {
	var urls []string
	for _, e := range s.Entries {
		if !e.OK {
			urls = append(urls, e.URL)
		}
	}
	return urls
}

// CaptureBatch captures each URL in order and writes the images to outputDir,
// naming them from Options.NameTemplate. Failures are local to their URL; the
// batch always runs to completion. URLs are processed strictly sequentially
// with Options.DelayBetweenCapture between captures.
func (s *Screener) CaptureBatch(ctx context.Context, urls []string, outputDir string) (*Summary, error) {
	if err := os.MkdirAll(outputDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	summary := &Summary{RunID: uuid.NewString()}
	start := time.Now()

	for i, rawURL := range urls {
		log.Infof("Processing %d/%d: %s", i+1, len(urls), rawURL)

		entry := BatchEntry{URL: rawURL}
		filename := BuildFilename(rawURL, s.Options.NameTemplate, i+1, s.Options.Format)
		path := filepath.Join(outputDir, filename)

		result, err := s.CaptureScreenshot(ctx, rawURL)
		switch {
		case err != nil:
			entry.Err = err
			log.Warnf("Error capturing %s: %v", rawURL, err)
		case s.Options.SkipDuplicates && similarToAny(result, s.results, s.Options.DuplicateThreshold):
			entry.OK = true
			entry.Skipped = true
			log.Infof("Duplicate screenshot for %s, skipping save", rawURL)
		default:
			if err := result.Save(path); err != nil {
				entry.Err = err
				log.Warnf("Error saving %s: %v", rawURL, err)
			} else {
				entry.OK = true
				entry.OutputPath = path
				s.results = append(s.results, result)
				log.Resultf("Screenshot saved to %s", path)
			}
		}

		summary.Entries = append(summary.Entries, entry)

		if i < len(urls)-1 && s.Options.DelayBetweenCapture > 0 {
			if err := sleepCtx(ctx, time.Duration(s.Options.DelayBetweenCapture)*time.Millisecond); err != nil {
				// Context cancelled mid-batch; remaining URLs fail fast
				// through the engine on their own.
				log.Debugf("Batch delay interrupted: %v", err)
			}
		}
	}

	summary.Elapsed = time.Since(start)
	return summary, nil
}

// sleepCtx sleeps for d or until the context is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
