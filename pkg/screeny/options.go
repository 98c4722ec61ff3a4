package screeny

import "time"

// Format is the raster image type written to disk.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

// Extension returns the filename extension for the format.
func (f Format) Extension() string {
	return "." + string(f)
}

// WaitState is the load state waited for after navigation.
type WaitState string

const (
	WaitLoad             WaitState = "load"
	WaitDOMContentLoaded WaitState = "domcontentloaded"
	WaitNetworkIdle      WaitState = "networkidle"
)

// Engine names accepted by Options.Engine.
const (
	EngineChromedp = "chromedp"
	EngineRod      = "rod"
)

// Options contains options for the screener. The record is read-only once a
// Screener has been created from it.
type Options struct {
	ViewportWidth     int       // viewport width in CSS pixels
	ViewportHeight    int       // viewport height in CSS pixels
	Scale             float64   // device scale factor
	Mobile            bool      // emulate a mobile device
	FullPage          bool      // capture the entire scrollable document
	WaitTimeout       int       // navigation/selector wait timeout (milliseconds)
	WaitSelector      string    // CSS selector to wait for before capturing
	WaitState         WaitState // load state waited for after navigation
	DisableAnimations bool      // collapse CSS animation/transition durations
	BlockAds          bool      // abort requests to known ad/tracking domains
	Format            Format    // output image format
	Quality           int       // JPEG quality (1-100), ignored for PNG
	UserAgent         string    // custom user agent, empty for browser default
	Engine            string    // browser automation backend

	// Lazy-load heuristic knobs. Defaults: 2s settle, 100ms scroll steps,
	// 0.5s after scrolling back to the top.
	SettleDelay       int // wait after load state is reached (milliseconds)
	ScrollStepDelay   int // delay between incremental scroll steps (milliseconds)
	ScrollSettleDelay int // wait after scrolling back to top (milliseconds)
	IdleQuietPeriod   int // network quiet period treated as idle (milliseconds)

	DelayBetweenCapture int    // pause between batch captures (milliseconds)
	NameTemplate        string // output filename template

	ImprintURL         bool // draw the page origin under the image
	SkipDuplicates     bool // skip saving near-identical captures
	DuplicateThreshold int  // ssdeep similarity score treated as duplicate (1-100)
}

func (o *Options) waitTimeout() time.Duration {
	return time.Duration(o.WaitTimeout) * time.Millisecond
}

func (o *Options) quietPeriod() time.Duration {
	return time.Duration(o.IdleQuietPeriod) * time.Millisecond
}

// captureBudget bounds a whole capture: the wait timeout plus the settle
// delays plus a fixed margin for scrolling, idle waits and the screenshot
// itself. Keeps a stalled post-load phase from hanging the batch.
func (o *Options) captureBudget() time.Duration {
	ms := o.WaitTimeout + o.SettleDelay + o.ScrollSettleDelay
	return time.Duration(ms)*time.Millisecond + 30*time.Second
}

// DefaultOptions returns default options.
func DefaultOptions() *Options {
	return &Options{
		ViewportWidth:       1920,
		ViewportHeight:      1080,
		Scale:               2.0,
		FullPage:            true,
		WaitTimeout:         30000,
		WaitState:           WaitNetworkIdle,
		DisableAnimations:   true,
		BlockAds:            true,
		Format:              FormatPNG,
		Quality:             90,
		Engine:              EngineChromedp,
		SettleDelay:         2000,
		ScrollStepDelay:     100,
		ScrollSettleDelay:   500,
		IdleQuietPeriod:     500,
		DelayBetweenCapture: 1000,
		NameTemplate:        "{domain}_{timestamp}",
	}
}
