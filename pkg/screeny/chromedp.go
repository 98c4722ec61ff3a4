package screeny

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/root4loot/goutils/log"
)

// chromedpEngine drives headless Chrome over CDP via chromedp. One browser
// process is launched per engine and reused; every capture runs in a fresh
// tab that is closed afterwards.
type chromedpEngine struct {
	opts          *Options
	blocklist     *Blocklist
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

func newChromedpEngine(opts *Options, blocklist *Blocklist) (*chromedpEngine, error) {
	flags := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("mute-audio", true),
	)
	if opts.UserAgent != "" {
		flags = append(flags, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), flags...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Run with no actions to start the browser process up front.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	return &chromedpEngine{
		opts:          opts,
		blocklist:     blocklist,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

func (e *chromedpEngine) Name() string { return EngineChromedp }

func (e *chromedpEngine) Close() error {
	e.browserCancel()
	e.allocCancel()
	return nil
}

func (e *chromedpEngine) Capture(ctx context.Context, rawURL string) ([]byte, error) {
	tabCtx, cancelTab := chromedp.NewContext(e.browserCtx)
	defer cancelTab()

	runCtx, cancelRun := context.WithTimeout(tabCtx, e.opts.captureBudget())
	defer cancelRun()
	stop := context.AfterFunc(ctx, cancelRun)
	defer stop()

	watcher := newPageWatcher()
	chromedp.ListenTarget(tabCtx, watcher.listen)
	if e.opts.BlockAds {
		e.interceptRequests(tabCtx)
	}

	var buf []byte
	tasks := chromedp.Tasks{
		e.setupAction(),
		e.navigateAction(rawURL, watcher),
		e.selectorAction(),
		chromedp.Sleep(time.Duration(e.opts.SettleDelay) * time.Millisecond),
		e.lazyLoadAction(watcher),
		e.screenshotAction(&buf),
	}

	if err := chromedp.Run(runCtx, tasks); err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("timeout exceeded: %w", err)
		}
		return nil, err
	}
	return buf, nil
}

// setupAction prepares the fresh tab: CDP domains, viewport emulation and the
// animation guard installed before any document loads.
func (e *chromedpEngine) setupAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if e.opts.BlockAds {
			if err := fetch.Enable().Do(ctx); err != nil {
				return fmt.Errorf("enable fetch domain: %w", err)
			}
		}
		err := emulation.SetDeviceMetricsOverride(
			int64(e.opts.ViewportWidth), int64(e.opts.ViewportHeight),
			e.opts.Scale, e.opts.Mobile,
		).Do(ctx)
		if err != nil {
			return fmt.Errorf("set viewport: %w", err)
		}
		if e.opts.DisableAnimations {
			if _, err := page.AddScriptToEvaluateOnNewDocument(invokeScript(disableAnimationsScript)).Do(ctx); err != nil {
				return fmt.Errorf("install animation guard: %w", err)
			}
		}
		return nil
	})
}

// navigateAction navigates and waits for the configured load state, bounded
// by the wait timeout.
func (e *chromedpEngine) navigateAction(rawURL string, w *pageWatcher) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		_, _, errText, err := page.Navigate(rawURL).Do(ctx)
		if err != nil {
			return fmt.Errorf("navigate: %w", err)
		}
		if errText != "" {
			return fmt.Errorf("navigate: %s", errText)
		}

		waitCtx, cancel := context.WithTimeout(ctx, e.opts.waitTimeout())
		defer cancel()

		switch e.opts.WaitState {
		case WaitDOMContentLoaded:
			return w.waitSignal(waitCtx, w.domReady, string(WaitDOMContentLoaded))
		case WaitNetworkIdle:
			if err := w.waitSignal(waitCtx, w.loaded, string(WaitLoad)); err != nil {
				return err
			}
			return w.waitIdle(waitCtx, e.opts.quietPeriod())
		default:
			return w.waitSignal(waitCtx, w.loaded, string(WaitLoad))
		}
	})
}

func (e *chromedpEngine) selectorAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if e.opts.WaitSelector == "" {
			return nil
		}
		waitCtx, cancel := context.WithTimeout(ctx, e.opts.waitTimeout())
		defer cancel()
		if err := chromedp.WaitVisible(e.opts.WaitSelector, chromedp.ByQuery).Do(waitCtx); err != nil {
			return fmt.Errorf("wait for selector %q: %w", e.opts.WaitSelector, err)
		}
		return nil
	})
}

// lazyLoadAction scrolls to the bottom in viewport steps to trigger
// lazy-loaded content, waits for the network to go quiet, then returns to the
// top and lets the page settle.
func (e *chromedpEngine) lazyLoadAction(w *pageWatcher) chromedp.Action {
	awaitPromise := func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	}
	return chromedp.Tasks{
		chromedp.Evaluate(invokeScript(scrollToBottomScript(e.opts.ScrollStepDelay)), nil, awaitPromise),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return w.waitIdle(ctx, e.opts.quietPeriod())
		}),
		chromedp.Evaluate(invokeScript(scrollToTopScript), nil),
		chromedp.Sleep(time.Duration(e.opts.ScrollSettleDelay) * time.Millisecond),
	}
}

func (e *chromedpEngine) screenshotAction(buf *[]byte) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		params := page.CaptureScreenshot()
		switch e.opts.Format {
		case FormatJPEG:
			params = params.WithFormat(page.CaptureScreenshotFormatJpeg)
			if e.opts.Quality > 0 {
				params = params.WithQuality(int64(e.opts.Quality))
			}
		default:
			params = params.WithFormat(page.CaptureScreenshotFormatPng)
		}
		if e.opts.FullPage {
			params = params.WithCaptureBeyondViewport(true)
		}

		var err error
		*buf, err = params.Do(ctx)
		if err != nil {
			return fmt.Errorf("capture screenshot: %w", err)
		}
		return nil
	})
}

// interceptRequests pauses every request through the Fetch domain and aborts
// the ones matching the blocklist.
func (e *chromedpEngine) interceptRequests(tabCtx context.Context) {
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		paused, ok := ev.(*fetch.EventRequestPaused)
		if !ok {
			return
		}
		go func() {
			c := chromedp.FromContext(tabCtx)
			execCtx := cdp.WithExecutor(tabCtx, c.Target)
			if e.blocklist.Blocked(paused.Request.URL) {
				log.Debugf("Blocking request to %s", paused.Request.URL)
				_ = fetch.FailRequest(paused.RequestID, network.ErrorReasonBlockedByClient).Do(execCtx)
				return
			}
			_ = fetch.ContinueRequest(paused.RequestID).Do(execCtx)
		}()
	})
}

// pageWatcher tracks page lifecycle events and in-flight requests for a
// single tab. Load-state waits and the network-idle heuristic read from it.
type pageWatcher struct {
	mu       sync.Mutex
	inflight map[network.RequestID]struct{}
	last     time.Time

	domReady chan struct{}
	loaded   chan struct{}
	domOnce  sync.Once
	loadOnce sync.Once
}

func newPageWatcher() *pageWatcher {
	return &pageWatcher{
		inflight: make(map[network.RequestID]struct{}),
		last:     time.Now(),
		domReady: make(chan struct{}),
		loaded:   make(chan struct{}),
	}
}

func (w *pageWatcher) listen(ev interface{}) {
	switch ev := ev.(type) {
	case *page.EventDomContentEventFired:
		w.domOnce.Do(func() { close(w.domReady) })
	case *page.EventLoadEventFired:
		w.loadOnce.Do(func() { close(w.loaded) })
	case *network.EventRequestWillBeSent:
		w.track(ev.RequestID, true)
	case *network.EventLoadingFinished:
		w.track(ev.RequestID, false)
	case *network.EventLoadingFailed:
		w.track(ev.RequestID, false)
	}
}

func (w *pageWatcher) track(id network.RequestID, start bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if start {
		w.inflight[id] = struct{}{}
	} else {
		delete(w.inflight, id)
	}
	w.last = time.Now()
}

func (w *pageWatcher) waitSignal(ctx context.Context, ch <-chan struct{}, state string) error {
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for %s: %w", state, ctx.Err())
	}
}

// waitIdle blocks until there have been no in-flight requests for quiet, or
// the context expires.
func (w *pageWatcher) waitIdle(ctx context.Context, quiet time.Duration) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		w.mu.Lock()
		idle := len(w.inflight) == 0 && time.Since(w.last) >= quiet
		w.mu.Unlock()
		if idle {
			return nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for network idle: %w", ctx.Err())
		}
	}
}
