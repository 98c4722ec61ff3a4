package screeny

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/root4loot/goutils/log"
	"github.com/ysmood/gson"
)

// rodEngine is the go-rod backend. Same contract as chromedpEngine: one
// browser for the engine lifetime, a fresh page per capture.
type rodEngine struct {
	opts      *Options
	blocklist *Blocklist
	browser   *rod.Browser
	launch    *launcher.Launcher
}

func newRodEngine(opts *Options, blocklist *Blocklist) (*rodEngine, error) {
	path, _ := launcher.LookPath()

	l := launcher.New().
		Headless(true).
		Bin(path).
		NoSandbox(true)
	l.Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("hide-scrollbars").
		Set("mute-audio")
	if opts.UserAgent != "" {
		l.Set("user-agent", opts.UserAgent)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	return &rodEngine{
		opts:      opts,
		blocklist: blocklist,
		browser:   browser,
		launch:    l,
	}, nil
}

func (e *rodEngine) Name() string { return EngineRod }

func (e *rodEngine) Close() error {
	err := e.browser.Close()
	e.launch.Cleanup()
	return err
}

func (e *rodEngine) Capture(ctx context.Context, rawURL string) ([]byte, error) {
	runCtx, cancel := context.WithTimeout(ctx, e.opts.captureBudget())
	defer cancel()

	p, err := e.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer p.Close()
	p = p.Context(runCtx)

	if e.opts.ViewportWidth != 0 && e.opts.ViewportHeight != 0 {
		viewport := &proto.EmulationSetDeviceMetricsOverride{
			Width:             e.opts.ViewportWidth,
			Height:            e.opts.ViewportHeight,
			DeviceScaleFactor: e.opts.Scale,
			Mobile:            e.opts.Mobile,
		}
		if err := p.SetViewport(viewport); err != nil {
			return nil, fmt.Errorf("set viewport: %w", err)
		}
	}

	if e.opts.UserAgent != "" {
		if err := p.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: e.opts.UserAgent}); err != nil {
			return nil, fmt.Errorf("set user-agent: %w", err)
		}
	}

	if e.opts.BlockAds {
		router := p.HijackRequests()
		if err := router.Add("*", "", e.hijack); err != nil {
			return nil, fmt.Errorf("install request hook: %w", err)
		}
		go router.Run()
		defer func() { _ = router.Stop() }()
	}

	if e.opts.DisableAnimations {
		if _, err := p.EvalOnNewDocument(invokeScript(disableAnimationsScript)); err != nil {
			return nil, fmt.Errorf("install animation guard: %w", err)
		}
	}

	if err := e.navigate(runCtx, p, rawURL); err != nil {
		return nil, err
	}

	if e.opts.WaitSelector != "" {
		selCtx, cancelSel := context.WithTimeout(runCtx, e.opts.waitTimeout())
		_, err := p.Context(selCtx).Element(e.opts.WaitSelector)
		cancelSel()
		if err != nil {
			return nil, fmt.Errorf("wait for selector %q: %w", e.opts.WaitSelector, err)
		}
	}

	if err := sleepCtx(runCtx, time.Duration(e.opts.SettleDelay)*time.Millisecond); err != nil {
		return nil, err
	}

	if _, err := p.Eval(scrollToBottomScript(e.opts.ScrollStepDelay)); err != nil {
		return nil, fmt.Errorf("scroll page: %w", err)
	}
	p.WaitRequestIdle(e.opts.quietPeriod(), nil, nil, nil)()
	if _, err := p.Eval(scrollToTopScript); err != nil {
		return nil, fmt.Errorf("scroll to top: %w", err)
	}
	if err := sleepCtx(runCtx, time.Duration(e.opts.ScrollSettleDelay)*time.Millisecond); err != nil {
		return nil, err
	}

	req := &proto.PageCaptureScreenshot{Format: proto.PageCaptureScreenshotFormatPng}
	if e.opts.Format == FormatJPEG {
		req.Format = proto.PageCaptureScreenshotFormatJpeg
		if e.opts.Quality > 0 {
			req.Quality = gson.Int(e.opts.Quality)
		}
	}

	buf, err := p.Screenshot(e.opts.FullPage, req)
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("timeout exceeded: %w", err)
		}
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return buf, nil
}

// navigate loads the URL and waits for the configured load state, bounded by
// the wait timeout.
func (e *rodEngine) navigate(ctx context.Context, p *rod.Page, rawURL string) error {
	waitCtx, cancel := context.WithTimeout(ctx, e.opts.waitTimeout())
	defer cancel()
	wp := p.Context(waitCtx)

	switch e.opts.WaitState {
	case WaitDOMContentLoaded:
		wait := wp.WaitEvent(&proto.PageDomContentEventFired{})
		if err := wp.Navigate(rawURL); err != nil {
			return fmt.Errorf("navigate: %w", err)
		}
		wait()
	case WaitNetworkIdle:
		waitIdle := wp.WaitRequestIdle(e.opts.quietPeriod(), nil, nil, nil)
		if err := wp.Navigate(rawURL); err != nil {
			return fmt.Errorf("navigate: %w", err)
		}
		if err := wp.WaitLoad(); err != nil {
			return fmt.Errorf("wait for load: %w", err)
		}
		waitIdle()
	default:
		if err := wp.Navigate(rawURL); err != nil {
			return fmt.Errorf("navigate: %w", err)
		}
		if err := wp.WaitLoad(); err != nil {
			return fmt.Errorf("wait for load: %w", err)
		}
	}

	if waitCtx.Err() != nil {
		return fmt.Errorf("timed out waiting for %s: %w", e.opts.WaitState, waitCtx.Err())
	}
	return nil
}

func (e *rodEngine) hijack(h *rod.Hijack) {
	reqURL := h.Request.URL().String()
	if e.blocklist.Blocked(reqURL) {
		log.Debugf("Blocking request to %s", reqURL)
		h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
		return
	}
	h.ContinueRequest(&proto.FetchContinueRequest{})
}
