package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/screenydev/screeny/internal/config"
	"github.com/screenydev/screeny/pkg/screeny"
	"github.com/stretchr/testify/require"
)

func defaultConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func TestParseFlagsDefaults(t *testing.T) {
	c, err := parseFlags(defaultConfig(t), []string{"-u", "https://example.com"})
	require.NoError(t, err)

	require.Equal(t, "https://example.com", c.URL)
	require.Equal(t, "./screenshots", c.Output)
	require.Equal(t, screeny.FormatPNG, c.Options.Format)
	require.Equal(t, screeny.WaitNetworkIdle, c.Options.WaitState)
	require.Equal(t, 1920, c.Options.ViewportWidth)
	require.Equal(t, 1080, c.Options.ViewportHeight)
	require.Equal(t, 2.0, c.Options.Scale)
	require.True(t, c.Options.FullPage)
	require.True(t, c.Options.DisableAnimations)
	require.True(t, c.Options.BlockAds)
	require.Equal(t, screeny.EngineChromedp, c.Options.Engine)
}

func TestParseFlagsOverrides(t *testing.T) {
	c, err := parseFlags(defaultConfig(t), []string{
		"--url", "https://example.com",
		"--output", "/tmp/shots",
		"--format", "jpeg",
		"--quality", "70",
		"--width", "1280",
		"--height", "720",
		"--scale", "1.0",
		"--wait-state", "load",
		"--wait-timeout", "5000",
		"--viewport-only",
		"--engine", "rod",
		"-ua", "screeny-test/1.0",
		"--exclude", "staging.example.com,internal.example.com",
		"--template", "{index}_{domain}",
	})
	require.NoError(t, err)

	require.Equal(t, "/tmp/shots", c.Output)
	require.Equal(t, screeny.FormatJPEG, c.Options.Format)
	require.Equal(t, 70, c.Options.Quality)
	require.Equal(t, 1280, c.Options.ViewportWidth)
	require.Equal(t, 720, c.Options.ViewportHeight)
	require.Equal(t, 1.0, c.Options.Scale)
	require.Equal(t, screeny.WaitLoad, c.Options.WaitState)
	require.Equal(t, 5000, c.Options.WaitTimeout)
	require.False(t, c.Options.FullPage)
	require.Equal(t, screeny.EngineRod, c.Options.Engine)
	require.Equal(t, "screeny-test/1.0", c.Options.UserAgent)
	require.Equal(t, "staging.example.com,internal.example.com", c.Excludes)
	require.Equal(t, "{index}_{domain}", c.Options.NameTemplate)
}

func TestParseFlagsConfigSeedsDefaults(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Format = "jpeg"
	cfg.Width = 800
	cfg.Excludes = []string{"drop.example.com"}

	c, err := parseFlags(cfg, []string{"-u", "https://example.com"})
	require.NoError(t, err)

	require.Equal(t, screeny.FormatJPEG, c.Options.Format)
	require.Equal(t, 800, c.Options.ViewportWidth)
	require.Equal(t, "drop.example.com", c.Excludes)
}

func TestParseFlagsRejectsInvalidEnums(t *testing.T) {
	cfg := defaultConfig(t)

	_, err := parseFlags(cfg, []string{"-u", "https://example.com", "--format", "gif"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "format must be png or jpeg")

	_, err = parseFlags(cfg, []string{"-u", "https://example.com", "--wait-state", "bogus"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "wait-state must be load, domcontentloaded or networkidle")

	_, err = parseFlags(cfg, []string{"-u", "https://example.com", "--format", "gif", "--wait-state", "bogus"})
	require.Error(t, err)
}

func TestSingleRecordOutputPath(t *testing.T) {
	options := screeny.DefaultOptions()

	rec := singleRecord("run-1", "https://example.com", "/tmp/shot.png", options, nil)
	require.True(t, rec.Success)
	require.Equal(t, "/tmp/shot.png", rec.OutputPath)
	require.Empty(t, rec.Error)

	rec = singleRecord("run-1", "https://example.com", "/tmp/shot.png", options, errors.New("timeout exceeded"))
	require.False(t, rec.Success)
	require.Empty(t, rec.OutputPath, "no file is written on failure")
	require.Equal(t, "timeout exceeded", rec.Error)
}

func TestFindConfigPath(t *testing.T) {
	require.Equal(t, "a.yaml", findConfigPath([]string{"--config", "a.yaml"}, ""))
	require.Equal(t, "b.yaml", findConfigPath([]string{"-u", "https://example.com", "--config=b.yaml"}, ""))
	require.Equal(t, "c.yaml", findConfigPath([]string{"-config", "c.yaml"}, ""))
	require.Equal(t, "env.yaml", findConfigPath([]string{"-u", "https://example.com"}, "env.yaml"))
	require.Equal(t, "", findConfigPath(nil, ""))
}

func TestCollectURLsMutuallyExclusive(t *testing.T) {
	c := &cli{URL: "https://example.com", Infile: "urls.txt"}
	_, err := c.collectURLs()
	require.Error(t, err)
	require.Contains(t, err.Error(), "mutually exclusive")
}

func TestCollectURLsSingle(t *testing.T) {
	c := &cli{URL: "https://example.com"}
	urls, err := c.collectURLs()
	require.NoError(t, err)
	require.Equal(t, []string{"https://example.com"}, urls)
}

func TestCollectURLsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	require.NoError(t, os.WriteFile(path, []byte("https://example.com\nhttps://example.org\n"), 0644))

	c := &cli{Infile: path}
	urls, err := c.collectURLs()
	require.NoError(t, err)
	require.Equal(t, []string{"https://example.com", "https://example.org"}, urls)
}

func TestScope(t *testing.T) {
	c := &cli{}
	require.Nil(t, c.scope())

	c.Excludes = "staging.example.com, , internal.example.com"
	scope := c.scope()
	require.NotNil(t, scope)
	require.True(t, scope.IsTargetExcluded("https://staging.example.com"))
	require.True(t, scope.IsTargetExcluded("https://internal.example.com"))
	require.False(t, scope.IsTargetExcluded("https://example.com"))
}

func TestErrorClassification(t *testing.T) {
	require.True(t, isDNSError(errors.New("page load error net::ERR_NAME_NOT_RESOLVED")))
	require.True(t, isDNSError(fmt.Errorf("capture: %w", errors.New("lookup example.invalid: no such host"))))
	require.False(t, isDNSError(errors.New("connection refused")))
	require.False(t, isDNSError(nil))

	require.True(t, isTimeoutError(context.DeadlineExceeded))
	require.True(t, isTimeoutError(fmt.Errorf("capture: %w", context.DeadlineExceeded)))
	require.True(t, isTimeoutError(errors.New("timeout exceeded while loading page")))
	require.False(t, isTimeoutError(errors.New("connection refused")))
	require.False(t, isTimeoutError(nil))
}

func TestUnwrapError(t *testing.T) {
	root := errors.New("root cause")
	wrapped := fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", root))
	require.Equal(t, "root cause", unwrapError(wrapped))
}

func TestErrorText(t *testing.T) {
	require.Equal(t, "", errorText(nil))
	require.Equal(t, "boom", errorText(errors.New("boom")))
}
