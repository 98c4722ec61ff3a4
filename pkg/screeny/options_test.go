package screeny

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultOptions(t *testing.T) {
	o := DefaultOptions()

	require.Equal(t, 1920, o.ViewportWidth)
	require.Equal(t, 1080, o.ViewportHeight)
	require.Equal(t, 2.0, o.Scale)
	require.True(t, o.FullPage)
	require.Equal(t, 30000, o.WaitTimeout)
	require.Equal(t, WaitNetworkIdle, o.WaitState)
	require.True(t, o.DisableAnimations)
	require.True(t, o.BlockAds)
	require.Equal(t, FormatPNG, o.Format)
	require.Equal(t, 90, o.Quality)
	require.Equal(t, EngineChromedp, o.Engine)
	require.Equal(t, 2000, o.SettleDelay)
	require.Equal(t, 100, o.ScrollStepDelay)
	require.Equal(t, 500, o.ScrollSettleDelay)
	require.Equal(t, 1000, o.DelayBetweenCapture)
	require.Equal(t, "{domain}_{timestamp}", o.NameTemplate)
}

func TestCaptureBudgetExceedsWaitTimeout(t *testing.T) {
	o := DefaultOptions()
	require.Greater(t, o.captureBudget(), o.waitTimeout())
	require.Equal(t, 30*time.Second, o.waitTimeout())
}

func TestFormatExtension(t *testing.T) {
	require.Equal(t, ".png", FormatPNG.Extension())
	require.Equal(t, ".jpeg", FormatJPEG.Extension())
}
