package screeny

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func testScreenshot(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestImprintOriginAddsFooter(t *testing.T) {
	src := testScreenshot(t, 320, 200)

	out, err := imprintOrigin(src, "https://example.com/login", FormatPNG)
	require.NoError(t, err)

	img, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, "png", format)
	require.Equal(t, 320, img.Bounds().Dx())
	require.Greater(t, img.Bounds().Dy(), 200, "footer strip must extend the image")
}

func TestImprintOriginJPEG(t *testing.T) {
	src := testScreenshot(t, 100, 60)

	out, err := imprintOrigin(src, "https://example.com:443/", FormatJPEG)
	require.NoError(t, err)

	_, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, "jpeg", format)
}

func TestPageOrigin(t *testing.T) {
	cases := []struct {
		rawURL string
		want   string
	}{
		{"https://example.com/some/path?q=1", "https://example.com"},
		{"https://example.com:443/login", "https://example.com"},
		{"http://example.com:80/", "http://example.com"},
		{"https://example.com:8443/admin", "https://example.com:8443"},
		{"http://example.com:8080", "http://example.com:8080"},
	}
	for _, tc := range cases {
		got, err := pageOrigin(tc.rawURL)
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}

	_, err := pageOrigin("not a url at all")
	require.Error(t, err)
}

func TestImprintOriginInvalidImage(t *testing.T) {
	_, err := imprintOrigin([]byte("not an image"), "https://example.com", FormatPNG)
	require.Error(t, err)
}
