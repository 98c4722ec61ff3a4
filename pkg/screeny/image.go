package screeny

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/url"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// pageOrigin reduces a URL to scheme://host, dropping the default port for
// the scheme.
func pageOrigin(rawURL string) (string, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return "", fmt.Errorf("no origin in %q", rawURL)
	}

	host := parsedURL.Host
	if hostOnly, port, ok := strings.Cut(host, ":"); ok {
		if (parsedURL.Scheme == "http" && port == "80") || (parsedURL.Scheme == "https" && port == "443") {
			host = hostOnly
		}
	}
	return parsedURL.Scheme + "://" + host, nil
}

// imprintOrigin draws the page origin in a white footer strip under the
// screenshot and re-encodes it in the configured format.
func imprintOrigin(imgBytes []byte, rawURL string, format Format) ([]byte, error) {
	printURL, err := pageOrigin(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	const padding = 20
	const borderSize = 1

	w := img.Bounds().Dx()
	h := img.Bounds().Dy() + padding*2 + borderSize
	dc := gg.NewContext(w, h)

	dc.SetColor(color.White)
	dc.Clear()
	dc.DrawImage(img, 0, 0)

	yLine := float64(img.Bounds().Dy())
	dc.SetColor(color.Black)
	dc.DrawLine(0, yLine, float64(w), yLine)
	dc.SetLineWidth(float64(borderSize))
	dc.Stroke()
	dc.SetColor(color.Black)
	dc.SetFontFace(imprintFont())
	dc.DrawStringAnchored(printURL, float64(w)/2, yLine+float64(padding), 0.5, 0.3)

	return encodeImage(dc.Image(), format)
}

func encodeImage(img image.Image, format Format) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case FormatJPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpeg.DefaultQuality})
	default:
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	fontOnce sync.Once
	fontFace font.Face
)

func imprintFont() font.Face {
	fontOnce.Do(func() {
		ttFont, err := truetype.Parse(goregular.TTF)
		if err != nil {
			// goregular.TTF is compiled in; parsing cannot fail at runtime.
			panic(fmt.Sprintf("parse bundled font: %v", err))
		}
		fontFace = truetype.NewFace(ttFont, &truetype.Options{Size: 14})
	})
	return fontFace
}
