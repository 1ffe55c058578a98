// Package transform wraps the image codec used by the decision pipeline:
// cheap header probes and the fit-inside resize that re-encodes every raster
// image to the webp wire format.
package transform

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
)

const webpQuality = 80

// Dimensions describes what a header probe learned about an image.
type Dimensions struct {
	Width  int
	Height int
	Format string
}

// Probe inspects the image header without decoding pixel data.  It reports
// false for anything the registered decoders do not recognize, including
// vector formats.
func Probe(data []byte) (Dimensions, bool) {
	config, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Dimensions{}, false
	}
	return Dimensions{Width: config.Width, Height: config.Height, Format: format}, true
}

// Resize scales the image down to fit inside maxWidth x maxHeight while
// preserving the aspect ratio.  Sources already within the box are not
// upscaled.  The result is always re-encoded as webp so that every resized
// response carries a single content type.
func Resize(data []byte, maxWidth, maxHeight int, animated bool) ([]byte, error) {
	img, err := decode(data, animated)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	fitted := imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := webp.Encode(&buf, fitted, &webp.Options{Quality: webpQuality}); err != nil {
		return nil, fmt.Errorf("encoding webp: %w", err)
	}
	return buf.Bytes(), nil
}

// decode is best-effort: an animated GIF is read with DecodeAll so that
// trailing corruption after the first frame does not fail the whole request,
// and anything that path rejects falls through to the generic decoder.
func decode(data []byte, animated bool) (image.Image, error) {
	if animated {
		if g, err := gif.DecodeAll(bytes.NewReader(data)); err == nil && len(g.Image) > 0 {
			return g.Image[0], nil
		}
	}
	return imaging.Decode(bytes.NewReader(data))
}
