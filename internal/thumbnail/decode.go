// Package thumbnail implements best-effort, cancellable thumbnail prefetch
// for directory entries.
package thumbnail

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	// DefaultSize is the default preview bound in pixels
	DefaultSize = 120

	// MaxPreviewBytes bounds how much of a preview stream is read
	MaxPreviewBytes = 32 << 20
)

// Decode reads an encoded image, rejecting non-image content, and fits it
// within width x height preserving the aspect ratio.
func Decode(r io.Reader, width, height int) (image.Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxPreviewBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read preview: %w", err)
	}

	mtype := mimetype.Detect(data)
	if !IsImageType(mtype.String()) {
		return nil, fmt.Errorf("preview is not an image: %s", mtype.String())
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s preview: %w", mtype.String(), err)
	}

	b := img.Bounds()
	if b.Dx() > width || b.Dy() > height {
		img = imaging.Fit(img, width, height, imaging.Lanczos)
	}
	return img, nil
}

// IsImageType reports whether a MIME type names an image
func IsImageType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "image/")
}

// Placeholder returns the "not found" image assigned when no preview is
// available: a light grey square with a darker border.
func Placeholder(width, height int) image.Image {
	img := imaging.New(width, height, color.NRGBA{R: 0xEE, G: 0xEE, B: 0xEE, A: 0xFF})
	border := color.NRGBA{R: 0xAA, G: 0xAA, B: 0xAA, A: 0xFF}
	for x := 0; x < width; x++ {
		img.Set(x, 0, border)
		img.Set(x, height-1, border)
	}
	for y := 0; y < height; y++ {
		img.Set(0, y, border)
		img.Set(width-1, y, border)
	}
	return img
}
