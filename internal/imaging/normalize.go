// Package imaging fits reference images onto the fixed canvas sent to the
// analysis and generation capabilities.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strconv"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"garmentedit/internal/domain"
)

// MIMEPNG is the format of every normalized image.
const MIMEPNG = "image/png"

var padColor = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// Normalizer decodes arbitrary raster input and letterboxes it onto a white canvas.
type Normalizer struct {
	scaler draw.Scaler
}

// NewNormalizer returns a Normalizer using Catmull-Rom resampling.
func NewNormalizer() *Normalizer {
	return &Normalizer{scaler: draw.CatmullRom}
}

// ParseSize parses a "WxH" canvas size such as "1024x1024".
func ParseSize(value string) (int, int, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(value)), "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: image size %q must look like WIDTHxHEIGHT", domain.ErrConfig, value)
	}
	w, errW := strconv.Atoi(strings.TrimSpace(parts[0]))
	h, errH := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("%w: image size %q must use positive integers", domain.ErrConfig, value)
	}
	return w, h, nil
}

// Normalize fits raw into a width x height canvas preserving aspect ratio, pads the
// remainder with opaque white and encodes the result as an RGBA PNG, even when every
// pixel is opaque.
func (n *Normalizer) Normalize(raw []byte, width, height int) (*domain.NormalizedImage, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: target size %dx%d must be positive", domain.ErrConfig, width, height)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty image", domain.ErrDecode)
	}
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	bounds := src.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("%w: image has no pixels", domain.ErrDecode)
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(padColor), image.Point{}, draw.Src)
	target := containRect(bounds.Dx(), bounds.Dy(), width, height)
	scaler := n.scaler
	if scaler == nil {
		scaler = draw.CatmullRom
	}
	scaler.Scale(canvas, target, src, bounds, draw.Src, nil)

	var buf bytes.Buffer
	if err := encodeRGBA(&buf, canvas); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return &domain.NormalizedImage{
		Data:        buf.Bytes(),
		Width:       width,
		Height:      height,
		MIME:        MIMEPNG,
		PixelFormat: domain.PixelFormatRGBA8,
	}, nil
}

// containRect returns the centered rectangle a srcW x srcH image occupies when scaled
// to fit inside dstW x dstH.
func containRect(srcW, srcH, dstW, dstH int) image.Rectangle {
	w, h := dstW, dstH
	if srcW*dstH > srcH*dstW {
		h = max(1, srcH*dstW/srcW)
	} else {
		w = max(1, srcW*dstH/srcH)
	}
	x := (dstW - w) / 2
	y := (dstH - h) / 2
	return image.Rect(x, y, x+w, y+h)
}
