package renderer

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

var (
	fontOnce   sync.Once
	parsedFont *truetype.Font
	fontErr    error
)

// loadFont parses the embedded Go Regular font once.
func loadFont() (*truetype.Font, error) {
	fontOnce.Do(func() {
		parsedFont, fontErr = truetype.Parse(goregular.TTF)
		if fontErr != nil {
			fontErr = fmt.Errorf("failed to parse font: %w", fontErr)
		}
	})
	return parsedFont, fontErr
}

// newFace returns a face of the embedded font at size points.
func newFace(size float64) (font.Face, error) {
	f, err := loadFont()
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}

// measureText returns the width and actual bounds of rendered text
// Returns width, and the bounds rectangle (Min.Y is negative for ascent, Max.Y is positive for descent)
func measureText(face font.Face, text string) (int, fixed.Rectangle26_6) {
	d := &font.Drawer{Face: face}
	bounds, _ := d.BoundString(text)
	width := (bounds.Max.X - bounds.Min.X).Ceil()
	return width, bounds
}

// fitFontSize finds the largest size up to maxSize at which text fits in
// maxWidth pixels.
func fitFontSize(text string, maxSize float64, maxWidth int) float64 {
	for size := maxSize; size > 8.0; size -= 1.0 {
		face, err := newFace(size)
		if err != nil {
			return 8.0
		}
		width, _ := measureText(face, text)
		face.Close()
		if width <= maxWidth {
			return size
		}
	}
	return 8.0
}

type align int

const (
	alignLeft align = iota
	alignCenter
	alignRight
)

// drawText draws text with its baseline at y. x is the left edge, centre or
// right edge depending on a.
func drawText(img *image.RGBA, face font.Face, c color.Color, text string, x, y int, a align) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
	}

	width, _ := measureText(face, text)
	switch a {
	case alignCenter:
		x -= width / 2
	case alignRight:
		x -= width
	}

	d.Dot = freetype.Pt(x, y)
	d.DrawString(text)
}

// textHeight returns the ascent of face in pixels, used to centre labels on
// tick marks.
func textHeight(face font.Face) int {
	return face.Metrics().Ascent.Ceil()
}
