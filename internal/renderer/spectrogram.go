// Package renderer exports mel spectrograms as PNG images.
package renderer

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"

	"github.com/linuxmatters/melcap/internal/feature"
)

// Layout defaults
const (
	DefaultPlotWidth  = 1000
	DefaultPlotHeight = 400
	DefaultTitle      = "Mel Spectrogram"

	marginLeft   = 80
	marginRight  = 100
	marginTop    = 50
	marginBottom = 50
	barWidth     = 20
	barGap       = 15
	tickLength   = 5
	labelSize    = 13.0
	titleSize    = 22.0
)

var (
	backgroundColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	axisColor       = color.RGBA{R: 40, G: 40, B: 40, A: 255}
)

// mel axis ticks in Hz, the same ones a mel-scaled display labels
var freqTicks = []float64{0, 512, 1024, 2048, 4096, 8192, 16384}

// Options controls the rendered image.
type Options struct {
	Title string
	// Plot area size in pixels; zero uses the defaults.
	PlotWidth  int
	PlotHeight int
}

func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = DefaultTitle
	}
	if o.PlotWidth <= 0 {
		o.PlotWidth = DefaultPlotWidth
	}
	if o.PlotHeight <= 0 {
		o.PlotHeight = DefaultPlotHeight
	}
	return o
}

// RenderSpectrogram draws m with a title, time and mel-frequency axes and a
// decibel colour bar. Low bands are at the bottom. An empty matrix renders
// as a blank plot.
func RenderSpectrogram(m *feature.Matrix, opts Options) (*image.RGBA, error) {
	if m == nil {
		return nil, errors.New("render: nil spectrogram")
	}
	opts = opts.withDefaults()

	width := marginLeft + opts.PlotWidth + barGap + barWidth + marginRight
	height := marginTop + opts.PlotHeight + marginBottom
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, draw.Src)

	plot := image.Rect(marginLeft, marginTop, marginLeft+opts.PlotWidth, marginTop+opts.PlotHeight)
	bar := image.Rect(plot.Max.X+barGap, plot.Min.Y, plot.Max.X+barGap+barWidth, plot.Max.Y)

	drawPlot(img, plot, m)
	drawColorBar(img, bar)

	labels, err := newFace(labelSize)
	if err != nil {
		return nil, err
	}
	defer labels.Close()

	drawTimeAxis(img, labels, plot, m)
	drawFreqAxis(img, labels, plot, m)
	drawBarAxis(img, labels, bar, m.FloorDB)

	titleFace, err := newFace(fitFontSize(opts.Title, titleSize, width-40))
	if err != nil {
		return nil, err
	}
	defer titleFace.Close()
	drawText(img, titleFace, axisColor, opts.Title, width/2, marginTop-18, alignCenter)

	return img, nil
}

// drawPlot colours one pixel per cell, then scales into the plot area.
func drawPlot(img *image.RGBA, plot image.Rectangle, m *feature.Matrix) {
	if m.Empty() || m.Bands == 0 {
		draw.Draw(img, plot, image.NewUniform(Colormap(0)), image.Point{}, draw.Src)
		drawFrame(img, plot)
		return
	}

	cells := image.NewRGBA(image.Rect(0, 0, m.Frames, m.Bands))
	for b := 0; b < m.Bands; b++ {
		y := m.Bands - 1 - b
		for f := 0; f < m.Frames; f++ {
			cells.SetRGBA(f, y, Colormap(dbToUnit(m.Data[b][f], m.FloorDB)))
		}
	}
	draw.NearestNeighbor.Scale(img, plot, cells, cells.Bounds(), draw.Src, nil)
	drawFrame(img, plot)
}

func drawColorBar(img *image.RGBA, bar image.Rectangle) {
	h := bar.Dy()
	for y := 0; y < h; y++ {
		c := Colormap(1 - float64(y)/float64(h-1))
		for x := bar.Min.X; x < bar.Max.X; x++ {
			img.SetRGBA(x, bar.Min.Y+y, c)
		}
	}
	drawFrame(img, bar)
}

func drawFrame(img *image.RGBA, r image.Rectangle) {
	for x := r.Min.X - 1; x <= r.Max.X; x++ {
		img.SetRGBA(x, r.Min.Y-1, axisColor)
		img.SetRGBA(x, r.Max.Y, axisColor)
	}
	for y := r.Min.Y - 1; y <= r.Max.Y; y++ {
		img.SetRGBA(r.Min.X-1, y, axisColor)
		img.SetRGBA(r.Max.X, y, axisColor)
	}
}

func hTick(img *image.RGBA, x, y, length int) {
	step := 1
	if length < 0 {
		step, length = -1, -length
	}
	for i := 0; i < length; i++ {
		img.SetRGBA(x+i*step, y, axisColor)
	}
}

func vTick(img *image.RGBA, x, y int) {
	for i := 0; i < tickLength; i++ {
		img.SetRGBA(x, y+i, axisColor)
	}
}

// drawTimeAxis labels whole seconds (or fractions for short clips).
func drawTimeAxis(img *image.RGBA, face font.Face, plot image.Rectangle, m *feature.Matrix) {
	total := m.Duration()
	drawText(img, face, axisColor, "Time", plot.Min.X+plot.Dx()/2, plot.Max.Y+2*tickLength+2*textHeight(face)+4, alignCenter)
	if total <= 0 {
		return
	}

	step := time.Second
	for total/step > 10 {
		step *= 2
	}
	for total/step < 2 && step > 100*time.Millisecond {
		step /= 2
	}

	for t := time.Duration(0); t <= total; t += step {
		x := plot.Min.X + int(float64(plot.Dx())*float64(t)/float64(total))
		if x >= plot.Max.X {
			x = plot.Max.X - 1
		}
		vTick(img, x, plot.Max.Y+1)
		drawText(img, face, axisColor, formatSeconds(t), x, plot.Max.Y+tickLength+textHeight(face)+3, alignCenter)
	}
}

func formatSeconds(t time.Duration) string {
	s := t.Seconds()
	if s == math.Trunc(s) {
		return fmt.Sprintf("%.0fs", s)
	}
	return fmt.Sprintf("%.1fs", s)
}

// drawFreqAxis places a tick at the band whose centre is nearest each
// labelled frequency.
func drawFreqAxis(img *image.RGBA, face font.Face, plot image.Rectangle, m *feature.Matrix) {
	drawText(img, face, axisColor, "Hz", plot.Min.X-tickLength-4, plot.Min.Y-6, alignRight)
	if len(m.BandHz) == 0 {
		return
	}

	nyquist := float64(m.SampleRate) / 2
	rowHeight := float64(plot.Dy()) / float64(len(m.BandHz))
	for _, hz := range freqTicks {
		if hz > nyquist {
			break
		}
		band := nearestBand(m.BandHz, hz)
		y := plot.Max.Y - int((float64(band)+0.5)*rowHeight)
		hTick(img, plot.Min.X-2, y, -tickLength)
		drawText(img, face, axisColor, fmt.Sprintf("%.0f", hz), plot.Min.X-tickLength-4, y+textHeight(face)/2, alignRight)
	}
}

func nearestBand(centers []float64, hz float64) int {
	best := 0
	for i, c := range centers {
		if math.Abs(c-hz) < math.Abs(centers[best]-hz) {
			best = i
		}
	}
	return best
}

// drawBarAxis labels the colour bar every 10 dB from 0 down to floor.
func drawBarAxis(img *image.RGBA, face font.Face, bar image.Rectangle, floor float64) {
	if floor >= 0 {
		return
	}
	for db := 0.0; db >= floor; db -= 10 {
		y := bar.Min.Y + int(float64(bar.Dy()-1)*(db/floor))
		hTick(img, bar.Max.X+1, y, tickLength)
		drawText(img, face, axisColor, fmt.Sprintf("%+.0f dB", db), bar.Max.X+tickLength+4, y+textHeight(face)/2, alignLeft)
	}
}

// SaveSpectrogramPNG renders m and writes it to path.
func SaveSpectrogramPNG(path string, m *feature.Matrix, opts Options) (err error) {
	img, err := RenderSpectrogram(m, opts)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}
