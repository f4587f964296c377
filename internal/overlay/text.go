package overlay

import (
	"image"
	"image/color"
	"math"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
)

// TextLayer is the caption: a pre-rasterized box spanning the frame width
// that pulses about its center.
type TextLayer struct {
	Frame image.Rectangle // box in frame coordinates, top-left origin
	Pulse Pulse

	content *image.RGBA
}

func newTextLayer(c Caption, size image.Point, fm *FontManager) (*TextLayer, error) {
	fill, err := ParseColor(c.Color)
	if err != nil {
		return nil, err
	}
	stroke, err := ParseColor(c.StrokeColor)
	if err != nil {
		return nil, err
	}

	boxH := int(math.Round(c.BoxHeight))
	top := int(math.Round(float64(size.Y) - c.Position*float64(size.Y) - c.BoxHeight))
	frame := image.Rect(0, top, size.X, top+boxH)

	face, err := fm.GetFace(c.FontSize)
	if err != nil {
		return nil, err
	}
	defer face.Close()

	content := image.NewRGBA(image.Rect(0, 0, frame.Dx(), frame.Dy()))
	radius := int(math.Ceil(math.Abs(c.StrokeWidth) * c.FontSize / 100))

	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil()
	baseline := metrics.Ascent.Ceil() + radius

	for _, line := range strings.Split(c.Text, "\n") {
		width := font.MeasureString(face, line).Ceil()
		x := (frame.Dx() - width) / 2

		if radius > 0 {
			drawStroke(content, face, line, x, baseline, radius, stroke)
		}
		if c.StrokeWidth <= 0 {
			drawLine(content, face, line, x, baseline, fill)
		}
		baseline += lineHeight
	}

	return &TextLayer{Frame: frame, Pulse: c.Pulse, content: content}, nil
}

func drawLine(dst *image.RGBA, face font.Face, s string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// drawStroke stamps the line at every offset inside a disc of the given radius.
func drawStroke(dst *image.RGBA, face font.Face, s string, x, y, radius int, c color.Color) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy > radius*radius {
				continue
			}
			drawLine(dst, face, s, x+dx, y+dy, c)
		}
	}
}

// ScaleAt is the pulse scale at time t.
func (l *TextLayer) ScaleAt(t float64) float64 {
	return l.Pulse.ValueAt(t)
}

func (l *TextLayer) Render(dst *image.RGBA, t float64) {
	s := l.ScaleAt(t)
	w, h := float64(l.Frame.Dx()), float64(l.Frame.Dy())
	cx := float64(l.Frame.Min.X) + w/2
	cy := float64(l.Frame.Min.Y) + h/2

	m := f64.Aff3{
		s, 0, cx - s*w/2,
		0, s, cy - s*h/2,
	}
	draw.BiLinear.Transform(dst, m, l.content, l.content.Bounds(), draw.Over, nil)
}
