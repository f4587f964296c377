package overlay

import (
	"image"
	"image/color"
	"log"
	"math"
	"math/rand"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Cell is one particle template of the emitter.
type Cell struct {
	Sprite        *image.RGBA
	BirthRate     float64
	Lifetime      float64
	Velocity      float64
	EmissionRange float64
	Spin          float64
	Scale         float64
}

// EmitterLayer emits particles from a horizontal line. A particle's state is
// a pure function of its cell, its birth index and time, so frames can be
// rendered in any order and on any number of goroutines.
type EmitterLayer struct {
	Size  image.Point
	LineY float64 // emitter line, frame coordinates
	Cells []Cell
	seed  uint64
}

// Particle is one live particle at a given time.
type Particle struct {
	X, Y     float64
	Angle    float64
	Scale    float64
	Age      float64
	CellIdx  int
	BirthIdx int
}

func newEmitterLayer(e Emitter, size image.Point, emoji *FontManager, seed int64) (*EmitterLayer, error) {
	palette := make([]color.RGBA, 0, len(e.Palette))
	for _, s := range e.Palette {
		c, err := ParseColor(s)
		if err != nil {
			return nil, err
		}
		palette = append(palette, c)
	}

	px := e.GlyphSize * e.GlyphScale
	masks, err := glyphMasks(emoji, rune(e.GlyphFirst), rune(e.GlyphLast), px)
	if err != nil {
		return nil, err
	}
	if len(masks) == 0 {
		log.Printf("[!] Нет глифов эмодзи U+%04X..U+%04X, частицы рисуются кружками", e.GlyphFirst, e.GlyphLast)
		masks = append(masks, discMask(int(math.Round(px))))
	}

	rng := rand.New(rand.NewSource(seed))
	cells := make([]Cell, 0, e.Cells)
	for i := 0; i < e.Cells; i++ {
		mask := masks[rng.Intn(len(masks))]
		col := palette[rng.Intn(len(palette))]
		cells = append(cells, Cell{
			Sprite:        tint(mask, col),
			BirthRate:     e.BirthRate,
			Lifetime:      e.Lifetime,
			Velocity:      lerp(e.VelocityMin, e.VelocityMax, rng.Float64()),
			EmissionRange: e.EmissionRange,
			Spin:          e.Spin,
			Scale:         lerp(e.ScaleMin, e.ScaleMax, rng.Float64()),
		})
	}

	return &EmitterLayer{
		Size:  size,
		LineY: float64(size.Y) + e.Offset,
		Cells: cells,
		seed:  uint64(seed),
	}, nil
}

// Particles returns every particle alive at time t.
func (l *EmitterLayer) Particles(t float64) []Particle {
	var out []Particle
	for ci, c := range l.Cells {
		if c.BirthRate <= 0 || c.Lifetime <= 0 || t < 0 {
			continue
		}

		first := int(math.Ceil((t - c.Lifetime) * c.BirthRate))
		if first < 0 {
			first = 0
		}
		last := int(math.Floor(t * c.BirthRate))

		for k := first; k <= last; k++ {
			age := t - float64(k)/c.BirthRate
			if age < 0 || age >= c.Lifetime {
				continue
			}
			u, v := l.random(ci, k)
			phi := (v - 0.5) * c.EmissionRange
			dist := c.Velocity * age

			out = append(out, Particle{
				X:        u*float64(l.Size.X) + dist*math.Sin(phi),
				Y:        l.LineY - dist*math.Cos(phi),
				Angle:    c.Spin * age,
				Scale:    c.Scale,
				Age:      age,
				CellIdx:  ci,
				BirthIdx: k,
			})
		}
	}
	return out
}

func (l *EmitterLayer) Render(dst *image.RGBA, t float64) {
	for _, p := range l.Particles(t) {
		sprite := l.Cells[p.CellIdx].Sprite
		sb := sprite.Bounds()
		w, h := float64(sb.Dx()), float64(sb.Dy())

		r := p.Scale * math.Hypot(w, h) / 2
		if p.X+r < 0 || p.X-r > float64(l.Size.X) || p.Y+r < 0 || p.Y-r > float64(l.Size.Y) {
			continue
		}

		sin, cos := math.Sincos(p.Angle)
		a, b := p.Scale*cos, -p.Scale*sin
		c, d := p.Scale*sin, p.Scale*cos
		m := f64.Aff3{
			a, b, p.X - (a*w/2 + b*h/2),
			c, d, p.Y - (c*w/2 + d*h/2),
		}
		draw.ApproxBiLinear.Transform(dst, m, sprite, sb, draw.Over, nil)
	}
}

// random derives two uniform values in [0,1) for a particle.
func (l *EmitterLayer) random(cell, birth int) (float64, float64) {
	h := splitmix(l.seed ^ splitmix(uint64(cell)<<32|uint64(uint32(birth))))
	u := float64(h>>11) / (1 << 53)
	h = splitmix(h)
	v := float64(h>>11) / (1 << 53)
	return u, v
}

func splitmix(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB
	return x ^ (x >> 31)
}
