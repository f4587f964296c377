package overlay

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// glyphMasks rasterizes every rune in [first, last] that the emoji font
// actually maps. Runes without a glyph are skipped.
func glyphMasks(fm *FontManager, first, last rune, size float64) ([]*image.Alpha, error) {
	if fm == nil {
		return nil, nil
	}
	face, err := fm.GetFace(size)
	if err != nil {
		return nil, err
	}
	defer face.Close()

	var masks []*image.Alpha
	for r := first; r <= last; r++ {
		if !fm.HasGlyph(r) {
			continue
		}
		if m := glyphMask(face, r); m != nil {
			masks = append(masks, m)
		}
	}
	return masks, nil
}

func glyphMask(face font.Face, r rune) *image.Alpha {
	bounds, _ := font.BoundString(face, string(r))
	rect := image.Rect(
		bounds.Min.X.Floor(), bounds.Min.Y.Floor(),
		bounds.Max.X.Ceil(), bounds.Max.Y.Ceil(),
	)
	if rect.Empty() {
		return nil
	}

	mask := image.NewAlpha(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	d := &font.Drawer{
		Dst:  mask,
		Src:  image.Opaque,
		Face: face,
		Dot:  fixed.P(-rect.Min.X, -rect.Min.Y),
	}
	d.DrawString(string(r))
	return mask
}

// discMask is the confetti fallback used when no glyph could be rendered.
func discMask(diameter int) *image.Alpha {
	if diameter < 2 {
		diameter = 2
	}
	mask := image.NewAlpha(image.Rect(0, 0, diameter, diameter))
	c := float64(diameter) / 2
	for y := 0; y < diameter; y++ {
		for x := 0; x < diameter; x++ {
			dist := math.Hypot(float64(x)+0.5-c, float64(y)+0.5-c)
			cov := clamp01(c - dist + 0.5)
			mask.SetAlpha(x, y, color.Alpha{A: uint8(cov * 255)})
		}
	}
	return mask
}

// tint paints mask with a solid color.
func tint(mask *image.Alpha, c color.RGBA) *image.RGBA {
	b := mask.Bounds()
	out := image.NewRGBA(b)
	draw.DrawMask(out, b, image.NewUniform(c), image.Point{}, mask, b.Min, draw.Over)
	return out
}
