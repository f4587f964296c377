// Package overlay describes and renders the animated layers drawn over the
// video: the pulsing caption and the emoji emitter.
package overlay

import (
	"fmt"
	"image"
)

// Layer draws itself onto a transparent frame at time t (seconds).
type Layer interface {
	Render(dst *image.RGBA, t float64)
}

// Group renders its sublayers in order, later ones on top.
type Group struct {
	Frame     image.Rectangle
	Sublayers []Layer
}

func (g *Group) Render(dst *image.RGBA, t float64) {
	for _, l := range g.Sublayers {
		l.Render(dst, t)
	}
}

// VideoLayer marks where the decoded video goes in the output group. The
// encoder composites the actual frames; it draws nothing itself.
type VideoLayer struct {
	Frame image.Rectangle
}

func (VideoLayer) Render(*image.RGBA, float64) {}

// Tree is the full layer arrangement for one render size:
// Output holds the video layer with the overlay group above it.
type Tree struct {
	Size    image.Point
	Video   *VideoLayer
	Overlay *Group
	Output  *Group

	Caption *TextLayer
	Emitter *EmitterLayer
}

// Fonts used when building a tree. Emoji may be nil.
type Fonts struct {
	Caption *FontManager
	Emoji   *FontManager
}

// Build lays out the caption and emitter for a frame of the given size.
// The seed fixes every random choice of the emitter.
func Build(desc Description, size image.Point, fonts Fonts, seed int64) (*Tree, error) {
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("invalid render size %v", size)
	}
	if err := desc.Validate(); err != nil {
		return nil, fmt.Errorf("overlay: %w", err)
	}
	if fonts.Caption == nil {
		fm, err := NewFontManager("")
		if err != nil {
			return nil, err
		}
		fonts.Caption = fm
	}

	frame := image.Rect(0, 0, size.X, size.Y)

	caption, err := newTextLayer(desc.Caption, size, fonts.Caption)
	if err != nil {
		return nil, fmt.Errorf("caption: %w", err)
	}
	emitter, err := newEmitterLayer(desc.Emitter, size, fonts.Emoji, seed)
	if err != nil {
		return nil, fmt.Errorf("emitter: %w", err)
	}

	overlay := &Group{Frame: frame, Sublayers: []Layer{emitter, caption}}
	video := &VideoLayer{Frame: frame}

	return &Tree{
		Size:    size,
		Video:   video,
		Overlay: overlay,
		Output:  &Group{Frame: frame, Sublayers: []Layer{video, overlay}},
		Caption: caption,
		Emitter: emitter,
	}, nil
}

// RenderOverlay clears dst and draws the overlay group at time t.
func (tr *Tree) RenderOverlay(dst *image.RGBA, t float64) {
	clear(dst.Pix)
	tr.Overlay.Render(dst, t)
}
