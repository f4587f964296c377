package video

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"sync"
)

// MaxDimension bounds either side of a pixel buffer.
const MaxDimension = 16384

// BytesPerPixel of the fixed interleaved RGBA layout.
const BytesPerPixel = 4

var ErrPixelBuffer = errors.New("can't make pixel buffer")

// PixelBuffer is a fixed-format interleaved RGBA frame. Direct access to the
// pixel memory is only allowed between Lock and Unlock.
type PixelBuffer struct {
	mu     sync.Mutex
	width  int
	height int
	stride int
	pix    []byte
}

func NewPixelBuffer(width, height int) (*PixelBuffer, error) {
	if width <= 0 || height <= 0 || width > MaxDimension || height > MaxDimension {
		return nil, fmt.Errorf("%w: invalid size %dx%d", ErrPixelBuffer, width, height)
	}
	stride := width * BytesPerPixel
	return &PixelBuffer{
		width:  width,
		height: height,
		stride: stride,
		pix:    make([]byte, stride*height),
	}, nil
}

func (b *PixelBuffer) Width() int  { return b.width }
func (b *PixelBuffer) Height() int { return b.height }
func (b *PixelBuffer) Stride() int { return b.stride }

// Lock grants exclusive access to the base address. It fails instead of
// blocking when the buffer is already locked.
func (b *PixelBuffer) Lock() ([]byte, error) {
	if !b.mu.TryLock() {
		return nil, fmt.Errorf("%w: buffer already locked", ErrPixelBuffer)
	}
	return b.pix, nil
}

func (b *PixelBuffer) Unlock() {
	b.mu.Unlock()
}

// Context wraps locked pixel memory as a drawing surface.
func (b *PixelBuffer) Context(base []byte) (*image.RGBA, error) {
	if len(base) != b.stride*b.height {
		return nil, fmt.Errorf("%w: base address does not match buffer", ErrPixelBuffer)
	}
	return &image.RGBA{
		Pix:    base,
		Stride: b.stride,
		Rect:   image.Rect(0, 0, b.width, b.height),
	}, nil
}

// Bytes returns the pixel data for encoding. Callers must not hold it across
// a concurrent Lock.
func (b *PixelBuffer) Bytes() []byte {
	return b.pix
}

// PixelBufferFromImage allocates a buffer at the image's pixel size and draws
// the image into it under lock.
func PixelBufferFromImage(img image.Image) (*PixelBuffer, error) {
	bounds := img.Bounds()
	buf, err := NewPixelBuffer(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}

	base, err := buf.Lock()
	if err != nil {
		return nil, err
	}
	defer buf.Unlock()

	ctx, err := buf.Context(base)
	if err != nil {
		return nil, err
	}
	draw.Draw(ctx, ctx.Rect, img, bounds.Min, draw.Src)

	return buf, nil
}
