// Package renderer turns an overlay layer tree into a stream of raw RGBA
// frames for the encoder.
package renderer

import (
	"context"
	"fmt"
	"image"
	"io"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/animatedimage/internal/system"
)

// FrameSource draws the overlay for time t onto a cleared frame.
type FrameSource interface {
	RenderOverlay(dst *image.RGBA, t float64)
}

// FrameRenderer renders frames on a worker pool and writes them in order.
type FrameRenderer struct {
	Source  FrameSource
	Size    image.Point
	FPS     int
	Workers int
	Pool    *system.FramePool // shared pool when nil

	// Progress, if set, is called after every written frame.
	Progress func(done, total int)
}

type renderResult struct {
	index int
	frame *image.RGBA
}

// FrameCount is the number of frames covering duration seconds at fps.
func FrameCount(duration float64, fps int) int {
	if duration <= 0 || fps <= 0 {
		return 0
	}
	return int(math.Ceil(duration*float64(fps) - 1e-9))
}

// Render writes FrameCount(duration, FPS) frames to w and returns how many
// were written.
func (r *FrameRenderer) Render(ctx context.Context, w io.Writer, duration float64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	total := FrameCount(duration, r.FPS)
	if total == 0 {
		return 0, fmt.Errorf("nothing to render for %.3fs at %d fps", duration, r.FPS)
	}
	if r.Size.X <= 0 || r.Size.Y <= 0 {
		return 0, fmt.Errorf("invalid frame size %v", r.Size)
	}

	get, put := system.GetFrame, system.PutFrame
	if r.Pool != nil {
		get, put = r.Pool.Get, r.Pool.Put
	}
	workers := r.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > total {
		workers = total
	}

	g, ctx := errgroup.WithContext(ctx)

	// jobs -> render workers -> results -> ordered writer
	jobs := make(chan int)
	results := make(chan renderResult, workers)
	// ограничивает число кадров в памяти
	inflight := make(chan struct{}, 2*workers)

	g.Go(func() error {
		defer close(jobs)
		for i := 0; i < total; i++ {
			select {
			case inflight <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			select {
			case jobs <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	render := errgroup.Group{}
	for n := 0; n < workers; n++ {
		render.Go(func() error {
			for i := range jobs {
				frame := get(r.Size.X, r.Size.Y)
				r.Source.RenderOverlay(frame, float64(i)/float64(r.FPS))
				select {
				case results <- renderResult{index: i, frame: frame}:
				case <-ctx.Done():
					put(frame)
					return ctx.Err()
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		defer close(results)
		return render.Wait()
	})

	written := 0
	g.Go(func() error {
		pending := make(map[int]*image.RGBA)
		for res := range results {
			pending[res.index] = res.frame
			for {
				frame, ok := pending[written]
				if !ok {
					break
				}
				delete(pending, written)
				_, err := w.Write(frame.Pix)
				put(frame)
				if err != nil {
					return fmt.Errorf("write frame %d: %w", written, err)
				}
				written++
				<-inflight
				if r.Progress != nil {
					r.Progress(written, total)
				}
			}
		}
		if written != total && ctx.Err() == nil {
			return fmt.Errorf("rendered %d of %d frames", written, total)
		}
		return nil
	})

	err := g.Wait()
	return written, err
}
