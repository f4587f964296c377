package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"os/exec"
	"sort"

	"github.com/ivlev/animatedimage/internal/system"
)

// Timescale is the number of ticks per second used for frame timestamps.
const Timescale = 600

var (
	ErrInvalidDuration = errors.New("duration must be positive")
	ErrWriter          = errors.New("can't write video")
)

// StillEncoder turns a single bitmap into a short clip.
type StillEncoder interface {
	EncodeStill(ctx context.Context, img image.Image, duration float64, outputPath string) error
}

type commandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// FFmpegEncoder writes the clip by piping raw RGBA frames into ffmpeg.
type FFmpegEncoder struct {
	EncoderName string
	Quality     int

	command commandFunc
}

func NewFFmpegEncoder(encoderName string, quality int) *FFmpegEncoder {
	return &FFmpegEncoder{
		EncoderName: encoderName,
		Quality:     quality,
		command:     exec.CommandContext,
	}
}

// FrameSchedule returns presentation times, in Timescale ticks, of the two
// frames that make up a still clip: the start and the midpoint.
func FrameSchedule(duration float64) ([]int64, error) {
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDuration, duration)
	}
	half := int64(math.Round(duration / 2 * Timescale))
	if half <= 0 {
		return nil, fmt.Errorf("%w: %v is shorter than one tick", ErrInvalidDuration, duration)
	}
	return []int64{0, half}, nil
}

// EncodeStill writes img held for duration seconds to outputPath. Two
// identical frames are written at 0 and duration/2; the second frame lasts
// until the end of the clip. Nothing is written when the pixel buffer cannot
// be built. A file already at outputPath is replaced.
func (e *FFmpegEncoder) EncodeStill(ctx context.Context, img image.Image, duration float64, outputPath string) error {
	schedule, err := FrameSchedule(duration)
	if err != nil {
		return err
	}

	buf, err := PixelBufferFromImage(img)
	if err != nil {
		return err
	}

	if err := system.RemoveIfExists(outputPath); err != nil {
		return fmt.Errorf("%w: %v", ErrWriter, err)
	}

	args := e.buildFFmpegArgs(buf.Width(), buf.Height(), schedule[1], outputPath)

	command := e.command
	if command == nil {
		command = exec.CommandContext
	}
	cmd := command(ctx, "ffmpeg", args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe error: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: ffmpeg start error: %v", ErrWriter, err)
	}

	// Запись блокируется, пока ffmpeg не готов принять следующий кадр
	werr := writeFrames(stdin, buf, len(schedule))
	stdin.Close()

	if err := cmd.Wait(); err != nil {
		os.Remove(outputPath)
		return fmt.Errorf("%w: ffmpeg wait error: %v, output: %s", ErrWriter, err, out.String())
	}
	if werr != nil {
		os.Remove(outputPath)
		return fmt.Errorf("%w: write raw error: %v", ErrWriter, werr)
	}

	return nil
}

func writeFrames(w io.Writer, buf *PixelBuffer, count int) error {
	for i := 0; i < count; i++ {
		if _, err := w.Write(buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

func (e *FFmpegEncoder) buildFFmpegArgs(inputW, inputH int, halfTicks int64, videoPath string) []string {
	encoderName := e.EncoderName
	if encoderName == "" {
		encoderName = "libx264"
	}

	// Входная частота 600/half даёт кадры ровно в 0 и half тиков
	args := []string{
		"-y",
		"-hide_banner",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", inputW, inputH),
		"-framerate", fmt.Sprintf("%d/%d", Timescale, halfTicks),
		"-i", "-",
		"-vf", "scale='max(2,trunc(iw/2)*2)':'max(2,trunc(ih/2)*2)'",
		"-fps_mode", "passthrough",
		"-frames:v", "2",
		"-video_track_timescale", fmt.Sprintf("%d", Timescale),
		"-pix_fmt", "yuv420p",
		"-c:v", encoderName,
	}

	q := e.Quality
	if q <= 0 {
		q = system.PresetQuality("high", encoderName)
	}
	quality := system.QualityArgs(encoderName, q)
	keys := make([]string, 0, len(quality))
	for k := range quality {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-"+k, quality[k])
	}

	args = append(args, "-f", "mov", videoPath)
	return args
}
