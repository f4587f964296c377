// Package compositor draws the animated overlay over a clip and exports the
// result to a new file.
package compositor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/ivlev/animatedimage/internal/media"
	"github.com/ivlev/animatedimage/internal/overlay"
	"github.com/ivlev/animatedimage/internal/renderer"
	"github.com/ivlev/animatedimage/internal/system"
)

var (
	// ErrAsset is returned when the input clip cannot be read or has no video.
	ErrAsset = errors.New("can't load asset")
	// ErrExport is the only error a failed export reports.
	ErrExport = errors.New("export failed")
)

type commandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// Compositor overlays the caption and the emitter on a clip.
type Compositor struct {
	EncoderName string
	Quality     int
	FPS         int
	TempDir     string
	Description overlay.Description
	Fonts       overlay.Fonts
	Seed        int64 // 0 picks a new seed per run
	Workers     int

	// Progress, if set, receives rendered overlay frames.
	Progress func(done, total int)

	probe   func(path string) (*media.Info, error)
	command commandFunc
}

func New(encoderName string, quality int, desc overlay.Description, fonts overlay.Fonts) *Compositor {
	return &Compositor{
		EncoderName: encoderName,
		Quality:     quality,
		FPS:         30,
		Description: desc,
		Fonts:       fonts,
		probe:       media.Probe,
		command:     exec.CommandContext,
	}
}

// Compose writes inputPath with the overlay on top to a fresh file in the
// temp dir and returns its path. Audio, if any, is copied unchanged.
func (c *Compositor) Compose(ctx context.Context, inputPath, caption string) (string, error) {
	probe := c.probe
	if probe == nil {
		probe = media.Probe
	}
	info, err := probe(inputPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAsset, err)
	}
	if info.Duration <= 0 {
		return "", fmt.Errorf("%w: %s has no duration", ErrAsset, inputPath)
	}

	size := info.RenderSize()
	orientation, portrait := info.Orientation()

	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	desc := c.Description
	desc.Caption.Text = caption
	tree, err := overlay.Build(desc, size, c.Fonts, seed)
	if err != nil {
		return "", err
	}

	fps := c.FPS
	if fps <= 0 {
		fps = 30
	}

	tempDir := c.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	outputPath := filepath.Join(tempDir, uuid.NewString()+".mov")

	fmt.Printf("[*] Композиция: %dx%d (%s, portrait=%v) | %.2fs @ %d FPS | Аудио: %v\n",
		size.X, size.Y, orientation, portrait, info.Duration, fps, info.HasAudio)

	args := c.buildArgs(inputPath, info, fps, outputPath)

	command := c.command
	if command == nil {
		command = exec.CommandContext
	}
	cmd := command(ctx, "ffmpeg", args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return c.fail(outputPath, err, &out)
	}
	if err := cmd.Start(); err != nil {
		return c.fail(outputPath, err, &out)
	}

	r := &renderer.FrameRenderer{
		Source:   tree,
		Size:     size,
		FPS:      fps,
		Workers:  system.RenderWorkers(c.Workers, size.X, size.Y),
		Progress: c.Progress,
	}
	_, rerr := r.Render(ctx, stdin, info.Duration)
	stdin.Close()

	if err := cmd.Wait(); err != nil {
		return c.fail(outputPath, err, &out)
	}
	if rerr != nil {
		return c.fail(outputPath, rerr, &out)
	}

	return outputPath, nil
}

// fail logs the diagnostic and drops whatever ffmpeg managed to write.
func (c *Compositor) fail(outputPath string, err error, out *bytes.Buffer) (string, error) {
	log.Printf("[!] Ошибка экспорта: %v\nLog: %s", err, out.String())
	os.Remove(outputPath)
	return "", ErrExport
}

// buildArgs assembles the export graph: the decoded clip, scaled to the
// render size and held on its last frame, with the raw overlay frames from
// stdin on top.
func (c *Compositor) buildArgs(inputPath string, info *media.Info, fps int, outputPath string) []string {
	size := info.RenderSize()
	duration := strconv.FormatFloat(info.Duration, 'f', 6, 64)

	clip := ffmpeg.Input(inputPath)
	frames := ffmpeg.Input("pipe:0", ffmpeg.KwArgs{
		"f":         "rawvideo",
		"pix_fmt":   "rgba",
		"s":         fmt.Sprintf("%dx%d", size.X, size.Y),
		"framerate": strconv.Itoa(fps),
	})

	base := clip.Video().
		Filter("scale", ffmpeg.Args{strconv.Itoa(size.X), strconv.Itoa(size.Y)}).
		Filter("setsar", ffmpeg.Args{"1"}).
		Filter("tpad", ffmpeg.Args{}, ffmpeg.KwArgs{"stop_mode": "clone", "stop_duration": duration}).
		Filter("fps", ffmpeg.Args{strconv.Itoa(fps)})

	composed := ffmpeg.Filter([]*ffmpeg.Stream{base, frames}, "overlay", ffmpeg.Args{"0", "0"},
		ffmpeg.KwArgs{"alpha": "premultiplied", "format": "auto", "eof_action": "repeat"})

	encoderName := c.EncoderName
	if encoderName == "" {
		encoderName = "libx264"
	}
	q := c.Quality
	if q <= 0 {
		q = system.PresetQuality("highest", encoderName)
	}

	kw := ffmpeg.KwArgs{
		"c:v":      encoderName,
		"pix_fmt":  "yuv420p",
		"t":        duration,
		"f":        "mov",
		"movflags": "+faststart",
	}
	quality := system.QualityArgs(encoderName, q)
	keys := make([]string, 0, len(quality))
	for k := range quality {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		kw[k] = quality[k]
	}

	streams := []*ffmpeg.Stream{composed}
	if info.HasAudio {
		streams = append(streams, clip.Audio())
		kw["c:a"] = "copy"
	}

	// глобальные флаги до входов, иначе ffmpeg-go ставит их после выходного файла
	args := ffmpeg.Output(streams, outputPath, kw).GetArgs()
	return append([]string{"-hide_banner", "-y"}, args...)
}
