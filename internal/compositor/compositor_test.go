package compositor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/ivlev/animatedimage/internal/media"
	"github.com/ivlev/animatedimage/internal/overlay"
)

func fakeFFmpeg(fail bool) commandFunc {
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1")
		if fail {
			cmd.Env = append(cmd.Env, "HELPER_FAIL=1")
		}
		return cmd
	}
}

// TestHelperProcess stands in for ffmpeg: it drains the overlay frames and
// writes their byte count to the output path.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	// выходной файл - последний .mov в аргументах
	var out string
	for _, a := range os.Args {
		if strings.HasSuffix(a, ".mov") {
			out = a
		}
	}

	if os.Getenv("HELPER_FAIL") == "1" {
		os.WriteFile(out, []byte("partial"), 0644)
		fmt.Fprintln(os.Stderr, "muxer exploded")
		os.Exit(1)
	}
	n, _ := io.Copy(io.Discard, os.Stdin)
	os.WriteFile(out, []byte(strconv.FormatInt(n, 10)), 0644)
	os.Exit(0)
}

func fakeProbe(info media.Info, err error) func(string) (*media.Info, error) {
	return func(string) (*media.Info, error) {
		if err != nil {
			return nil, err
		}
		return &info, nil
	}
}

func testCompositor(t *testing.T, info media.Info, fail bool) *Compositor {
	t.Helper()
	desc := overlay.DefaultDescription("")
	desc.Caption.FontSize = 10
	desc.Caption.BoxHeight = 16
	desc.Emitter.Cells = 3

	c := New("libx264", 0, desc, overlay.Fonts{})
	c.TempDir = t.TempDir()
	c.Seed = 1
	c.Workers = 2
	c.probe = fakeProbe(info, nil)
	c.command = fakeFFmpeg(fail)
	return c
}

func TestComposeWritesUniqueFile(t *testing.T) {
	info := media.Info{Width: 32, Height: 16, Duration: 1, Transform: media.Identity}
	c := testCompositor(t, info, false)

	path, err := c.Compose(context.Background(), "clip.mov", "Hello")
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if filepath.Dir(path) != c.TempDir || filepath.Ext(path) != ".mov" {
		t.Errorf("unexpected output location %s", path)
	}
	if _, err := uuid.Parse(strings.TrimSuffix(filepath.Base(path), ".mov")); err != nil {
		t.Errorf("output name is not a UUID: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	// 30 overlay frames of 32x16 RGBA
	if want := strconv.Itoa(30 * 32 * 16 * 4); string(data) != want {
		t.Errorf("ffmpeg received %s bytes, want %s", data, want)
	}

	second, err := c.Compose(context.Background(), "clip.mov", "Hello")
	if err != nil {
		t.Fatalf("second Compose failed: %v", err)
	}
	if second == path {
		t.Error("every export must get a fresh file")
	}
}

func TestComposePortraitSwapsRenderSize(t *testing.T) {
	info := media.Info{Width: 32, Height: 16, Duration: 0.5, Transform: media.Rotation(90)}
	c := testCompositor(t, info, false)

	path, err := c.Compose(context.Background(), "clip.mov", "x")
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	data, _ := os.ReadFile(path)
	if want := strconv.Itoa(15 * 16 * 32 * 4); string(data) != want {
		t.Errorf("ffmpeg received %s bytes, want %s", data, want)
	}
}

func TestComposeExportFailure(t *testing.T) {
	info := media.Info{Width: 32, Height: 16, Duration: 1, Transform: media.Identity}
	c := testCompositor(t, info, true)

	path, err := c.Compose(context.Background(), "clip.mov", "x")
	if !errors.Is(err, ErrExport) || err != ErrExport {
		t.Fatalf("expected bare ErrExport, got %v", err)
	}
	if path != "" {
		t.Errorf("expected empty path, got %q", path)
	}
	entries, _ := os.ReadDir(c.TempDir)
	if len(entries) != 0 {
		t.Errorf("partial output left behind: %v", entries)
	}
}

func TestComposeAssetErrors(t *testing.T) {
	c := testCompositor(t, media.Info{}, false)

	c.probe = fakeProbe(media.Info{}, media.ErrNoVideo)
	if _, err := c.Compose(context.Background(), "clip.mov", "x"); !errors.Is(err, ErrAsset) {
		t.Errorf("expected ErrAsset, got %v", err)
	}

	c.probe = fakeProbe(media.Info{Width: 2, Height: 2}, nil)
	if _, err := c.Compose(context.Background(), "clip.mov", "x"); !errors.Is(err, ErrAsset) {
		t.Errorf("expected ErrAsset for zero duration, got %v", err)
	}
}

func argValue(args []string, key string) (string, bool) {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == key {
			return args[i+1], true
		}
	}
	return "", false
}

func TestBuildArgs(t *testing.T) {
	c := New("libx264", 0, overlay.DefaultDescription(""), overlay.Fonts{})

	withAudio := c.buildArgs("in.mov", &media.Info{Width: 640, Height: 480, Duration: 5, HasAudio: true, Transform: media.Identity}, 30, "out.mov")
	joined := strings.Join(withAudio, " ")
	t.Logf("ffmpeg %s", joined)

	if v, _ := argValue(withAudio, "-c:a"); v != "copy" {
		t.Errorf("audio must be copied, got %q", v)
	}
	if v, _ := argValue(withAudio, "-crf"); v != "17" {
		t.Errorf("expected highest preset CRF 17, got %q", v)
	}
	if v, _ := argValue(withAudio, "-t"); v != "5.000000" {
		t.Errorf("output must be cut to the clip duration, got %q", v)
	}
	if v, _ := argValue(withAudio, "-s"); v != "640x480" {
		t.Errorf("overlay input size %q", v)
	}
	for _, want := range []string{"overlay", "tpad", "stop_mode=clone", "alpha=premultiplied", "pipe:0", "-y"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q", want)
		}
	}
	if withAudio[0] != "-hide_banner" || withAudio[1] != "-y" {
		t.Errorf("global flags must lead the command line: %v", withAudio[:2])
	}
	if last := withAudio[len(withAudio)-1]; last != "out.mov" {
		t.Errorf("output path must be the last argument, got %q", last)
	}

	silent := c.buildArgs("in.mov", &media.Info{Width: 640, Height: 480, Duration: 5, Transform: media.Identity}, 30, "out.mov")
	if _, ok := argValue(silent, "-c:a"); ok {
		t.Error("no audio options expected for a silent clip")
	}
}

func TestComposeKeepsAudioWithFFmpeg(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not installed")
	}

	dir := t.TempDir()
	clip := filepath.Join(dir, "clip.mov")
	gen := exec.Command("ffmpeg", "-y", "-hide_banner",
		"-f", "lavfi", "-i", "testsrc=size=64x48:rate=10:duration=1",
		"-f", "lavfi", "-i", "sine=frequency=440:duration=1",
		"-c:v", "libx264", "-pix_fmt", "yuv420p", "-c:a", "aac", "-shortest", clip)
	if out, err := gen.CombinedOutput(); err != nil {
		t.Skipf("cannot build test clip: %v\n%s", err, out)
	}

	desc := overlay.DefaultDescription("")
	desc.Caption.FontSize = 10
	desc.Caption.BoxHeight = 16
	c := New("libx264", 0, desc, overlay.Fonts{})
	c.TempDir = dir
	c.Seed = 9

	out, err := c.Compose(context.Background(), clip, "Hi")
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	info, err := media.Probe(out)
	if err != nil {
		t.Fatalf("probe output: %v", err)
	}
	t.Logf("output: %+v", info)
	if !info.HasAudio {
		t.Fatal("composed output lost its audio track")
	}
	if info.Width != 64 || info.Height != 48 {
		t.Errorf("unexpected output size %dx%d", info.Width, info.Height)
	}
	if d := info.AudioDuration - info.Duration; d > 0.1 || d < -0.15 {
		t.Errorf("audio %.3fs vs video %.3fs", info.AudioDuration, info.Duration)
	}
}
