package system

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось получить лимит файлов: %v", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Printf("[!] Не удалось установить лимит файлов: %v", err)
	}
}

// SourceExtensions lists the still formats the source package can open.
var SourceExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp", ".pdf"}

// FindLatestSource returns the most recently modified image or PDF in dir.
func FindLatestSource(dir string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !HasSourceExtension(f.Name()) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("в папке %s не найдено изображений", dir)
	}

	return latestFile, nil
}

func HasSourceExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range SourceExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// VideoFileLocation returns dir/filename.mov, removing any file already there.
// The directory is created when missing.
func VideoFileLocation(dir, filename string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, filename+".mov")
	if err := RemoveIfExists(path); err != nil {
		return "", err
	}
	return path, nil
}

// RemoveIfExists deletes path when it is present. A missing file is not an error.
func RemoveIfExists(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	log.Printf("[*] Удален старый файл: %s", path)
	return nil
}

// FFmpegAvailable reports whether both ffmpeg and ffprobe are on PATH.
func FFmpegAvailable() bool {
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(bin); err != nil {
			return false
		}
	}
	return true
}

func GetBestH264Encoder() (string, string) {
	// Приоритеты:
	// 1. MacOS (VideoToolbox)
	// 2. NVIDIA (NVENC)
	// 3. Software (libx264)
	encoders := []struct {
		name string
		args string
	}{
		{"h264_videotoolbox", ""},
		{"h264_nvenc", ""},
	}

	out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264", ""
	}
	for _, enc := range encoders {
		if strings.Contains(string(out), enc.name) {
			return enc.name, enc.args
		}
	}

	return "libx264", ""
}

// PresetQuality maps a named export preset to the quality number understood
// by the given encoder (CRF for x264, CQ for NVENC, bitrate/100k for VideoToolbox).
func PresetQuality(preset, encoderName string) int {
	type q struct{ x264, nvenc, vt int }
	presets := map[string]q{
		"highest": {17, 19, 120},
		"high":    {20, 23, 90},
		"medium":  {23, 28, 75},
		"low":     {28, 33, 40},
	}
	p, ok := presets[preset]
	if !ok {
		p = presets["highest"]
	}
	switch encoderName {
	case "h264_videotoolbox":
		return p.vt
	case "h264_nvenc":
		return p.nvenc
	default:
		return p.x264
	}
}

// QualityArgs returns encoder-specific rate control options.
func QualityArgs(encoderName string, quality int) map[string]string {
	switch encoderName {
	case "h264_videotoolbox":
		// VideoToolbox часто не поддерживает -q:v напрямую. Используем битрейт.
		return map[string]string{"b:v": fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc":
		return map[string]string{"cq": fmt.Sprintf("%d", quality)}
	default: // libx264
		return map[string]string{"crf": fmt.Sprintf("%d", quality), "preset": "slow"}
	}
}
