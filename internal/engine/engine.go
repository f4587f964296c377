// Package engine drives the two-stage pipeline: still image to clip, clip to
// composed video.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/ivlev/animatedimage/internal/config"
	"github.com/ivlev/animatedimage/internal/source"
	"github.com/ivlev/animatedimage/internal/system"
	"github.com/ivlev/animatedimage/internal/task"
	"github.com/ivlev/animatedimage/internal/video"
)

// ErrBusy is returned when a run is started while another one is in flight.
var ErrBusy = errors.New("pipeline is already running")

// Compositor puts the animated overlay on a clip and exports it.
type Compositor interface {
	Compose(ctx context.Context, inputPath, caption string) (string, error)
}

// Result of one pipeline run.
type Result struct {
	ClipPath   string // intermediate clip, empty when it was removed
	OutputPath string

	Total, Encode, Compose time.Duration
}

type Pipeline struct {
	Config     *config.Config
	Source     source.Source
	Encoder    video.StillEncoder
	Compositor Compositor

	// BenchmarkLog is appended to when Config.ShowStats is set.
	BenchmarkLog string

	running atomic.Bool
}

func NewPipeline(cfg *config.Config, src source.Source, enc video.StillEncoder, comp Compositor) *Pipeline {
	return &Pipeline{
		Config:       cfg,
		Source:       src,
		Encoder:      enc,
		Compositor:   comp,
		BenchmarkLog: "benchmark.log",
	}
}

// Start runs the pipeline in the background.
func (p *Pipeline) Start(ctx context.Context) *task.Task[*Result] {
	if !p.running.CompareAndSwap(false, true) {
		return task.Go(ctx, func(context.Context) (*Result, error) { return nil, ErrBusy })
	}
	return task.Go(ctx, func(ctx context.Context) (*Result, error) {
		defer p.running.Store(false)
		return p.run(ctx)
	})
}

// Run executes the pipeline and waits for the composed video.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if !p.running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer p.running.Store(false)
	return p.run(ctx)
}

func (p *Pipeline) run(ctx context.Context) (*Result, error) {
	cfg := p.Config
	startTime := time.Now()

	// 1. Место под промежуточный клип, старый файл удаляется
	clipPath, err := system.VideoFileLocation(cfg.ClipDir, cfg.ClipName)
	if err != nil {
		return nil, fmt.Errorf("не удалось подготовить файл клипа: %w", err)
	}

	img, err := source.Still(p.Source, cfg.Page, cfg.DPI)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения изображения: %w", err)
	}

	b := img.Bounds()
	fmt.Println("--- [PROJECT: ANIMATED IMAGE] ---")
	fmt.Printf("[*] Источник: %s | Размер: %dx%d\n", cfg.InputPath, b.Dx(), b.Dy())
	fmt.Printf("[*] Длительность: %.2fs | Кодек: %s\n", cfg.Duration, encoderLabel(cfg.VideoEncoder))
	fmt.Println("-----------------------------")

	// 2. Картинка -> клип из двух кадров
	encodeStart := time.Now()
	if err := p.Encoder.EncodeStill(ctx, img, cfg.Duration, clipPath); err != nil {
		return nil, fmt.Errorf("ошибка кодирования клипа: %w", err)
	}
	encodeTime := time.Since(encodeStart)
	fmt.Printf("[>] Клип готов: %s\n", clipPath)

	// 3. Наложение анимации и экспорт
	composeStart := time.Now()
	outputPath, err := p.Compositor.Compose(ctx, clipPath, cfg.Caption)
	if err != nil {
		return nil, fmt.Errorf("ошибка композиции: %w", err)
	}
	composeTime := time.Since(composeStart)

	res := &Result{
		ClipPath:   clipPath,
		OutputPath: outputPath,
		Total:      time.Since(startTime),
		Encode:     encodeTime,
		Compose:    composeTime,
	}

	if !cfg.KeepIntermediate {
		if err := system.RemoveIfExists(clipPath); err != nil {
			fmt.Printf("[!] Не удалось удалить клип: %v\n", err)
		} else {
			res.ClipPath = ""
		}
	}

	if cfg.ShowStats {
		p.report(res)
	}

	fmt.Printf("[+++] Успех! Видео: %s\n", outputPath)
	return res, nil
}

func (p *Pipeline) report(res *Result) {
	cfg := p.Config
	fmt.Printf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.2fs\n"+
			"Encoding (still): %.2fs\n"+
			"Compositing: %.2fs\n"+
			"----------------------------\n",
		cfg.BuildVersion, res.Total.Seconds(), res.Encode.Seconds(), res.Compose.Seconds(),
	)

	if p.BenchmarkLog == "" {
		return
	}

	// Логирование в файл
	logEntry := fmt.Sprintf("[%s] Build: %s | Input: %s | Duration: %.2fs | Total: %.2fs | Encode: %.2fs | Compose: %.2fs\n",
		time.Now().Format("2006-01-02 15:04:05"),
		cfg.BuildVersion,
		filepath.Base(cfg.InputPath),
		cfg.Duration,
		res.Total.Seconds(),
		res.Encode.Seconds(),
		res.Compose.Seconds(),
	)

	f, err := os.OpenFile(p.BenchmarkLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("[!] Не удалось открыть %s: %v", p.BenchmarkLog, err)
		return
	}
	defer f.Close()
	if _, err := f.WriteString(logEntry); err != nil {
		log.Printf("[!] Не удалось записать %s: %v", p.BenchmarkLog, err)
	}
}

func encoderLabel(name string) string {
	if name == "" {
		return "libx264"
	}
	return name
}
