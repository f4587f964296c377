package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ivlev/animatedimage/internal/compositor"
	"github.com/ivlev/animatedimage/internal/config"
	"github.com/ivlev/animatedimage/internal/engine"
	"github.com/ivlev/animatedimage/internal/library"
	"github.com/ivlev/animatedimage/internal/overlay"
	"github.com/ivlev/animatedimage/internal/shell"
	"github.com/ivlev/animatedimage/internal/source"
	"github.com/ivlev/animatedimage/internal/system"
	"github.com/ivlev/animatedimage/internal/video"
)

// version is set with -ldflags "-X main.version=..."
var version = "dev"

const defaultConfigFile = "animatedimage.yaml"

func main() {
	// Увеличиваем лимиты системы (для macOS/Linux)
	system.InitResourceLimits()

	// Создаем нужные директории, если их нет
	for _, d := range []string{"input", "output"} {
		os.MkdirAll(d, 0755)
	}

	configPtr := flag.String("config", "", "YAML конфиг (по умолчанию: animatedimage.yaml, если есть)")
	inputPtr := flag.String("input", "", "Путь к изображению или PDF (по умолчанию: самый свежий файл в input/)")
	captionPtr := flag.String("caption", config.DefaultCaption, "Текст подписи (\\n - перенос строки)")
	durationPtr := flag.Float64("duration", config.DefaultDuration, "Длительность видео (сек)")
	overlayPtr := flag.String("overlay", "", "YAML описание оверлея (подпись и эмиттер)")
	dumpOverlayPtr := flag.String("dump-overlay", "", "Записать описание оверлея в файл и выйти")
	clipDirPtr := flag.String("clip-dir", "output", "Папка промежуточного клипа")
	clipNamePtr := flag.String("clip-name", config.DefaultClipName, "Имя промежуточного клипа (без .mov)")
	tempDirPtr := flag.String("temp-dir", os.TempDir(), "Папка для итогового видео")
	fontPtr := flag.String("font", "", "TTF/OTF шрифт подписи (по умолчанию: Go Bold)")
	emojiFontPtr := flag.String("emoji-font", "", "Шрифт с эмодзи для частиц (без него - конфетти)")
	seedPtr := flag.Int64("seed", 0, "Seed эмиттера (0 - случайный)")
	fpsPtr := flag.Int("fps", config.DefaultFPS, "FPS оверлея")
	workersPtr := flag.Int("workers", 0, "Потоки рендеринга (0 - авто)")
	presetPtr := flag.String("preset", config.DefaultPreset, "Пресет экспорта: highest, high, medium, low")
	qualityPtr := flag.Int("quality", 0, "Качество видео (0 - из пресета, x264: CRF 1-51, VideoToolbox: битрейт = Q*100кбит/с)")
	pagePtr := flag.Int("page", 0, "Страница PDF (с нуля)")
	dpiPtr := flag.Int("dpi", 150, "DPI для PDF")
	headlessPtr := flag.Bool("headless", false, "Без интерфейса: отрендерить и выйти")
	savePtr := flag.Bool("save", false, "В режиме -headless сохранить результат в медиатеку")
	statsPtr := flag.Bool("stats", false, "Показать отчет о производительности")
	keepPtr := flag.Bool("keep-intermediate", true, "Оставить промежуточный клип на диске")

	flag.Parse()

	configPath := *configPtr
	if configPath == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			configPath = defaultConfigFile
		}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("[-] Ошибка конфигурации: %v", err)
	}

	// Флаги, заданные явно, важнее файла и окружения
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.InputPath = *inputPtr
		case "caption":
			cfg.Caption = *captionPtr
		case "duration":
			cfg.Duration = *durationPtr
		case "overlay":
			cfg.OverlayPath = *overlayPtr
		case "clip-dir":
			cfg.ClipDir = *clipDirPtr
		case "clip-name":
			cfg.ClipName = *clipNamePtr
		case "temp-dir":
			cfg.TempDir = *tempDirPtr
		case "font":
			cfg.FontPath = *fontPtr
		case "emoji-font":
			cfg.EmojiFontPath = *emojiFontPtr
		case "seed":
			cfg.Seed = *seedPtr
		case "fps":
			cfg.FPS = *fpsPtr
		case "workers":
			cfg.Workers = *workersPtr
		case "preset":
			cfg.QualityPreset = *presetPtr
		case "page":
			cfg.Page = *pagePtr
		case "dpi":
			cfg.DPI = *dpiPtr
		case "keep-intermediate":
			cfg.KeepIntermediate = *keepPtr
		}
	})
	cfg.ShowStats = *statsPtr
	cfg.BuildVersion = version

	desc := overlay.DefaultDescription(cfg.Caption)
	if cfg.OverlayPath != "" {
		desc, err = overlay.ReadDescription(cfg.OverlayPath)
		if err != nil {
			log.Fatalf("[-] Ошибка чтения оверлея: %v", err)
		}
		fmt.Printf("[*] Используется оверлей: %s\n", cfg.OverlayPath)
	}

	if *dumpOverlayPtr != "" {
		desc.Caption.Text = cfg.Caption
		if err := overlay.WriteDescription(desc, *dumpOverlayPtr); err != nil {
			log.Fatalf("[-] Ошибка записи оверлея: %v", err)
		}
		fmt.Printf("[+++] Описание оверлея сохранено: %s\n", *dumpOverlayPtr)
		return
	}

	if cfg.InputPath == "" {
		latest, err := system.FindLatestSource("input")
		if err != nil {
			log.Fatalf("[-] Ошибка: %v. Положите изображение или PDF в input/", err)
		}
		cfg.InputPath = latest
		fmt.Printf("[*] Выбран файл: %s\n", cfg.InputPath)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("[-] Ошибка конфигурации: %v", err)
	}
	if !system.FFmpegAvailable() {
		log.Fatalf("[-] ffmpeg и ffprobe не найдены в PATH")
	}

	encoderName, _ := system.GetBestH264Encoder()
	if encoderName != "libx264" {
		fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", encoderName)
	}
	cfg.VideoEncoder = encoderName
	cfg.Quality = *qualityPtr
	if cfg.Quality == 0 {
		cfg.Quality = system.PresetQuality(cfg.QualityPreset, encoderName)
	}

	src, err := source.Open(cfg.InputPath)
	if err != nil {
		log.Fatalf("[-] Ошибка инициализации источника: %v", err)
	}

	captionFont, err := overlay.NewFontManager(cfg.FontPath)
	if err != nil {
		log.Fatalf("[-] Ошибка шрифта: %v", err)
	}
	emojiPath := cfg.EmojiFontPath
	if emojiPath == "" {
		emojiPath = overlay.FindEmojiFont(overlay.EmojiFontDirs()...)
		if emojiPath == "" {
			log.Printf("[!] Шрифт эмодзи не найден (укажите -emoji-font), частицы будут кружками")
		} else {
			fmt.Printf("[*] Шрифт эмодзи: %s\n", emojiPath)
		}
	}
	emojiFont, err := overlay.LoadEmojiFont(emojiPath)
	if err != nil {
		log.Printf("[!] Эмодзи недоступны, используется конфетти: %v", err)
	}

	comp := compositor.New(encoderName, cfg.Quality, desc, overlay.Fonts{Caption: captionFont, Emoji: emojiFont})
	comp.FPS = cfg.FPS
	comp.TempDir = cfg.TempDir
	comp.Seed = cfg.Seed
	comp.Workers = cfg.Workers

	pipeline := engine.NewPipeline(cfg, src, video.NewFFmpegEncoder(encoderName, cfg.Quality), comp)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	var code int
	if *headlessPtr {
		code = runHeadless(ctx, cfg, pipeline, comp, *savePtr)
	} else {
		code = runShell(ctx, cfg, pipeline)
	}

	stop()
	src.Close()
	os.Exit(code)
}

func runHeadless(ctx context.Context, cfg *config.Config, pipeline *engine.Pipeline, comp *compositor.Compositor, save bool) int {
	comp.Progress = func(done, total int) {
		if done%cfg.FPS == 0 || done == total {
			fmt.Printf("[>] Кадры оверлея: %d/%d\n", done, total)
		}
	}

	res, err := pipeline.Run(ctx)
	if err != nil {
		log.Printf("[-] Ошибка проекта: %v", err)
		return 1
	}

	if save {
		lib, err := library.New(ctx, cfg.Library)
		if err != nil {
			log.Printf("[-] Ошибка медиатеки: %v", err)
			return 1
		}
		loc, err := lib.Save(ctx, res.OutputPath)
		if err != nil {
			log.Printf("[-] Ошибка сохранения: %v", err)
			return 1
		}
		fmt.Printf("[+++] Сохранено в медиатеку: %s\n", loc)
	}
	return 0
}

// runShell hands the terminal to the TUI. Pipeline output goes to
// animatedimage.log meanwhile.
func runShell(ctx context.Context, cfg *config.Config, pipeline *engine.Pipeline) int {
	logFile, err := os.OpenFile("animatedimage.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("[-] Не удалось открыть лог: %v", err)
		return 1
	}
	defer logFile.Close()

	tty := os.Stdout
	os.Stdout = logFile
	log.SetOutput(logFile)
	defer func() {
		os.Stdout = tty
		log.SetOutput(os.Stderr)
	}()

	lib, err := library.New(ctx, cfg.Library)
	if err != nil {
		log.Printf("[!] Медиатека недоступна: %v", err)
	}

	p := tea.NewProgram(shell.NewModel(ctx, pipeline, lib), tea.WithOutput(tty), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(tty, "[-] Ошибка интерфейса: %v\n", err)
		return 1
	}
	return 0
}
