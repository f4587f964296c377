package overlay

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// FontManager handles font loading with fallback.
type FontManager struct {
	parsed *opentype.Font
	name   string
}

// NewFontManager loads the TTF/OTF at customPath. When customPath is empty
// or unreadable the embedded Go Bold font is used.
func NewFontManager(customPath string) (*FontManager, error) {
	var fontData []byte
	name := "Go Bold"

	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			log.Printf("[!] Не удалось загрузить шрифт %s, используется Go Bold: %v", customPath, err)
		} else {
			fontData = data
			name = customPath
		}
	}

	if fontData == nil {
		fontData = gobold.TTF
	}

	parsed, err := opentype.Parse(fontData)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	return &FontManager{parsed: parsed, name: name}, nil
}

// Монохромные emoji-шрифты с контурами, в порядке предпочтения.
// Цветные (CBDT/sbix) не подходят: у них нет контуров.
var emojiFontNames = []string{
	"notoemoji-regular.ttf",
	"notoemoji-variablefont_wght.ttf",
	"notoemoji.ttf",
	"symbola.ttf",
	"symbola_hint.ttf",
	"openmoji-black-glyf.ttf",
}

// EmojiFontDirs lists the usual system and user font directories.
func EmojiFontDirs() []string {
	dirs := []string{
		"/usr/share/fonts",
		"/usr/local/share/fonts",
		"/Library/Fonts",
		"/System/Library/Fonts",
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs,
			filepath.Join(home, ".fonts"),
			filepath.Join(home, ".local", "share", "fonts"),
			filepath.Join(home, "Library", "Fonts"),
		)
	}
	return dirs
}

// FindEmojiFont searches dirs recursively for a known outline emoji font and
// returns the best match, or "" when there is none.
func FindEmojiFont(dirs ...string) string {
	found := make(map[string]string)
	for _, dir := range dirs {
		filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			name := strings.ToLower(d.Name())
			if _, ok := found[name]; !ok {
				found[name] = path
			}
			return nil
		})
	}
	for _, name := range emojiFontNames {
		if path, ok := found[name]; ok {
			return path
		}
	}
	return ""
}

// LoadEmojiFont parses the font at path without any fallback; an empty path
// returns nil so callers fall back to plain confetti sprites.
func LoadEmojiFont(path string) (*FontManager, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read emoji font: %w", err)
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse emoji font: %w", err)
	}
	return &FontManager{parsed: parsed, name: path}, nil
}

func (fm *FontManager) Name() string { return fm.name }

// GetFace returns a font.Face at the specified pixel size.
func (fm *FontManager) GetFace(size float64) (font.Face, error) {
	face, err := opentype.NewFace(fm.parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return face, nil
}

// HasGlyph reports whether the font maps r to a real glyph.
func (fm *FontManager) HasGlyph(r rune) bool {
	var buf sfnt.Buffer
	idx, err := fm.parsed.GlyphIndex(&buf, r)
	return err == nil && idx != 0
}
