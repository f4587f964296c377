package overlay

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Description is the declarative overlay: caption style and animation plus
// the particle emitter. It carries no random state; Build turns it into a
// concrete layer tree for one run.
type Description struct {
	Version string  `yaml:"version"`
	Caption Caption `yaml:"caption"`
	Emitter Emitter `yaml:"emitter"`
}

type Caption struct {
	Text        string  `yaml:"text"`
	FontSize    float64 `yaml:"font_size"`
	Color       string  `yaml:"color"`
	StrokeColor string  `yaml:"stroke_color"`
	StrokeWidth float64 `yaml:"stroke_width"` // % of font size; negative = fill + stroke
	Position    float64 `yaml:"position"`     // box origin as a fraction of height, from the bottom edge
	BoxHeight   float64 `yaml:"box_height"`
	Pulse       Pulse   `yaml:"pulse"`
}

// Pulse is a repeating scale animation about the caption box center.
type Pulse struct {
	From        float64 `yaml:"from"`
	To          float64 `yaml:"to"`
	Duration    float64 `yaml:"duration"`
	AutoReverse bool    `yaml:"autoreverse"`
	Timing      string  `yaml:"timing"`
}

type Emitter struct {
	GlyphFirst    int      `yaml:"glyph_first"`
	GlyphLast     int      `yaml:"glyph_last"`
	GlyphSize     float64  `yaml:"glyph_size"`
	GlyphScale    float64  `yaml:"glyph_scale"`
	Palette       []string `yaml:"palette"`
	Cells         int      `yaml:"cells"`
	BirthRate     float64  `yaml:"birth_rate"`
	Lifetime      float64  `yaml:"lifetime"`
	VelocityMin   float64  `yaml:"velocity_min"`
	VelocityMax   float64  `yaml:"velocity_max"`
	EmissionRange float64  `yaml:"emission_range"` // radians, full cone around straight up
	Spin          float64  `yaml:"spin"`           // radians per second
	ScaleMin      float64  `yaml:"scale_min"`
	ScaleMax      float64  `yaml:"scale_max"`
	Offset        float64  `yaml:"offset"` // emitter line distance below the bottom edge
}

// DefaultDescription is the stock overlay: a pulsing green caption and
// emoji confetti rising from the bottom edge.
func DefaultDescription(text string) Description {
	return Description{
		Version: "1.0",
		Caption: Caption{
			Text:        text,
			FontSize:    60,
			Color:       "#34C759",
			StrokeColor: "#FFFFFF",
			StrokeWidth: -3,
			Position:    0.66,
			BoxHeight:   150,
			Pulse: Pulse{
				From:        0.8,
				To:          1.2,
				Duration:    0.5,
				AutoReverse: true,
				Timing:      TimingEaseInEaseOut,
			},
		},
		Emitter: Emitter{
			GlyphFirst: 0x1F601,
			GlyphLast:  0x1F64F,
			GlyphSize:  14,
			GlyphScale: 3,
			Palette: []string{
				"#34C759", // green
				"#FF3B30", // red
				"#007AFF", // blue
				"#FF2D55", // pink
				"#FF9500", // orange
				"#AF52DE", // purple
				"#FFCC00", // yellow
			},
			Cells:         17,
			BirthRate:     3,
			Lifetime:      12,
			VelocityMin:   100,
			VelocityMax:   200,
			EmissionRange: 0.8,
			Spin:          4,
			ScaleMin:      0.2,
			ScaleMax:      0.8,
			Offset:        5,
		},
	}
}

func (d Description) Validate() error {
	c, e := d.Caption, d.Emitter
	switch {
	case c.FontSize <= 0:
		return fmt.Errorf("caption font size must be positive")
	case c.BoxHeight <= 0:
		return fmt.Errorf("caption box height must be positive")
	case c.Pulse.Duration <= 0:
		return fmt.Errorf("pulse duration must be positive")
	case !validTiming(c.Pulse.Timing):
		return fmt.Errorf("unknown timing function %q", c.Pulse.Timing)
	case e.Cells < 0:
		return fmt.Errorf("emitter cell count must not be negative")
	case e.Cells > 0 && len(e.Palette) == 0:
		return fmt.Errorf("emitter palette is empty")
	case e.GlyphLast < e.GlyphFirst:
		return fmt.Errorf("glyph range %X..%X is empty", e.GlyphFirst, e.GlyphLast)
	case e.BirthRate < 0 || e.Lifetime < 0:
		return fmt.Errorf("birth rate and lifetime must not be negative")
	case e.VelocityMax < e.VelocityMin:
		return fmt.Errorf("velocity range %v..%v is inverted", e.VelocityMin, e.VelocityMax)
	case e.ScaleMax < e.ScaleMin || e.ScaleMin < 0:
		return fmt.Errorf("scale range %v..%v is invalid", e.ScaleMin, e.ScaleMax)
	case e.GlyphSize <= 0 || e.GlyphScale <= 0:
		return fmt.Errorf("glyph size and scale must be positive")
	}
	return nil
}

// WriteDescription writes a description to a YAML file
func WriteDescription(d Description, path string) error {
	data, err := yaml.Marshal(d)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadDescription reads a description from a YAML file. Fields missing from
// the file keep their default values.
func ReadDescription(path string) (Description, error) {
	d := DefaultDescription("")

	data, err := os.ReadFile(path)
	if err != nil {
		return d, err
	}

	if err := yaml.Unmarshal(data, &d); err != nil {
		return d, fmt.Errorf("parse overlay %s: %w", path, err)
	}

	return d, d.Validate()
}
