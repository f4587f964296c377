package media

import (
	"errors"
	"image"
	"math"
	"testing"
)

func TestOrientationOf(t *testing.T) {
	tests := []struct {
		name         string
		t            Transform
		want         Orientation
		wantPortrait bool
	}{
		{"right", Transform{A: 0, B: 1, C: -1, D: 0}, Right, true},
		{"left", Transform{A: 0, B: -1, C: 1, D: 0}, Left, true},
		{"up", Transform{A: 1, B: 0, C: 0, D: 1}, Up, false},
		{"down", Transform{A: -1, B: 0, C: 0, D: -1}, Down, false},
		{"right with translation", Transform{A: 0, B: 1, C: -1, D: 0, Tx: 1080}, Right, true},
		// Everything below is outside the four canonical matrices.
		{"mirrored", Transform{A: -1, B: 0, C: 0, D: 1}, Up, false},
		{"scaled", Transform{A: 2, B: 0, C: 0, D: 2}, Up, false},
		{"45 degrees", Rotation(45), Up, false},
		{"almost right", Transform{A: 1e-9, B: 1, C: -1, D: 0}, Up, false},
		{"zero", Transform{}, Up, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, portrait := OrientationOf(tt.t)
			if got != tt.want || portrait != tt.wantPortrait {
				t.Errorf("OrientationOf(%+v) = %v/%v, want %v/%v", tt.t, got, portrait, tt.want, tt.wantPortrait)
			}
		})
	}
}

func TestRotationIsCanonical(t *testing.T) {
	tests := []struct {
		degrees float64
		want    Orientation
	}{
		{0, Up},
		{90, Right},
		{180, Down},
		{270, Left},
		{-90, Left},
	}
	for _, tt := range tests {
		if got, _ := OrientationOf(Rotation(tt.degrees)); got != tt.want {
			t.Errorf("Rotation(%v) -> %v, want %v", tt.degrees, got, tt.want)
		}
	}
}

const portraitProbe = `{
  "streams": [
    {
      "codec_type": "video", "width": 1920, "height": 1080, "duration": "5.000000",
      "side_data_list": [
        {
          "side_data_type": "Display Matrix",
          "displaymatrix": "\n00000000:            0       65536           0\n00000001:      -65536           0           0\n00000002:            0           0  1073741824\n",
          "rotation": -90
        }
      ]
    },
    {"codec_type": "audio", "duration": "4.980000"}
  ],
  "format": {"duration": "5.000000"}
}`

func TestParseProbeDisplayMatrix(t *testing.T) {
	info, err := ParseProbe([]byte(portraitProbe))
	if err != nil {
		t.Fatalf("ParseProbe failed: %v", err)
	}
	if !info.HasAudio || math.Abs(info.AudioDuration-4.98) > 1e-9 {
		t.Errorf("Expected audio track of 4.98s, got %v/%v", info.HasAudio, info.AudioDuration)
	}
	if info.Duration != 5 {
		t.Errorf("Expected duration 5, got %v", info.Duration)
	}
	o, portrait := info.Orientation()
	if o != Right || !portrait {
		t.Errorf("Expected right/portrait, got %v/%v", o, portrait)
	}
	if got := info.DisplaySize(); got != image.Pt(1080, 1920) {
		t.Errorf("Expected swapped display size, got %v", got)
	}
}

func TestParseProbeRotateTag(t *testing.T) {
	data := `{"streams":[{"codec_type":"video","width":640,"height":480,"tags":{"rotate":"180"}}],
	          "format":{"duration":"2.5"}}`
	info, err := ParseProbe([]byte(data))
	if err != nil {
		t.Fatalf("ParseProbe failed: %v", err)
	}
	if o, portrait := info.Orientation(); o != Down || portrait {
		t.Errorf("Expected down/landscape, got %v/%v", o, portrait)
	}
	if info.HasAudio {
		t.Error("Expected no audio track")
	}
}

func TestParseProbeRotationFallback(t *testing.T) {
	data := `{"streams":[{"codec_type":"video","width":640,"height":480,
	          "side_data_list":[{"side_data_type":"Display Matrix","rotation":90}]}],
	          "format":{"duration":"1"}}`
	info, err := ParseProbe([]byte(data))
	if err != nil {
		t.Fatalf("ParseProbe failed: %v", err)
	}
	if o, _ := info.Orientation(); o != Left {
		t.Errorf("Expected left for counter-clockwise rotation 90, got %v", o)
	}
}

func TestParseProbeErrors(t *testing.T) {
	if _, err := ParseProbe([]byte("{not json")); err == nil {
		t.Error("Expected JSON error")
	}
	audioOnly := `{"streams":[{"codec_type":"audio"}],"format":{"duration":"1"}}`
	if _, err := ParseProbe([]byte(audioOnly)); !errors.Is(err, ErrNoVideo) {
		t.Errorf("Expected ErrNoVideo, got %v", err)
	}
}

func TestRenderSizeIsEven(t *testing.T) {
	tests := []struct {
		info Info
		want image.Point
	}{
		{Info{Width: 641, Height: 481, Transform: Identity}, image.Pt(640, 480)},
		{Info{Width: 641, Height: 481, Transform: Rotation(90)}, image.Pt(480, 640)},
		{Info{Width: 1, Height: 1, Transform: Identity}, image.Pt(2, 2)},
	}
	for _, tt := range tests {
		if got := tt.info.RenderSize(); got != tt.want {
			t.Errorf("RenderSize(%+v) = %v, want %v", tt.info, got, tt.want)
		}
	}
}
