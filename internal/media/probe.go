// Package media inspects clips with ffprobe and derives the geometry the
// compositor renders at.
package media

import (
	"encoding/json"
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Info is what the compositor needs to know about an input clip.
type Info struct {
	Width, Height int
	Duration      float64
	HasAudio      bool
	AudioDuration float64
	Transform     Transform
}

// ErrNoVideo is returned when the clip has no video stream.
var ErrNoVideo = fmt.Errorf("no video stream found")

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

type probeStream struct {
	CodecType    string            `json:"codec_type"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	Duration     string            `json:"duration"`
	Tags         map[string]string `json:"tags"`
	SideDataList []struct {
		SideDataType  string  `json:"side_data_type"`
		DisplayMatrix string  `json:"displaymatrix"`
		Rotation      float64 `json:"rotation"`
	} `json:"side_data_list"`
}

// Probe runs ffprobe on path.
func Probe(path string) (*Info, error) {
	out, err := ffmpeg.Probe(path)
	if err != nil {
		return nil, fmt.Errorf("error probing video: %v", err)
	}
	return ParseProbe([]byte(out))
}

// ParseProbe decodes ffprobe JSON (-show_format -show_streams).
func ParseProbe(data []byte) (*Info, error) {
	var p probeOutput
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.WithStack(err)
	}

	var video, audio *probeStream
	for i := range p.Streams {
		s := &p.Streams[i]
		switch s.CodecType {
		case "video":
			if video == nil {
				video = s
			}
		case "audio":
			if audio == nil {
				audio = s
			}
		}
	}
	if video == nil {
		return nil, ErrNoVideo
	}

	info := &Info{
		Width:     video.Width,
		Height:    video.Height,
		Transform: streamTransform(video),
	}

	info.Duration = parseSeconds(p.Format.Duration)
	if info.Duration == 0 {
		info.Duration = parseSeconds(video.Duration)
	}
	if audio != nil {
		info.HasAudio = true
		info.AudioDuration = parseSeconds(audio.Duration)
	}

	return info, nil
}

// streamTransform prefers the display matrix, then the side data rotation,
// then the legacy rotate tag.
func streamTransform(s *probeStream) Transform {
	for _, sd := range s.SideDataList {
		if sd.SideDataType != "Display Matrix" {
			continue
		}
		if t, ok := parseDisplayMatrix(sd.DisplayMatrix); ok {
			return t
		}
		// Поворот в side data против часовой стрелки
		return Rotation(-sd.Rotation)
	}
	if v, ok := s.Tags["rotate"]; ok {
		if deg, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return Rotation(deg)
		}
	}
	return Identity
}

// parseDisplayMatrix reads ffprobe's textual 3x3 matrix dump:
//
//	00000000:            0       65536           0
//	00000001:      -65536           0           0
//	00000002:            0           0  1073741824
//
// Rows are (a b u), (c d v), (tx ty w); a..d and tx, ty are 16.16 fixed point.
func parseDisplayMatrix(s string) (Transform, bool) {
	var rows [][]int64
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if i := strings.Index(line, ":"); i >= 0 {
			line = line[i+1:]
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return Transform{}, false
		}
		row := make([]int64, 3)
		for j, f := range fields {
			v, err := strconv.ParseInt(f, 10, 64)
			if err != nil {
				return Transform{}, false
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	if len(rows) != 3 {
		return Transform{}, false
	}

	const one = 65536.0
	return Transform{
		A:  float64(rows[0][0]) / one,
		B:  float64(rows[0][1]) / one,
		C:  float64(rows[1][0]) / one,
		D:  float64(rows[1][1]) / one,
		Tx: float64(rows[2][0]) / one,
		Ty: float64(rows[2][1]) / one,
	}, true
}

func parseSeconds(s string) float64 {
	d, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// Orientation of the clip's video track.
func (i *Info) Orientation() (Orientation, bool) {
	return OrientationOf(i.Transform)
}

// DisplaySize is the natural size, swapped for portrait orientations.
func (i *Info) DisplaySize() image.Point {
	if _, portrait := i.Orientation(); portrait {
		return image.Pt(i.Height, i.Width)
	}
	return image.Pt(i.Width, i.Height)
}

// RenderSize is DisplaySize rounded down to even sides, at least 2×2, which
// is what yuv420p output requires.
func (i *Info) RenderSize() image.Point {
	sz := i.DisplaySize()
	return image.Pt(even(sz.X), even(sz.Y))
}

func even(v int) int {
	v &^= 1
	if v < 2 {
		return 2
	}
	return v
}
