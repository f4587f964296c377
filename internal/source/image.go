package source

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ImageSource serves a single decoded image file. The file is decoded
// lazily and kept, so repeated renders do not touch the disk again.
type ImageSource struct {
	path string
	img  image.Image
}

func NewImageSource(path string) (*ImageSource, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s is a directory, expected an image file", path)
	}
	return &ImageSource{path: path}, nil
}

// NewMemorySource wraps an already decoded image.
func NewMemorySource(img image.Image) *ImageSource {
	return &ImageSource{img: img}
}

func (s *ImageSource) PageCount() int {
	return 1
}

func (s *ImageSource) GetPageDimensions(index int) (float64, float64, error) {
	if s.img != nil {
		b := s.img.Bounds()
		return float64(b.Dx()), float64(b.Dy()), nil
	}

	f, err := os.Open(s.path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return float64(cfg.Width), float64(cfg.Height), nil
}

func (s *ImageSource) RenderPage(index int, dpi int) (image.Image, error) {
	if index != 0 {
		return nil, fmt.Errorf("image source has a single page, got index %d", index)
	}
	if s.img != nil {
		return s.img, nil
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	s.img = img
	return img, nil
}

func (s *ImageSource) Close() error {
	return nil
}
