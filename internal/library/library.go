// Package library saves finished videos: to a local directory or to S3.
package library

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ivlev/animatedimage/internal/config"
)

// Library is the destination of the save action.
type Library interface {
	// Save stores the video at path and returns where it ended up.
	Save(ctx context.Context, path string) (string, error)
}

// New builds the library selected by cfg.Kind.
func New(ctx context.Context, cfg config.Library) (Library, error) {
	switch cfg.Kind {
	case "", "dir":
		return &DirLibrary{Dir: cfg.Dir}, nil
	case "s3":
		l, err := NewS3Library(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return l, nil
	default:
		return nil, fmt.Errorf("unknown library kind %q", cfg.Kind)
	}
}

// DirLibrary copies videos into a directory. Existing files are never
// overwritten; a numeric suffix is added instead.
type DirLibrary struct {
	Dir string
}

func (l *DirLibrary) Save(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(l.Dir, 0755); err != nil {
		return "", err
	}

	src, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := filepath.Base(path)

	// временный файл в той же папке, чтобы rename был атомарным
	tmp, err := os.CreateTemp(l.Dir, "."+name+".tmp-*")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpName)
	}()

	if _, err := io.Copy(tmp, src); err != nil {
		return "", fmt.Errorf("copy %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	dst, err := freeName(l.Dir, name)
	if err != nil {
		return "", err
	}
	// Link fails instead of replacing a file that appeared meanwhile
	for {
		err = os.Link(tmpName, dst)
		if !os.IsExist(err) {
			break
		}
		if dst, err = freeName(l.Dir, name); err != nil {
			return "", err
		}
	}
	if err != nil {
		return "", err
	}
	return dst, nil
}

// freeName returns dir/name, or dir/base-N.ext for the first unused N.
func freeName(dir, name string) (string, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 0; i < 10000; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d%s", base, i, ext)
		}
		p := filepath.Join(dir, candidate)
		if _, err := os.Lstat(p); os.IsNotExist(err) {
			return p, nil
		} else if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("no free name for %s in %s", name, dir)
}
