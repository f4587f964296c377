package library

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/ivlev/animatedimage/internal/config"
)

func writeVideo(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestDirLibrarySave(t *testing.T) {
	src := writeVideo(t, t.TempDir(), "clip.mov", "video-1")
	lib := &DirLibrary{Dir: filepath.Join(t.TempDir(), "library")}

	first, err := lib.Save(context.Background(), src)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if filepath.Base(first) != "clip.mov" {
		t.Errorf("unexpected name %s", first)
	}

	os.WriteFile(src, []byte("video-2"), 0644)
	second, err := lib.Save(context.Background(), src)
	if err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	if filepath.Base(second) != "clip-1.mov" {
		t.Errorf("expected suffixed name, got %s", second)
	}

	if data, _ := os.ReadFile(first); string(data) != "video-1" {
		t.Errorf("first copy overwritten: %q", data)
	}
	if data, _ := os.ReadFile(second); string(data) != "video-2" {
		t.Errorf("second copy wrong: %q", data)
	}

	entries, _ := os.ReadDir(lib.Dir)
	if len(entries) != 2 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestDirLibraryMissingSource(t *testing.T) {
	lib := &DirLibrary{Dir: t.TempDir()}
	if _, err := lib.Save(context.Background(), filepath.Join(lib.Dir, "nope.mov")); err == nil {
		t.Error("expected error for missing file")
	}
}

type fakePutter struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakePutter) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	f.body, _ = io.ReadAll(in.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3LibrarySave(t *testing.T) {
	src := writeVideo(t, t.TempDir(), "4f1c.mov", "movie")
	put := &fakePutter{}
	lib := &S3Library{Bucket: "media", Prefix: "videos", client: put}

	loc, err := lib.Save(context.Background(), src)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if loc != "s3://media/videos/4f1c.mov" {
		t.Errorf("unexpected location %s", loc)
	}
	if aws.ToString(put.in.ContentType) != "video/quicktime" {
		t.Errorf("content type %q", aws.ToString(put.in.ContentType))
	}
	if aws.ToInt64(put.in.ContentLength) != 5 || string(put.body) != "movie" {
		t.Errorf("unexpected upload body %q", put.body)
	}
}

func TestS3LibraryAPIError(t *testing.T) {
	src := writeVideo(t, t.TempDir(), "a.mov", "x")
	put := &fakePutter{err: &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"}}
	lib := &S3Library{Bucket: "media", client: put}

	_, err := lib.Save(context.Background(), src)
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); got != "upload s3://media/a.mov: AccessDenied: denied" {
		t.Errorf("unexpected error %q", got)
	}

	put.err = errors.New("dial tcp: timeout")
	if _, err := lib.Save(context.Background(), src); !errors.Is(err, put.err) {
		t.Errorf("expected wrapped transport error, got %v", err)
	}
}

func TestNew(t *testing.T) {
	lib, err := New(context.Background(), config.Library{Kind: "dir", Dir: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if d, ok := lib.(*DirLibrary); !ok || d.Dir != "x" {
		t.Errorf("expected DirLibrary, got %#v", lib)
	}
	if _, err := New(context.Background(), config.Library{Kind: "ftp"}); err == nil {
		t.Error("expected error for unknown kind")
	}
	if _, err := New(context.Background(), config.Library{Kind: "s3"}); err == nil {
		t.Error("expected error for s3 without bucket")
	}

	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	lib, err = New(context.Background(), config.Library{Kind: "s3", Bucket: "b", Profile: "no-such-profile"})
	if err == nil {
		t.Fatal("expected error for unknown AWS profile")
	}
	if lib != nil {
		t.Errorf("failed library must be a nil interface, got %#v", lib)
	}
}
