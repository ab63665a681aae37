package media

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

// writeTestJPEG writes a solid-color JPEG with the given dimensions and
// returns its path.
func writeTestJPEG(t *testing.T, dir string, width, height int) string {
	t.Helper()
	img := imaging.New(width, height, color.NRGBA{R: 200, G: 120, B: 40, A: 255})
	path := filepath.Join(dir, "src.jpg")
	if err := imaging.Save(img, path, imaging.JPEGQuality(90)); err != nil {
		t.Fatalf("write test image: %v", err)
	}
	return path
}

func openBounds(t *testing.T, path string) image.Rectangle {
	t.Helper()
	img, err := imaging.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	return img.Bounds()
}

func TestJPEGTranscoder_CapsWidth(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writeTestJPEG(t, dir, 2048, 1536)

	out, err := (&JPEGTranscoder{OutputDir: dir}).Resize(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bounds := openBounds(t, out)
	if bounds.Dx() != 1024 {
		t.Errorf("expected width 1024, got %d", bounds.Dx())
	}
	// Aspect preserved: 2048x1536 scales to 1024x768.
	if bounds.Dy() != 768 {
		t.Errorf("expected height 768, got %d", bounds.Dy())
	}
}

func TestJPEGTranscoder_TallImageKeepsWidth(t *testing.T) {
	t.Parallel()

	// Width is the binding constraint; a tall narrow image is left at
	// its original dimensions.
	dir := t.TempDir()
	src := writeTestJPEG(t, dir, 500, 2000)

	out, err := (&JPEGTranscoder{OutputDir: dir}).Resize(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bounds := openBounds(t, out)
	if bounds.Dx() != 500 || bounds.Dy() != 2000 {
		t.Errorf("expected 500x2000, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestJPEGTranscoder_ResizeIsIdempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writeTestJPEG(t, dir, 3000, 1000)
	transcoder := &JPEGTranscoder{OutputDir: dir}

	first, err := transcoder.Resize(src)
	if err != nil {
		t.Fatalf("first resize: %v", err)
	}
	second, err := transcoder.Resize(first)
	if err != nil {
		t.Fatalf("second resize: %v", err)
	}

	firstBounds := openBounds(t, first)
	secondBounds := openBounds(t, second)
	if firstBounds.Dx() != secondBounds.Dx() || firstBounds.Dy() != secondBounds.Dy() {
		t.Errorf("second pass changed dimensions: %v -> %v", firstBounds, secondBounds)
	}
}

func TestJPEGTranscoder_CorruptSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "broken.jpg")
	if err := os.WriteFile(src, []byte("not an image"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := (&JPEGTranscoder{OutputDir: dir}).Resize(src)
	if !errors.Is(err, ErrTranscodeFailed) {
		t.Fatalf("expected ErrTranscodeFailed, got %v", err)
	}
}

func TestJPEGTranscoder_MissingSource(t *testing.T) {
	t.Parallel()

	_, err := (&JPEGTranscoder{OutputDir: t.TempDir()}).Resize("/does/not/exist.jpg")
	if !errors.Is(err, ErrTranscodeFailed) {
		t.Fatalf("expected ErrTranscodeFailed, got %v", err)
	}
}
