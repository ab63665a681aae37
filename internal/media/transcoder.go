package media

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// ErrTranscodeFailed is returned for a corrupt source or encoder error.
var ErrTranscodeFailed = errors.New("transcode failed")

// Transcode parameters. Width is the binding constraint; height follows
// the aspect ratio.
const (
	ResizeWidth = 1024
	JPEGQuality = 70
)

// Transcoder re-encodes a captured photo before upload.
type Transcoder interface {
	Resize(path string) (string, error)
}

// JPEGTranscoder caps the image width at ResizeWidth and re-encodes to
// JPEG at JPEGQuality. Deterministic for the same source bytes and
// parameters; no rotation correction beyond the source orientation.
type JPEGTranscoder struct {
	// OutputDir receives the transcoded files. Empty means the system
	// temp directory.
	OutputDir string
}

var _ Transcoder = (*JPEGTranscoder)(nil)

// Resize writes the transcoded image next to the temp files and returns
// its path. An image already at or under ResizeWidth keeps its
// dimensions and is only re-encoded.
func (t *JPEGTranscoder) Resize(path string) (string, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscodeFailed, err)
	}

	if img.Bounds().Dx() > ResizeWidth {
		img = imaging.Resize(img, ResizeWidth, 0, imaging.Lanczos)
	}

	dir := t.OutputDir
	if dir == "" {
		dir = os.TempDir()
	}
	out, err := os.CreateTemp(dir, "odometer-*.jpg")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscodeFailed, err)
	}
	name := out.Name()

	if err := imaging.Encode(out, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		out.Close()
		os.Remove(name)
		return "", fmt.Errorf("%w: %v", ErrTranscodeFailed, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("%w: %v", ErrTranscodeFailed, err)
	}
	return filepath.Clean(name), nil
}
