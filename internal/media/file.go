package media

import (
	"context"
	"os"
)

// FileChooser is a Chooser that picks a pre-existing file, for hosts
// without a camera or gallery UI. An empty path behaves like a user
// cancellation; a missing file reports an error code the way a platform
// chooser would.
type FileChooser struct {
	Path string
}

var _ Chooser = (*FileChooser)(nil)

func (c *FileChooser) Choose(ctx context.Context, source Source) (Result, error) {
	if c.Path == "" {
		return Result{Cancelled: true}, nil
	}
	if _, err := os.Stat(c.Path); err != nil {
		return Result{ErrorCode: "file_unavailable", ErrorMessage: err.Error()}, nil
	}
	return Result{URI: c.Path}, nil
}
