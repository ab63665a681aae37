package location

import (
	"context"
	"errors"

	"vtstaff/internal/domain"
)

// ErrNoFix is returned by a StaticSource with no coordinates configured.
var ErrNoFix = errors.New("no position configured")

// StaticSource is a FixSource with fixed coordinates, for hosts without
// a positioning device. The zero value has no fix and fails every
// attempt.
type StaticSource struct {
	Position *domain.Coordinates
}

var _ FixSource = (*StaticSource)(nil)

func (s *StaticSource) CurrentPosition(ctx context.Context, req FixRequest) (domain.Coordinates, error) {
	if s.Position == nil {
		return domain.Coordinates{}, ErrNoFix
	}
	return *s.Position, nil
}
