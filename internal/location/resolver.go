// Package location resolves the device position for duty submissions.
// Resolution is two-tier: try a fresh high-accuracy fix first, fall back
// once to a low-accuracy request, then fail. Accuracy is preferred,
// availability degrades gracefully, and exhaustion fails fast.
package location

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vtstaff/internal/domain"
)

// ErrUnavailable is returned when both accuracy tiers fail. It wraps the
// message of the final underlying failure.
var ErrUnavailable = errors.New("location unavailable")

// FixRequest describes one position attempt.
type FixRequest struct {
	// HighAccuracy selects the precise provider path.
	HighAccuracy bool

	// MaxAge is the oldest cached fix the source may return.
	MaxAge time.Duration

	// ForceFresh rejects the provider's last-known result even when it
	// is within MaxAge.
	ForceFresh bool
}

// FixSource produces device positions. The deadline for an attempt
// arrives through the context.
type FixSource interface {
	CurrentPosition(ctx context.Context, req FixRequest) (domain.Coordinates, error)
}

// Tier is the tuning for one accuracy tier.
type Tier struct {
	Timeout time.Duration
	MaxAge  time.Duration
}

// Resolver performs the two-tier resolution over an injected FixSource.
type Resolver struct {
	source FixSource
	high   Tier
	low    Tier
}

// NewResolver creates a Resolver with the standard tiers: high accuracy
// 20s timeout accepting fixes up to 10s old, low accuracy 15s timeout
// accepting fixes up to 60s old.
func NewResolver(source FixSource) *Resolver {
	return NewResolverWithTiers(source,
		Tier{Timeout: 20 * time.Second, MaxAge: 10 * time.Second},
		Tier{Timeout: 15 * time.Second, MaxAge: 60 * time.Second},
	)
}

// NewResolverWithTiers creates a Resolver with explicit tier tuning.
func NewResolverWithTiers(source FixSource, high, low Tier) *Resolver {
	return &Resolver{source: source, high: high, low: low}
}

// CurrentPosition resolves the device position. On any high-accuracy
// failure exactly one low-accuracy attempt is made; if that fails too,
// the caller gets ErrUnavailable, never a hang.
func (r *Resolver) CurrentPosition(ctx context.Context) (domain.Coordinates, error) {
	pos, err := r.attempt(ctx, FixRequest{
		HighAccuracy: true,
		MaxAge:       r.high.MaxAge,
		ForceFresh:   true,
	}, r.high.Timeout)
	if err == nil {
		return pos, nil
	}

	pos, err = r.attempt(ctx, FixRequest{
		HighAccuracy: false,
		MaxAge:       r.low.MaxAge,
	}, r.low.Timeout)
	if err == nil {
		return pos, nil
	}
	return domain.Coordinates{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func (r *Resolver) attempt(ctx context.Context, req FixRequest, timeout time.Duration) (domain.Coordinates, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return r.source.CurrentPosition(attemptCtx, req)
}
