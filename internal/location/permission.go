package location

import "context"

// PermissionGate answers whether the app may read device location.
// Platform differences live behind implementations of this interface,
// never as branches inside the duty flow.
type PermissionGate interface {
	Request(ctx context.Context) (bool, error)
}

// Capability is a location capability that can be requested from the
// platform.
type Capability string

const (
	CapabilityPrecise     Capability = "precise"
	CapabilityApproximate Capability = "approximate"
)

// CapabilityRequester performs the platform permission prompt for a set
// of capabilities and reports which were granted.
type CapabilityRequester interface {
	RequestCapabilities(ctx context.Context, caps []Capability) (map[Capability]bool, error)
}

// GrantedGate is the gate for platforms without a runtime permission
// model: always granted.
type GrantedGate struct{}

func (GrantedGate) Request(ctx context.Context) (bool, error) { return true, nil }

// CapabilityGate requests both precise and approximate location and
// reports granted when either is allowed.
type CapabilityGate struct {
	requester CapabilityRequester
}

// NewCapabilityGate creates a CapabilityGate over a platform requester.
func NewCapabilityGate(requester CapabilityRequester) *CapabilityGate {
	return &CapabilityGate{requester: requester}
}

var (
	_ PermissionGate = GrantedGate{}
	_ PermissionGate = (*CapabilityGate)(nil)
)

func (g *CapabilityGate) Request(ctx context.Context) (bool, error) {
	grants, err := g.requester.RequestCapabilities(ctx, []Capability{
		CapabilityPrecise,
		CapabilityApproximate,
	})
	if err != nil {
		return false, err
	}
	for _, granted := range grants {
		if granted {
			return true, nil
		}
	}
	return false, nil
}
