package address

import (
	"fmt"
	"net/netip"
	"strings"

	"go4.org/netipx"
)

// Allowlist is an immutable set of addresses that must never be blocked.
// The zero value and a nil *Allowlist contain nothing.
type Allowlist struct {
	set *netipx.IPSet
}

// NewAllowlist builds an Allowlist from CIDR prefixes or single addresses.
func NewAllowlist(entries []string) (*Allowlist, error) {
	var b netipx.IPSetBuilder
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if strings.Contains(e, "/") {
			p, err := netip.ParsePrefix(e)
			if err != nil {
				return nil, fmt.Errorf("invalid allowlist prefix %q: %w", e, err)
			}
			b.AddPrefix(p.Masked())
			continue
		}
		a, err := netip.ParseAddr(e)
		if err != nil {
			return nil, fmt.Errorf("invalid allowlist address %q: %w", e, err)
		}
		b.Add(a.Unmap())
	}
	set, err := b.IPSet()
	if err != nil {
		return nil, err
	}
	return &Allowlist{set: set}, nil
}

// Contains reports whether addr is covered by the allowlist.
func (a *Allowlist) Contains(addr netip.Addr) bool {
	if a == nil || a.set == nil {
		return false
	}
	return a.set.Contains(addr.Unmap())
}

// Prefixes returns the minimal list of prefixes covering the allowlist.
func (a *Allowlist) Prefixes() []netip.Prefix {
	if a == nil || a.set == nil {
		return nil
	}
	return a.set.Prefixes()
}
