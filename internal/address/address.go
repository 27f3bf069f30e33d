package address

import (
	"net"
	"net/netip"
)

// Family is the address family of a textual IP address.
type Family int

const (
	Invalid Family = iota
	IPv4
	IPv6
)

func (f Family) String() string {
	switch f {
	case IPv4:
		return "ipv4"
	case IPv6:
		return "ipv6"
	default:
		return "invalid"
	}
}

// Classify reports whether s is a valid IPv4 or IPv6 address.
// IPv4-mapped IPv6 addresses are treated as IPv4. Zoned addresses are invalid.
func Classify(s string) Family {
	addr, err := netip.ParseAddr(s)
	if err != nil || addr.Zone() != "" {
		return Invalid
	}
	if addr.Unmap().Is4() {
		return IPv4
	}
	return IPv6
}

// Canonical returns the canonical textual form of s and its family.
// It returns Invalid and an empty string when s is not an IP address.
func Canonical(s string) (string, Family) {
	family := Classify(s)
	if family == Invalid {
		return "", Invalid
	}
	addr := netip.MustParseAddr(s).Unmap()
	return addr.String(), family
}

// FromNetAddr extracts the peer IP of a connection address.
func FromNetAddr(a net.Addr) (netip.Addr, bool) {
	switch v := a.(type) {
	case *net.TCPAddr:
		addr, ok := netip.AddrFromSlice(v.IP)
		return addr.Unmap(), ok
	case nil:
		return netip.Addr{}, false
	}
	ap, err := netip.ParseAddrPort(a.String())
	if err != nil {
		return netip.Addr{}, false
	}
	return ap.Addr().Unmap(), true
}
