package firewall

import "context"

// Backend blocks and unblocks traffic from single addresses at the OS level.
// Addresses are passed in canonical textual form and have already been
// classified, so implementations never see malformed input. Blocking an already
// blocked address and unblocking an address without a rule both succeed.
type Backend interface {
	// Name returns the backend name as accepted by New.
	Name() string

	// BlockIPv4 drops inbound traffic from an IPv4 address.
	BlockIPv4(ctx context.Context, addr string) error

	// BlockIPv6 drops inbound traffic from an IPv6 address.
	BlockIPv6(ctx context.Context, addr string) error

	// UnblockIPv4 removes the rule added by BlockIPv4.
	UnblockIPv4(ctx context.Context, addr string) error

	// UnblockIPv6 removes the rule added by BlockIPv6.
	UnblockIPv6(ctx context.Context, addr string) error
}

// Manager is implemented by backends fronting a service that may be installed
// but switched off.
type Manager interface {
	// IsEnabled returns if firewall is enabled
	IsEnabled(ctx context.Context) (bool, error)
}
