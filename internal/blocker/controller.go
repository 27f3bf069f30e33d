package blocker

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/canaryports/canaryports/internal/address"
	"github.com/canaryports/canaryports/internal/firewall"
)

const (
	opBlock   = "block"
	opUnblock = "unblock"
)

// Options configures a Controller.
type Options struct {
	// LogPath is the JSON file holding the blocked addresses.
	LogPath string
	// Backend applies blocks at the OS level.
	Backend firewall.Backend
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Controller owns the set of blocked addresses. It validates addresses,
// dispatches them to the firewall backend and persists the set after every
// change. All methods are safe for concurrent use; each call holds a single
// lock across validation, backend call and persistence.
type Controller struct {
	mu      sync.Mutex
	logPath string
	backend firewall.Backend
	log     *zap.Logger
	blocked []string
}

// New builds a Controller and restores the blocked addresses from opts.LogPath.
// Most callers want the process-wide Instance instead.
func New(opts Options) (*Controller, error) {
	if opts.LogPath == "" {
		return nil, fmt.Errorf("blocked address log path is required")
	}
	if opts.Backend == nil {
		return nil, fmt.Errorf("firewall backend is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	c := &Controller{
		logPath: opts.LogPath,
		backend: opts.Backend,
		log:     opts.Logger.With(zap.String("backend", opts.Backend.Name())),
		blocked: []string{},
	}
	if err := c.RestoreBlockedIPs(); err != nil {
		return nil, err
	}
	return c, nil
}

// LogPath returns the path of the persisted log.
func (c *Controller) LogPath() string {
	return c.logPath
}

// BlockIP blocks address through the backend and records it. Blocking an
// address that is already recorded succeeds without touching the backend.
// If the backend fails nothing is recorded; if persisting fails the backend
// change is reverted.
func (c *Controller) BlockIP(ctx context.Context, addr string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blockLocked(ctx, addr)
}

// UnblockIP removes the backend block for address and forgets it. It fails
// with AddressNotBlockedError for addresses that are not recorded.
func (c *Controller) UnblockIP(ctx context.Context, addr string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unblockLocked(ctx, addr)
}

// BlockedIPs returns a copy of the blocked addresses in blocking order.
func (c *Controller) BlockedIPs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.blocked...)
}

// IsBlocked reports whether address is recorded as blocked.
func (c *Controller) IsBlocked(addr string) bool {
	canonical, family := address.Canonical(addr)
	if family == address.Invalid {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Contains(c.blocked, canonical)
}

// ClearBlockedIPs unblocks every recorded address, persisting after each one.
// Addresses the backend refuses to unblock stay recorded and their errors are
// returned together.
func (c *Controller) ClearBlockedIPs(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs error
	for _, addr := range slices.Clone(c.blocked) {
		errs = multierr.Append(errs, c.unblockLocked(ctx, addr))
	}
	if errs == nil {
		c.log.Info("Cleared blocked addresses")
	}
	return errs
}

// Reapply issues the backend block again for every recorded address. Kernel
// rules do not survive a reboot while the log does.
func (c *Controller) Reapply(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs error
	for _, addr := range c.blocked {
		_, family := address.Canonical(addr)
		errs = multierr.Append(errs, c.apply(ctx, opBlock, addr, family))
	}
	c.log.Info("Reapplied blocked addresses", zap.Int("count", len(c.blocked)), zap.Int("failed", len(multierr.Errors(errs))))
	return errs
}

// StoreBlockedIPs writes the blocked addresses to the log.
func (c *Controller) StoreBlockedIPs() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.storeLocked()
}

// RestoreBlockedIPs replaces the in-memory set with the content of the log.
// A missing log is an empty set.
func (c *Controller) RestoreBlockedIPs() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.restoreLocked()
}

func (c *Controller) blockLocked(ctx context.Context, raw string) error {
	addr, family := address.Canonical(raw)
	if family == address.Invalid {
		return &InvalidAddressError{Address: raw}
	}
	if slices.Contains(c.blocked, addr) {
		c.log.Debug("Address already blocked", zap.String("address", addr))
		return nil
	}

	if err := c.apply(ctx, opBlock, addr, family); err != nil {
		return err
	}

	c.blocked = append(c.blocked, addr)
	if err := c.storeLocked(); err != nil {
		c.blocked = c.blocked[:len(c.blocked)-1]
		c.revert(ctx, opUnblock, addr, family)
		return err
	}
	c.log.Info("Blocked address", zap.String("address", addr), zap.Stringer("family", family))
	return nil
}

func (c *Controller) unblockLocked(ctx context.Context, raw string) error {
	addr, family := address.Canonical(raw)
	if family == address.Invalid {
		return &InvalidAddressError{Address: raw}
	}
	i := slices.Index(c.blocked, addr)
	if i < 0 {
		return &AddressNotBlockedError{Address: addr}
	}

	if err := c.apply(ctx, opUnblock, addr, family); err != nil {
		return err
	}

	c.blocked = slices.Delete(c.blocked, i, i+1)
	if err := c.storeLocked(); err != nil {
		c.blocked = slices.Insert(c.blocked, i, addr)
		c.revert(ctx, opBlock, addr, family)
		return err
	}
	c.log.Info("Unblocked address", zap.String("address", addr), zap.Stringer("family", family))
	return nil
}

func (c *Controller) apply(ctx context.Context, op, addr string, family address.Family) error {
	var err error
	switch {
	case op == opBlock && family == address.IPv4:
		err = c.backend.BlockIPv4(ctx, addr)
	case op == opBlock && family == address.IPv6:
		err = c.backend.BlockIPv6(ctx, addr)
	case op == opUnblock && family == address.IPv4:
		err = c.backend.UnblockIPv4(ctx, addr)
	case op == opUnblock && family == address.IPv6:
		err = c.backend.UnblockIPv6(ctx, addr)
	default:
		return &InvalidAddressError{Address: addr}
	}
	if err != nil {
		return &BackendError{Op: op, Backend: c.backend.Name(), Address: addr, Err: err}
	}
	return nil
}

// revert undoes a backend change whose persistence failed.
func (c *Controller) revert(ctx context.Context, op, addr string, family address.Family) {
	if err := c.apply(ctx, op, addr, family); err != nil {
		c.log.Error("Failed to revert firewall change, rules and log disagree",
			zap.String("address", addr), zap.String("op", op), zap.Error(err))
	}
}
