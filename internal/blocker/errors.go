package blocker

import (
	"errors"
	"fmt"
)

// InvalidAddressError is returned for input that is neither IPv4 nor IPv6.
type InvalidAddressError struct {
	Address string
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid IP address %q", e.Address)
}

// AddressNotBlockedError is returned when unblocking an address that is not tracked.
type AddressNotBlockedError struct {
	Address string
}

func (e *AddressNotBlockedError) Error() string {
	return fmt.Sprintf("address %s is not blocked", e.Address)
}

// BackendError is returned when the firewall backend fails to apply a change.
type BackendError struct {
	Op      string
	Backend string
	Address string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s %s with %s backend: %v", e.Op, e.Address, e.Backend, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// PersistenceError is returned when the blocked-address log cannot be read or written.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s blocked address log %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsInvalidAddress checks if err is, or wraps, an InvalidAddressError.
func IsInvalidAddress(err error) bool {
	var target *InvalidAddressError
	return errors.As(err, &target)
}

// IsNotBlocked checks if err is, or wraps, an AddressNotBlockedError.
func IsNotBlocked(err error) bool {
	var target *AddressNotBlockedError
	return errors.As(err, &target)
}

// IsBackend checks if err is, or wraps, a BackendError.
func IsBackend(err error) bool {
	var target *BackendError
	return errors.As(err, &target)
}

// IsPersistence checks if err is, or wraps, a PersistenceError.
func IsPersistence(err error) bool {
	var target *PersistenceError
	return errors.As(err, &target)
}

// IsRecoverable reports whether err is one of the failures the controller
// reports for a single address. Callers handling many addresses can log these
// and carry on.
func IsRecoverable(err error) bool {
	return IsInvalidAddress(err) || IsNotBlocked(err) || IsBackend(err) || IsPersistence(err)
}
