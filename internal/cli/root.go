package cli

import (
	"errors"
	"os/user"
)

var ErrMustRunAsRoot = errors.New("this command must be run as root")

// IsRunningAsRoot reports whether the process runs with uid 0.
func IsRunningAsRoot() (bool, error) {
	u, err := user.Current()
	if err != nil {
		return false, err
	}
	return u.Uid == "0", nil
}

// RequireRoot returns ErrMustRunAsRoot unless the process runs as root.
func RequireRoot() error {
	root, err := IsRunningAsRoot()
	if err != nil {
		return err
	}
	if !root {
		return ErrMustRunAsRoot
	}
	return nil
}
