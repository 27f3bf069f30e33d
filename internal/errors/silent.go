package errors

import stderrors "errors"

// Silent wraps an error whose details the command already logged, so main
// only sets the exit code.
type Silent struct {
	error
}

// NewSilent returns a new Silent.
func NewSilent(err error) error {
	return Silent{
		error: err,
	}
}

func (s Silent) Unwrap() error {
	return s.error
}

// IsSilent checks if err is, or wraps, a Silent error.
func IsSilent(err error) bool {
	var s Silent
	return stderrors.As(err, &s)
}
