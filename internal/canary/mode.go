package canary

import "fmt"

// Mode decides what a listener does with a probing peer.
type Mode int

const (
	// DetectionOnly reports peers without blocking them.
	DetectionOnly Mode = iota
	// Enforcing blocks every peer that is not allowlisted.
	Enforcing
)

const (
	detectionOnlyName = "detection-only"
	enforcingName     = "enforcing"
)

// Modes lists the accepted mode names.
var Modes = []string{enforcingName, detectionOnlyName}

func (m Mode) String() string {
	switch m {
	case Enforcing:
		return enforcingName
	case DetectionOnly:
		return detectionOnlyName
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts a mode name into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case enforcingName:
		return Enforcing, nil
	case detectionOnlyName:
		return DetectionOnly, nil
	}
	return 0, fmt.Errorf("unknown canary mode %q, expected one of %v", s, Modes)
}
