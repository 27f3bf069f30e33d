package blocker

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"slices"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/canaryports/canaryports/internal/address"
	"github.com/canaryports/canaryports/internal/util"
)

const logFileMode = 0o600

// storeLocked rewrites the whole log as a JSON array of address strings.
func (c *Controller) storeLocked() error {
	blocked := c.blocked
	if blocked == nil {
		blocked = []string{}
	}
	data, err := json.Marshal(blocked)
	if err != nil {
		return &PersistenceError{Op: "encode", Path: c.logPath, Err: err}
	}
	if err := util.WriteFileAtomic(c.logPath, data, logFileMode); err != nil {
		return &PersistenceError{Op: "write", Path: c.logPath, Err: err}
	}
	return nil
}

func (c *Controller) restoreLocked() error {
	data, err := os.ReadFile(c.logPath)
	if errors.Is(err, fs.ErrNotExist) {
		c.log.Info("No blocked address log found, starting empty", zap.String("path", c.logPath))
		c.blocked = []string{}
		return nil
	}
	if err != nil {
		return &PersistenceError{Op: "read", Path: c.logPath, Err: err}
	}

	blocked, err := decodeLog(data)
	if err != nil {
		return &PersistenceError{Op: "decode", Path: c.logPath, Err: err}
	}
	c.blocked = blocked
	c.log.Info("Restored blocked addresses", zap.String("path", c.logPath), zap.Int("count", len(blocked)))
	return nil
}

// decodeLog parses the log, rejecting malformed addresses and dropping
// duplicates. An empty file is an empty set.
func decodeLog(data []byte) ([]string, error) {
	blocked := []string{}
	if len(bytes.TrimSpace(data)) == 0 {
		return blocked, nil
	}

	var entries []string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, pkgerrors.Wrap(err, "invalid JSON in blocked address log")
	}
	for i, entry := range entries {
		addr, family := address.Canonical(entry)
		if family == address.Invalid {
			return nil, pkgerrors.Wrapf(&InvalidAddressError{Address: entry}, "entry %d", i)
		}
		if !slices.Contains(blocked, addr) {
			blocked = append(blocked, addr)
		}
	}
	return blocked, nil
}
