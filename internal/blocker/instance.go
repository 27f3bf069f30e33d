package blocker

import (
	"sync"

	"go.uber.org/zap"
)

var (
	instanceMu sync.Mutex
	instance   *Controller
)

// Instance returns the process-wide Controller, building it from opts on the
// first successful call. Later calls return the same Controller and ignore
// opts, including a different LogPath. A failed construction is not cached, so
// the next call tries again.
func Instance(opts Options) (*Controller, error) {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	if instance != nil {
		if opts.LogPath != "" && opts.LogPath != instance.logPath {
			instance.log.Debug("Ignoring log path for existing controller",
				zap.String("requested", opts.LogPath), zap.String("path", instance.logPath))
		}
		return instance, nil
	}

	c, err := New(opts)
	if err != nil {
		return nil, err
	}
	instance = c
	return instance, nil
}
