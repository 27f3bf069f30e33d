package blocker

import "sync"

// ResetInstance drops the process-wide controller between tests.
func ResetInstance() {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	instance = nil
}

// Mutex exposes the guard so tests can check instances share it.
func (c *Controller) Mutex() *sync.Mutex {
	return &c.mu
}
