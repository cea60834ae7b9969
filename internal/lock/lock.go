package lock

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// FileLock guards the topology config file against concurrent invocations.
// Two replctl processes writing the config at the same time must not be able
// to interleave their load/save sequences.
type FileLock struct {
	fl   *flock.Flock
	path string
}

// New returns the lock for a config path at /tmp/replctl_<hash>.lock.
func New(configPath string) *FileLock {
	abs := filepath.Clean(configPath)
	sum := sha256.Sum256([]byte(abs))
	name := fmt.Sprintf("/tmp/replctl_%s.lock", hex.EncodeToString(sum[:8]))
	return &FileLock{fl: flock.New(name), path: name}
}

// Lock blocks until the lock is acquired.
func (l *FileLock) Lock() error {
	return l.fl.Lock()
}

// TryLock attempts non-blocking lock.
func (l *FileLock) TryLock() (bool, error) {
	return l.fl.TryLock()
}

// Unlock releases.
func (l *FileLock) Unlock() error {
	if err := l.fl.Unlock(); err != nil {
		return err
	}
	// Best-effort cleanup: remove the lock file so it does not linger in /tmp.
	// Ignore any error (e.g. if another process already removed it).
	_ = os.Remove(l.path)
	return nil
}
