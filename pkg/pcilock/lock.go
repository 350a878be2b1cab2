// Package pcilock provides the per-module cross-process lock that serializes
// PCI remove and rescan operations.
package pcilock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	vfs "github.com/twpayne/go-vfs"
	"golang.org/x/sys/unix"
)

// DefaultDir is the directory holding the lock files
const DefaultDir = "/var/lock"

// Locker hands out exclusive flock(2) locks keyed by module name.
// Locks taken through different Lockers, or different processes, on the
// same name exclude each other.
type Locker struct {
	fs  vfs.FS
	dir string
}

// New constructs a file-based locker rooted at dir
func New(fs vfs.FS, dir string) *Locker {
	return &Locker{fs: fs, dir: dir}
}

// Path returns the lock file used for a module
func (l *Locker) Path(name string) string {
	return filepath.Join(l.dir, name+"_pci.lock")
}

// Lock blocks until the exclusive lock for name is held and returns its
// release function. There is no timeout.
func (l *Locker) Lock(name string) (func() error, error) {
	if l == nil || l.dir == "" {
		return nil, errors.New("lock directory is not configured")
	}
	if name == "" {
		return nil, errors.New("module name is empty")
	}
	if err := vfs.MkdirAll(l.fs, l.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	file, err := l.fs.OpenFile(l.Path(name), os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	for {
		err = unix.Flock(int(file.Fd()), unix.LOCK_EX)
		if err == nil {
			break
		}
		if !errors.Is(err, unix.EINTR) {
			_ = file.Close()
			return nil, fmt.Errorf("acquire lock: %w", err)
		}
	}

	var once sync.Once
	var releaseErr error
	release := func() error {
		once.Do(func() {
			lockErr := unix.Flock(int(file.Fd()), unix.LOCK_UN)
			closeErr := file.Close()
			if lockErr != nil {
				releaseErr = fmt.Errorf("release lock: %w", lockErr)
			} else if closeErr != nil {
				releaseErr = fmt.Errorf("close lock file: %w", closeErr)
			}
		})
		return releaseErr
	}
	return release, nil
}

// WithLock runs fn while holding the lock for name. The lock is released
// exactly once when fn returns or panics.
func (l *Locker) WithLock(name string, fn func() error) (err error) {
	release, err := l.Lock(name)
	if err != nil {
		return err
	}
	defer func() {
		if relErr := release(); relErr != nil {
			err = errors.Join(err, relErr)
		}
	}()
	return fn()
}
