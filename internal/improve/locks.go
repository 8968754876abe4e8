package improve

import (
	"path/filepath"
	"sync"
)

// dirLocks provides per-directory mutual exclusion: each directory gets its
// own mutex, so cycles over different directories still run concurrently.
type dirLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// cycleLocks serializes improvement cycles over the same directory within the process.
var cycleLocks = newDirLocks()

func newDirLocks() *dirLocks {
	return &dirLocks{locks: make(map[string]*sync.Mutex)}
}

// lockKey normalizes dir so "out" and "./out/" share a lock.
func lockKey(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return filepath.Clean(dir)
}

// Lock acquires the mutex for dir, creating it on first use.
func (d *dirLocks) Lock(dir string) {
	key := lockKey(dir)
	d.mu.Lock()
	l, ok := d.locks[key]
	if !ok {
		l = &sync.Mutex{}
		d.locks[key] = l
	}
	d.mu.Unlock()

	l.Lock()
}

// Unlock releases the mutex for dir.
func (d *dirLocks) Unlock(dir string) {
	key := lockKey(dir)
	d.mu.Lock()
	l, ok := d.locks[key]
	d.mu.Unlock()

	if ok {
		l.Unlock()
	}
}
