// Package filelock provides the advisory lock guarding the configuration
// record and the numbering of the managed directory.
package filelock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/genricoloni/visuals/internal/domain"
)

const (
	// DefaultTimeout bounds how long Acquire waits for a contended lock
	DefaultTimeout = 5 * time.Second
	pollInterval   = 100 * time.Millisecond
)

// errWouldBlock is returned by tryLock when another process holds the lock
var errWouldBlock = errors.New("lock held by another process")

// Lock is an exclusive advisory lock on a file
type Lock struct {
	file *os.File
}

// Acquire takes the lock at path, polling until timeout elapses.
// Past the bound it fails with domain.ErrConfigBusy.
func Acquire(ctx context.Context, path string, timeout time.Duration) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, domain.FilesystemError("create lock directory", err)
	}
	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, domain.FilesystemError("open lock file", err)
	}

	deadline := time.Now().Add(timeout)
	for {
		err := tryLock(f)
		if err == nil {
			return &Lock{file: f}, nil
		}
		if !errors.Is(err, errWouldBlock) {
			_ = f.Close()
			return nil, domain.FilesystemError("lock "+path, err)
		}
		if time.Now().After(deadline) {
			_ = f.Close()
			return nil, fmt.Errorf("%w: %s held for more than %s", domain.ErrConfigBusy, path, timeout)
		}

		select {
		case <-ctx.Done():
			_ = f.Close()
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// Release unlocks and closes the lock file. Safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	f := l.file
	l.file = nil
	unlockErr := unlock(f)
	closeErr := f.Close()
	if unlockErr != nil {
		return unlockErr
	}
	return closeErr
}
