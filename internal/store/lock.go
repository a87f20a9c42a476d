package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrStoreLocked indicates another process holds the writer lock.
var ErrStoreLocked = errors.New("store is locked by another writer")

// Lock is an exclusive writer lock on a repository's store.
type Lock struct {
	file *os.File
}

// AcquireLock takes the writer lock of the repository at repoPath without
// blocking. It fails with ErrStoreLocked when another process holds it.
func AcquireLock(repoPath string) (*Lock, error) {
	dir := filepath.Join(repoPath, DirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", DirName, err)
	}

	lockFile, err := os.OpenFile(filepath.Join(dir, "store.lock"), os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open store lock: %w", err)
	}
	if err := lockFileExclusiveNonBlocking(lockFile); err != nil {
		lockFile.Close()
		if isWouldBlockError(err) {
			return nil, ErrStoreLocked
		}
		return nil, fmt.Errorf("failed to acquire store lock: %w", err)
	}
	return &Lock{file: lockFile}, nil
}

// Release drops the lock. It is safe to call on a nil or released lock.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlockErr := unlockFile(l.file)
	closeErr := l.file.Close()
	l.file = nil
	if unlockErr != nil {
		return unlockErr
	}
	return closeErr
}
