//go:build windows

package store

import (
	"errors"
	"os"

	"golang.org/x/sys/windows"
)

const storeLockRegionSize uint32 = 1

func lockFileExclusiveNonBlocking(file *os.File) error {
	var overlapped windows.Overlapped
	return windows.LockFileEx(
		windows.Handle(file.Fd()),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY,
		0,
		storeLockRegionSize,
		0,
		&overlapped,
	)
}

func unlockFile(file *os.File) error {
	var overlapped windows.Overlapped
	return windows.UnlockFileEx(
		windows.Handle(file.Fd()),
		0,
		storeLockRegionSize,
		0,
		&overlapped,
	)
}

func isWouldBlockError(err error) bool {
	return errors.Is(err, windows.ERROR_LOCK_VIOLATION) ||
		errors.Is(err, windows.ERROR_SHARING_VIOLATION)
}
