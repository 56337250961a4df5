package fsutil

import (
	"errors"
	"fmt"
	"os"
)

// ErrLocked is returned by TryLock when another holder owns the lock.
var ErrLocked = errors.New("lock is held by another process")

// FileLock is an exclusive advisory lock backed by a lock file.
type FileLock struct {
	path   string
	file   *os.File
	locked bool
}

// NewFileLock returns an unlocked FileLock for path. The file is created on TryLock.
func NewFileLock(path string) *FileLock {
	return &FileLock{path: path}
}

// Path returns the lock file path.
func (l *FileLock) Path() string {
	return l.path
}

// TryLock acquires the lock without blocking. It returns ErrLocked when the lock is held elsewhere.
func (l *FileLock) TryLock() error {
	if l.locked {
		return nil
	}
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, FileModeSecure)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	if err := tryLockFile(file); err != nil {
		_ = file.Close()
		return err
	}
	l.file = file
	l.locked = true
	return nil
}

// Unlock releases the lock. Safe to call multiple times.
func (l *FileLock) Unlock() error {
	if l.file == nil {
		return nil
	}
	var err error
	if l.locked {
		err = unlockFile(l.file)
	}
	if cerr := l.file.Close(); err == nil {
		err = cerr
	}
	l.file = nil
	l.locked = false
	return err
}
