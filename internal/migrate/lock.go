package migrate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const (
	workingRootLockFileNameConstant             = ".repomove.lock"
	workingRootPermissionsConstant              = 0o755
	createWorkingRootErrorTemplateConstant      = "create working root: %w"
	acquireWorkingRootLockErrorTemplateConstant = "acquire working root lock: %w"
)

// ErrWorkingRootLocked indicates another run holds the working root.
var ErrWorkingRootLocked = errors.New("working root is in use by another run")

// WorkingRootLock guards a working root against concurrent runs.
type WorkingRootLock struct {
	lock *flock.Flock
}

// AcquireWorkingRoot creates the working root when missing and takes its lock without blocking.
func AcquireWorkingRoot(workingRoot string) (*WorkingRootLock, error) {
	if directoryError := os.MkdirAll(workingRoot, workingRootPermissionsConstant); directoryError != nil {
		return nil, fmt.Errorf(createWorkingRootErrorTemplateConstant, directoryError)
	}

	fileLock := flock.New(filepath.Join(workingRoot, workingRootLockFileNameConstant))
	locked, lockError := fileLock.TryLock()
	if lockError != nil {
		return nil, fmt.Errorf(acquireWorkingRootLockErrorTemplateConstant, lockError)
	}
	if !locked {
		return nil, ErrWorkingRootLocked
	}
	return &WorkingRootLock{lock: fileLock}, nil
}

// Path returns the lock file location.
func (workingRootLock *WorkingRootLock) Path() string {
	return workingRootLock.lock.Path()
}

// Release unlocks the working root.
func (workingRootLock *WorkingRootLock) Release() error {
	if workingRootLock == nil || workingRootLock.lock == nil {
		return nil
	}
	return workingRootLock.lock.Unlock()
}
