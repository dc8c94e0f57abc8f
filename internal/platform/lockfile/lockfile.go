// Package lockfile keeps two bot processes from polling with the same token.
//
// The lock is an flock on a file in the lock directory; the kernel drops it
// when the process exits, gracefully or not.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
)

const (
	lockDirPerm  = 0o755
	lockFilePerm = 0o644
	pidPrefix    = "pid="
)

// ErrLocked indicates another live process holds the lock.
var ErrLocked = errors.New("another instance is already running")

// Lock is a held instance lock.
type Lock struct {
	file   *os.File
	path   string
	logger *zerolog.Logger
}

// Acquire takes the lock named name inside dir without blocking.
func Acquire(dir, name string, logger *zerolog.Logger) (*Lock, error) {
	if err := os.MkdirAll(dir, lockDirPerm); err != nil {
		return nil, fmt.Errorf("create lock dir %s: %w", dir, err)
	}

	path := filepath.Join(dir, name)

	// No O_TRUNC: the holder's pid must survive a failed attempt.
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, lockFilePerm)
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", path, err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = file.Close()

		return nil, &LockError{Path: path, Holder: describeHolder(path), Cause: err}
	}

	if err := file.Truncate(0); err != nil {
		release(file)

		return nil, fmt.Errorf("truncate lock file %s: %w", path, err)
	}

	if _, err := file.WriteString(fmt.Sprintf("%s%d\n", pidPrefix, os.Getpid())); err != nil {
		release(file)

		return nil, fmt.Errorf("write lock file %s: %w", path, err)
	}

	if err := file.Sync(); err != nil {
		logger.Warn().Err(err).Str("lock_path", path).Msg("failed to sync lock file")
	}

	logger.Info().Str("lock_path", path).Int("pid", os.Getpid()).Msg("instance lock acquired")

	return &Lock{file: file, path: path, logger: logger}, nil
}

// Release drops the lock and removes the file. Safe to call more than once.
func (l *Lock) Release() {
	if l == nil || l.file == nil {
		return
	}

	release(l.file)

	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		l.logger.Warn().Err(err).Str("lock_path", l.path).Msg("failed to remove lock file")
	}

	l.file = nil

	l.logger.Info().Str("lock_path", l.path).Msg("instance lock released")
}

func release(file *os.File) {
	_ = syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
	_ = file.Close()
}

// LockError describes a lock held by someone else.
type LockError struct {
	Path   string
	Holder string
	Cause  error
}

func (e *LockError) Error() string {
	msg := fmt.Sprintf("%s (lock file %s", ErrLocked, e.Path)
	if e.Holder != "" {
		msg += ", holder " + e.Holder
	}

	return msg + ")"
}

func (e *LockError) Is(target error) bool {
	return target == ErrLocked
}

func (e *LockError) Unwrap() error {
	return e.Cause
}

func describeHolder(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	pid := parsePID(string(data))
	if pid <= 0 {
		return ""
	}

	if processAlive(pid) {
		return fmt.Sprintf("pid %d (running)", pid)
	}

	return fmt.Sprintf("pid %d (not running)", pid)
}

func parsePID(content string) int {
	idx := strings.Index(content, pidPrefix)
	if idx == -1 {
		return 0
	}

	digits := strings.TrimSpace(content[idx+len(pidPrefix):])
	if end := strings.IndexFunc(digits, func(r rune) bool { return r < '0' || r > '9' }); end != -1 {
		digits = digits[:end]
	}

	pid, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}

	return pid
}

// processAlive sends signal 0, which only checks for existence.
func processAlive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	return process.Signal(syscall.Signal(0)) == nil
}
