package index

import (
	"log"
	"os"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// lockMode selects the advisory lock discipline for an index.lck handle
// (spec.md §5).
type lockMode int

const (
	lockShared lockMode = iota
	lockExclusive
)

const (
	sharedRetryInterval  = 100 * time.Microsecond
	sharedTimeout        = 500 * time.Microsecond
	exclusiveRetryFirst  = time.Second
	exclusiveTimeout     = 600 * time.Second
)

// indexLock wraps the zero-length index.lck file and holds a fcntl
// byte-range advisory lock on it for the lifetime of one Index handle.
// POSIX fcntl locks are the only portable primitive that gives real
// cross-process shared/exclusive semantics, so this wraps the raw
// syscall rather than substitute an in-process mutex (DESIGN NOTES,
// "Locking semantics"). The open-file-description variant
// (F_OFD_SETLK) is used so two handles in the same process conflict
// the same way two processes do; classic per-process fcntl locks
// silently convert between handles of one process, which would let a
// Create and a Search handle coexist inside a single binary.
type indexLock struct {
	file *os.File
	mode lockMode
}

// acquireLock creates (if needed) the zero-length lock file at path and
// blocks, with the retry policy from spec.md §5, until it can take a
// lock in the given mode.
func acquireLock(path string, mode lockMode) (*indexLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "lock: open lock file")
	}

	l := &indexLock{file: f, mode: mode}
	if err := l.acquire(); err != nil {
		f.Close()
		return nil, err
	}
	return l, nil
}

func (l *indexLock) acquire() error {
	switch l.mode {
	case lockShared:
		return l.acquireShared()
	case lockExclusive:
		return l.acquireExclusive()
	default:
		return errors.Errorf("lock: unknown mode %d", l.mode)
	}
}

func (l *indexLock) acquireShared() error {
	deadline := time.Now().Add(sharedTimeout)
	for {
		if l.tryLock(unix.F_RDLCK) {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrLockTimeout
		}
		time.Sleep(sharedRetryInterval)
	}
}

func (l *indexLock) acquireExclusive() error {
	deadline := time.Now().Add(exclusiveTimeout)
	loggedWaiting := false
	for {
		if l.tryLock(unix.F_WRLCK) {
			if loggedWaiting {
				log.Printf("index: got exclusive lock on %s", l.file.Name())
			}
			return nil
		}
		if time.Now().After(deadline) {
			return ErrLockTimeout
		}
		// Before sleeping, probe whether a shared lock could be taken.
		// If not, another exclusive holder exists and we fail fast
		// rather than spin until the overall timeout (spec.md §5).
		if !l.probeShared() {
			return ErrLockFailed
		}
		if !loggedWaiting {
			log.Printf("index: waiting for exclusive lock on %s", l.file.Name())
			loggedWaiting = true
		}
		time.Sleep(exclusiveRetryFirst)
	}
}

// tryLock attempts a single non-blocking fcntl lock covering the whole
// (zero-length) file.
func (l *indexLock) tryLock(kind int16) bool {
	flock := unix.Flock_t{
		Type:   kind,
		Whence: int16(os.SEEK_SET),
		Start:  0,
		Len:    0, // 0 means "to end of file", i.e. the whole region
	}
	err := unix.FcntlFlock(l.file.Fd(), unix.F_OFD_SETLK, &flock)
	return err == nil
}

// probeShared asks the kernel whether a shared lock could be acquired
// right now, without taking it.
func (l *indexLock) probeShared() bool {
	probe := unix.Flock_t{Type: unix.F_RDLCK, Whence: int16(os.SEEK_SET)}
	if err := unix.FcntlFlock(l.file.Fd(), unix.F_OFD_GETLK, &probe); err != nil {
		return false
	}
	return probe.Type == unix.F_UNLCK
}

// release drops the advisory lock and closes the underlying file
// handle. Safe to call more than once and on a nil receiver; calls
// after the first return nil.
func (l *indexLock) release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlock := unix.Flock_t{Type: unix.F_UNLCK, Whence: int16(os.SEEK_SET)}
	_ = unix.FcntlFlock(l.file.Fd(), unix.F_OFD_SETLK, &unlock)
	err := l.file.Close()
	l.file = nil
	return err
}
