package namedsem

import (
	"fmt"
	"math"
	"runtime"
	"strings"
	"sync/atomic"
	"syscall"
)

// Mode is the permission mode applied when a named semaphore is created.
const Mode = 0o644

type openFlag int

const (
	openOrCreate openFlag = iota
	createExclusive
	openExisting
)

// NamedSemaphore is a handle to an OS named counting semaphore. Any process
// that opens the same name shares the same count.
//
// A NamedSemaphore has one owner. It may be handed between goroutines, but
// Close must not race with other calls on the same handle.
//
// Example:
//
//	sem, err := namedsem.Open("/my_sem", 1)
//	if err != nil {
//		return err
//	}
//	defer sem.Close()
//
//	guard, err := sem.Access()
//	if err != nil {
//		return err
//	}
//	defer guard.Release()
//	// critical section
type NamedSemaphore struct {
	name    string
	h       *semi
	closed  atomic.Bool
	cleanup runtime.Cleanup
}

// Open opens the semaphore called name, creating it with the given count if
// it does not exist. count is ignored when the semaphore already exists.
func Open(name string, count int) (*NamedSemaphore, error) {
	return open(name, count, openOrCreate)
}

// Create creates a new semaphore called name with the given count. It fails
// with ErrAlreadyExists if the name is already in use.
func Create(name string, count int) (*NamedSemaphore, error) {
	return open(name, count, createExclusive)
}

// OpenExisting opens the semaphore called name without creating it. It fails
// with ErrNotFound if no such semaphore exists.
func OpenExisting(name string) (*NamedSemaphore, error) {
	return open(name, 0, openExisting)
}

func open(name string, count int, flag openFlag) (*NamedSemaphore, error) {
	if strings.IndexByte(name, 0) >= 0 || count < 0 {
		return nil, invalidInput("sem_open", name)
	}
	if uint64(count) > math.MaxUint32 {
		return nil, &Error{Op: "sem_open", Name: name, Kind: KindInvalidInput, Errno: syscall.EINVAL}
	}
	h, err := openSemi(name, flag, uint32(count))
	if err != nil {
		return nil, osError("sem_open", name, err)
	}
	s := &NamedSemaphore{name: name, h: h}
	// Best effort close for handles dropped without Close.
	s.cleanup = runtime.AddCleanup(s, func(h *semi) { _ = h.close() }, h)
	return s, nil
}

// Name returns the name the semaphore was opened with.
func (s *NamedSemaphore) Name() string {
	return s.name
}

// String returns the semaphore name in the form NamedSemaphore("/name").
func (s *NamedSemaphore) String() string {
	return fmt.Sprintf("NamedSemaphore(%q)", s.name)
}

// Value returns the current count. Platforms that report a negative count
// while processes are blocked waiting are reported as zero.
func (s *NamedSemaphore) Value() (int, error) {
	if s.closed.Load() {
		return 0, closedError("sem_getvalue", s.name)
	}
	v, err := s.h.getValue()
	runtime.KeepAlive(s)
	if err != nil {
		return 0, osError("sem_getvalue", s.name, err)
	}
	if v < 0 {
		v = 0
	}
	return v, nil
}

// Acquire blocks until the count is greater than zero, then decrements it.
// There is no timeout. A wait interrupted by a signal fails with
// ErrInterrupted and is not retried.
func (s *NamedSemaphore) Acquire() error {
	if s.closed.Load() {
		return closedError("sem_wait", s.name)
	}
	err := s.h.wait()
	runtime.KeepAlive(s)
	return osError("sem_wait", s.name, err)
}

// TryAcquire decrements the count if it is greater than zero, and fails with
// ErrWouldBlock otherwise.
func (s *NamedSemaphore) TryAcquire() error {
	if s.closed.Load() {
		return closedError("sem_trywait", s.name)
	}
	err := s.h.tryWait()
	runtime.KeepAlive(s)
	return osError("sem_trywait", s.name, err)
}

// Release increments the count, waking at most one waiter. It must be called
// at most once per successful acquisition; extra calls raise the count and
// are not detected.
func (s *NamedSemaphore) Release() error {
	if s.closed.Load() {
		return closedError("sem_post", s.name)
	}
	err := s.h.post()
	runtime.KeepAlive(s)
	return osError("sem_post", s.name, err)
}

// Access acquires the semaphore and returns a guard that releases it.
func (s *NamedSemaphore) Access() (*AccessGuard, error) {
	return Access(s)
}

// TryAccess is the non-blocking form of Access.
func (s *NamedSemaphore) TryAccess() (*AccessGuard, error) {
	return TryAccess(s)
}

// Close releases this process's reference to the semaphore. The OS object
// persists until it is unlinked and every process has closed it. Every call
// on s after a successful Close, including a second Close, fails with
// ErrClosed. If sem_close fails the handle remains open and usable.
func (s *NamedSemaphore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return closedError("sem_close", s.name)
	}
	err := s.h.close()
	runtime.KeepAlive(s)
	if err != nil {
		// The handle stays open, so the cleanup stays armed too.
		s.closed.Store(false)
		return osError("sem_close", s.name, err)
	}
	s.cleanup.Stop()
	return nil
}

// Unlink removes the name so later Open and Create calls no longer find this
// semaphore. The handle stays usable, as do handles held by other processes.
func (s *NamedSemaphore) Unlink() error {
	if s.closed.Load() {
		return closedError("sem_unlink", s.name)
	}
	return Unlink(s.name)
}

// Unlink removes the semaphore called name from the OS namespace.
func Unlink(name string) error {
	if strings.IndexByte(name, 0) >= 0 {
		return invalidInput("sem_unlink", name)
	}
	return osError("sem_unlink", name, unlinkSemi(name))
}
