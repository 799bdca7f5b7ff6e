package namedsem

import (
	"fmt"
	"sync"
)

// Semaphore is the acquire/release surface an AccessGuard needs.
// *NamedSemaphore implements it.
type Semaphore interface {
	// Acquire blocks until the semaphore can be decremented.
	Acquire() error

	// TryAcquire decrements the semaphore without blocking.
	// It fails with ErrWouldBlock if the count is zero.
	TryAcquire() error

	// Release increments the semaphore, potentially unblocking one waiter.
	Release() error
}

// AccessGuard represents one held acquisition of a Semaphore. It does not own
// the semaphore and must not outlive it.
//
// Go has no scope-exit hook, so release the guard with defer:
//
//	guard, err := sem.Access()
//	if err != nil {
//		return err
//	}
//	defer guard.Release()
type AccessGuard struct {
	sem  Semaphore
	once sync.Once
}

func newAccessGuard(sem Semaphore) *AccessGuard {
	return &AccessGuard{sem: sem}
}

// Release releases the acquisition the guard represents. Only the first call
// reaches the semaphore and returns its result; later calls return nil.
func (g *AccessGuard) Release() (err error) {
	g.once.Do(func() {
		err = g.sem.Release()
	})
	return err
}

// String describes the guard by the semaphore it holds.
func (g *AccessGuard) String() string {
	return fmt.Sprintf("AccessGuard(%v)", g.sem)
}

// Access acquires s, blocking until it is available, and returns a guard
// that releases it.
func Access(s Semaphore) (*AccessGuard, error) {
	if err := s.Acquire(); err != nil {
		return nil, err
	}
	return newAccessGuard(s), nil
}

// TryAccess acquires s without blocking and returns a guard that releases it.
func TryAccess(s Semaphore) (*AccessGuard, error) {
	if err := s.TryAcquire(); err != nil {
		return nil, err
	}
	return newAccessGuard(s), nil
}

// WithAccess runs fn while holding one acquisition of s. The acquisition is
// released when fn returns or panics. The release result is returned only if
// fn succeeded.
func WithAccess(s Semaphore, fn func() error) error {
	g, err := Access(s)
	if err != nil {
		return err
	}
	return g.run(fn)
}

// WithTryAccess is WithAccess without blocking. fn is not called if s is not
// immediately available.
func WithTryAccess(s Semaphore, fn func() error) error {
	g, err := TryAccess(s)
	if err != nil {
		return err
	}
	return g.run(fn)
}

func (g *AccessGuard) run(fn func() error) (err error) {
	defer func() {
		if rerr := g.Release(); err == nil {
			err = rerr
		}
	}()
	return fn()
}
