package namedsem

import (
	"errors"
	"fmt"
	"syscall"
)

// Kind classifies a failure so callers can branch on it without knowing the
// platform's errno values.
type Kind int

const (
	// KindOther is an OS failure with no more specific classification.
	KindOther Kind = iota

	// KindInvalidInput is a rejected argument, such as a name with an embedded NUL.
	KindInvalidInput

	// KindWouldBlock is a non-blocking acquire on a semaphore whose count is zero.
	KindWouldBlock

	// KindPermissionDenied means the caller may not open or remove the object.
	KindPermissionDenied

	// KindAlreadyExists is an exclusive create on a name that is already in use.
	KindAlreadyExists

	// KindNotFound is an open of a name that does not exist.
	KindNotFound

	// KindInterrupted means a blocking call was interrupted by a signal.
	KindInterrupted

	// KindNameTooLong means the name exceeds the platform limit.
	KindNameTooLong

	// KindResourceLimit means a per-process or system-wide limit was reached.
	KindResourceLimit

	// KindClosed is an operation on a handle after Close.
	KindClosed

	// KindNotSupported means named semaphores are unavailable in this build.
	KindNotSupported
)

var kindNames = [...]string{
	KindOther:            "os error",
	KindInvalidInput:     "invalid input",
	KindWouldBlock:       "would block",
	KindPermissionDenied: "permission denied",
	KindAlreadyExists:    "already exists",
	KindNotFound:         "not found",
	KindInterrupted:      "interrupted",
	KindNameTooLong:      "name too long",
	KindResourceLimit:    "resource limit exceeded",
	KindClosed:           "semaphore is closed",
	KindNotSupported:     "not supported",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Sentinel errors, one per Kind. Every *Error matches the sentinel of its
// kind with errors.Is.
var (
	ErrInvalidInput     = errors.New("namedsem: invalid input")
	ErrWouldBlock       = errors.New("namedsem: would block")
	ErrPermissionDenied = errors.New("namedsem: permission denied")
	ErrAlreadyExists    = errors.New("namedsem: already exists")
	ErrNotFound         = errors.New("namedsem: not found")
	ErrInterrupted      = errors.New("namedsem: interrupted")
	ErrNameTooLong      = errors.New("namedsem: name too long")
	ErrResourceLimit    = errors.New("namedsem: resource limit exceeded")
	ErrClosed           = errors.New("namedsem: semaphore is closed")
	ErrNotSupported     = errors.New("namedsem: named semaphores require cgo on a POSIX platform; rebuild with CGO_ENABLED=1")
)

func (k Kind) sentinel() error {
	switch k {
	case KindInvalidInput:
		return ErrInvalidInput
	case KindWouldBlock:
		return ErrWouldBlock
	case KindPermissionDenied:
		return ErrPermissionDenied
	case KindAlreadyExists:
		return ErrAlreadyExists
	case KindNotFound:
		return ErrNotFound
	case KindInterrupted:
		return ErrInterrupted
	case KindNameTooLong:
		return ErrNameTooLong
	case KindResourceLimit:
		return ErrResourceLimit
	case KindClosed:
		return ErrClosed
	case KindNotSupported:
		return ErrNotSupported
	}
	return nil
}

// Error describes a failed semaphore operation.
type Error struct {
	// Op is the OS call that failed (e.g., "sem_open", "sem_trywait").
	Op string

	// Name is the semaphore name the operation was issued for.
	Name string

	// Kind is the classification of the failure.
	Kind Kind

	// Errno is the OS error code, or 0 if the failure was detected before
	// any OS call was made.
	Errno syscall.Errno
}

func (e *Error) Error() string {
	if e.Errno == 0 {
		return fmt.Sprintf("namedsem: %s %q: %s", e.Op, e.Name, e.Kind)
	}
	return fmt.Sprintf("namedsem: %s %q: %s (%v)", e.Op, e.Name, e.Kind, e.Errno)
}

// Unwrap returns the OS error code so errors.Is(err, fs.ErrExist) and
// comparisons against unix errno values work.
func (e *Error) Unwrap() error {
	if e.Errno == 0 {
		return nil
	}
	return e.Errno
}

// Is reports whether target is the sentinel error for e's Kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && s == target
}

// KindOf returns the Kind of err, or KindOther if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindOther
}

// osError wraps an errno returned by an OS call.
func osError(op, name string, err error) error {
	if err == nil {
		return nil
	}
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return fmt.Errorf("namedsem: %s %q: %v", op, name, err)
	}
	return &Error{Op: op, Name: name, Kind: classify(errno), Errno: errno}
}

func invalidInput(op, name string) error {
	return &Error{Op: op, Name: name, Kind: KindInvalidInput}
}

func closedError(op, name string) error {
	return &Error{Op: op, Name: name, Kind: KindClosed}
}
