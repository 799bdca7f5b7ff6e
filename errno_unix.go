//go:build unix

package namedsem

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// classify maps an errno to the Kind callers branch on. The mapping keeps
// the OS's own classification; it never reinterprets one condition as another.
func classify(errno syscall.Errno) Kind {
	switch errno {
	case unix.EAGAIN:
		return KindWouldBlock
	case unix.EEXIST:
		return KindAlreadyExists
	case unix.ENOENT:
		return KindNotFound
	case unix.EACCES, unix.EPERM:
		return KindPermissionDenied
	case unix.EINTR:
		return KindInterrupted
	case unix.ENAMETOOLONG:
		return KindNameTooLong
	case unix.EMFILE, unix.ENFILE, unix.ENOSPC, unix.ENOMEM:
		return KindResourceLimit
	case unix.EINVAL:
		return KindInvalidInput
	case unix.ENOSYS:
		return KindNotSupported
	}
	return KindOther
}
