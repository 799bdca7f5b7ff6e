//go:build !unix

package namedsem

import (
	"errors"
	"io/fs"
	"syscall"
)

func classify(errno syscall.Errno) Kind {
	switch {
	case errors.Is(errno, fs.ErrExist):
		return KindAlreadyExists
	case errors.Is(errno, fs.ErrNotExist):
		return KindNotFound
	case errors.Is(errno, fs.ErrPermission):
		return KindPermissionDenied
	case errors.Is(errno, errors.ErrUnsupported):
		return KindNotSupported
	}
	return KindOther
}
