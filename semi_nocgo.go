//go:build !((darwin || linux || freebsd) && cgo)

package namedsem

import "syscall"

// semi is a stub for builds without cgo or without POSIX named semaphores.
// Every operation fails with ErrNotSupported.
type semi struct{}

func openSemi(name string, flag openFlag, count uint32) (*semi, error) {
	return nil, syscall.ENOSYS
}

func (o *semi) close() error {
	return syscall.ENOSYS
}

func (o *semi) wait() error {
	return syscall.ENOSYS
}

func (o *semi) tryWait() error {
	return syscall.ENOSYS
}

func (o *semi) post() error {
	return syscall.ENOSYS
}

func (o *semi) getValue() (int, error) {
	return 0, syscall.ENOSYS
}

func unlinkSemi(name string) error {
	return syscall.ENOSYS
}
