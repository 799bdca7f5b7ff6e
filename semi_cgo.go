//go:build (darwin || linux || freebsd) && cgo

package namedsem

/*
#cgo linux LDFLAGS: -lpthread
#include <errno.h>
#include <fcntl.h>
#include <semaphore.h>
#include <sys/stat.h>

// sem_open is variadic and cannot be called from Go directly. NULL is
// returned on failure since SEM_FAILED differs between platforms.
static sem_t *namedsem_open(const char *name, int oflag, mode_t mode, unsigned int value) {
	sem_t *sem = sem_open(name, oflag, mode, value);
	if (sem == SEM_FAILED) {
		return NULL;
	}
	return sem;
}
*/
import "C"

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// semi owns one sem_t* returned by sem_open.
type semi struct {
	sem *C.sem_t
}

func cname(name string) (*C.char, error) {
	p, err := unix.BytePtrFromString(name)
	if err != nil {
		return nil, err
	}
	return (*C.char)(unsafe.Pointer(p)), nil
}

func openSemi(name string, flag openFlag, count uint32) (*semi, error) {
	n, err := cname(name)
	if err != nil {
		return nil, err
	}
	var oflag C.int
	switch flag {
	case openOrCreate:
		oflag = C.O_CREAT
	case createExclusive:
		oflag = C.O_CREAT | C.O_EXCL
	}
	sem, err := C.namedsem_open(n, oflag, C.mode_t(Mode), C.uint(count))
	if sem == nil {
		if err == nil {
			err = unix.EINVAL
		}
		return nil, err
	}
	return &semi{sem: sem}, nil
}

func (o *semi) close() error {
	rc, errno := C.sem_close(o.sem)
	return check(rc, errno)
}

func (o *semi) wait() error {
	rc, errno := C.sem_wait(o.sem)
	return check(rc, errno)
}

func (o *semi) tryWait() error {
	rc, errno := C.sem_trywait(o.sem)
	return check(rc, errno)
}

func (o *semi) post() error {
	rc, errno := C.sem_post(o.sem)
	return check(rc, errno)
}

func (o *semi) getValue() (int, error) {
	var v C.int
	rc, errno := C.sem_getvalue(o.sem, &v)
	if err := check(rc, errno); err != nil {
		return 0, err
	}
	return int(v), nil
}

func unlinkSemi(name string) error {
	n, err := cname(name)
	if err != nil {
		return err
	}
	rc, errno := C.sem_unlink(n)
	return check(rc, errno)
}

// check turns a C return code and the errno captured with it into an error.
// errno is only meaningful when rc is non-zero.
func check(rc C.int, errno error) error {
	if rc != 0 {
		if errno == nil {
			return unix.EINVAL
		}
		return errno
	}
	return nil
}
