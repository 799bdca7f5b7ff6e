// Package namedsem provides handles over OS named counting semaphores for
// synchronization between independent processes.
//
// A named semaphore is a kernel object identified by a string. Every process
// that opens the same name shares one count: Acquire decrements it, blocking
// while it is zero, and Release increments it. The OS performs all waiting;
// this package only issues requests and translates the results.
//
// # Opening
//
// Three constructors choose how an existing name is treated:
//
//	// Open the semaphore, creating it with count 1 if it does not exist
//	sem, err := namedsem.Open("/my_sem", 1)
//
//	// Create a new semaphore, failing with ErrAlreadyExists if the name is taken
//	sem, err := namedsem.Create("/my_sem", 1)
//
//	// Open an existing semaphore, failing with ErrNotFound if there is none
//	sem, err := namedsem.OpenExisting("/my_sem")
//
// Names conventionally begin with "/" and contain no further "/". A name
// with an embedded NUL is rejected with ErrInvalidInput before any OS call.
// New semaphores are created with permission mode Mode (0644).
//
// # Guards
//
// Access and TryAccess return an AccessGuard that represents one held
// acquisition. Release it with defer; the underlying release happens exactly
// once no matter how often Release is called:
//
//	guard, err := sem.Access()
//	if err != nil {
//	    return err
//	}
//	defer guard.Release()
//	// critical section
//
// WithAccess runs a function while holding the semaphore and releases it on
// every exit path, including panics:
//
//	err := namedsem.WithAccess(sem, func() error {
//	    return updateSharedFile()
//	})
//
// # Closing and Unlinking
//
// Close releases this process's reference. Any later call on the handle fails
// with ErrClosed. A handle that becomes unreachable without Close is closed
// by a runtime cleanup, and any error from that close is discarded.
//
// Unlink removes the name from the OS namespace. Open handles, in this or
// other processes, keep working until they are closed. Names are OS-wide and
// survive the process, so tests and short-lived users should pick a fresh
// name with UniqueName and unlink it right after Create:
//
//	name, _ := namedsem.UniqueName("worker")
//	sem, err := namedsem.Create(name, 0)
//	if err != nil {
//	    return err
//	}
//	defer sem.Close()
//	sem.Unlink()
//
// # Errors
//
// Every failure is an *Error carrying the OS call, the name, a Kind, and the
// errno. errors.Is matches both the package sentinels and the errno:
//
//	if err := sem.TryAcquire(); errors.Is(err, namedsem.ErrWouldBlock) {
//	    // count was zero
//	}
//
// Nothing is retried. A wait interrupted by a signal returns ErrInterrupted.
//
// # Sharing with Other Processes
//
// A Descriptor carries a semaphore's name and count as MessagePack so it can
// be handed to a child process over a pipe and opened there with
// OpenDescriptor.
//
// # Platform Support
//
// Named semaphores require CGO and use POSIX sem_open on Linux, macOS, and
// FreeBSD. Other builds compile, but every operation fails with
// ErrNotSupported. macOS does not implement sem_getvalue, so Value fails
// there with ErrNotSupported.
package namedsem
