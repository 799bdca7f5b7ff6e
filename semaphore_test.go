//go:build linux && cgo

package namedsem

import (
	"errors"
	"math"
	"os"
	"runtime"
	"strings"
	"testing"
	"time"
)

// testSemaphore creates a semaphore under a fresh name and unlinks it at once
// so nothing is left in /dev/shm if the test fails.
func testSemaphore(t *testing.T, count int) *NamedSemaphore {
	t.Helper()
	name, err := UniqueName("nstest")
	if err != nil {
		t.Fatalf("UniqueName failed: %v", err)
	}
	sem, err := Create(name, count)
	if err != nil {
		t.Fatalf("Create(%q, %d) failed: %v", name, count, err)
	}
	if err := sem.Unlink(); err != nil {
		t.Fatalf("Unlink failed: %v", err)
	}
	return sem
}

func mustValue(t *testing.T, sem *NamedSemaphore) int {
	t.Helper()
	v, err := sem.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	return v
}

func TestCreatesAndCloses(t *testing.T) {
	sem := testSemaphore(t, 0)
	if err := sem.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := OpenExisting(sem.Name()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected unlinked name to be gone, got %v", err)
	}
}

func TestCreatesWithInitialValue(t *testing.T) {
	for _, count := range []int{0, 1, 2, 10} {
		sem := testSemaphore(t, count)
		if v := mustValue(t, sem); v != count {
			t.Errorf("Expected value %d, got %d", count, v)
		}
		sem.Close()
	}
}

func TestCreateFailsWhenNameExists(t *testing.T) {
	name, _ := UniqueName("nstest")
	sem, err := Create(name, 1)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer sem.Close()
	defer sem.Unlink()

	_, err = Create(name, 1)
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("Expected ErrAlreadyExists, got %v", err)
	}
	var e *Error
	if !errors.As(err, &e) || e.Op != "sem_open" || e.Name != name {
		t.Errorf("Expected sem_open error for %q, got %#v", name, err)
	}
}

func TestOpenIgnoresCountForExistingName(t *testing.T) {
	name, _ := UniqueName("nstest")
	first, err := Create(name, 3)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer first.Close()
	defer first.Unlink()

	second, err := Open(name, 0)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer second.Close()

	if v := mustValue(t, second); v != 3 {
		t.Errorf("Expected existing count 3, got %d", v)
	}
}

func TestOpenExistingNotFound(t *testing.T) {
	name, _ := UniqueName("nstest")
	_, err := OpenExisting(name)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestCountAboveLimitFails(t *testing.T) {
	name, _ := UniqueName("nstest")
	// SEM_VALUE_MAX is INT_MAX on Linux.
	count := math.MaxInt32
	count++
	sem, err := Create(name, count)
	if err == nil {
		sem.Unlink()
		sem.Close()
		t.Fatal("Expected Create above SEM_VALUE_MAX to fail")
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestAccessRestoresValue(t *testing.T) {
	sem := testSemaphore(t, 1)
	defer sem.Close()

	g, err := sem.Access()
	if err != nil {
		t.Fatalf("Access failed: %v", err)
	}
	if v := mustValue(t, sem); v != 0 {
		t.Errorf("Expected value 0 while held, got %d", v)
	}
	g.Release()

	if v := mustValue(t, sem); v != 1 {
		t.Errorf("Expected value 1 after release, got %d", v)
	}
}

func TestTryAccessSucceedsWithCapacity(t *testing.T) {
	sem := testSemaphore(t, 2)
	defer sem.Close()

	func() {
		g, err := sem.TryAccess()
		if err != nil {
			t.Fatalf("TryAccess failed: %v", err)
		}
		defer g.Release()
		if v := mustValue(t, sem); v != 1 {
			t.Errorf("Expected value 1 while guard is live, got %d", v)
		}
	}()

	if v := mustValue(t, sem); v != 2 {
		t.Errorf("Expected value 2 after guard released, got %d", v)
	}
}

func TestTryAccessFailsWithoutCapacity(t *testing.T) {
	sem := testSemaphore(t, 0)
	defer sem.Close()

	g, err := sem.TryAccess()
	if !errors.Is(err, ErrWouldBlock) {
		t.Fatalf("Expected ErrWouldBlock, got %v", err)
	}
	if g != nil {
		t.Error("Expected no guard")
	}
	if v := mustValue(t, sem); v != 0 {
		t.Errorf("Expected value to stay 0, got %d", v)
	}
}

func TestAcquireBlocksUntilRelease(t *testing.T) {
	sem := testSemaphore(t, 0)
	defer sem.Close()

	acquired := make(chan error, 1)
	go func() {
		acquired <- sem.Acquire()
	}()

	select {
	case err := <-acquired:
		t.Fatalf("Acquire returned before Release: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	if err := sem.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	select {
	case err := <-acquired:
		if err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Acquire did not return after Release")
	}

	if v := mustValue(t, sem); v != 0 {
		t.Errorf("Expected value 0, got %d", v)
	}
}

func TestSemsWithSameNameShareValue(t *testing.T) {
	name, _ := UniqueName("nstest")
	sem, err := Open(name, 1)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer sem.Close()
	if v := mustValue(t, sem); v != 1 {
		t.Fatalf("Expected value 1, got %d", v)
	}

	done := make(chan error, 1)
	go func() {
		other, err := Open(name, 0)
		if err != nil {
			done <- err
			return
		}
		defer other.Close()
		v, err := other.Value()
		if err == nil && v != 1 {
			err = errors.New("second handle did not observe count 1")
		}
		done <- err
	}()
	err = <-done
	if uerr := sem.Unlink(); uerr != nil {
		t.Errorf("Unlink failed: %v", uerr)
	}
	if err != nil {
		t.Fatalf("Second handle: %v", err)
	}

	if v := mustValue(t, sem); v != 1 {
		t.Errorf("Expected value 1, got %d", v)
	}
}

func TestReleaseVisibleThroughOtherHandle(t *testing.T) {
	name, _ := UniqueName("nstest")
	a, err := Create(name, 0)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer a.Close()
	b, err := OpenExisting(name)
	if err != nil {
		t.Fatalf("OpenExisting failed: %v", err)
	}
	defer b.Close()
	if err := a.Unlink(); err != nil {
		t.Fatalf("Unlink failed: %v", err)
	}

	if err := a.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if err := b.TryAcquire(); err != nil {
		t.Fatalf("Expected TryAcquire through the other handle to succeed, got %v", err)
	}
	if err := a.TryAcquire(); !errors.Is(err, ErrWouldBlock) {
		t.Errorf("Expected ErrWouldBlock, got %v", err)
	}
}

func TestOperationsAfterCloseFail(t *testing.T) {
	sem := testSemaphore(t, 1)
	if err := sem.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	_, valueErr := sem.Value()
	_, accessErr := sem.Access()
	checks := map[string]error{
		"Acquire":    sem.Acquire(),
		"TryAcquire": sem.TryAcquire(),
		"Release":    sem.Release(),
		"Value":      valueErr,
		"Access":     accessErr,
		"Unlink":     sem.Unlink(),
		"Close":      sem.Close(),
	}
	for op, err := range checks {
		if !errors.Is(err, ErrClosed) {
			t.Errorf("%s after Close: expected ErrClosed, got %v", op, err)
		}
	}
}

// mappedCount returns how many mappings of the named semaphore's backing
// file this process holds.
func mappedCount(t *testing.T, name string) int {
	t.Helper()
	maps, err := os.ReadFile("/proc/self/maps")
	if err != nil {
		t.Fatalf("Failed to read /proc/self/maps: %v", err)
	}
	return strings.Count(string(maps), "/dev/shm/sem."+strings.TrimPrefix(name, "/"))
}

func TestDroppedHandleIsClosed(t *testing.T) {
	name, _ := UniqueName("nstest")
	before := mappedCount(t, name)

	func() {
		sem, err := Create(name, 1)
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if err := sem.Unlink(); err != nil {
			t.Fatalf("Unlink failed: %v", err)
		}
		if during := mappedCount(t, name); during != before+1 {
			t.Fatalf("Expected %d mappings while the handle is live, got %d", before+1, during)
		}
	}()

	for i := 0; i < 100; i++ {
		runtime.GC()
		if mappedCount(t, name) == before {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Dropped handle was never closed: %d mappings remain, expected %d", mappedCount(t, name), before)
}

func TestCloseFailureKeepsHandleOpen(t *testing.T) {
	live := testSemaphore(t, 1)
	h := live.h
	if err := live.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// glibc tracks open semaphores; sem_close of a pointer it no longer
	// tracks fails with EINVAL.
	sem := &NamedSemaphore{name: live.name, h: h}
	err := sem.Close()
	if err == nil {
		t.Fatal("Expected closing a stale handle to fail")
	}
	if errors.Is(err, ErrClosed) {
		t.Fatalf("Expected the OS error, got %v", err)
	}
	if sem.closed.Load() {
		t.Error("Expected a failed Close to leave the handle open")
	}
	if err := sem.Close(); errors.Is(err, ErrClosed) {
		t.Errorf("Expected Close to be retried after failing, got %v", err)
	}
}

func TestDescriptorOpensSameSemaphore(t *testing.T) {
	name, _ := UniqueName("nstest")
	sem, err := Create(name, 0)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer sem.Close()
	defer sem.Unlink()

	if err := sem.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	d, err := sem.Descriptor()
	if err != nil {
		t.Fatalf("Descriptor failed: %v", err)
	}
	if d.Name != name || d.Count != 1 {
		t.Errorf("Unexpected descriptor %+v", d)
	}
	data, err := d.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}

	var got Descriptor
	if err := got.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary failed: %v", err)
	}
	child, err := OpenDescriptor(got)
	if err != nil {
		t.Fatalf("OpenDescriptor failed: %v", err)
	}
	defer child.Close()

	if err := child.TryAcquire(); err != nil {
		t.Errorf("Expected the child handle to see the released count, got %v", err)
	}
	if v := mustValue(t, sem); v != 0 {
		t.Errorf("Expected value 0 after the child acquired, got %d", v)
	}
}
