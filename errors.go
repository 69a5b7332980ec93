package uthread

import "errors"

// Sentinel errors returned by this package's operations. Each mirrors a
// POSIX error code from the thread-runtime this package reimplements
// (EINVAL, EBUSY, EDEADLK, ETIMEDOUT, EAGAIN, EPERM, ESRCH, ENOMEM) so
// callers can compare with errors.Is the way they would inspect errno.
var (
	// ErrInvalidArgument is returned for nil pointers, out-of-range
	// arguments, or operations on an uninitialized object.
	ErrInvalidArgument = errors.New("uthread: invalid argument")

	// ErrBusy is returned when destroying an object that is locked or has
	// waiters, or when trylock-style calls cannot acquire immediately.
	ErrBusy = errors.New("uthread: resource busy")

	// ErrDeadlock is returned when an error-checking mutex detects
	// relock-by-owner, or a thread tries to join itself.
	ErrDeadlock = errors.New("uthread: would deadlock")

	// ErrTimedOut is returned by the timed variants of the blocking
	// primitives when their deadline elapses first.
	ErrTimedOut = errors.New("uthread: timed out")

	// ErrWouldBlock is returned by non-blocking calls that cannot proceed
	// immediately (sem_trywait semantics).
	ErrWouldBlock = errors.New("uthread: would block")

	// ErrNotPermitted is returned when a thread that does not own a lock
	// tries to release it.
	ErrNotPermitted = errors.New("uthread: operation not permitted")

	// ErrNoSuchThread identifies a thread handle that no longer refers to
	// a live thread. No operation in this package returns it.
	ErrNoSuchThread = errors.New("uthread: no such thread")

	// ErrOutOfMemory is returned by Create when the thread registry
	// already holds MaxThreads live threads. A failed guard-page mapping
	// does not produce it: the stack falls back to a plain allocation.
	ErrOutOfMemory = errors.New("uthread: out of memory")

	// ErrNotInitialized is returned by Create and GetStats when called
	// before Init or after Shutdown.
	ErrNotInitialized = errors.New("uthread: runtime not initialized")
)
