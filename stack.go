package uthread

import (
	"golang.org/x/sys/unix"
)

// guardSize matches UTHREAD_GUARD_SIZE from the original runtime: one
// page, marked PROT_NONE, placed below the nominal stack budget.
const guardSize = 4096

// guardedStack is the diagnostic/bookkeeping realization of spec §4.1's
// stack-allocation contract. The TCB's real execution stack is its fiber
// goroutine's own growable Go stack (see context.go); this mmap'd region
// exists so the data model spec.md §3 describes (base pointer, size,
// guard-region base) is actually present and actually protected, rather
// than silently modeled away because Go goroutines don't need it.
type guardedStack struct {
	region []byte // guardSize (PROT_NONE) + size (PROT_READ|PROT_WRITE)
	size   uintptr
	fault  bool // set if the kernel could not honor Mprotect; guard absent
}

// allocGuardedStack mmaps size+guardSize bytes of anonymous memory and
// mprotects the low guardSize bytes to PROT_NONE. Mirrors stack_alloc's
// "guard page at the low-address end" with the fallback spec.md §4.1
// describes: if the protected mapping cannot be obtained, the stack is
// still returned (heap-backed, no kernel mapping) with fault=true so
// teardown knows not to munmap it.
func allocGuardedStack(size uintptr) (*guardedStack, error) {
	total := int(size) + guardSize
	region, err := unix.Mmap(-1, 0, total, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		// Fallback: a plain heap allocation with no guard, matching the
		// spec's documented degraded mode rather than failing creation.
		return &guardedStack{region: make([]byte, size), size: size, fault: true}, nil
	}

	if err := unix.Mprotect(region[:guardSize], unix.PROT_NONE); err != nil {
		_ = unix.Munmap(region)
		return &guardedStack{region: make([]byte, size), size: size, fault: true}, nil
	}

	return &guardedStack{region: region, size: size}, nil
}

// release unmaps the guarded region, if one was obtained via mmap.
func (s *guardedStack) release() {
	if s == nil || s.fault || s.region == nil {
		return
	}
	_ = unix.Munmap(s.region)
	s.region = nil
}

// usable returns the portion of the mapping above the guard page, the
// "stack_base" a diagnostic dump would report.
func (s *guardedStack) usable() []byte {
	if s == nil {
		return nil
	}
	if s.fault {
		return s.region
	}
	return s.region[guardSize:]
}
