// Package cpuid reports which logical processor the caller is executing on.
package cpuid

import (
	_ "unsafe"
)

//go:linkname procPin runtime.procPin
//go:nosplit
func procPin() int

//go:linkname procUnpin runtime.procUnpin
//go:nosplit
func procUnpin()

// ProcID returns a stable small nonnegative integer identifying the logical
// processor currently executing the caller. The caller may be rescheduled to
// another processor immediately after ProcID returns; the result is identity
// metadata, not a pinning guarantee.
func ProcID() int {
	id := procPin()
	procUnpin()
	return id
}
