package relax

import (
	"runtime"
	_ "unsafe"
)

//go:linkname procyield runtime.procyield
func procyield(cycles uint32)

//go:linkname osyield runtime.osyield
func osyield()

// DefaultMaxBackoff is the ceiling of the exponential backoff ladder used
// when no explicit limit is configured.
const DefaultMaxBackoff = 16

// Relax emits an architectural spin-wait hint (PAUSE on amd64, YIELD on
// arm64) to reduce memory-system contention while polling a lock word.
func Relax() {
	procyield(30)
}

// Yield hands the remainder of the current timeslice back to the OS or
// hypervisor scheduler. Used instead of spinning when the lock holder's
// processor is known to be descheduled.
func Yield() {
	osyield()
}

// Backoff is the wait strategy for lock slow paths: a spin-wait hint
// followed by an exponentially growing number of scheduler yields, capped
// at a configurable ceiling.
type Backoff struct {
	cur, max int
}

func NewBackoff(max int) Backoff {
	if max <= 0 {
		max = DefaultMaxBackoff
	}
	return Backoff{cur: 1, max: max}
}

// Wait performs one step of the backoff ladder.
func (b *Backoff) Wait() {
	Relax()
	for i := 0; i < b.cur; i++ {
		runtime.Gosched()
	}
	if b.cur < b.max {
		b.cur <<= 1
	}
}
