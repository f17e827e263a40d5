// Package spin provides busy-wait mutual-exclusion primitives: an exclusive
// spin lock and a shared/exclusive (reader-writer) spin lock.
//
// Both locks wait by actively polling their lock word instead of parking the
// caller, which makes them suitable for critical sections so short that
// descheduling would cost more than waiting in place. Neither lock provides
// fairness; starvation under heavy, skewed contention is an accepted cost of
// keeping the uncontended paths to a single atomic operation.
package spin

import (
	"go.uber.org/atomic"

	"github.com/erdong01/spin/internal/relax"
)

// SpinLock is an exclusive busy-wait lock. The zero value is an unlocked
// lock ready for use with the package defaults; NewSpinLock builds one with
// explicit options.
//
// The lock word is 0 when unlocked. When held it carries a nonzero tag
// identifying the logical processor that acquired it; the tag is diagnostic
// metadata, ownership is not enforced on the raw type. SpinLock is not
// reentrant: a holder that calls Lock again deadlocks.
type SpinLock struct {
	value atomic.Uint32
	opts  *Options
}

// NewSpinLock generates an instance of SpinLock.
func NewSpinLock(options ...Option) *SpinLock {
	return &SpinLock{opts: loadOptions(options...)}
}

func (l *SpinLock) options() *Options {
	if l.opts != nil {
		return l.opts
	}
	return &defaultOpts
}

// ownerTag derives the caller's nonzero holder tag. Processor ids start at
// zero, so the tag is id+1 to keep it distinguishable from the unlocked
// state.
func (l *SpinLock) ownerTag() uint32 {
	return uint32(l.options().ProcID()) + 1
}

// Lock acquires the lock, spinning until it is available. It returns only
// once the caller holds the lock. The successful compare-and-swap has full
// acquire semantics: no memory operation of the critical section can be
// observed before it.
func (l *SpinLock) Lock() {
	tag := l.ownerTag()
	if l.value.CompareAndSwap(0, tag) {
		return
	}
	l.lockSlow(tag)
}

func (l *SpinLock) lockSlow(tag uint32) {
	opts := l.options()
	backoff := relax.NewBackoff(opts.MaxBackoff)
	for !l.value.CompareAndSwap(0, tag) {
		if holder := l.value.Load(); holder != 0 && opts.Preempted(int(holder-1)) {
			// The holder's vCPU is descheduled; spinning would burn the
			// whole host timeslice without the lock ever being released.
			relax.Yield()
			continue
		}
		backoff.Wait()
	}
}

// TryLock tries to acquire the lock within a bounded retry budget. It
// reports whether the caller now holds the lock; on false the lock state is
// unchanged from the caller's perspective. TryLock never waits
// unconditionally.
func (l *SpinLock) TryLock() bool {
	tag := l.ownerTag()
	attempts := l.options().TryAttempts
	for i := uint32(0); i <= attempts; i++ {
		if l.value.CompareAndSwap(0, tag) {
			return true
		}
		relax.Relax()
	}
	return false
}

// Unlock releases the lock. The store has release semantics: every write of
// the critical section is visible to the next acquirer before the lock word
// is observed as free. Unlock must only be called by the current holder;
// the raw type does not check.
func (l *SpinLock) Unlock() {
	l.value.Store(0)
}

// IsLocked reports whether the lock is currently held. The answer is an
// advisory snapshot with no ordering guarantee.
func (l *SpinLock) IsLocked() bool {
	return l.value.Load() != 0
}

// Value returns a snapshot of the lock word: 0 when unlocked, the holder's
// tag otherwise. Advisory only.
func (l *SpinLock) Value() uint32 {
	return l.value.Load()
}

// Unlocked reports whether a previously read lock word snapshot represents
// the unlocked state. It is a pure predicate for lock-free callers that
// must not re-read shared memory.
func Unlocked(value uint32) bool {
	return value == 0
}
