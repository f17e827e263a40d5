package spin

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/erdong01/spin/internal/relax"
)

const (
	// Low sub-field of the counts word: number of active readers.
	readerMask = 1<<readerBits - 1
	readerBits = 16

	// High sub-field: nonzero iff a writer holds the lock.
	writerHeld = 1 << readerBits
	writerMask = ^uint32(readerMask)
)

// RWSpinLock is a shared/exclusive busy-wait lock: any number of readers or
// a single writer. All state lives in one packed word so that every
// transition is a single atomic operation; the low sub-field counts active
// readers and the high sub-field flags a held writer.
//
// The lock is reader-preferring: a writer acquires only when the word is
// completely idle, so a steady trickle of overlapping readers can starve a
// writer indefinitely. That is a deliberate trade-off, kept in line with the
// exclusive lock's no-fairness stance, not a defect to fix.
//
// The zero value is an idle lock ready for use.
type RWSpinLock struct {
	counts atomic.Uint32
	opts   *Options
}

// NewRWSpinLock generates an instance of RWSpinLock.
func NewRWSpinLock(options ...Option) *RWSpinLock {
	return &RWSpinLock{opts: loadOptions(options...)}
}

func (rw *RWSpinLock) options() *Options {
	if rw.opts != nil {
		return rw.opts
	}
	return &defaultOpts
}

// RLock acquires a shared (read) grant. The reader slot is taken first with
// an atomic increment; if a writer turns out to be active, the reader keeps
// its slot and spins until the writer releases. Taking the slot up front
// means an in-flight reader never blocks a writer from attempting to
// acquire, only from succeeding.
func (rw *RWSpinLock) RLock() {
	if rw.counts.Inc()&writerMask == 0 {
		return
	}
	rw.rlockSlow()
}

func (rw *RWSpinLock) rlockSlow() {
	backoff := relax.NewBackoff(rw.options().MaxBackoff)
	for rw.counts.Load()&writerMask != 0 {
		backoff.Wait()
	}
}

// RUnlock releases one shared grant. The decrement has release semantics:
// the reader's critical-section accesses are visible before the slot is
// observed as free.
func (rw *RWSpinLock) RUnlock() {
	rw.counts.Dec()
}

// Lock acquires the exclusive (write) grant. A writer can only enter when
// the lock is completely idle: no readers and no other writer.
func (rw *RWSpinLock) Lock() {
	if rw.counts.CompareAndSwap(0, writerHeld) {
		return
	}
	rw.lockSlow()
}

func (rw *RWSpinLock) lockSlow() {
	backoff := relax.NewBackoff(rw.options().MaxBackoff)
	for !rw.counts.CompareAndSwap(0, writerHeld) {
		backoff.Wait()
	}
}

// Unlock releases the exclusive grant with release semantics.
func (rw *RWSpinLock) Unlock() {
	rw.counts.Sub(writerHeld)
}

// TryRLock tries to acquire a shared grant with a single compare-and-swap.
// It fails without retrying if a writer is active or the swap loses a race.
func (rw *RWSpinLock) TryRLock() bool {
	counts := rw.counts.Load()
	if counts&writerMask != 0 {
		return false
	}
	return rw.counts.CompareAndSwap(counts, counts+1)
}

// TryLock tries to acquire the exclusive grant with a single
// compare-and-swap from the idle state. No retry.
func (rw *RWSpinLock) TryLock() bool {
	return rw.counts.CompareAndSwap(0, writerHeld)
}

// Readers returns an advisory snapshot of the active reader count. A reader
// still spinning on a writer's release is counted: it already holds its
// slot.
func (rw *RWSpinLock) Readers() uint32 {
	return rw.counts.Load() & readerMask
}

// WriterHeld reports whether a writer currently holds the lock. Advisory
// only.
func (rw *RWSpinLock) WriterHeld() bool {
	return rw.counts.Load()&writerMask != 0
}

// RLocker returns a sync.Locker view of rw whose Lock and Unlock methods
// call RLock and RUnlock, mirroring sync.RWMutex.
func (rw *RWSpinLock) RLocker() sync.Locker {
	return (*rlocker)(rw)
}

type rlocker RWSpinLock

func (r *rlocker) Lock()   { (*RWSpinLock)(r).RLock() }
func (r *rlocker) Unlock() { (*RWSpinLock)(r).RUnlock() }
