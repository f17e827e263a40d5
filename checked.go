package spin

// Checked wrappers layer misuse detection over the raw locks: recursive
// self-acquire, release by a non-holder, double release, and reader-count
// underflow or overflow. Violations are reported through the configured
// Logger and then panic; they are programming errors, not recoverable
// outcomes. The raw types stay check-free, so the wrappers cost nothing
// unless a caller opts in.
//
// The exclusive checks are keyed on the processor tag stored in the lock
// word, so they assume the caller stays on one logical processor for the
// duration of the critical section, the same discipline these locks are
// held with when preemption is disabled. A caller that migrates mid-section
// can trip a spurious report.

// CheckedSpinLock is a SpinLock that detects common misuse at runtime.
type CheckedSpinLock struct {
	SpinLock
}

// NewCheckedSpinLock generates an instance of CheckedSpinLock.
func NewCheckedSpinLock(options ...Option) *CheckedSpinLock {
	return &CheckedSpinLock{SpinLock: SpinLock{opts: loadOptions(options...)}}
}

// Lock acquires the lock after verifying the caller is not already the
// holder; re-acquiring would spin forever.
func (l *CheckedSpinLock) Lock() {
	tag := l.ownerTag()
	if l.value.Load() == tag {
		l.violation("recursive acquire of exclusive spin lock would deadlock")
	}
	l.SpinLock.Lock()
}

// Unlock releases the lock after verifying the caller holds it.
func (l *CheckedSpinLock) Unlock() {
	tag := l.ownerTag()
	switch value := l.value.Load(); {
	case value == 0:
		l.violation("release of unlocked exclusive spin lock")
	case value != tag:
		l.violation("release of exclusive spin lock by non-holder")
	}
	l.SpinLock.Unlock()
}

func (l *CheckedSpinLock) violation(msg string) {
	l.options().Logger.Printf("spin: %s", msg)
	panic("spin: " + msg)
}

// CheckedRWSpinLock is an RWSpinLock that detects common misuse at runtime.
type CheckedRWSpinLock struct {
	RWSpinLock
}

// NewCheckedRWSpinLock generates an instance of CheckedRWSpinLock.
func NewCheckedRWSpinLock(options ...Option) *CheckedRWSpinLock {
	return &CheckedRWSpinLock{RWSpinLock: RWSpinLock{opts: loadOptions(options...)}}
}

// RLock acquires a shared grant after verifying the reader sub-field has
// room; one more reader would wrap into the writer sub-field.
func (rw *CheckedRWSpinLock) RLock() {
	if rw.counts.Load()&readerMask == readerMask {
		rw.violation("reader count overflow on shared spin lock")
	}
	rw.RWSpinLock.RLock()
}

// RUnlock releases a shared grant after verifying one is held.
func (rw *CheckedRWSpinLock) RUnlock() {
	if rw.counts.Load()&readerMask == 0 {
		rw.violation("release of shared grant with no active readers")
	}
	rw.RWSpinLock.RUnlock()
}

// Unlock releases the exclusive grant after verifying a writer holds the
// lock.
func (rw *CheckedRWSpinLock) Unlock() {
	if rw.counts.Load()&writerMask == 0 {
		rw.violation("release of exclusive grant with no writer held")
	}
	rw.RWSpinLock.Unlock()
}

func (rw *CheckedRWSpinLock) violation(msg string) {
	rw.options().Logger.Printf("spin: %s", msg)
	panic("spin: " + msg)
}
