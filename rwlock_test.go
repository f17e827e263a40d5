package spin

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRWSpinLockConcurrentReaders(t *testing.T) {
	var rw RWSpinLock

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rw.RLock()
		}()
	}
	wg.Wait()

	assert.Equal(t, uint32(3), rw.Readers(), "all three readers hold slots concurrently")
	assert.False(t, rw.TryLock(), "writer must not acquire while readers are active")

	for i := 0; i < 3; i++ {
		rw.RUnlock()
	}

	require.True(t, rw.TryLock(), "writer must acquire once fully idle")
	assert.True(t, rw.WriterHeld())
	rw.Unlock()
	assert.False(t, rw.WriterHeld())
}

func TestRWSpinLockWriterBlocksReader(t *testing.T) {
	var rw RWSpinLock
	rw.Lock()

	entered := make(chan struct{})
	go func() {
		rw.RLock()
		close(entered)
	}()

	select {
	case <-entered:
		t.Fatal("reader entered while a writer held the lock")
	case <-time.After(50 * time.Millisecond):
	}

	rw.Unlock()

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("reader never entered after the writer released")
	}
	rw.RUnlock()
}

func TestRWSpinLockWriterNeedsIdle(t *testing.T) {
	var rw RWSpinLock

	rw.RLock()
	assert.False(t, rw.TryLock(), "one active reader must keep a writer out")
	rw.RUnlock()

	rw.Lock()
	assert.False(t, rw.TryLock(), "a held writer must keep a second writer out")
	assert.False(t, rw.TryRLock(), "a held writer must keep new readers out")
	rw.Unlock()
}

func TestRWSpinLockTryRLock(t *testing.T) {
	var rw RWSpinLock

	require.True(t, rw.TryRLock())
	require.True(t, rw.TryRLock(), "readers may share")
	assert.Equal(t, uint32(2), rw.Readers())
	rw.RUnlock()
	rw.RUnlock()

	rw.Lock()
	assert.False(t, rw.TryRLock())
	rw.Unlock()

	assert.True(t, rw.TryRLock())
	rw.RUnlock()
}

func TestRWSpinLockRoundTrip(t *testing.T) {
	var rw RWSpinLock

	rw.Lock()
	rw.Unlock()
	rw.RLock()
	rw.RUnlock()

	assert.Equal(t, uint32(0), rw.counts.Load(), "releases must restore the idle bit pattern")
}

func TestRWSpinLockExclusivity(t *testing.T) {
	const writers = 4
	const readers = 4
	const runTimes = 5000

	var rw RWSpinLock
	var a, b int

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < runTimes; j++ {
				rw.Lock()
				a++
				b++
				rw.Unlock()
			}
		}()
	}
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < runTimes; j++ {
				rw.RLock()
				if a != b {
					t.Errorf("reader observed torn write: a=%d b=%d", a, b)
					rw.RUnlock()
					return
				}
				rw.RUnlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, writers*runTimes, a)
	require.Equal(t, a, b)
	assert.Equal(t, uint32(0), rw.counts.Load())
}

func BenchmarkRWSpinLockRead(b *testing.B) {
	var rw RWSpinLock
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			rw.RLock()
			rw.RUnlock() //nolint:staticcheck
		}
	})
}

func BenchmarkSyncRWMutexRead(b *testing.B) {
	var rw sync.RWMutex
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			rw.RLock()
			rw.RUnlock() //nolint:staticcheck
		}
	})
}
