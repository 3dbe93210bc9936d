package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedClock(t *time.Time) func() time.Time {
	return func() time.Time { return *t }
}

func TestAdmit_AllowsUpToMax(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := New(NewMemoryStore(), time.Minute, 5, WithClock(fixedClock(&now)))

	for i := 0; i < 5; i++ {
		assert.True(t, l.Admit("sdr@harbiz.io"), "request %d should be admitted", i+1)
	}
	assert.False(t, l.Admit("sdr@harbiz.io"), "6th request in the window should be rejected")
}

func TestAdmit_ResetsAfterWindowFromOriginalStart(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := New(NewMemoryStore(), time.Minute, 5, WithClock(fixedClock(&now)))

	for i := 0; i < 5; i++ {
		assert.True(t, l.Admit("a"))
	}

	// 30s later, still inside the window started at t=0.
	now = now.Add(30 * time.Second)
	assert.False(t, l.Admit("a"))

	// Just past the window measured from the original start, not from the
	// last rejected attempt.
	now = now.Add(31 * time.Second)
	assert.True(t, l.Admit("a"))

	// The reset installed a fresh window with count 1.
	for i := 0; i < 4; i++ {
		assert.True(t, l.Admit("a"))
	}
	assert.False(t, l.Admit("a"))
}

func TestAdmit_ActorsAreIndependent(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := New(NewMemoryStore(), time.Minute, 2, WithClock(fixedClock(&now)))

	assert.True(t, l.Admit("a"))
	assert.True(t, l.Admit("a"))
	assert.False(t, l.Admit("a"))

	assert.True(t, l.Admit("b"))
	assert.True(t, l.Admit("b"))
	assert.False(t, l.Admit("b"))
}

func TestAdmit_ExactWindowBoundaryStillCounts(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := New(NewMemoryStore(), time.Minute, 1, WithClock(fixedClock(&now)))

	assert.True(t, l.Admit("a"))

	// Elapsed == window is not strictly greater, so no reset yet.
	now = now.Add(time.Minute)
	assert.False(t, l.Admit("a"))

	now = now.Add(time.Nanosecond)
	assert.True(t, l.Admit("a"))
}

func TestAdmit_ConcurrentNeverOveradmits(t *testing.T) {
	l := New(NewMemoryStore(), time.Minute, 5)

	const attempts = 50
	var wg sync.WaitGroup
	admitted := make(chan bool, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			admitted <- l.Admit("shared")
		}()
	}
	wg.Wait()
	close(admitted)

	var count int
	for ok := range admitted {
		if ok {
			count++
		}
	}
	assert.Equal(t, 5, count)
}

func TestMemoryStore_CompareAndSwap(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now()

	// Zero old matches a missing entry.
	assert.True(t, s.CompareAndSwap("a", Window{}, Window{Count: 1, WindowStart: now}))

	// Stale old fails once the entry exists.
	assert.False(t, s.CompareAndSwap("a", Window{}, Window{Count: 9, WindowStart: now}))

	cur, ok := s.Get("a")
	assert.True(t, ok)
	assert.True(t, s.CompareAndSwap("a", cur, Window{Count: 2, WindowStart: now}))

	got, _ := s.Get("a")
	assert.Equal(t, 2, got.Count)
}

func TestMemoryStore_Prune(t *testing.T) {
	s := NewMemoryStore()
	s.Set("old", Window{Count: 3, WindowStart: time.Now().Add(-time.Hour)})
	s.Set("fresh", Window{Count: 1, WindowStart: time.Now()})

	dropped := s.Prune(10 * time.Minute)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, 1, s.Len())

	_, ok := s.Get("fresh")
	assert.True(t, ok)
}
