package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreate(t *testing.T) {
	store := NewStore()

	s, created := store.GetOrCreate("+911234567890")
	require.True(t, created)
	assert.Equal(t, StateProductName, s.State)

	again, created := store.GetOrCreate("+911234567890")
	assert.False(t, created)
	assert.Same(t, s, again)
	assert.Equal(t, 1, store.Len())
}

func TestReplaceDiscardsExisting(t *testing.T) {
	store := NewStore()

	old, _ := store.GetOrCreate("+911234567890")
	old.State = StatePincode

	fresh := store.Replace("+911234567890")
	assert.NotSame(t, old, fresh)
	assert.Equal(t, StateProductName, fresh.State)
	assert.Equal(t, 1, store.Len())
}

func TestDelete(t *testing.T) {
	store := NewStore()
	store.GetOrCreate("+911234567890")
	store.Delete("+911234567890")

	_, ok := store.Get("+911234567890")
	assert.False(t, ok)
}

func TestSweepRemovesIdleSessions(t *testing.T) {
	store := NewStore()

	stale, _ := store.GetOrCreate("stale")
	stale.LastSeen = time.Now().Add(-time.Hour)
	fresh, _ := store.GetOrCreate("fresh")
	fresh.Touch()

	removed := store.Sweep(30 * time.Minute)
	assert.Equal(t, 1, removed)
	_, ok := store.Get("fresh")
	assert.True(t, ok)
	_, ok = store.Get("stale")
	assert.False(t, ok)
}

func TestConcurrentAccess(t *testing.T) {
	store := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			buyer := string(rune('a' + n%5))
			s, _ := store.GetOrCreate(buyer)
			s.Lock()
			s.Touch()
			s.Unlock()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, store.Len())
}
