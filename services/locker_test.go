package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Dosada05/competition-system/utils"
)

func TestScopeLocker_SerializesSameScope(t *testing.T) {
	l := NewScopeLocker()

	var (
		wg      sync.WaitGroup
		inside  int
		maxSeen int
		mu      sync.Mutex
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock(1, utils.Ptr(2))
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Empty(t, l.locks, "released scopes are dropped")
}

func TestScopeLocker_IndependentScopes(t *testing.T) {
	l := NewScopeLocker()
	unlock := l.Lock(1, utils.Ptr(2))
	defer unlock()

	done := make(chan struct{})
	go func() {
		release := l.Lock(1, nil)
		release()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different scope blocked")
	}
}
