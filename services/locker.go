package services

import (
	"fmt"
	"sync"

	"github.com/Dosada05/competition-system/utils"
)

// ScopeLocker serializes bracket writes per (competition, category) inside one process.
// Cross-process writers are serialized by the bracket row lock taken in the transaction.
type ScopeLocker struct {
	mu    sync.Mutex
	locks map[string]*scopeLock
}

type scopeLock struct {
	mu      sync.Mutex
	waiters int
}

func NewScopeLocker() *ScopeLocker {
	return &ScopeLocker{locks: make(map[string]*scopeLock)}
}

func scopeKey(competitionID int, categoryID *int) string {
	return fmt.Sprintf("%d:%d", competitionID, utils.OrZero(categoryID))
}

// Lock blocks until the scope is free and returns the function that releases it.
func (l *ScopeLocker) Lock(competitionID int, categoryID *int) func() {
	key := scopeKey(competitionID, categoryID)

	l.mu.Lock()
	lk, ok := l.locks[key]
	if !ok {
		lk = &scopeLock{}
		l.locks[key] = lk
	}
	lk.waiters++
	l.mu.Unlock()

	lk.mu.Lock()
	return func() {
		lk.mu.Unlock()
		l.mu.Lock()
		lk.waiters--
		if lk.waiters == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}
