package service

import (
	"sync"

	"github.com/google/uuid"
)

// keyedLocks serializes mutations per business (or account) identity.
// The count-then-complete sequence in the inspection ledger and the
// one-active-request guard both read shared state and then write based on
// what they saw; without this scope two concurrent requests could both
// pass the check.
type keyedLocks struct {
	mu   sync.Mutex
	held map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{held: make(map[uuid.UUID]*lockEntry)}
}

// Lock blocks until the key is exclusively held and returns the release
// function. Entries are dropped once the last holder releases.
func (l *keyedLocks) Lock(key uuid.UUID) func() {
	l.mu.Lock()
	entry, ok := l.held[key]
	if !ok {
		entry = &lockEntry{}
		l.held[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.held, key)
		}
		l.mu.Unlock()
	}
}
