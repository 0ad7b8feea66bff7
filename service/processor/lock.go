package processor

import "sync"

// batchLocks serializes work per batch id; entries are dropped once unused.
type batchLocks struct {
	mux   sync.Mutex
	locks map[string]*batchLock
}

type batchLock struct {
	sync.Mutex
	refs int
}

func (l *batchLocks) lock(batchID string) func() {
	l.mux.Lock()
	entry, ok := l.locks[batchID]
	if !ok {
		entry = &batchLock{}
		l.locks[batchID] = entry
	}
	entry.refs++
	l.mux.Unlock()

	entry.Lock()
	return func() {
		entry.Unlock()
		l.mux.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, batchID)
		}
		l.mux.Unlock()
	}
}

func (l *batchLocks) size() int {
	l.mux.Lock()
	defer l.mux.Unlock()
	return len(l.locks)
}

func newBatchLocks() *batchLocks {
	return &batchLocks{locks: make(map[string]*batchLock)}
}
