package jobs

import (
	"slices"
	"sync"
)

// tableLocks serialises runs that write overlapping tables.
type tableLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newTableLocks() *tableLocks {
	return &tableLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks every table, in sorted order so two runs cannot deadlock,
// and returns the release function.
func (l *tableLocks) acquire(tables []string) func() {
	sorted := slices.Clone(tables)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	held := make([]*sync.Mutex, 0, len(sorted))
	for _, t := range sorted {
		m := l.get(t)
		m.Lock()
		held = append(held, m)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

func (l *tableLocks) get(table string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[table]
	if !ok {
		m = &sync.Mutex{}
		l.locks[table] = m
	}
	return m
}
