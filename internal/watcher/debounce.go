package watcher

import (
	"sync"
	"time"
)

type debounceEntry struct {
	timer      *time.Timer
	generation uint64
}

// debouncer fires flush for a path once schedule has not been called for it
// during duration. Each reschedule supersedes the previous timer.
type debouncer struct {
	mutex      sync.Mutex
	duration   time.Duration
	entries    map[string]debounceEntry
	generation uint64
}

func newDebouncer(duration time.Duration) *debouncer {
	return &debouncer{
		duration: duration,
		entries:  make(map[string]debounceEntry),
	}
}

// schedule arms or re-arms the timer for path and reports whether a pending
// timer was superseded.
func (debouncer *debouncer) schedule(path string, flush func(string)) bool {
	if debouncer == nil {
		return false
	}
	debouncer.mutex.Lock()
	defer debouncer.mutex.Unlock()
	if debouncer.entries == nil {
		return false
	}

	entry, superseded := debouncer.entries[path]
	if superseded && entry.timer != nil {
		entry.timer.Stop()
	}
	debouncer.generation++
	generation := debouncer.generation
	debouncer.entries[path] = debounceEntry{
		generation: generation,
		timer: time.AfterFunc(debouncer.duration, func() {
			if debouncer.pop(path, generation) {
				flush(path)
			}
		}),
	}
	return superseded
}

// pop removes the entry for path if it still belongs to generation.
func (debouncer *debouncer) pop(path string, generation uint64) bool {
	debouncer.mutex.Lock()
	defer debouncer.mutex.Unlock()
	entry, ok := debouncer.entries[path]
	if !ok || entry.generation != generation {
		return false
	}
	delete(debouncer.entries, path)
	return true
}

func (debouncer *debouncer) cancel(path string) {
	if debouncer == nil {
		return
	}
	debouncer.mutex.Lock()
	defer debouncer.mutex.Unlock()
	entry, ok := debouncer.entries[path]
	if !ok {
		return
	}
	if entry.timer != nil {
		entry.timer.Stop()
	}
	delete(debouncer.entries, path)
}

func (debouncer *debouncer) pending() int {
	debouncer.mutex.Lock()
	defer debouncer.mutex.Unlock()
	return len(debouncer.entries)
}

func (debouncer *debouncer) stop() {
	if debouncer == nil {
		return
	}
	debouncer.mutex.Lock()
	defer debouncer.mutex.Unlock()
	for _, entry := range debouncer.entries {
		if entry.timer != nil {
			entry.timer.Stop()
		}
	}
	debouncer.entries = nil
}
