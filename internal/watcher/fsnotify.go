package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"shotrelay/internal/logging"
)

// RawSettled marks close-after-write events synthesized by the fsnotify backend.
const RawSettled = "SETTLED"

type fsnotifyWatcher struct {
	logger    *logging.Logger
	source    *fsnotify.Watcher
	debouncer *debouncer
	settled   chan string
	root      string
	mutex     sync.Mutex
	started   bool
	closed    bool
	stream    *stream
}

func newFsnotifyWatcher(options Options) (Watcher, error) {
	source, err := fsnotify.NewBufferedWatcher(handoffCapacity)
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	return &fsnotifyWatcher{
		logger:    options.Logger,
		source:    source,
		debouncer: newDebouncer(options.Settle),
		settled:   make(chan string),
		stream:    newStream(),
	}, nil
}

func (watcher *fsnotifyWatcher) Watch(ctx context.Context, root string) (<-chan Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	watcher.mutex.Lock()
	if watcher.closed {
		watcher.mutex.Unlock()
		return nil, ErrClosed
	}
	if watcher.started {
		watcher.mutex.Unlock()
		return nil, ErrAlreadyStarted
	}
	watcher.started = true
	watcher.mutex.Unlock()

	dirs, err := collectRecursiveDirs(root)
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	watcher.root = filepath.Clean(dirs[0])
	for i, dir := range dirs {
		if err := watcher.source.Add(dir); err != nil {
			if i == 0 {
				return nil, fmt.Errorf("watch %s: %w", dir, err)
			}
			watcher.logger.Warn("watch add failed", map[string]string{
				"path":  dir,
				"error": err.Error(),
			})
		}
	}

	go watcher.run()
	go watcher.stream.closeOnDone(ctx, watcher.Close)
	return watcher.stream.out, nil
}

func (watcher *fsnotifyWatcher) Close() error {
	watcher.mutex.Lock()
	if watcher.closed {
		watcher.mutex.Unlock()
		return nil
	}
	watcher.closed = true
	watcher.mutex.Unlock()

	watcher.stream.stop()
	watcher.debouncer.stop()
	return watcher.source.Close()
}

func (watcher *fsnotifyWatcher) run() {
	defer close(watcher.stream.out)

	for {
		select {
		case event, ok := <-watcher.source.Events:
			if !ok {
				return
			}
			if !watcher.handleEvent(event) {
				return
			}
		case err, ok := <-watcher.source.Errors:
			if !ok {
				return
			}
			if !watcher.stream.send(Result{Err: err}) {
				return
			}
		case path := <-watcher.settled:
			if !watcher.stream.send(Result{Event: newEvent(KindAccessClose, AccessWrite, path, false, RawSettled)}) {
				return
			}
		case <-watcher.stream.done:
			return
		}
	}
}

func (watcher *fsnotifyWatcher) handleEvent(event fsnotify.Event) bool {
	isDir := false
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			isDir = true
			addTree(event.Name, watcher.source.Add, watcher.logger.Warn)
		}
	}

	if !isDir {
		switch {
		case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
			watcher.debouncer.schedule(event.Name, watcher.flush)
		case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
			watcher.debouncer.cancel(event.Name)
		}
	}

	if !watcher.stream.send(Result{Event: newEvent(fsnotifyKind(event), AccessAny, event.Name, isDir, event.Op.String())}) {
		return false
	}
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		if filepath.Clean(event.Name) == watcher.root {
			watcher.stream.send(Result{Err: ErrRootRemoved})
			return false
		}
	}
	return true
}

func (watcher *fsnotifyWatcher) flush(path string) {
	select {
	case watcher.settled <- path:
	case <-watcher.stream.done:
	}
}

func fsnotifyKind(event fsnotify.Event) Kind {
	switch {
	case event.Has(fsnotify.Create):
		return KindCreated
	case event.Has(fsnotify.Write):
		return KindModified
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return KindRemoved
	default:
		return KindOther
	}
}
