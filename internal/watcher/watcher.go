package watcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"shotrelay/internal/logging"
)

const (
	// handoffCapacity is the size of the channel between the OS reader and the consumer.
	handoffCapacity = 1
	defaultSettle   = 500 * time.Millisecond
)

var (
	ErrAlreadyStarted     = errors.New("watcher already started")
	ErrClosed             = errors.New("watcher is closed")
	ErrUnsupportedBackend = errors.New("watch backend not supported on this platform")
	ErrEventOverflow      = errors.New("event queue overflowed; some events were lost")
	ErrRootRemoved        = errors.New("watched directory was removed")
)

// New builds a Watcher for the requested backend.
func New(options Options) (Watcher, error) {
	if options.Logger == nil {
		options.Logger = logging.Nop()
	}
	options.Logger = options.Logger.With(map[string]string{"shotrelay.category": "watcher"})
	if options.Settle <= 0 {
		options.Settle = defaultSettle
	}

	backend := options.Backend
	if backend == "" || backend == BackendAuto {
		backend = defaultBackend()
	}
	switch backend {
	case BackendInotify:
		return newInotifyWatcher(options)
	case BackendFsnotify:
		return newFsnotifyWatcher(options)
	default:
		return nil, fmt.Errorf("unknown watch backend %q", backend)
	}
}

// ParseBackend validates a backend name.
func ParseBackend(value string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(value))) {
	case "", BackendAuto:
		return BackendAuto, nil
	case BackendInotify:
		return BackendInotify, nil
	case BackendFsnotify:
		return BackendFsnotify, nil
	default:
		return "", fmt.Errorf("unknown watch backend %q (want auto, inotify or fsnotify)", value)
	}
}

// stream is the bounded handoff shared by the backends. The producer goroutine
// owns out and closes it on exit.
type stream struct {
	out       chan Result
	done      chan struct{}
	closeOnce sync.Once
}

func newStream() *stream {
	return &stream{
		out:  make(chan Result, handoffCapacity),
		done: make(chan struct{}),
	}
}

// send blocks until the consumer takes the result or the stream is stopped.
func (s *stream) send(result Result) bool {
	select {
	case s.out <- result:
		return true
	case <-s.done:
		return false
	}
}

func (s *stream) stop() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

func (s *stream) closeOnDone(ctx context.Context, closeFn func() error) {
	select {
	case <-ctx.Done():
		_ = closeFn()
	case <-s.done:
	}
}

func newEvent(kind Kind, mode AccessMode, path string, isDir bool, raw string) Event {
	return Event{
		Kind:      kind,
		Mode:      mode,
		Paths:     []string{path},
		Dir:       isDir,
		Raw:       raw,
		Timestamp: time.Now().UTC(),
	}
}
