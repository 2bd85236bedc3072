package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

const testSettle = 50 * time.Millisecond

func testBackends() []Backend {
	if runtime.GOOS == "linux" {
		return []Backend{BackendInotify, BackendFsnotify}
	}
	return []Backend{BackendFsnotify}
}

func startWatch(t *testing.T, backend Backend, root string) (Watcher, <-chan Result) {
	t.Helper()
	watcher, err := New(Options{Backend: backend, Settle: testSettle})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	t.Cleanup(func() {
		_ = watcher.Close()
	})
	results, err := watcher.Watch(testContext(t), root)
	if err != nil {
		t.Fatalf("watch %s: %v", root, err)
	}
	return watcher, results
}

func waitFor(t *testing.T, results <-chan Result, match func(Event) bool) (Event, bool) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case result, ok := <-results:
			if !ok {
				return Event{}, false
			}
			if result.Err != nil {
				continue
			}
			if match(result.Event) {
				return result.Event, true
			}
		case <-deadline:
			return Event{}, false
		}
	}
}

func closeWriteOf(path string) func(Event) bool {
	return func(event Event) bool {
		return event.IsCloseWrite() && len(event.Paths) == 1 && event.Paths[0] == path
	}
}

func TestWatchReportsCloseWrite(t *testing.T) {
	for _, backend := range testBackends() {
		t.Run(string(backend), func(t *testing.T) {
			root := t.TempDir()
			_, results := startWatch(t, backend, root)

			path := filepath.Join(root, "shot1.png")
			if err := os.WriteFile(path, make([]byte, 10*1024), 0o644); err != nil {
				t.Fatalf("write file: %v", err)
			}

			if _, ok := waitFor(t, results, closeWriteOf(path)); !ok {
				t.Fatalf("timed out waiting for close-write of %s", path)
			}
		})
	}
}

func TestWatchFollowsNewDirectories(t *testing.T) {
	for _, backend := range testBackends() {
		t.Run(string(backend), func(t *testing.T) {
			root := t.TempDir()
			_, results := startWatch(t, backend, root)

			nested := filepath.Join(root, "2026-10")
			if err := os.Mkdir(nested, 0o755); err != nil {
				t.Fatalf("mkdir: %v", err)
			}
			created, ok := waitFor(t, results, func(event Event) bool {
				return event.Kind == KindCreated && event.Paths[0] == nested
			})
			if !ok {
				t.Fatal("timed out waiting for directory create event")
			}
			if !created.Dir {
				t.Fatalf("expected directory flag on %s", created)
			}

			path := filepath.Join(nested, "shot2.png")
			if err := os.WriteFile(path, []byte("png"), 0o644); err != nil {
				t.Fatalf("write file: %v", err)
			}
			if _, ok := waitFor(t, results, closeWriteOf(path)); !ok {
				t.Fatalf("timed out waiting for close-write of %s", path)
			}
		})
	}
}

func TestWatchHoldsEventsForSlowConsumer(t *testing.T) {
	for _, backend := range testBackends() {
		t.Run(string(backend), func(t *testing.T) {
			root := t.TempDir()
			_, results := startWatch(t, backend, root)

			paths := []string{}
			for _, name := range []string{"a.png", "b.png", "c.png", "d.png", "e.png"} {
				path := filepath.Join(root, name)
				if err := os.WriteFile(path, []byte(name), 0o644); err != nil {
					t.Fatalf("write file: %v", err)
				}
				paths = append(paths, path)
			}
			time.Sleep(4 * testSettle)

			pending := map[string]bool{}
			for _, path := range paths {
				pending[path] = true
			}
			_, _ = waitFor(t, results, func(event Event) bool {
				if event.IsCloseWrite() {
					delete(pending, event.Paths[0])
				}
				return len(pending) == 0
			})
			if len(pending) != 0 {
				t.Fatalf("expected every close-write to be delivered, missing %v", pending)
			}
		})
	}
}

func TestWatchCannotRestart(t *testing.T) {
	for _, backend := range testBackends() {
		t.Run(string(backend), func(t *testing.T) {
			root := t.TempDir()
			watcher, _ := startWatch(t, backend, root)

			if _, err := watcher.Watch(testContext(t), root); !errors.Is(err, ErrAlreadyStarted) {
				t.Fatalf("expected ErrAlreadyStarted, got %v", err)
			}
			if err := watcher.Close(); err != nil {
				t.Fatalf("close: %v", err)
			}
			if _, err := watcher.Watch(testContext(t), root); err == nil {
				t.Fatal("expected closed watcher to refuse a new stream")
			}
		})
	}
}

func TestWatchContextCancelEndsStream(t *testing.T) {
	for _, backend := range testBackends() {
		t.Run(string(backend), func(t *testing.T) {
			watcher, err := New(Options{Backend: backend, Settle: testSettle})
			if err != nil {
				t.Fatalf("new watcher: %v", err)
			}
			defer watcher.Close()

			ctx, cancel := context.WithCancel(testContext(t))
			results, err := watcher.Watch(ctx, t.TempDir())
			if err != nil {
				t.Fatalf("watch: %v", err)
			}
			cancel()

			deadline := time.After(2 * time.Second)
			for {
				select {
				case _, ok := <-results:
					if !ok {
						return
					}
				case <-deadline:
					t.Fatal("timed out waiting for stream to close")
				}
			}
		})
	}
}

func TestWatchMissingRootFails(t *testing.T) {
	for _, backend := range testBackends() {
		t.Run(string(backend), func(t *testing.T) {
			watcher, err := New(Options{Backend: backend})
			if err != nil {
				t.Fatalf("new watcher: %v", err)
			}
			defer watcher.Close()

			if _, err := watcher.Watch(testContext(t), filepath.Join(t.TempDir(), "missing")); err == nil {
				t.Fatal("expected error for missing root")
			}
		})
	}
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	if _, err := New(Options{Backend: "kqueue"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestFsnotifyRootRemovalEndsStream(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "shots")
	if err := os.Mkdir(root, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	_, results := startWatch(t, BackendFsnotify, root)

	if err := os.Remove(root); err != nil {
		t.Fatalf("remove root: %v", err)
	}

	deadline := time.After(3 * time.Second)
	sawRootRemoved := false
	for {
		select {
		case result, ok := <-results:
			if !ok {
				if !sawRootRemoved {
					t.Fatal("expected ErrRootRemoved before the stream closed")
				}
				return
			}
			if errors.Is(result.Err, ErrRootRemoved) {
				sawRootRemoved = true
			}
		case <-deadline:
			t.Fatal("stream did not close after root removal")
		}
	}
}

func TestWatchRejectsFileRoot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	if err := os.WriteFile(path, []byte("png"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	for _, backend := range testBackends() {
		watcher, err := New(Options{Backend: backend})
		if err != nil {
			t.Fatalf("new %s watcher: %v", backend, err)
		}
		if _, err := watcher.Watch(context.Background(), path); err == nil {
			t.Fatalf("%s: expected error for file root", backend)
		}
		_ = watcher.Close()
	}
}
