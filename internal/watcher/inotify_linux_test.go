//go:build linux

package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"
)

func TestInotifyKind(t *testing.T) {
	cases := []struct {
		mask uint32
		kind Kind
		mode AccessMode
	}{
		{unix.IN_CLOSE_WRITE, KindAccessClose, AccessWrite},
		{unix.IN_CLOSE_NOWRITE, KindAccessClose, AccessRead},
		{unix.IN_CREATE, KindCreated, AccessAny},
		{unix.IN_CREATE | unix.IN_ISDIR, KindCreated, AccessAny},
		{unix.IN_MOVED_TO, KindCreated, AccessAny},
		{unix.IN_MODIFY, KindModified, AccessAny},
		{unix.IN_DELETE, KindRemoved, AccessAny},
		{unix.IN_MOVED_FROM, KindRemoved, AccessAny},
		{unix.IN_ATTRIB, KindOther, AccessAny},
	}
	for _, tc := range cases {
		kind, mode := inotifyKind(tc.mask)
		if kind != tc.kind || mode != tc.mode {
			t.Fatalf("mask %s: expected %s/%s, got %s/%s", describeMask(tc.mask), tc.kind, tc.mode, kind, mode)
		}
	}
}

func TestDescribeMask(t *testing.T) {
	if got := describeMask(unix.IN_CREATE | unix.IN_ISDIR); got != "IN_CREATE|IN_ISDIR" {
		t.Fatalf("unexpected description %q", got)
	}
	if got := describeMask(0); got != "0x0" {
		t.Fatalf("unexpected description for empty mask %q", got)
	}
}

func TestInotifyModifyIsNotCloseWrite(t *testing.T) {
	root := t.TempDir()
	_, results := startWatch(t, BackendInotify, root)

	path := filepath.Join(root, "stream.png")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := file.Write([]byte("partial")); err != nil {
		t.Fatalf("write: %v", err)
	}

	modified, ok := waitFor(t, results, func(event Event) bool {
		return event.Kind == KindModified && event.Paths[0] == path
	})
	if !ok {
		t.Fatal("timed out waiting for modify event")
	}
	if modified.IsCloseWrite() || modified.Raw != "IN_MODIFY" {
		t.Fatalf("expected a plain modify event, got %s", modified)
	}

	if err := file.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, ok := waitFor(t, results, closeWriteOf(path)); !ok {
		t.Fatal("timed out waiting for close-write after close")
	}
}

func TestInotifyRootRemovalEndsStream(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "shots")
	if err := os.Mkdir(root, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	_, results := startWatch(t, BackendInotify, root)

	if err := os.Remove(root); err != nil {
		t.Fatalf("remove root: %v", err)
	}

	sawRootRemoved := false
	for result := range results {
		if errors.Is(result.Err, ErrRootRemoved) {
			sawRootRemoved = true
		}
	}
	if !sawRootRemoved {
		t.Fatal("expected ErrRootRemoved before the stream closed")
	}
}
