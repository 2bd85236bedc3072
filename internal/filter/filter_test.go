package filter

import (
	"testing"

	"shotrelay/internal/watcher"
)

func TestClassifyAcceptsCloseWrite(t *testing.T) {
	event := watcher.Event{
		Kind:  watcher.KindAccessClose,
		Mode:  watcher.AccessWrite,
		Paths: []string{"/tmp/shots/shot1.png"},
		Raw:   "IN_CLOSE_WRITE",
	}

	action := Classify(event)
	if action.Decision != Upload {
		t.Fatalf("expected upload, got %s", action.Decision)
	}
	if len(action.Paths) != 1 || action.Paths[0] != "/tmp/shots/shot1.png" {
		t.Fatalf("unexpected paths %v", action.Paths)
	}
}

func TestClassifyKeepsEveryPathInOrder(t *testing.T) {
	event := watcher.Event{
		Kind:  watcher.KindAccessClose,
		Mode:  watcher.AccessWrite,
		Paths: []string{"/tmp/shots/b.png", "", "/tmp/shots/a.png"},
	}

	action := Classify(event)
	if action.Decision != Upload {
		t.Fatalf("expected upload, got %s", action.Decision)
	}
	if len(action.Paths) != 2 || action.Paths[0] != "/tmp/shots/b.png" || action.Paths[1] != "/tmp/shots/a.png" {
		t.Fatalf("unexpected paths %v", action.Paths)
	}
}

func TestClassifyIgnoresEverythingElse(t *testing.T) {
	path := []string{"/tmp/shots/shot1.png"}
	cases := []struct {
		name  string
		event watcher.Event
	}{
		{name: "created", event: watcher.Event{Kind: watcher.KindCreated, Paths: path}},
		{name: "modified", event: watcher.Event{Kind: watcher.KindModified, Paths: path}},
		{name: "removed", event: watcher.Event{Kind: watcher.KindRemoved, Paths: path}},
		{name: "other", event: watcher.Event{Kind: watcher.KindOther, Paths: path}},
		{name: "close read", event: watcher.Event{Kind: watcher.KindAccessClose, Mode: watcher.AccessRead, Paths: path}},
		{name: "close any", event: watcher.Event{Kind: watcher.KindAccessClose, Mode: watcher.AccessAny, Paths: path}},
		{name: "directory", event: watcher.Event{Kind: watcher.KindAccessClose, Mode: watcher.AccessWrite, Paths: path, Dir: true}},
		{name: "no paths", event: watcher.Event{Kind: watcher.KindAccessClose, Mode: watcher.AccessWrite}},
		{name: "empty path", event: watcher.Event{Kind: watcher.KindAccessClose, Mode: watcher.AccessWrite, Paths: []string{""}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			action := Classify(tc.event)
			if action.Decision != Ignore {
				t.Fatalf("expected ignore, got %s", action.Decision)
			}
			if len(action.Paths) != 0 {
				t.Fatalf("expected no paths, got %v", action.Paths)
			}
		})
	}
}
