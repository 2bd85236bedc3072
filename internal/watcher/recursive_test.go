package watcher

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCollectRecursiveDirsIncludesRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("create nested dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "a", "shot.png"), []byte("png"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	dirs, err := collectRecursiveDirs(root)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	want := []string{root, filepath.Join(root, "a"), nested}
	if len(dirs) != len(want) {
		t.Fatalf("expected %v, got %v", want, dirs)
	}
	for i := range want {
		if dirs[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, dirs)
		}
	}
}

func TestCollectRecursiveDirsMissingRoot(t *testing.T) {
	if _, err := collectRecursiveDirs(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestCollectRecursiveDirsRejectsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	if err := os.WriteFile(path, []byte("png"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := collectRecursiveDirs(path); err == nil {
		t.Fatal("expected error for file root")
	}
}
