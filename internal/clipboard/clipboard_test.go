package clipboard

import (
	"errors"
	"testing"
)

func TestMemoryKeepsLatestText(t *testing.T) {
	memory := NewMemory()
	if memory.Text() != "" {
		t.Fatalf("expected empty clipboard")
	}
	for _, text := range []string{"https://h/a", "https://h/b"} {
		if err := memory.SetText(text); err != nil {
			t.Fatalf("set text: %v", err)
		}
	}
	if memory.Text() != "https://h/b" {
		t.Fatalf("unexpected text %q", memory.Text())
	}
	if writes := memory.Writes(); len(writes) != 2 || writes[0] != "https://h/a" {
		t.Fatalf("unexpected writes %v", writes)
	}
}

func TestMemoryError(t *testing.T) {
	memory := NewMemory()
	boom := errors.New("locked")
	memory.SetError(boom)
	if err := memory.SetText("x"); !errors.Is(err, boom) {
		t.Fatalf("expected configured error, got %v", err)
	}
	if len(memory.Writes()) != 0 {
		t.Fatalf("expected failed write to be dropped")
	}
}

func TestSystemWrapsWriteErrors(t *testing.T) {
	var written string
	system := &System{write: func(text string) error {
		written = text
		return nil
	}}
	if err := system.SetText("https://h/x"); err != nil {
		t.Fatalf("set text: %v", err)
	}
	if written != "https://h/x" {
		t.Fatalf("unexpected write %q", written)
	}

	boom := errors.New("exec: xclip not found")
	system = &System{write: func(string) error { return boom }}
	if err := system.SetText("x"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

var _ Clipboard = (*System)(nil)
var _ Clipboard = (*Memory)(nil)
