// Package clipboard writes text to the system clipboard.
package clipboard

import (
	"errors"
	"fmt"
	"sync"

	"github.com/atotto/clipboard"
)

var ErrClipboardUnavailable = errors.New("system clipboard is unavailable")

type Clipboard interface {
	SetText(text string) error
}

// System writes through the platform clipboard utility.
type System struct {
	mu    sync.Mutex
	write func(string) error
}

// Open returns the system clipboard, or ErrClipboardUnavailable when no
// clipboard utility (xclip, xsel, wl-copy, pbcopy, ...) can be found.
func Open() (*System, error) {
	if clipboard.Unsupported {
		return nil, ErrClipboardUnavailable
	}
	return &System{write: clipboard.WriteAll}, nil
}

func (system *System) SetText(text string) error {
	system.mu.Lock()
	defer system.mu.Unlock()
	if err := system.write(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}

// Memory is an in-process clipboard for tests and headless runs.
type Memory struct {
	mu     sync.Mutex
	writes []string
	err    error
}

func NewMemory() *Memory {
	return &Memory{}
}

func (memory *Memory) SetText(text string) error {
	memory.mu.Lock()
	defer memory.mu.Unlock()
	if memory.err != nil {
		return memory.err
	}
	memory.writes = append(memory.writes, text)
	return nil
}

// Text returns the latest value written.
func (memory *Memory) Text() string {
	memory.mu.Lock()
	defer memory.mu.Unlock()
	if len(memory.writes) == 0 {
		return ""
	}
	return memory.writes[len(memory.writes)-1]
}

func (memory *Memory) Writes() []string {
	memory.mu.Lock()
	defer memory.mu.Unlock()
	writes := make([]string, len(memory.writes))
	copy(writes, memory.writes)
	return writes
}

func (memory *Memory) SetError(err error) {
	memory.mu.Lock()
	memory.err = err
	memory.mu.Unlock()
}
