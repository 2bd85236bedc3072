package watcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shotrelay/internal/logging"
)

// Kind classifies a filesystem event.
type Kind int

const (
	KindOther Kind = iota
	KindCreated
	KindModified
	KindRemoved
	KindAccessClose
)

func (kind Kind) String() string {
	switch kind {
	case KindCreated:
		return "created"
	case KindModified:
		return "modified"
	case KindRemoved:
		return "removed"
	case KindAccessClose:
		return "access_close"
	default:
		return "other"
	}
}

// AccessMode qualifies KindAccessClose with how the handle had been opened.
type AccessMode int

const (
	AccessAny AccessMode = iota
	AccessRead
	AccessWrite
)

func (mode AccessMode) String() string {
	switch mode {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	default:
		return "any"
	}
}

// Event is a single filesystem notification.
type Event struct {
	Kind  Kind
	Mode  AccessMode
	Paths []string
	// Dir is set when the subject of the event is a directory.
	Dir bool
	// Raw is the backend's own description of the event.
	Raw       string
	Timestamp time.Time
}

// IsCloseWrite reports whether a handle opened for writing was closed.
func (event Event) IsCloseWrite() bool {
	return event.Kind == KindAccessClose && event.Mode == AccessWrite
}

func (event Event) String() string {
	kind := event.Kind.String()
	if event.Kind == KindAccessClose {
		kind = fmt.Sprintf("%s(%s)", kind, event.Mode)
	}
	return fmt.Sprintf("%s %s [%s]", kind, event.Raw, strings.Join(event.Paths, ", "))
}

// Result is one item of a watch stream. A non-nil Err reports a failed poll;
// the stream keeps going after it.
type Result struct {
	Event Event
	Err   error
}

// Watcher produces a recursive event stream for one directory tree.
type Watcher interface {
	// Watch starts the stream. It may be called once per Watcher.
	Watch(ctx context.Context, root string) (<-chan Result, error)
	Close() error
}

// Backend selects the OS notification mechanism.
type Backend string

const (
	BackendAuto     Backend = "auto"
	BackendInotify  Backend = "inotify"
	BackendFsnotify Backend = "fsnotify"
)

// Options controls watcher construction.
type Options struct {
	Backend Backend
	// Settle is how long the fsnotify backend waits after the last write before
	// reporting the file as closed.
	Settle time.Duration
	Logger *logging.Logger
}
