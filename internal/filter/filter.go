// Package filter decides which filesystem events mean a file is ready to upload.
package filter

import "shotrelay/internal/watcher"

// Decision is the outcome of classifying an event.
type Decision int

const (
	Ignore Decision = iota
	Upload
)

func (decision Decision) String() string {
	if decision == Upload {
		return "upload"
	}
	return "ignore"
}

// Action carries the paths to upload when Decision is Upload.
type Action struct {
	Decision Decision
	Paths    []string
}

// Classify accepts only "handle opened for writing was closed" events on files.
// Capture tools emit create/modify/open events while streaming to disk; only the
// close after write says the content is final.
func Classify(event watcher.Event) Action {
	if !event.IsCloseWrite() || event.Dir || len(event.Paths) == 0 {
		return Action{Decision: Ignore}
	}
	paths := make([]string, 0, len(event.Paths))
	for _, path := range event.Paths {
		if path == "" {
			continue
		}
		paths = append(paths, path)
	}
	if len(paths) == 0 {
		return Action{Decision: Ignore}
	}
	return Action{Decision: Upload, Paths: paths}
}
