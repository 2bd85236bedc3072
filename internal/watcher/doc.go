// Package watcher turns OS filesystem notifications for a directory tree into an
// ordered stream of Events.
//
// Events are handed to the consumer through a channel with a single slot. The
// producer blocks while that slot is full, so no event is dropped because the
// consumer is slow. A stream ends when its context is cancelled, the watcher is
// closed, or the OS source fails; a watcher cannot be restarted afterwards.
//
// Two backends exist. The inotify backend (Linux) reports the kernel's
// close-after-write notification directly. The fsnotify backend works everywhere
// fsnotify does and synthesizes a close-after-write event once writes to a path
// have been quiet for the settle interval.
package watcher
