//go:build !linux

package watcher

func defaultBackend() Backend {
	return BackendFsnotify
}

func newInotifyWatcher(Options) (Watcher, error) {
	return nil, ErrUnsupportedBackend
}
