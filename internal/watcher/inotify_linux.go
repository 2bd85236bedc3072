//go:build linux

package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"shotrelay/internal/logging"
)

const inotifyWatchMask = unix.IN_CLOSE_WRITE | unix.IN_CREATE | unix.IN_MODIFY |
	unix.IN_DELETE | unix.IN_MOVED_FROM | unix.IN_MOVED_TO | unix.IN_ATTRIB |
	unix.IN_DELETE_SELF | unix.IN_MOVE_SELF | unix.IN_ONLYDIR

var inotifyMaskNames = []struct {
	mask uint32
	name string
}{
	{unix.IN_ACCESS, "IN_ACCESS"},
	{unix.IN_MODIFY, "IN_MODIFY"},
	{unix.IN_ATTRIB, "IN_ATTRIB"},
	{unix.IN_CLOSE_WRITE, "IN_CLOSE_WRITE"},
	{unix.IN_CLOSE_NOWRITE, "IN_CLOSE_NOWRITE"},
	{unix.IN_OPEN, "IN_OPEN"},
	{unix.IN_MOVED_FROM, "IN_MOVED_FROM"},
	{unix.IN_MOVED_TO, "IN_MOVED_TO"},
	{unix.IN_CREATE, "IN_CREATE"},
	{unix.IN_DELETE, "IN_DELETE"},
	{unix.IN_DELETE_SELF, "IN_DELETE_SELF"},
	{unix.IN_MOVE_SELF, "IN_MOVE_SELF"},
	{unix.IN_UNMOUNT, "IN_UNMOUNT"},
	{unix.IN_Q_OVERFLOW, "IN_Q_OVERFLOW"},
	{unix.IN_IGNORED, "IN_IGNORED"},
	{unix.IN_ISDIR, "IN_ISDIR"},
}

func defaultBackend() Backend {
	return BackendInotify
}

type inotifyWatcher struct {
	logger  *logging.Logger
	file    *os.File
	fd      int
	mutex   sync.Mutex
	watches map[int]string
	rootWD  int
	started bool
	closed  bool
	stream  *stream
}

func newInotifyWatcher(options Options) (Watcher, error) {
	// Non-blocking so that reads park in the runtime poller and Close unblocks them.
	fd, err := unix.InotifyInit1(unix.IN_CLOEXEC | unix.IN_NONBLOCK)
	if err != nil {
		return nil, fmt.Errorf("inotify init: %w", err)
	}
	return &inotifyWatcher{
		logger:  options.Logger,
		file:    os.NewFile(uintptr(fd), "inotify"),
		fd:      fd,
		watches: make(map[int]string),
		rootWD:  -1,
		stream:  newStream(),
	}, nil
}

func (watcher *inotifyWatcher) Watch(ctx context.Context, root string) (<-chan Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	watcher.mutex.Lock()
	if watcher.closed {
		watcher.mutex.Unlock()
		return nil, ErrClosed
	}
	if watcher.started {
		watcher.mutex.Unlock()
		return nil, ErrAlreadyStarted
	}
	watcher.started = true
	watcher.mutex.Unlock()

	dirs, err := collectRecursiveDirs(root)
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	for i, dir := range dirs {
		wd, err := watcher.addWatch(dir)
		if err != nil {
			if i == 0 {
				return nil, fmt.Errorf("watch %s: %w", dir, err)
			}
			watcher.logger.Warn("watch add failed", map[string]string{
				"path":  dir,
				"error": err.Error(),
			})
			continue
		}
		if i == 0 {
			watcher.mutex.Lock()
			watcher.rootWD = wd
			watcher.mutex.Unlock()
		}
	}
	watcher.logger.Debug("inotify watch started", map[string]string{
		"path":        root,
		"directories": strconv.Itoa(len(dirs)),
	})

	go watcher.readLoop()
	go watcher.stream.closeOnDone(ctx, watcher.Close)
	return watcher.stream.out, nil
}

func (watcher *inotifyWatcher) Close() error {
	watcher.mutex.Lock()
	if watcher.closed {
		watcher.mutex.Unlock()
		return nil
	}
	watcher.closed = true
	watcher.mutex.Unlock()

	watcher.stream.stop()
	return watcher.file.Close()
}

func (watcher *inotifyWatcher) addWatch(path string) (int, error) {
	wd, err := unix.InotifyAddWatch(watcher.fd, path, inotifyWatchMask)
	if err != nil {
		return -1, err
	}
	watcher.mutex.Lock()
	watcher.watches[wd] = path
	watcher.mutex.Unlock()
	return wd, nil
}

func (watcher *inotifyWatcher) isClosed() bool {
	watcher.mutex.Lock()
	defer watcher.mutex.Unlock()
	return watcher.closed
}

func (watcher *inotifyWatcher) readLoop() {
	defer close(watcher.stream.out)

	var buf [unix.SizeofInotifyEvent * 4096]byte
	for {
		n, err := watcher.file.Read(buf[:])
		if err != nil {
			if errors.Is(err, os.ErrClosed) || watcher.isClosed() {
				return
			}
			watcher.stream.send(Result{Err: fmt.Errorf("read inotify events: %w", err)})
			return
		}
		if n < unix.SizeofInotifyEvent {
			if !watcher.stream.send(Result{Err: fmt.Errorf("short inotify read: %d bytes", n)}) {
				return
			}
			continue
		}

		offset := 0
		for offset <= n-unix.SizeofInotifyEvent {
			raw := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))
			nameLen := int(raw.Len)
			name := ""
			if nameLen > 0 {
				start := offset + unix.SizeofInotifyEvent
				name = strings.TrimRight(string(buf[start:start+nameLen]), "\x00")
			}
			offset += unix.SizeofInotifyEvent + nameLen

			if !watcher.handle(int(raw.Wd), raw.Mask, name) {
				return
			}
		}
	}
}

// handle converts one raw inotify record and hands it on. It returns false
// when the stream must end.
func (watcher *inotifyWatcher) handle(wd int, mask uint32, name string) bool {
	if mask&unix.IN_Q_OVERFLOW != 0 {
		return watcher.stream.send(Result{Err: ErrEventOverflow})
	}

	watcher.mutex.Lock()
	dir, known := watcher.watches[wd]
	isRoot := wd == watcher.rootWD
	if mask&unix.IN_IGNORED != 0 {
		delete(watcher.watches, wd)
	}
	watcher.mutex.Unlock()

	if mask&unix.IN_IGNORED != 0 {
		if isRoot {
			watcher.stream.send(Result{Err: ErrRootRemoved})
			return false
		}
		return true
	}
	if !known {
		return true
	}

	path := dir
	if name != "" {
		path = filepath.Join(dir, name)
	}
	isDir := mask&unix.IN_ISDIR != 0
	if isDir && mask&(unix.IN_CREATE|unix.IN_MOVED_TO) != 0 {
		addTree(path, func(dir string) error {
			_, err := watcher.addWatch(dir)
			return err
		}, watcher.logger.Warn)
	}

	kind, mode := inotifyKind(mask)
	return watcher.stream.send(Result{Event: newEvent(kind, mode, path, isDir, describeMask(mask))})
}

func inotifyKind(mask uint32) (Kind, AccessMode) {
	switch {
	case mask&unix.IN_CLOSE_WRITE != 0:
		return KindAccessClose, AccessWrite
	case mask&unix.IN_CLOSE_NOWRITE != 0:
		return KindAccessClose, AccessRead
	case mask&(unix.IN_CREATE|unix.IN_MOVED_TO) != 0:
		return KindCreated, AccessAny
	case mask&unix.IN_MODIFY != 0:
		return KindModified, AccessAny
	case mask&(unix.IN_DELETE|unix.IN_DELETE_SELF|unix.IN_MOVED_FROM|unix.IN_MOVE_SELF) != 0:
		return KindRemoved, AccessAny
	default:
		return KindOther, AccessAny
	}
}

func describeMask(mask uint32) string {
	names := []string{}
	for _, entry := range inotifyMaskNames {
		if mask&entry.mask != 0 {
			names = append(names, entry.name)
		}
	}
	if len(names) == 0 {
		return fmt.Sprintf("0x%x", mask)
	}
	return strings.Join(names, "|")
}
