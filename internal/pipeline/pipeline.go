// Package pipeline drives watch events through upload and completion.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"

	"shotrelay/internal/filter"
	"shotrelay/internal/logging"
	"shotrelay/internal/upload"
	"shotrelay/internal/watcher"
)

var ErrNotConfigured = errors.New("pipeline requires a watcher, uploader and completer")

type Uploader interface {
	Upload(ctx context.Context, path string) upload.Result
}

type Completer interface {
	Complete(ctx context.Context, path string, result upload.Result) error
}

// State is the driver lifecycle. A driver moves from Idle to Watching once the
// stream is open and ends in Terminated; it is never restarted.
type State int32

const (
	StateIdle State = iota
	StateWatching
	StateTerminated
)

func (state State) String() string {
	switch state {
	case StateWatching:
		return "watching"
	case StateTerminated:
		return "terminated"
	default:
		return "idle"
	}
}

type Options struct {
	Watcher   watcher.Watcher
	Root      string
	Uploader  Uploader
	Completer Completer
	Logger    *logging.Logger
}

// Metrics counts what the driver has seen so far.
type Metrics struct {
	Events      uint64
	Ignored     uint64
	WatchErrors uint64
	Uploaded    uint64
	Failed      uint64
}

type Driver struct {
	watcher   watcher.Watcher
	root      string
	uploader  Uploader
	completer Completer
	logger    *logging.Logger

	started     atomic.Bool
	state       atomic.Int32
	events      atomic.Uint64
	ignored     atomic.Uint64
	watchErrors atomic.Uint64
	uploaded    atomic.Uint64
	failed      atomic.Uint64
}

func New(options Options) *Driver {
	logger := options.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &Driver{
		watcher:   options.Watcher,
		root:      options.Root,
		uploader:  options.Uploader,
		completer: options.Completer,
		logger:    logger.With(map[string]string{"shotrelay.category": "pipeline"}),
	}
}

func (driver *Driver) State() State {
	return State(driver.state.Load())
}

// Metrics reports current driver stats.
func (driver *Driver) Metrics() Metrics {
	return Metrics{
		Events:      driver.events.Load(),
		Ignored:     driver.ignored.Load(),
		WatchErrors: driver.watchErrors.Load(),
		Uploaded:    driver.uploaded.Load(),
		Failed:      driver.failed.Load(),
	}
}

// Run opens the watch stream and processes it until the stream ends or ctx is
// cancelled. Only a failure to open the stream is returned; everything that
// goes wrong per event or per upload is logged and skipped.
func (driver *Driver) Run(ctx context.Context) error {
	if driver.watcher == nil || driver.uploader == nil || driver.completer == nil {
		driver.state.Store(int32(StateTerminated))
		return ErrNotConfigured
	}
	if !driver.started.CompareAndSwap(false, true) {
		return watcher.ErrAlreadyStarted
	}

	results, err := driver.watcher.Watch(ctx, driver.root)
	if err != nil {
		driver.state.Store(int32(StateTerminated))
		driver.logger.Error("watch failed", map[string]string{
			"root":  driver.root,
			"error": err.Error(),
		})
		if closeErr := driver.watcher.Close(); closeErr != nil {
			driver.logger.Warn("watcher close failed", map[string]string{"error": closeErr.Error()})
		}
		return fmt.Errorf("watch %s: %w", driver.root, err)
	}
	driver.state.Store(int32(StateWatching))
	defer driver.terminate()

	driver.logger.Info("watching", map[string]string{"root": driver.root})
	for {
		select {
		case <-ctx.Done():
			return nil
		case result, ok := <-results:
			if !ok {
				return nil
			}
			driver.handle(ctx, result)
		}
	}
}

func (driver *Driver) handle(ctx context.Context, result watcher.Result) {
	if result.Err != nil {
		driver.watchErrors.Add(1)
		driver.logger.Error("watch error", map[string]string{
			"root":  driver.root,
			"error": result.Err.Error(),
		})
		return
	}

	driver.events.Add(1)
	action := filter.Classify(result.Event)
	if action.Decision == filter.Ignore {
		driver.ignored.Add(1)
		driver.logger.Info("event ignored", map[string]string{
			"event": result.Event.String(),
		})
		return
	}

	for _, path := range action.Paths {
		outcome := driver.uploader.Upload(ctx, path)
		if outcome.OK() {
			driver.uploaded.Add(1)
		} else {
			driver.failed.Add(1)
		}
		// Complete logs its own failures.
		_ = driver.completer.Complete(ctx, path, outcome)
	}
}

func (driver *Driver) terminate() {
	driver.state.Store(int32(StateTerminated))
	if err := driver.watcher.Close(); err != nil {
		driver.logger.Warn("watcher close failed", map[string]string{"error": err.Error()})
	}
	metrics := driver.Metrics()
	driver.logger.Info("pipeline terminated", map[string]string{
		"root":         driver.root,
		"events":       strconv.FormatUint(metrics.Events, 10),
		"ignored":      strconv.FormatUint(metrics.Ignored, 10),
		"watch_errors": strconv.FormatUint(metrics.WatchErrors, 10),
		"uploaded":     strconv.FormatUint(metrics.Uploaded, 10),
		"failed":       strconv.FormatUint(metrics.Failed, 10),
	})
}
