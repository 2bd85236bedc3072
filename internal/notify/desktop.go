package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gen2brain/beeep"
)

var ErrEmptySummary = errors.New("notification summary is required")

type showFunc func(summary, body string) error

// DesktopSink shows events as native desktop notifications.
type DesktopSink struct {
	mu   sync.Mutex
	show showFunc
}

// AppName is reported to the platform notification service.
const AppName = "shotrelay"

func NewDesktopSink() *DesktopSink {
	beeep.AppName = AppName
	return &DesktopSink{show: func(summary, body string) error {
		return beeep.Notify(summary, body, "")
	}}
}

func (sink *DesktopSink) Emit(ctx context.Context, event Event) error {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	if event.Summary == "" {
		return ErrEmptySummary
	}
	// Some platform backends are not safe for concurrent use.
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if err := sink.show(event.Summary, event.Body); err != nil {
		return fmt.Errorf("show notification: %w", err)
	}
	return nil
}
