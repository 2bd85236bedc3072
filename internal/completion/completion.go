// Package completion applies the side effects of a finished upload.
package completion

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"shotrelay/internal/clipboard"
	"shotrelay/internal/logging"
	"shotrelay/internal/notify"
	"shotrelay/internal/upload"
)

const NotificationSummary = "Upload succeeded"

type Handler struct {
	clipboard clipboard.Clipboard
	sink      notify.Sink
	logger    *logging.Logger
	now       func() time.Time
}

func New(board clipboard.Clipboard, sink notify.Sink, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Handler{
		clipboard: board,
		sink:      sink,
		logger:    logger.With(map[string]string{"shotrelay.category": "completion"}),
		now:       time.Now,
	}
}

// Complete copies a successful upload's URL to the clipboard and shows a
// notification. Failed uploads are only logged. The returned error reports
// the first thing that went wrong; the upload itself is never undone.
func (handler *Handler) Complete(ctx context.Context, path string, result upload.Result) error {
	fields := resultFields(path, result)
	if !result.OK() {
		handler.logger.Error("upload failed", fields)
		return fmt.Errorf("upload %s: %s: %w", result.FileName, result.Kind, result.Err)
	}

	if handler.clipboard != nil {
		if err := handler.clipboard.SetText(result.URL); err != nil {
			fields["error"] = err.Error()
			handler.logger.Error("clipboard write failed", fields)
			return fmt.Errorf("copy url to clipboard: %w", err)
		}
	}

	var notifyErr error
	if handler.sink != nil {
		event := notify.Event{
			Summary:    NotificationSummary,
			Body:       "URL copied to clipboard: " + result.URL,
			Fields:     map[string]string{"upload_id": result.ID, "url": result.URL},
			OccurredAt: handler.now(),
		}
		if err := handler.sink.Emit(ctx, event); err != nil {
			errorFields := resultFields(path, result)
			errorFields["error"] = err.Error()
			handler.logger.Error("notification failed", errorFields)
			notifyErr = fmt.Errorf("show notification: %w", err)
		}
	}

	handler.logger.Info("upload succeeded", fields)
	return notifyErr
}

func resultFields(path string, result upload.Result) map[string]string {
	fields := map[string]string{
		"upload_id": result.ID,
		"path":      path,
		"file":      result.FileName,
		"outcome":   result.Kind.String(),
	}
	if result.URL != "" {
		fields["url"] = result.URL
	}
	if result.StatusCode != 0 {
		fields["status"] = strconv.Itoa(result.StatusCode)
	}
	if result.Err != nil {
		fields["error"] = result.Err.Error()
	}
	return fields
}
