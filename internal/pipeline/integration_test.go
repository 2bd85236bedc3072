package pipeline

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shotrelay/internal/clipboard"
	"shotrelay/internal/completion"
	"shotrelay/internal/logging"
	"shotrelay/internal/notify"
	"shotrelay/internal/upload"
	"shotrelay/internal/watcher"
)

func TestRunWithRealWatcher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, header, err := r.FormFile(upload.FieldName)
		if err != nil {
			http.Error(w, "bad", http.StatusBadRequest)
			return
		}
		_, _ = io.WriteString(w, `{"url":"https://h/`+header.Filename+`"}`)
	}))
	defer server.Close()

	root := t.TempDir()
	logger, _ := logging.NewRecorder()
	source, err := watcher.New(watcher.Options{Settle: 50 * time.Millisecond, Logger: logger})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	board := clipboard.NewMemory()
	driver := New(Options{
		Watcher:   source,
		Root:      root,
		Uploader:  upload.New(runConfig(server.URL), upload.Options{Client: server.Client()}),
		Completer: completion.New(board, notify.NewMemorySink(), logger),
		Logger:    logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- driver.Run(ctx)
	}()
	waitFor(t, func() bool { return driver.State() == StateWatching })

	if err := os.WriteFile(filepath.Join(root, "shot1.png"), []byte("png"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitFor(t, func() bool { return board.Text() == "https://h/shot1.png" })

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("driver did not stop")
	}
}

func waitFor(t *testing.T, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !condition() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met before deadline")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
