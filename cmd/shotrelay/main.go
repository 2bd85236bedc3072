package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"shotrelay/internal/clipboard"
	"shotrelay/internal/notify"
	"shotrelay/internal/watcher"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// dependencies are the process-level resources a command talks to.
type dependencies struct {
	openClipboard func() (clipboard.Clipboard, error)
	newSink       func() notify.Sink
	newWatcher    func(watcher.Options) (watcher.Watcher, error)
	httpClient    *http.Client
	signals       func() (<-chan os.Signal, func())
}

func defaultDependencies() dependencies {
	return dependencies{
		openClipboard: func() (clipboard.Clipboard, error) {
			return clipboard.Open()
		},
		newSink: func() notify.Sink {
			return notify.NewDesktopSink()
		},
		newWatcher: watcher.New,
		signals:    notifyShutdownSignals,
	}
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	return runWithDependencies(args, out, errOut, defaultDependencies())
}

func runWithDependencies(args []string, out io.Writer, errOut io.Writer, deps dependencies) int {
	cmd := newRootCommand(newApp(out, errOut, deps))
	cmd.SetArgs(args)
	err := cmd.Execute()
	if err == nil {
		return exitCodeSuccess
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintln(errOut, exitErr.Error())
		}
		return exitErr.Code
	}
	fmt.Fprintln(errOut, err)
	return exitCodeUsage
}

func notifyShutdownSignals() (<-chan os.Signal, func()) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	return signalCh, func() {
		signal.Stop(signalCh)
	}
}
