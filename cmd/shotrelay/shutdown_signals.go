package main

import (
	"context"
	"os"
	"sync/atomic"

	"shotrelay/internal/logging"
)

// watchShutdownSignals cancels the run on the first signal. Later signals are
// only logged once; the pipeline stops as soon as the current upload returns.
func watchShutdownSignals(logger *logging.Logger, cancel context.CancelFunc, signalCh <-chan os.Signal) func() {
	if signalCh == nil {
		return func() {}
	}

	done := make(chan struct{})
	var stopping atomic.Bool
	var loggedRepeat atomic.Bool

	go func() {
		for {
			select {
			case <-done:
				return
			case sig, ok := <-signalCh:
				if !ok {
					return
				}
				fields := map[string]string{}
				if sig != nil {
					fields["signal"] = sig.String()
				}
				if stopping.CompareAndSwap(false, true) {
					if logger != nil {
						logger.Info("shutdown signal received", fields)
					}
					if cancel != nil {
						cancel()
					}
					continue
				}
				if loggedRepeat.CompareAndSwap(false, true) && logger != nil {
					logger.Info("already stopping; ignoring signal", fields)
				}
			}
		}
	}()

	var once atomic.Bool
	return func() {
		if once.CompareAndSwap(false, true) {
			close(done)
		}
	}
}
