package main

import (
	"context"

	"github.com/spf13/cobra"

	"shotrelay/internal/completion"
	"shotrelay/internal/pipeline"
	"shotrelay/internal/upload"
)

func newWatchCommand(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the directory and upload finished files (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runWatch(cmd)
		},
	}
}

func (app *app) runWatch(cmd *cobra.Command) error {
	settings, err := app.loadSettings()
	if err != nil {
		return err
	}
	runConfig, err := settings.RunConfig()
	if err != nil {
		return exitWith(exitCodeConfig, err)
	}
	options, err := watchOptions(settings, nil)
	if err != nil {
		return err
	}
	logger, err := app.newLogger(settings)
	if err != nil {
		return err
	}
	defer logger.Close()
	options.Logger = logger

	board, err := app.deps.openClipboard()
	if err != nil {
		logger.Error("clipboard unavailable", map[string]string{"error": err.Error()})
		return exitWith(exitCodeClipboard, err)
	}

	source, err := app.deps.newWatcher(options)
	if err != nil {
		logger.Error("watcher setup failed", map[string]string{"error": err.Error()})
		return exitWith(exitCodeWatch, err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if app.deps.signals != nil {
		signalCh, stopNotify := app.deps.signals()
		defer stopNotify()
		stopWatching := watchShutdownSignals(logger, cancel, signalCh)
		defer stopWatching()
	}

	redacted := runConfig.Redacted()
	logger.Info("shotrelay starting", map[string]string{
		"domain":  redacted.UploadDomain,
		"path":    redacted.WatchPath,
		"uid":     redacted.UserID,
		"secret":  redacted.Secret,
		"backend": string(options.Backend),
	})

	driver := pipeline.New(pipeline.Options{
		Watcher: source,
		Root:    runConfig.WatchPath,
		Uploader: upload.New(runConfig, upload.Options{
			Client:  app.deps.httpClient,
			Timeout: settings.Upload.Timeout,
			Logger:  logger,
		}),
		Completer: completion.New(board, app.deps.newSink(), logger),
		Logger:    logger,
	})
	if err := driver.Run(ctx); err != nil {
		return exitWith(exitCodeWatch, err)
	}
	return nil
}
