package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"shotrelay/internal/completion"
	"shotrelay/internal/config"
	"shotrelay/internal/upload"
)

func newUploadCommand(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "upload FILE...",
		Short: "Upload files once, copy the last URL and exit",
		Long: `Upload each FILE with the configured credentials, print its URL and copy it
to the clipboard. Useful for checking the domain, uid and secret before
running the watcher. --path is not required.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runUpload(cmd, args)
		},
	}
}

func (app *app) runUpload(cmd *cobra.Command, files []string) error {
	settings, err := app.loadSettings()
	if err != nil {
		return err
	}
	if strings.TrimSpace(settings.Path) == "" {
		// Nothing is watched here; the working directory satisfies validation.
		wd, err := os.Getwd()
		if err != nil {
			return exitWith(exitCodeConfig, err)
		}
		settings.Path = wd
	}
	runConfig, err := config.Initialize(settings.Domain, settings.Path, settings.UserID, settings.Secret)
	if err != nil {
		return exitWith(exitCodeConfig, err)
	}
	logger, err := app.newLogger(settings)
	if err != nil {
		return err
	}
	defer logger.Close()

	board, err := app.deps.openClipboard()
	if err != nil {
		return exitWith(exitCodeClipboard, err)
	}
	uploader := upload.New(runConfig, upload.Options{
		Client:  app.deps.httpClient,
		Timeout: settings.Upload.Timeout,
		Logger:  logger,
	})
	handler := completion.New(board, app.deps.newSink(), logger)

	failed := 0
	for _, file := range files {
		result := uploader.Upload(cmd.Context(), file)
		// Clipboard and notification failures are logged by Complete; the URL is still printed.
		_ = handler.Complete(cmd.Context(), file, result)
		if !result.OK() {
			failed++
			continue
		}
		fmt.Fprintln(app.out, result.URL)
	}
	if failed > 0 {
		return exitWith(exitCodeUpload, fmt.Errorf("%d of %d uploads failed", failed, len(files)))
	}
	return nil
}
