package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"shotrelay/internal/config"
	"shotrelay/internal/logging"
	"shotrelay/internal/watcher"
)

const keyConfigFile = "config"

type app struct {
	out    io.Writer
	errOut io.Writer
	deps   dependencies
	viper  *viper.Viper
}

func newApp(out io.Writer, errOut io.Writer, deps dependencies) *app {
	return &app{
		out:    out,
		errOut: errOut,
		deps:   deps,
		viper:  config.NewViper(),
	}
}

func newRootCommand(app *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "shotrelay",
		Short: "Upload new screenshots and copy their links to the clipboard",
		Long: `shotrelay watches a directory tree for files that finished being written,
uploads each one to a ShareX-compatible host and puts the returned URL on the
clipboard.

Settings come from flags, SHOTRELAY_* environment variables or a config file,
in that order of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runWatch(cmd)
		},
	}
	root.SetOut(app.out)
	root.SetErr(app.errOut)
	root.CompletionOptions.DisableDefaultCmd = true

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (yaml, toml or json)")
	flags.StringP("domain", "d", "", "upload host, e.g. https://example.com")
	flags.StringP("path", "p", "", "directory to watch")
	flags.StringP("uid", "u", "", "user id sent with every upload")
	flags.StringP("secret", "s", "", "upload secret sent with every upload")
	flags.String("log-level", config.DefaultLogLevel, "log level: debug, info, warning or error")
	flags.String("log-format", config.DefaultLogFormat, "console log format: console or json")
	flags.String("log-file", "", "also write JSON logs to this file (rotated)")
	flags.String("backend", config.DefaultWatchBackend, "watch backend: auto, inotify or fsnotify")
	flags.Duration("settle", config.DefaultWatchSettle, "quiet period before a file counts as written (fsnotify backend)")
	flags.Duration("timeout", 0, "upload request timeout (0 for none)")

	bindings := map[string]string{
		keyConfigFile:           "config",
		config.KeyDomain:        "domain",
		config.KeyPath:          "path",
		config.KeyUserID:        "uid",
		config.KeySecret:        "secret",
		config.KeyLogLevel:      "log-level",
		config.KeyLogFormat:     "log-format",
		config.KeyLogFile:       "log-file",
		config.KeyWatchBackend:  "backend",
		config.KeyWatchSettle:   "settle",
		config.KeyUploadTimeout: "timeout",
	}
	for key, name := range bindings {
		// Lookup cannot fail for flags registered above.
		_ = app.viper.BindPFlag(key, flags.Lookup(name))
	}

	root.AddCommand(
		newWatchCommand(app),
		newUploadCommand(app),
		newConfigCommand(app),
		newVersionCommand(app),
	)
	return root
}

func (app *app) loadSettings() (config.Settings, error) {
	settings, err := config.Load(app.viper, app.viper.GetString(keyConfigFile))
	if err != nil {
		return config.Settings{}, exitWith(exitCodeConfig, err)
	}
	return settings, nil
}

func (app *app) newLogger(settings config.Settings) (*logging.Logger, error) {
	level, ok := logging.ParseLevel(settings.Log.Level)
	if !ok {
		return nil, exitWith(exitCodeConfig, fmt.Errorf("invalid log level %q", settings.Log.Level))
	}
	format, ok := logging.ParseFormat(settings.Log.Format)
	if !ok {
		return nil, exitWith(exitCodeConfig, fmt.Errorf("invalid log format %q", settings.Log.Format))
	}
	return logging.New(logging.Options{
		Level:  level,
		Format: format,
		Output: app.errOut,
		File:   strings.TrimSpace(settings.Log.File),
	}), nil
}

func watchOptions(settings config.Settings, logger *logging.Logger) (watcher.Options, error) {
	backend, err := watcher.ParseBackend(settings.Watch.Backend)
	if err != nil {
		return watcher.Options{}, exitWith(exitCodeConfig, err)
	}
	return watcher.Options{
		Backend: backend,
		Settle:  settings.Watch.Settle,
		Logger:  logger,
	}, nil
}
