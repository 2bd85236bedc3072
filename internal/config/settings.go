package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "SHOTRELAY"

const (
	KeyDomain        = "domain"
	KeyPath          = "path"
	KeyUserID        = "uid"
	KeySecret        = "secret"
	KeyLogLevel      = "log.level"
	KeyLogFormat     = "log.format"
	KeyLogFile       = "log.file"
	KeyWatchBackend  = "watch.backend"
	KeyWatchSettle   = "watch.settle"
	KeyUploadTimeout = "upload.timeout"
)

const (
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "console"
	DefaultWatchBackend = "auto"
	DefaultWatchSettle  = 500 * time.Millisecond
)

// Settings is everything the CLI can be configured with.
type Settings struct {
	Domain string         `yaml:"domain"`
	Path   string         `yaml:"path"`
	UserID string         `yaml:"uid"`
	Secret string         `yaml:"secret"`
	Log    LogSettings    `yaml:"log"`
	Watch  WatchSettings  `yaml:"watch"`
	Upload UploadSettings `yaml:"upload"`
}

type LogSettings struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file,omitempty"`
}

type WatchSettings struct {
	Backend string        `yaml:"backend"`
	Settle  time.Duration `yaml:"settle"`
}

type UploadSettings struct {
	// Timeout of zero leaves the HTTP transport defaults in charge.
	Timeout time.Duration `yaml:"timeout"`
}

const defaultConfigName = "config"

// DefaultConfigDir is searched for config.{yaml,toml,json} when no config file
// is given. It is empty when the platform has no user config directory.
func DefaultConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ""
	}
	return filepath.Join(dir, "shotrelay")
}

// NewViper returns a viper instance with defaults and SHOTRELAY_* env binding.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyLogFormat, DefaultLogFormat)
	v.SetDefault(KeyWatchBackend, DefaultWatchBackend)
	v.SetDefault(KeyWatchSettle, DefaultWatchSettle)
	v.SetDefault(KeyUploadTimeout, time.Duration(0))
	return v
}

// Load reads the optional config file and resolves Settings from v.
// Flags bound to v take precedence over env, which beats the file.
func Load(v *viper.Viper, configFile string) (Settings, error) {
	if v == nil {
		v = NewViper()
	}
	if strings.TrimSpace(configFile) != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else if dir := DefaultConfigDir(); dir != "" {
		v.SetConfigName(defaultConfigName)
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Settings{}, fmt.Errorf("read config in %s: %w", dir, err)
			}
		}
	}

	settings := Settings{
		Domain: v.GetString(KeyDomain),
		Path:   v.GetString(KeyPath),
		UserID: v.GetString(KeyUserID),
		Secret: v.GetString(KeySecret),
		Log: LogSettings{
			Level:  v.GetString(KeyLogLevel),
			Format: v.GetString(KeyLogFormat),
			File:   v.GetString(KeyLogFile),
		},
		Watch: WatchSettings{
			Backend: v.GetString(KeyWatchBackend),
			Settle:  v.GetDuration(KeyWatchSettle),
		},
		Upload: UploadSettings{
			Timeout: v.GetDuration(KeyUploadTimeout),
		},
	}
	if settings.Watch.Settle <= 0 {
		settings.Watch.Settle = DefaultWatchSettle
	}
	if settings.Upload.Timeout < 0 {
		return Settings{}, fmt.Errorf("%s must not be negative, got %s", KeyUploadTimeout, settings.Upload.Timeout)
	}
	return settings, nil
}

// RunConfig validates the run parameters carried by the settings.
func (settings Settings) RunConfig() (RunConfig, error) {
	return Initialize(settings.Domain, settings.Path, settings.UserID, settings.Secret)
}

// Redacted returns a copy with the secret masked.
func (settings Settings) Redacted() Settings {
	settings.Secret = MaskSecret(settings.Secret)
	return settings
}
