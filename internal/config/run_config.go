package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

var ErrMissingValue = errors.New("missing required value")

// RunConfig holds the upload target and watch directory for the lifetime of the
// process. It is a plain value: every holder owns an independent copy.
type RunConfig struct {
	UploadDomain string `yaml:"domain"`
	WatchPath    string `yaml:"path"`
	UserID       string `yaml:"uid"`
	Secret       string `yaml:"secret"`
}

// Initialize validates the run parameters and returns the RunConfig snapshot.
func Initialize(domain, path, userID, secret string) (RunConfig, error) {
	domain = strings.TrimRight(strings.TrimSpace(domain), "/")
	path = strings.TrimSpace(path)
	userID = strings.TrimSpace(userID)
	secret = strings.TrimSpace(secret)

	missing := []string{}
	if domain == "" {
		missing = append(missing, KeyDomain)
	}
	if path == "" {
		missing = append(missing, KeyPath)
	}
	if userID == "" {
		missing = append(missing, KeyUserID)
	}
	if secret == "" {
		missing = append(missing, KeySecret)
	}
	if len(missing) > 0 {
		return RunConfig{}, fmt.Errorf("%w: %s", ErrMissingValue, strings.Join(missing, ", "))
	}

	parsed, err := url.Parse(domain)
	if err != nil {
		return RunConfig{}, fmt.Errorf("invalid domain %q: %w", domain, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return RunConfig{}, fmt.Errorf("invalid domain %q: scheme must be http or https", domain)
	}
	if parsed.Host == "" {
		return RunConfig{}, fmt.Errorf("invalid domain %q: host is required", domain)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return RunConfig{}, fmt.Errorf("resolve watch path %q: %w", path, err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return RunConfig{}, fmt.Errorf("watch path %q: %w", absPath, err)
	}
	if !info.IsDir() {
		return RunConfig{}, fmt.Errorf("watch path %q is not a directory", absPath)
	}

	return RunConfig{
		UploadDomain: domain,
		WatchPath:    filepath.Clean(absPath),
		UserID:       userID,
		Secret:       secret,
	}, nil
}

// Redacted returns a copy safe for display.
func (cfg RunConfig) Redacted() RunConfig {
	cfg.Secret = MaskSecret(cfg.Secret)
	return cfg
}

// MaskSecret keeps the first and last two characters of a secret.
func MaskSecret(secret string) string {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) <= 4 {
		return "****"
	}
	return trimmed[:2] + strings.Repeat("*", len(trimmed)-4) + trimmed[len(trimmed)-2:]
}
