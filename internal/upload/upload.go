// Package upload sends one file to a ShareX-compatible endpoint.
package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"shotrelay/internal/config"
	"shotrelay/internal/logging"
)

const (
	// MaxFileSize is the largest file accepted for upload.
	MaxFileSize int64 = 500 * 1024 * 1024

	DefaultFileName = "file_to_upload.txt"
	FieldName       = "sharex"
	EndpointPath    = "/api/upload/sharex"
	HeaderUserID    = "userid"
	HeaderSecret    = "secret"

	maxResponseBytes = 1 << 20
)

// Options tunes an Uploader. Zero values select the defaults.
type Options struct {
	Client *http.Client
	// Timeout applies only when Client is nil.
	Timeout time.Duration
	MaxSize int64
	Logger  *logging.Logger
}

// Uploader performs single-attempt uploads for one RunConfig.
type Uploader struct {
	config  config.RunConfig
	client  *http.Client
	maxSize int64
	logger  *logging.Logger
}

func New(cfg config.RunConfig, options Options) *Uploader {
	client := options.Client
	if client == nil {
		client = &http.Client{Timeout: options.Timeout}
	}
	maxSize := options.MaxSize
	if maxSize <= 0 {
		maxSize = MaxFileSize
	}
	logger := options.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &Uploader{
		config:  cfg,
		client:  client,
		maxSize: maxSize,
		logger:  logger.With(map[string]string{"shotrelay.category": "upload"}),
	}
}

// Endpoint is the URL uploads are posted to.
func (uploader *Uploader) Endpoint() string {
	return strings.TrimRight(uploader.config.UploadDomain, "/") + EndpointPath
}

// Upload reads path and posts it once. It never retries.
func (uploader *Uploader) Upload(ctx context.Context, path string) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	result := Result{
		ID:       uuid.NewString(),
		Path:     path,
		FileName: FileName(path),
	}

	content, err := uploader.readFile(path)
	result.Size = int64(len(content))
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			return result.fail(KindTooLarge, err)
		}
		return result.fail(KindReadError, err)
	}

	body, contentType, err := encodeMultipart(FieldName, result.FileName, content)
	if err != nil {
		return result.fail(KindTransportError, err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, uploader.Endpoint(), body)
	if err != nil {
		return result.fail(KindTransportError, fmt.Errorf("build upload request: %w", err))
	}
	request.Header.Set(HeaderUserID, uploader.config.UserID)
	request.Header.Set(HeaderSecret, uploader.config.Secret)
	request.Header.Set("Content-Type", contentType)

	uploader.logger.Debug("upload request", map[string]string{
		"upload_id": result.ID,
		"file":      result.FileName,
		"size":      strconv.FormatInt(result.Size, 10),
		"endpoint":  request.URL.String(),
	})

	response, err := uploader.client.Do(request)
	if err != nil {
		return result.fail(KindTransportError, fmt.Errorf("upload request failed: %w", err))
	}
	defer response.Body.Close()
	result.StatusCode = response.StatusCode

	if response.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, maxResponseBytes))
		return result.fail(KindNonOKStatus, &StatusError{Code: response.StatusCode, Status: response.Status})
	}

	url, err := decodeURL(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return result.fail(KindDecodeError, err)
	}
	result.Kind = KindSuccess
	result.URL = url
	return result
}

// readFile returns the whole file, refusing anything above the size ceiling
// without reading it into memory.
func (uploader *Uploader) readFile(path string) ([]byte, error) {
	// Opening a FIFO or device can block indefinitely, so only regular files
	// are opened at all.
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if err := checkUploadable(path, info, uploader.maxSize); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	// The path may have been replaced between Stat and Open.
	info, err = file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if err := checkUploadable(path, info, uploader.maxSize); err != nil {
		return nil, err
	}

	content, err := io.ReadAll(io.LimitReader(file, uploader.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if int64(len(content)) > uploader.maxSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, uploader.maxSize)
	}
	return content, nil
}

func checkUploadable(path string, info os.FileInfo, maxSize int64) error {
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is %s", ErrNotRegular, path, describeMode(info.Mode()))
	}
	if info.Size() > maxSize {
		return fmt.Errorf("%w: %d bytes > %d", ErrTooLarge, info.Size(), maxSize)
	}
	return nil
}

func describeMode(mode os.FileMode) string {
	switch {
	case mode.IsDir():
		return "a directory"
	case mode&os.ModeNamedPipe != 0:
		return "a named pipe"
	case mode&os.ModeSocket != 0:
		return "a socket"
	case mode&os.ModeDevice != 0:
		return "a device"
	default:
		return "not a regular file"
	}
}

func decodeURL(body io.Reader) (string, error) {
	var payload struct {
		URL *string `json:"url"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if payload.URL == nil {
		return "", errors.New("decode upload response: url is missing")
	}
	if strings.TrimSpace(*payload.URL) == "" {
		return "", errors.New("decode upload response: url is empty")
	}
	return *payload.URL, nil
}

func (result Result) fail(kind Kind, err error) Result {
	result.Kind = kind
	result.Err = err
	return result
}
