package logging

import (
	"io"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultFileMaxSizeMB  = 10
	defaultFileMaxBackups = 3
)

// Options configures a Logger.
type Options struct {
	Level  Level
	Format Format
	// Output receives console lines. Nil means os.Stderr; use io.Discard to silence.
	Output io.Writer
	// File enables an additional JSON log file rotated by size.
	File           string
	FileMaxSizeMB  int
	FileMaxBackups int
}

// Logger is a leveled logger taking string fields, backed by zap.
type Logger struct {
	zap         *zap.Logger
	minLevel    Level
	baseContext map[string]string
	closer      io.Closer
}

func New(options Options) *Logger {
	minLevel := normalizeLevel(options.Level)
	enabler := zap.NewAtomicLevelAt(zapLevel(minLevel))

	output := options.Output
	if output == nil {
		output = os.Stderr
	}

	cores := []zapcore.Core{
		zapcore.NewCore(newEncoder(options.Format), zapcore.AddSync(output), enabler),
	}

	var closer io.Closer
	if strings.TrimSpace(options.File) != "" {
		maxSize := options.FileMaxSizeMB
		if maxSize <= 0 {
			maxSize = defaultFileMaxSizeMB
		}
		maxBackups := options.FileMaxBackups
		if maxBackups <= 0 {
			maxBackups = defaultFileMaxBackups
		}
		rotator := &lumberjack.Logger{
			Filename:   options.File,
			MaxSize:    maxSize,
			MaxBackups: maxBackups,
		}
		cores = append(cores, zapcore.NewCore(newEncoder(FormatJSON), zapcore.AddSync(rotator), enabler))
		closer = rotator
	}

	return &Logger{
		zap:      zap.New(zapcore.NewTee(cores...)),
		minLevel: minLevel,
		closer:   closer,
	}
}

func NewLoggerWithOutput(output io.Writer, minLevel Level) *Logger {
	if output == nil {
		output = io.Discard
	}
	return New(Options{Level: minLevel, Format: FormatJSON, Output: output})
}

// Nop returns a logger that drops everything.
func Nop() *Logger {
	return &Logger{zap: zap.NewNop(), minLevel: LevelError}
}

func newEncoder(format Format) zapcore.Encoder {
	config := zapcore.EncoderConfig{
		TimeKey:          "timestamp",
		LevelKey:         "level",
		MessageKey:       "message",
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeLevel:      zapcore.LowercaseLevelEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
	if format == FormatJSON {
		config.EncodeTime = zapcore.RFC3339NanoTimeEncoder
		return zapcore.NewJSONEncoder(config)
	}
	return zapcore.NewConsoleEncoder(config)
}

func (l *Logger) With(fields map[string]string) *Logger {
	if l == nil {
		return l
	}
	return &Logger{
		zap:         l.zap,
		minLevel:    l.minLevel,
		baseContext: cloneFields(l.baseContext, fields),
		closer:      l.closer,
	}
}

func (l *Logger) Debug(message string, fields map[string]string) {
	l.log(LevelDebug, message, fields)
}

func (l *Logger) Info(message string, fields map[string]string) {
	l.log(LevelInfo, message, fields)
}

func (l *Logger) Warn(message string, fields map[string]string) {
	l.log(LevelWarning, message, fields)
}

func (l *Logger) Error(message string, fields map[string]string) {
	l.log(LevelError, message, fields)
}

func (l *Logger) Enabled(level Level) bool {
	if l == nil {
		return false
	}
	return levelRank(level) >= levelRank(l.minLevel)
}

// Close flushes buffered entries and releases the log file, if any.
func (l *Logger) Close() error {
	if l == nil || l.zap == nil {
		return nil
	}
	_ = l.zap.Sync()
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

func (l *Logger) log(level Level, message string, fields map[string]string) {
	if l == nil || l.zap == nil || !l.Enabled(level) {
		return
	}

	context := cloneFields(l.baseContext, fields)
	zapFields := sortedFields(context)
	switch level {
	case LevelDebug:
		l.zap.Debug(message, zapFields...)
	case LevelWarning:
		l.zap.Warn(message, zapFields...)
	case LevelError:
		l.zap.Error(message, zapFields...)
	default:
		l.zap.Info(message, zapFields...)
	}
}

func normalizeLevel(level Level) Level {
	switch level {
	case LevelDebug, LevelInfo, LevelWarning, LevelError:
		return level
	default:
		return LevelInfo
	}
}

func levelRank(level Level) int {
	switch level {
	case LevelDebug:
		return 0
	case LevelInfo:
		return 1
	case LevelWarning:
		return 2
	case LevelError:
		return 3
	default:
		return 1
	}
}

func zapLevel(level Level) zapcore.Level {
	switch level {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarning:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func ParseLevel(value string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warning", "warn":
		return LevelWarning, true
	case "error":
		return LevelError, true
	default:
		return "", false
	}
}

func ParseFormat(value string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "console", "text":
		return FormatConsole, true
	case "json":
		return FormatJSON, true
	default:
		return "", false
	}
}

func cloneFields(base, extra map[string]string) map[string]string {
	if len(base) == 0 && len(extra) == 0 {
		return nil
	}
	combined := make(map[string]string, len(base)+len(extra))
	for key, value := range base {
		combined[key] = value
	}
	for key, value := range extra {
		combined[key] = value
	}
	return combined
}

func sortedFields(context map[string]string) []zap.Field {
	if len(context) == 0 {
		return nil
	}
	keys := make([]string, 0, len(context))
	for key := range context {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	fields := make([]zap.Field, 0, len(keys))
	for _, key := range keys {
		fields = append(fields, zap.String(key, context[key]))
	}
	return fields
}
