package logging

type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)
