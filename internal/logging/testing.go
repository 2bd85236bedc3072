package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"sync"
)

// Entry is one decoded JSON log line.
type Entry struct {
	Level   Level
	Message string
	Context map[string]string
}

// Recorder collects JSON log output so tests can assert on it.
type Recorder struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// NewRecorder returns a debug-level logger writing to a fresh Recorder.
func NewRecorder() (*Logger, *Recorder) {
	recorder := &Recorder{}
	return NewLoggerWithOutput(recorder, LevelDebug), recorder
}

func (recorder *Recorder) Write(p []byte) (int, error) {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	return recorder.buf.Write(p)
}

// Entries decodes every line written so far. Lines that are not JSON are skipped.
func (recorder *Recorder) Entries() []Entry {
	recorder.mu.Lock()
	data := append([]byte(nil), recorder.buf.Bytes()...)
	recorder.mu.Unlock()

	entries := []Entry{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		raw := map[string]any{}
		if err := json.Unmarshal(scanner.Bytes(), &raw); err != nil {
			continue
		}
		entry := Entry{Context: map[string]string{}}
		for key, value := range raw {
			text, _ := value.(string)
			switch key {
			case "level":
				entry.Level = Level(text)
			case "message":
				entry.Message = text
			case "timestamp":
			default:
				entry.Context[key] = text
			}
		}
		if entry.Level == "warn" {
			entry.Level = LevelWarning
		}
		entries = append(entries, entry)
	}
	return entries
}

// Find returns the first entry with the given level and message.
func (recorder *Recorder) Find(level Level, message string) (Entry, bool) {
	for _, entry := range recorder.Entries() {
		if entry.Level == level && entry.Message == message {
			return entry, true
		}
	}
	return Entry{}, false
}

// Count reports how many entries were logged at level.
func (recorder *Recorder) Count(level Level) int {
	count := 0
	for _, entry := range recorder.Entries() {
		if entry.Level == level {
			count++
		}
	}
	return count
}
