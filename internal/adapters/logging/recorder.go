package logging

import (
	"strings"
	"sync"
)

// Level is the severity of a recorded status line.
type Level string

const (
	LevelStatus Level = "status"
	LevelWarn   Level = "warn"
	LevelError  Level = "error"
)

// Entry is one recorded status line.
type Entry struct {
	Level   Level
	Message string
}

// Recorder keeps every status line in memory. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Status(message string) { r.add(LevelStatus, message) }
func (r *Recorder) Warn(message string)   { r.add(LevelWarn, message) }
func (r *Recorder) Error(message string)  { r.add(LevelError, message) }

func (r *Recorder) add(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Message: message})
}

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Messages returns the recorded messages of the given level, or all when level is empty.
func (r *Recorder) Messages(level Level) []string {
	var out []string
	for _, e := range r.Entries() {
		if level == "" || e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}

// Contains reports whether any recorded message contains substr.
func (r *Recorder) Contains(substr string) bool {
	for _, e := range r.Entries() {
		if strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// Reset drops all recorded entries.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}
