// Package monitoring holds the diagnostic logger shared by the codec, the
// exporters and the command line tool.
package monitoring

import (
	"fmt"
	"log"
	"sync"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Codec warnings and write/read summaries go through it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Recorder collects formatted log lines. Its Logf method can be handed to
// SetLogger or to anything that accepts a printf-style function.
type Recorder struct {
	mu    sync.Mutex
	lines []string
}

// Logf formats and stores one line.
func (r *Recorder) Logf(format string, v ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, fmt.Sprintf(format, v...))
}

// Lines returns a copy of the recorded lines in emission order.
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

// Capture installs a fresh Recorder as the package logger and returns it with
// a restore function that puts the previous logger back.
func Capture() (*Recorder, func()) {
	previous := Logf
	rec := &Recorder{}
	SetLogger(rec.Logf)
	return rec, func() { Logf = previous }
}
