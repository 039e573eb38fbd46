package sbf

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Error kinds. Every hard failure returned by this package is an *Error that
// matches exactly one of these with errors.Is.
var (
	ErrInvalidArgument     = errors.New("sbf: invalid argument")
	ErrIO                  = errors.New("sbf: i/o failure")
	ErrInvalidHeader       = errors.New("sbf: invalid header")
	ErrTruncatedFile       = errors.New("sbf: truncated file")
	ErrFormatLimitExceeded = errors.New("sbf: format limit exceeded")
)

// Error describes a failed read or write.
type Error struct {
	Kind error  // one of the Err* kinds above
	Op   string // "read" or "write"
	Path string // file the failure relates to, if any
	Err  error  // underlying cause
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, op, path string, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: fmt.Errorf(format, args...)}
}

func ioError(op, path string, err error) *Error {
	return &Error{Kind: ErrIO, Op: op, Path: path, Err: err}
}

// Warning is a non-fatal diagnostic produced while reading a file pair.
type Warning struct {
	Path    string
	Line    int    // 1-based header line, 0 when not tied to a line
	Key     string // header key involved, if any
	Message string
}

func (w Warning) String() string {
	var b strings.Builder
	b.WriteString(w.Path)
	if w.Line > 0 {
		b.WriteString(":")
		b.WriteString(strconv.Itoa(w.Line))
	}
	if w.Key != "" {
		if b.Len() > 0 {
			b.WriteString(": ")
		}
		b.WriteString(w.Key)
	}
	if b.Len() > 0 {
		b.WriteString(": ")
	}
	b.WriteString(w.Message)
	return b.String()
}
