package sbf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// HeaderMarker is the mandatory first line of a header file.
const HeaderMarker = "[SBF]"

// Keys with a meaning of their own. Every other key not matching SF<n> holds
// a single number.
const (
	KeyPoints      = "Points"
	KeySFCount     = "SFCount"
	KeyGlobalShift = "GlobalShift"
)

var scalarFieldKey = regexp.MustCompile(`^SF(\d+)$`)

// ValueKind tells which field of a Value is populated.
type ValueKind int

const (
	ValueNumber ValueKind = iota
	ValueVector
	ValueScalarField
)

func (k ValueKind) String() string {
	switch k {
	case ValueNumber:
		return "number"
	case ValueVector:
		return "vector"
	case ValueScalarField:
		return "scalar-field"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ScalarField describes one SF<n> record.
type ScalarField struct {
	Index      int               // n in SF<n>, starting at 1
	Name       string            // first token of the record
	Shift      *float64          // "s" attribute when present
	Attributes map[string]string // every other attr=value token, e.g. "p"
}

// Precision returns the raw "p" attribute.
func (f ScalarField) Precision() (string, bool) {
	p, ok := f.Attributes["p"]
	return p, ok
}

// Value is one parsed header entry.
type Value struct {
	Kind   ValueKind
	Number float64
	Vector Vec3
	Field  ScalarField
}

// String renders the value the way it would appear after '=' in a header.
func (v Value) String() string {
	switch v.Kind {
	case ValueVector:
		return formatVec3(v.Vector)
	case ValueScalarField:
		parts := []string{v.Field.Name}
		if v.Field.Shift != nil {
			parts = append(parts, "s="+formatFloat(*v.Field.Shift))
		}
		keys := make([]string, 0, len(v.Field.Attributes))
		for k := range v.Field.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = append(parts, k+"="+v.Field.Attributes[k])
		}
		return strings.Join(parts, ", ")
	default:
		return formatFloat(v.Number)
	}
}

// Header is the parsed content of a header file: a key to Value mapping
// that remembers the order in which keys were first seen.
type Header struct {
	values map[string]Value
	keys   []string
}

// NewHeader returns an empty header.
func NewHeader() *Header {
	return &Header{values: make(map[string]Value)}
}

// Set stores v under key. A repeated key keeps its first position and takes
// the latest value.
func (h *Header) Set(key string, v Value) {
	if _, ok := h.values[key]; !ok {
		h.keys = append(h.keys, key)
	}
	h.values[key] = v
}

// Get returns the value stored under key.
func (h *Header) Get(key string) (Value, bool) {
	v, ok := h.values[key]
	return v, ok
}

// Keys returns the keys in first-seen order.
func (h *Header) Keys() []string {
	out := make([]string, len(h.keys))
	copy(out, h.keys)
	return out
}

// Len returns the number of entries.
func (h *Header) Len() int { return len(h.keys) }

// Number returns the value of a numeric entry.
func (h *Header) Number(key string) (float64, bool) {
	v, ok := h.values[key]
	if !ok || v.Kind != ValueNumber {
		return 0, false
	}
	return v.Number, true
}

// Points returns the Points entry.
func (h *Header) Points() (float64, bool) { return h.Number(KeyPoints) }

// SFCount returns the SFCount entry.
func (h *Header) SFCount() (float64, bool) { return h.Number(KeySFCount) }

// GlobalShift returns the GlobalShift entry.
func (h *Header) GlobalShift() (Vec3, bool) {
	v, ok := h.values[KeyGlobalShift]
	if !ok || v.Kind != ValueVector {
		return Vec3{}, false
	}
	return v.Vector, true
}

// ScalarFields returns the SF<n> records ordered by n.
func (h *Header) ScalarFields() []ScalarField {
	var fields []ScalarField
	for _, k := range h.keys {
		if v := h.values[k]; v.Kind == ValueScalarField {
			fields = append(fields, v.Field)
		}
	}
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Index < fields[j].Index })
	return fields
}

// ScalarFieldNames returns the names of ScalarFields in order.
func (h *Header) ScalarFieldNames() []string {
	fields := h.ScalarFields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

// classifyKey returns the kind of value stored under key and, for SF<n>
// keys, the index n.
func classifyKey(key string) (ValueKind, int, error) {
	if key == KeyGlobalShift {
		return ValueVector, 0, nil
	}
	if m := scalarFieldKey.FindStringSubmatch(key); m != nil {
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			return ValueScalarField, 0, fmt.Errorf("scalar field index %s is out of range", truncate(m[1], 32))
		}
		return ValueScalarField, idx, nil
	}
	return ValueNumber, 0, nil
}

func scalarFieldKeyFor(idx int) string {
	return "SF" + strconv.Itoa(idx)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// EncodeHeader writes a header file describing a cloud with the given point
// count, shift and scalar field names.
func EncodeHeader(w io.Writer, points int, shift Vec3, names []string) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s\n", HeaderMarker)
	fmt.Fprintf(bw, "%s=%d\n", KeyPoints, points)
	fmt.Fprintf(bw, "%s=%s, %s, %s\n", KeyGlobalShift, formatFloat(shift[0]), formatFloat(shift[1]), formatFloat(shift[2]))
	fmt.Fprintf(bw, "%s=%d\n", KeySFCount, len(names))
	for i, name := range names {
		fmt.Fprintf(bw, "SF%d=%s\n", i+1, name)
	}
	if err := bw.Flush(); err != nil {
		return ioError("write", "", err)
	}
	return nil
}

// ParseHeader reads a header file. Only a missing or wrong marker line and
// read errors are fatal; every malformed entry is skipped with a Warning.
// path is used to label warnings.
func ParseHeader(r io.Reader, path string) (*Header, []Warning, error) {
	br := bufio.NewReader(r)
	h := NewHeader()
	var warnings []Warning
	warn := func(line int, key, format string, args ...interface{}) {
		warnings = append(warnings, Warning{Path: path, Line: line, Key: key, Message: fmt.Sprintf(format, args...)})
	}

	lineNo := 0
	for {
		raw, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, nil, ioError("read", path, err)
		}
		atEOF := err != nil
		if raw == "" && atEOF {
			break
		}
		lineNo++
		line := strings.TrimSpace(raw)

		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
			if !strings.EqualFold(line, HeaderMarker) {
				return nil, nil, newError(ErrInvalidHeader, "read", path, "first line is %q, want %q", truncate(line, 32), HeaderMarker)
			}
		} else if line != "" {
			parseHeaderLine(h, lineNo, line, warn)
		}

		if atEOF {
			break
		}
	}

	if lineNo == 0 {
		return nil, nil, newError(ErrInvalidHeader, "read", path, "empty header, want %q", HeaderMarker)
	}
	return h, warnings, nil
}

func parseHeaderLine(h *Header, lineNo int, line string, warn func(int, string, string, ...interface{})) {
	if !utf8.ValidString(line) {
		warn(lineNo, "", "line is not valid UTF-8, skipped")
		return
	}
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		warn(lineNo, "", "no '=' in %q, skipped", truncate(line, 32))
		return
	}
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if key == "" {
		warn(lineNo, "", "empty key, skipped")
		return
	}

	kind, idx, err := classifyKey(key)
	if err != nil {
		warn(lineNo, key, "%v, skipped", err)
		return
	}
	switch kind {
	case ValueVector:
		v, err := parseVec3(value)
		if err != nil {
			warn(lineNo, key, "%v, skipped", err)
			return
		}
		h.Set(key, Value{Kind: ValueVector, Vector: v})
	case ValueScalarField:
		f, problems := parseScalarField(idx, value)
		for _, p := range problems {
			warn(lineNo, key, "%s", p)
		}
		// SF01 and SF1 name the same field.
		if canonical := scalarFieldKeyFor(idx); canonical != key {
			if _, dup := h.Get(canonical); dup {
				warn(lineNo, key, "same index as %s, replaces it", canonical)
			} else {
				warn(lineNo, key, "leading zeros in index, stored as %s", canonical)
			}
			key = canonical
		}
		h.Set(key, Value{Kind: ValueScalarField, Field: f})
	default:
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			warn(lineNo, key, "%q is not a number, skipped", truncate(value, 32))
			return
		}
		h.Set(key, Value{Kind: ValueNumber, Number: n})
	}
}

func parseVec3(s string) (Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Vec3{}, fmt.Errorf("want 3 comma-separated numbers, got %d", len(parts))
	}
	var v Vec3
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Vec3{}, fmt.Errorf("component %d %q is not a number", i, truncate(strings.TrimSpace(p), 32))
		}
		v[i] = f
	}
	return v, nil
}

// parseScalarField splits "name, attr=value, ..." into a ScalarField.
// Problems are returned as messages; the field is kept regardless.
func parseScalarField(idx int, s string) (ScalarField, []string) {
	tokens := strings.Split(s, ",")
	f := ScalarField{Index: idx, Name: strings.TrimSpace(tokens[0])}
	var problems []string
	if f.Name == "" {
		problems = append(problems, "scalar field has no name")
	}

	for _, tok := range tokens[1:] {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		k, v, ok := strings.Cut(tok, "=")
		if !ok {
			problems = append(problems, fmt.Sprintf("attribute %q has no '=', ignored", truncate(tok, 32)))
			continue
		}
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k == "s" {
			shift, err := strconv.ParseFloat(v, 64)
			if err != nil {
				problems = append(problems, fmt.Sprintf("shift %q is not a number, ignored", truncate(v, 32)))
				continue
			}
			f.Shift = &shift
			continue
		}
		if f.Attributes == nil {
			f.Attributes = make(map[string]string)
		}
		f.Attributes[k] = v
	}
	return f, problems
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
