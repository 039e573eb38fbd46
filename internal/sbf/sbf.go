package sbf

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/pglira/cloudcompare-sbf-io/internal/fsutil"
	"github.com/pglira/cloudcompare-sbf-io/internal/monitoring"
)

const (
	// HeaderSuffix is required on the header path given to Write.
	HeaderSuffix = ".sbf"
	// DataSuffix is appended to the header path to name the payload file.
	DataSuffix = ".data"
)

// DataPath returns the payload file name paired with a header path. The
// suffix is appended, never substituted: "a.sbf" pairs with "a.sbf.data".
func DataPath(headerPath string) string {
	return headerPath + DataSuffix
}

// Codec reads and writes SBF file pairs. The zero value uses the OS
// filesystem with atomic writes, lenient magic checking and the
// monitoring logger.
type Codec struct {
	// FS is the filesystem to use. Nil means fsutil.OSFileSystem{}.
	FS fsutil.FileSystem

	// StrictMagic turns a wrong payload magic into ErrInvalidHeader instead
	// of a Warning.
	StrictMagic bool

	// Logf receives warnings and summaries. Nil means monitoring.Logf.
	Logf func(format string, v ...interface{})
}

// DefaultCodec backs the package-level Write, Read and ReadHeader.
var DefaultCodec = &Codec{}

// Write stores cloud at path and DataPath(path). See Codec.Write.
func Write(cloud *PointCloud, path string, shift Vec3, names []string) error {
	return DefaultCodec.Write(cloud, path, shift, names)
}

// Read loads the file pair rooted at path. See Codec.Read.
func Read(path string) (*Result, error) {
	return DefaultCodec.Read(path)
}

// ReadHeader parses only the header file at path.
func ReadHeader(path string) (*Header, []Warning, error) {
	return DefaultCodec.ReadHeader(path)
}

// Result is everything recovered from a file pair.
type Result struct {
	Path     string
	Header   *Header
	Payload  *Payload
	Warnings []Warning
}

// Cloud returns the decoded points.
func (r *Result) Cloud() *PointCloud { return r.Payload.Cloud }

// GlobalShift returns the shift stored in the payload header.
func (r *Result) GlobalShift() Vec3 { return r.Payload.GlobalShift }

// ScalarFieldNames returns the scalar field names listed in the header.
func (r *Result) ScalarFieldNames() []string { return r.Header.ScalarFieldNames() }

func (c *Codec) fs() fsutil.FileSystem {
	if c.FS == nil {
		return fsutil.OSFileSystem{}
	}
	return c.FS
}

func (c *Codec) logf(format string, v ...interface{}) {
	if c.Logf != nil {
		c.Logf(format, v...)
		return
	}
	monitoring.Logf(format, v...)
}

// withPath fills in the path of an *Error created below the file layer.
func withPath(err error, path string) error {
	var e *Error
	if errors.As(err, &e) && e.Path == "" {
		e.Path = path
	}
	return err
}

// ValidateWrite checks the arguments of Write without touching the
// filesystem.
func ValidateWrite(cloud *PointCloud, path string, names []string) error {
	if cloud == nil {
		return newError(ErrInvalidArgument, "write", path, "nil cloud")
	}
	if cloud.Channels() < CoordinateChannels {
		return newError(ErrInvalidArgument, "write", path, "cloud has %d channels, need at least %d (X, Y, Z)", cloud.Channels(), CoordinateChannels)
	}
	if !strings.HasSuffix(path, HeaderSuffix) {
		return newError(ErrInvalidArgument, "write", path, "file name must end with %q", HeaderSuffix)
	}

	sf := cloud.ScalarFieldCount()
	if sf > MaxScalarFields {
		return newError(ErrFormatLimitExceeded, "write", path, "%d scalar fields, at most %d fit the payload header", sf, MaxScalarFields)
	}
	if sf > 0 && len(names) == 0 {
		return newError(ErrInvalidArgument, "write", path, "cloud has %d scalar fields but no names were given", sf)
	}
	if len(names) != sf {
		return newError(ErrInvalidArgument, "write", path, "got %d scalar field names for %d scalar fields", len(names), sf)
	}
	for i, name := range names {
		switch {
		case !utf8.ValidString(name):
			return newError(ErrInvalidArgument, "write", path, "scalar field %d name %q is not valid UTF-8", i+1, name)
		case strings.TrimSpace(name) == "":
			return newError(ErrInvalidArgument, "write", path, "scalar field %d has an empty name", i+1)
		case name != strings.TrimSpace(name):
			return newError(ErrInvalidArgument, "write", path, "scalar field %d name %q has surrounding whitespace", i+1, name)
		case strings.ContainsAny(name, ",\r\n"):
			return newError(ErrInvalidArgument, "write", path, "scalar field %d name %q contains ',' or a line break", i+1, name)
		}
	}
	return nil
}

// Write stores cloud as a header file at path and a payload file at
// DataPath(path). Arguments are validated before any file is created.
//
// Both files are fully encoded before either is committed. The payload is
// committed first. An existing payload is moved aside beforehand and put
// back if either commit fails, so a failed overwrite leaves the previous
// pair in place and a failed first write leaves nothing.
func (c *Codec) Write(cloud *PointCloud, path string, shift Vec3, names []string) error {
	if err := ValidateWrite(cloud, path, names); err != nil {
		return err
	}

	fsys := c.fs()
	dataPath := DataPath(path)

	data, err := fsys.Create(dataPath)
	if err != nil {
		return ioError("write", dataPath, err)
	}
	if err := EncodeBinary(data, cloud, shift); err != nil {
		data.Discard()
		return withPath(err, dataPath)
	}

	header, err := fsys.Create(path)
	if err != nil {
		data.Discard()
		return ioError("write", path, err)
	}
	if err := EncodeHeader(header, cloud.Points(), shift, names); err != nil {
		header.Discard()
		data.Discard()
		return withPath(err, path)
	}

	var previous string
	if fsys.Exists(dataPath) {
		previous = fmt.Sprintf("%s.%s.prev", dataPath, uuid.NewString())
		if err := fsys.Rename(dataPath, previous); err != nil {
			header.Discard()
			data.Discard()
			return ioError("write", dataPath, err)
		}
	}

	if err := data.Commit(); err != nil {
		header.Discard()
		c.restorePayload(fsys, previous, dataPath)
		return ioError("write", dataPath, err)
	}
	if err := header.Commit(); err != nil {
		c.restorePayload(fsys, previous, dataPath)
		return ioError("write", path, err)
	}
	if previous != "" {
		if err := fsys.Remove(previous); err != nil {
			c.logf("sbf: could not remove previous payload %s: %v", previous, err)
		}
	}

	c.logf("sbf: wrote %d points (%d scalar fields) to %s", cloud.Points(), cloud.ScalarFieldCount(), path)
	return nil
}

// restorePayload undoes a payload commit. With no previous payload the new
// one is removed, otherwise the previous one is renamed back over it.
func (c *Codec) restorePayload(fsys fsutil.FileSystem, previous, dataPath string) {
	if previous == "" {
		if err := fsys.Remove(dataPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			c.logf("sbf: could not remove %s after failed write: %v", dataPath, err)
		}
		return
	}
	if err := fsys.Rename(previous, dataPath); err != nil {
		c.logf("sbf: could not restore %s from %s: %v", dataPath, previous, err)
	}
}

// ReadHeader parses the header file at path.
func (c *Codec) ReadHeader(path string) (*Header, []Warning, error) {
	f, err := c.fs().Open(path)
	if err != nil {
		return nil, nil, ioError("read", path, err)
	}
	defer f.Close()

	return ParseHeader(f, path)
}

func (c *Codec) readPayload(path string) (*Payload, []Warning, error) {
	f, err := c.fs().Open(path)
	if err != nil {
		return nil, nil, ioError("read", path, err)
	}
	defer f.Close()

	p, warnings, err := DecodeBinary(f, c.StrictMagic)
	if err != nil {
		return nil, nil, withPath(err, path)
	}
	for i := range warnings {
		warnings[i].Path = path
	}
	return p, warnings, nil
}

// Read parses the header at path and the payload at DataPath(path), then
// cross-checks them. Warnings are returned in the Result and logged; only
// the failures listed in errors.go abort the read.
func (c *Codec) Read(path string) (*Result, error) {
	header, warnings, err := c.ReadHeader(path)
	if err != nil {
		return nil, err
	}

	payload, payloadWarnings, err := c.readPayload(DataPath(path))
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, payloadWarnings...)
	warnings = append(warnings, CrossValidate(header, payload, path)...)

	for _, w := range warnings {
		c.logf("sbf: warning: %s", w)
	}
	c.logf("sbf: read %d points (%d scalar fields) from %s", payload.PointCount, payload.ScalarFieldCount, path)

	return &Result{
		Path:     path,
		Header:   header,
		Payload:  payload,
		Warnings: warnings,
	}, nil
}

// String summarises the result in one line.
func (r *Result) String() string {
	return fmt.Sprintf("%s: %d points, %d scalar fields, %d warnings",
		r.Path, r.Payload.PointCount, r.Payload.ScalarFieldCount, len(r.Warnings))
}
