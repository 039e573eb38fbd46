// Package fsutil provides filesystem abstractions for testability.
package fsutil

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrFinalized is returned when a PendingFile is written to, committed or
// discarded after it has already been committed or discarded.
var ErrFinalized = errors.New("fsutil: pending file already finalized")

// File is a readable, seekable file handle.
type File interface {
	io.Reader
	io.Seeker
	io.Closer
	Stat() (fs.FileInfo, error)
}

// PendingFile is a file under construction. Its content becomes visible at
// the target name only after Commit. Discard abandons it.
type PendingFile interface {
	io.Writer
	Commit() error
	Discard() error
}

// FileSystem abstracts filesystem operations for testability.
// Use OSFileSystem for production; MemoryFileSystem for testing.
type FileSystem interface {
	// Open opens the named file for reading.
	Open(name string) (File, error)

	// Create starts writing the named file.
	Create(name string) (PendingFile, error)

	// ReadFile reads the named file and returns its contents.
	ReadFile(name string) ([]byte, error)

	// Stat returns a FileInfo describing the named file.
	Stat(name string) (fs.FileInfo, error)

	// Rename moves oldpath to newpath, replacing newpath if it exists.
	Rename(oldpath, newpath string) error

	// Remove removes the named file or empty directory.
	Remove(name string) error

	// Exists checks if a file or directory exists.
	Exists(name string) bool
}

// OSFileSystem implements FileSystem using the os package.
//
// By default Create writes to a uniquely named temporary file next to the
// target and renames it into place on Commit, so an interrupted write never
// leaves a truncated file under the target name. Direct disables this and
// writes the target in place.
type OSFileSystem struct {
	Direct bool
}

// Open opens the named file.
func (OSFileSystem) Open(name string) (File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Create starts writing the named file.
func (o OSFileSystem) Create(name string) (PendingFile, error) {
	if o.Direct {
		f, err := os.Create(name)
		if err != nil {
			return nil, err
		}
		return &directFile{f: f, name: name}, nil
	}

	tmp := filepath.Join(filepath.Dir(name), fmt.Sprintf(".%s.%s.tmp", filepath.Base(name), uuid.NewString()))
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, err
	}
	return &atomicFile{f: f, tmp: tmp, name: name}, nil
}

// ReadFile reads the named file.
func (OSFileSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// Stat returns file info for the named file.
func (OSFileSystem) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}

// Rename renames oldpath to newpath.
func (OSFileSystem) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

// Remove removes the named file or directory.
func (OSFileSystem) Remove(name string) error {
	return os.Remove(name)
}

// Exists checks if a file exists.
func (OSFileSystem) Exists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}

// atomicFile writes to tmp and renames it over name on Commit.
type atomicFile struct {
	f    *os.File
	tmp  string
	name string
	done bool
}

func (a *atomicFile) Write(p []byte) (int, error) {
	if a.done {
		return 0, ErrFinalized
	}
	return a.f.Write(p)
}

func (a *atomicFile) Commit() error {
	if a.done {
		return ErrFinalized
	}
	a.done = true
	if err := a.f.Sync(); err != nil {
		a.f.Close()
		os.Remove(a.tmp)
		return err
	}
	if err := a.f.Close(); err != nil {
		os.Remove(a.tmp)
		return err
	}
	if err := os.Rename(a.tmp, a.name); err != nil {
		os.Remove(a.tmp)
		return err
	}
	return nil
}

func (a *atomicFile) Discard() error {
	if a.done {
		return ErrFinalized
	}
	a.done = true
	closeErr := a.f.Close()
	if err := os.Remove(a.tmp); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return closeErr
}

// directFile writes the target in place.
type directFile struct {
	f    *os.File
	name string
	done bool
}

func (d *directFile) Write(p []byte) (int, error) {
	if d.done {
		return 0, ErrFinalized
	}
	return d.f.Write(p)
}

func (d *directFile) Commit() error {
	if d.done {
		return ErrFinalized
	}
	d.done = true
	return d.f.Close()
}

func (d *directFile) Discard() error {
	if d.done {
		return ErrFinalized
	}
	d.done = true
	closeErr := d.f.Close()
	if err := os.Remove(d.name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return closeErr
}

// MemoryFileSystem provides an in-memory filesystem for testing.
type MemoryFileSystem struct {
	mu       sync.RWMutex
	files    map[string]*memFile
	failures map[string]error
}

type memFile struct {
	data []byte
	mode os.FileMode
}

// NewMemoryFileSystem creates a new in-memory filesystem.
func NewMemoryFileSystem() *MemoryFileSystem {
	return &MemoryFileSystem{
		files:    make(map[string]*memFile),
		failures: make(map[string]error),
	}
}

// FailCommit makes every later Commit of a pending file named name return
// err. Passing a nil err clears the failure.
func (m *MemoryFileSystem) FailCommit(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name = filepath.Clean(name)
	if err == nil {
		delete(m.failures, name)
		return
	}
	m.failures[name] = err
}

// Names returns the committed file names in sorted order.
func (m *MemoryFileSystem) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.files))
	for name := range m.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open opens a file for reading.
func (m *MemoryFileSystem) Open(name string) (File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	name = filepath.Clean(name)
	f, ok := m.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}

	return &memFileReader{
		Reader: bytes.NewReader(f.data),
		name:   name,
		size:   int64(len(f.data)),
		mode:   f.mode,
	}, nil
}

// Create starts a pending file. Nothing is visible under name until Commit.
func (m *MemoryFileSystem) Create(name string) (PendingFile, error) {
	return &memPendingFile{fs: m, name: filepath.Clean(name)}, nil
}

// ReadFile reads a file's contents.
func (m *MemoryFileSystem) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	name = filepath.Clean(name)
	f, ok := m.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrNotExist}
	}

	result := make([]byte, len(f.data))
	copy(result, f.data)
	return result, nil
}

// WriteFile stores data under name directly, bypassing Create. Tests use
// it to seed fixtures.
func (m *MemoryFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name = filepath.Clean(name)
	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)
	m.files[name] = &memFile{data: dataCopy, mode: perm}

	return nil
}

// Stat returns file info.
func (m *MemoryFileSystem) Stat(name string) (fs.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	name = filepath.Clean(name)
	f, ok := m.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	}

	return &memFileInfo{
		name: filepath.Base(name),
		size: int64(len(f.data)),
		mode: f.mode,
	}, nil
}

// Rename moves a file, replacing any file at newpath.
func (m *MemoryFileSystem) Rename(oldpath, newpath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	oldpath, newpath = filepath.Clean(oldpath), filepath.Clean(newpath)
	f, ok := m.files[oldpath]
	if !ok {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: fs.ErrNotExist}
	}
	delete(m.files, oldpath)
	m.files[newpath] = f
	return nil
}

// Remove removes a file.
func (m *MemoryFileSystem) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name = filepath.Clean(name)
	if _, ok := m.files[name]; ok {
		delete(m.files, name)
		return nil
	}

	return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
}

// Exists checks if a file exists.
func (m *MemoryFileSystem) Exists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.files[filepath.Clean(name)]
	return ok
}

// memFileReader implements File for reading.
type memFileReader struct {
	*bytes.Reader
	name string
	size int64
	mode os.FileMode
}

func (f *memFileReader) Close() error { return nil }

func (f *memFileReader) Stat() (fs.FileInfo, error) {
	return &memFileInfo{name: filepath.Base(f.name), size: f.size, mode: f.mode}, nil
}

// memPendingFile buffers writes until Commit.
type memPendingFile struct {
	fs   *MemoryFileSystem
	name string
	buf  []byte
	done bool
}

func (f *memPendingFile) Write(p []byte) (int, error) {
	if f.done {
		return 0, ErrFinalized
	}
	f.buf = append(f.buf, p...)
	return len(p), nil
}

func (f *memPendingFile) Commit() error {
	if f.done {
		return ErrFinalized
	}
	f.done = true

	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()

	if err := f.fs.failures[f.name]; err != nil {
		return err
	}
	f.fs.files[f.name] = &memFile{data: f.buf, mode: 0644}
	return nil
}

func (f *memPendingFile) Discard() error {
	if f.done {
		return ErrFinalized
	}
	f.done = true
	f.buf = nil
	return nil
}

// memFileInfo implements fs.FileInfo.
type memFileInfo struct {
	name string
	size int64
	mode os.FileMode
}

func (i *memFileInfo) Name() string       { return i.name }
func (i *memFileInfo) Size() int64        { return i.size }
func (i *memFileInfo) Mode() os.FileMode  { return i.mode }
func (i *memFileInfo) ModTime() time.Time { return time.Time{} }
func (i *memFileInfo) IsDir() bool        { return false }
func (i *memFileInfo) Sys() any           { return nil }
