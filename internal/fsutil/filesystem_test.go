package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSFileSystem_Exists(t *testing.T) {
	fsys := OSFileSystem{}

	if !fsys.Exists("filesystem.go") {
		t.Error("expected filesystem.go to exist")
	}

	if fsys.Exists("nonexistent_file_xyz.go") {
		t.Error("expected nonexistent file to not exist")
	}
}

func TestOSFileSystem_OpenSeek(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seek.bin")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0644))

	f, err := OSFileSystem{}.Open(path)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Seek(4, io.SeekStart)
	require.NoError(t, err)
	rest, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "456789", string(rest))

	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(10), info.Size())
}

func TestOSFileSystem_OpenMissing(t *testing.T) {
	f, err := OSFileSystem{}.Open(filepath.Join(t.TempDir(), "missing"))
	assert.Nil(t, f)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestOSFileSystem_AtomicCommit(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.sbf")
	fsys := OSFileSystem{}

	pf, err := fsys.Create(target)
	require.NoError(t, err)
	_, err = pf.Write([]byte("partial"))
	require.NoError(t, err)

	// Nothing is visible under the target name until Commit.
	assert.False(t, fsys.Exists(target))

	require.NoError(t, pf.Commit())
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "partial", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file should be renamed away")

	assert.ErrorIs(t, pf.Commit(), ErrFinalized)
	_, err = pf.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrFinalized)
}

func TestOSFileSystem_AtomicDiscard(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.sbf")

	pf, err := OSFileSystem{}.Create(target)
	require.NoError(t, err)
	_, err = pf.Write([]byte("abandoned"))
	require.NoError(t, err)
	require.NoError(t, pf.Discard())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOSFileSystem_DirectDiscardRemovesTarget(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "direct.sbf")
	fsys := OSFileSystem{Direct: true}

	pf, err := fsys.Create(target)
	require.NoError(t, err)
	assert.True(t, fsys.Exists(target), "direct mode writes the target in place")

	require.NoError(t, pf.Discard())
	assert.False(t, fsys.Exists(target))
}

func TestOSFileSystem_CreateInMissingDir(t *testing.T) {
	_, err := OSFileSystem{}.Create(filepath.Join(t.TempDir(), "nope", "out.sbf"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	mfs := NewMemoryFileSystem()

	testData := []byte("hello, world")
	require.NoError(t, mfs.WriteFile("/test.txt", testData, 0644))

	data, err := mfs.ReadFile("/test.txt")
	require.NoError(t, err)
	assert.Equal(t, testData, data)

	info, err := mfs.Stat("/test.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(len(testData)), info.Size())
	assert.Equal(t, "test.txt", info.Name())
}

func TestMemoryFileSystem_PendingVisibility(t *testing.T) {
	mfs := NewMemoryFileSystem()

	pf, err := mfs.Create("/created.txt")
	require.NoError(t, err)
	_, err = pf.Write([]byte("created content"))
	require.NoError(t, err)
	assert.False(t, mfs.Exists("/created.txt"))

	require.NoError(t, pf.Commit())
	data, err := mfs.ReadFile("/created.txt")
	require.NoError(t, err)
	assert.Equal(t, "created content", string(data))
	assert.Equal(t, []string{"/created.txt"}, mfs.Names())
}

func TestMemoryFileSystem_Discard(t *testing.T) {
	mfs := NewMemoryFileSystem()

	pf, err := mfs.Create("/gone.txt")
	require.NoError(t, err)
	_, _ = pf.Write([]byte("x"))
	require.NoError(t, pf.Discard())
	assert.Empty(t, mfs.Names())
	assert.ErrorIs(t, pf.Discard(), ErrFinalized)
}

func TestMemoryFileSystem_FailCommit(t *testing.T) {
	mfs := NewMemoryFileSystem()
	boom := errors.New("disk full")
	mfs.FailCommit("/a.sbf", boom)

	pf, err := mfs.Create("/a.sbf")
	require.NoError(t, err)
	assert.ErrorIs(t, pf.Commit(), boom)
	assert.False(t, mfs.Exists("/a.sbf"))

	mfs.FailCommit("/a.sbf", nil)
	pf, err = mfs.Create("/a.sbf")
	require.NoError(t, err)
	assert.NoError(t, pf.Commit())
	assert.True(t, mfs.Exists("/a.sbf"))
}

func TestMemoryFileSystem_OpenSeek(t *testing.T) {
	mfs := NewMemoryFileSystem()
	require.NoError(t, mfs.WriteFile("/data.bin", []byte("abcdef"), 0644))

	f, err := mfs.Open("/data.bin")
	require.NoError(t, err)
	defer f.Close()

	pos, err := f.Seek(2, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pos)

	buf := make([]byte, 3)
	_, err = io.ReadFull(f, buf)
	require.NoError(t, err)
	assert.Equal(t, "cde", string(buf))

	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(6), info.Size())
}

func TestMemoryFileSystem_NotExist(t *testing.T) {
	mfs := NewMemoryFileSystem()

	_, err := mfs.Open("/missing")
	assert.ErrorIs(t, err, fs.ErrNotExist)
	_, err = mfs.ReadFile("/missing")
	assert.ErrorIs(t, err, fs.ErrNotExist)
	_, err = mfs.Stat("/missing")
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.ErrorIs(t, mfs.Remove("/missing"), fs.ErrNotExist)
}

func TestMemoryFileSystem_Remove(t *testing.T) {
	mfs := NewMemoryFileSystem()
	require.NoError(t, mfs.WriteFile("/x", []byte("1"), 0644))
	require.NoError(t, mfs.Remove("/x"))
	assert.False(t, mfs.Exists("/x"))
}

func TestOSFileSystem_RenameReplaces(t *testing.T) {
	dir := t.TempDir()
	oldpath := filepath.Join(dir, "a")
	newpath := filepath.Join(dir, "b")
	require.NoError(t, os.WriteFile(oldpath, []byte("new"), 0644))
	require.NoError(t, os.WriteFile(newpath, []byte("old"), 0644))

	fsys := OSFileSystem{}
	require.NoError(t, fsys.Rename(oldpath, newpath))
	assert.False(t, fsys.Exists(oldpath))
	data, err := fsys.ReadFile(newpath)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestMemoryFileSystem_Rename(t *testing.T) {
	mfs := NewMemoryFileSystem()
	require.NoError(t, mfs.WriteFile("/a", []byte("new"), 0644))
	require.NoError(t, mfs.WriteFile("/b", []byte("old"), 0644))

	require.NoError(t, mfs.Rename("/a", "/b"))
	assert.Equal(t, []string{"/b"}, mfs.Names())
	data, err := mfs.ReadFile("/b")
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	assert.ErrorIs(t, mfs.Rename("/a", "/c"), fs.ErrNotExist)
}

func TestFileSystemInterface(t *testing.T) {
	var _ FileSystem = OSFileSystem{}
	var _ FileSystem = NewMemoryFileSystem()
}
