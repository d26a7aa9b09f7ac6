package filesystem

import (
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newOSProvider(t *testing.T) (*Provider, string, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return NewProvider(OS{}, zap.New(core)), t.TempDir(), logs
}

func TestOSEndToEnd(t *testing.T) {
	p, root, _ := newOSProvider(t)
	dir := filepath.Join(root, "a")
	file := filepath.Join(dir, "x.txt")

	require.True(t, p.CreateDirectory(dir))
	require.True(t, p.WriteFileContents(file, "hello"))
	assert.Equal(t, "hello", p.ReadFileContents(file))
	assert.Equal(t, int64(5), p.GetFileOrDirectorySize(dir))

	seq, err := p.ListDirectoryContents(dir)
	require.NoError(t, err)
	entries := slices.Collect(seq)
	require.Len(t, entries, 1)
	assert.Equal(t, "x.txt", entries[0].Name)
	assert.Equal(t, dir, entries[0].Directory)

	info, err := os.Stat(file)
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), entries[0].LastModified)

	require.True(t, p.DeleteFileOrDirectory(dir))
	assert.False(t, p.FileOrDirectoryExists(dir))
}

func TestOSWritePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permission bits")
	}
	p, root, _ := newOSProvider(t)
	file := filepath.Join(root, "perm.txt")

	require.True(t, p.WriteFileContents(file, "x"))
	info, err := os.Stat(file)
	require.NoError(t, err)
	// umask can only clear bits
	assert.Zero(t, info.Mode().Perm()&^0o644)
}

func TestOSSizeWalksNestedTrees(t *testing.T) {
	p, root, _ := newOSProvider(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b", "c"), 0o755))

	var want int64
	for i, rel := range []string{"one", "a/two", "a/b/three", "a/b/c/four"} {
		data := make([]byte, (i+1)*100)
		want += int64(len(data))
		require.NoError(t, os.WriteFile(filepath.Join(root, filepath.FromSlash(rel)), data, 0o644))
	}

	assert.Equal(t, want, p.GetFileOrDirectorySize(root))
}

func TestOSSizeIgnoresDirectorySymlinks(t *testing.T) {
	p, root, _ := newOSProvider(t)
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "big"), make([]byte, 4096), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "small"), make([]byte, 7), 0o644))
	if err := os.Symlink(outside, filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	assert.Equal(t, int64(7), p.GetFileOrDirectorySize(root))
}

func TestOSCopyIsExclusiveAndKeepsMode(t *testing.T) {
	p, root, logs := newOSProvider(t)
	src := filepath.Join(root, "src.sh")
	dst := filepath.Join(root, "dst.sh")
	require.NoError(t, os.WriteFile(src, []byte("#!/bin/sh\necho hi\n"), 0o755))

	require.True(t, p.CopyFile(src, dst))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\necho hi\n", string(data))

	if runtime.GOOS != "windows" {
		srcInfo, err := os.Stat(src)
		require.NoError(t, err)
		dstInfo, err := os.Stat(dst)
		require.NoError(t, err)
		assert.Equal(t, srcInfo.Mode().Perm(), dstInfo.Mode().Perm())
	}

	require.NoError(t, os.WriteFile(src, []byte("new"), 0o755))
	assert.False(t, p.CopyFile(src, dst))
	data, err = os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\necho hi\n", string(data), "existing destination left intact")
	assert.Equal(t, 1, logs.FilterMessage("Failed to copy file").Len())
}

func TestOSMoveFileRespectsOverwrite(t *testing.T) {
	p, root, _ := newOSProvider(t)
	src := filepath.Join(root, "s")
	dst := filepath.Join(root, "d")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0o644))
	require.NoError(t, os.WriteFile(dst, []byte("old"), 0o644))

	assert.False(t, p.MoveFileOrDirectory(src, dst, false))
	assert.Equal(t, "old", p.ReadFileContents(dst))

	assert.True(t, p.MoveFileOrDirectory(src, dst, true))
	assert.Equal(t, "new", p.ReadFileContents(dst))
	assert.False(t, p.FileOrDirectoryExists(src))
}

func TestOSMoveFileKeepsDanglingSymlink(t *testing.T) {
	p, root, _ := newOSProvider(t)
	src := filepath.Join(root, "s")
	dst := filepath.Join(root, "d")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0o644))
	if err := os.Symlink(filepath.Join(root, "gone"), dst); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	assert.False(t, p.MoveFileOrDirectory(src, dst, false))
	target, err := os.Readlink(dst)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "gone"), target)
	assert.FileExists(t, src)
}

func TestOSMoveDirectory(t *testing.T) {
	p, root, _ := newOSProvider(t)
	src := filepath.Join(root, "src")
	dst := filepath.Join(root, "dst")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "inner"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "inner", "f"), []byte("f"), 0o644))
	require.NoError(t, os.MkdirAll(dst, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dst, "keep"), []byte("k"), 0o644))

	assert.False(t, p.MoveFileOrDirectory(src, dst, false))
	assert.FileExists(t, filepath.Join(dst, "keep"))
	assert.DirExists(t, src)

	assert.True(t, p.MoveFileOrDirectory(src, dst, true))
	assert.NoDirExists(t, src)
	assert.NoFileExists(t, filepath.Join(dst, "keep"))
	assert.FileExists(t, filepath.Join(dst, "inner", "f"))
}

func TestOSSymlink(t *testing.T) {
	p, root, logs := newOSProvider(t)
	target := filepath.Join(root, "target")
	require.NoError(t, os.MkdirAll(target, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "f.txt"), []byte("via link"), 0o644))
	link := filepath.Join(root, "link")

	if !p.CreateSymlink(target, link) {
		t.Skipf("symlinks unavailable: %v", logs.All())
	}

	dest, err := os.Readlink(link)
	require.NoError(t, err)
	assert.Equal(t, target, dest)
	assert.Equal(t, "via link", p.ReadFileContents(filepath.Join(link, "f.txt")))

	assert.False(t, p.CreateSymlink(target, link))
	assert.Equal(t, 1, logs.FilterMessage("Link path already exists").Len())

	// listing the parent skips the directory link
	seq, err := p.ListDirectoryContents(root)
	require.NoError(t, err)
	assert.Empty(t, slices.Collect(seq))
}

func TestOSLastModifiedIsAccessTime(t *testing.T) {
	p, root, _ := newOSProvider(t)
	file := filepath.Join(root, "f")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	accessed := time.Date(2020, 5, 17, 10, 0, 0, 0, time.UTC)
	modified := time.Date(2021, 8, 1, 18, 30, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(file, accessed, modified))

	got := p.GetFileOrDirectoryLastModified(file)
	require.NotNil(t, got)
	if runtime.GOOS == "linux" || runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		assert.True(t, accessed.Equal(*got), "want %v, got %v", accessed, *got)
	}
}

func TestOSFindFilesAndMimeType(t *testing.T) {
	p, root, _ := newOSProvider(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pkg", "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "pkg", "a.json"), []byte(`{"a": 1}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "pkg", "sub", "b.json"), []byte(`[1, 2]`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("plain words"), 0o644))

	assert.Equal(t, []string{"pkg/a.json", "pkg/sub/b.json"}, p.FindFiles(root, "**/*.json"))

	mime := p.GetFileMimeType(filepath.Join(root, "pkg", "a.json"))
	require.NotNil(t, mime)
	assert.Equal(t, "application/json", *mime)

	mime = p.GetFileMimeType(filepath.Join(root, "notes.txt"))
	require.NotNil(t, mime)
	assert.Contains(t, *mime, "text/plain")
}

func TestOSExecutableDirectory(t *testing.T) {
	p, _, _ := newOSProvider(t)

	got := p.GetFileSystemPath()
	require.NotNil(t, got)
	exe, err := os.Executable()
	require.NoError(t, err)
	assert.Equal(t, filepath.Dir(exe), *got)
}
