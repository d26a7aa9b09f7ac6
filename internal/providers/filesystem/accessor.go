package filesystem

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/charlievieth/fastwalk"
)

// Accessor is the filesystem capability the operations call into.
// Stat follows symbolic links. Paths are passed through unchanged.
type Accessor interface {
	Getwd() (string, error)
	Stat(name string) (fs.FileInfo, error)
	// Lstat describes name itself when it is a symbolic link
	Lstat(name string) (fs.FileInfo, error)
	AccessTime(name string) (time.Time, error)
	ReadFile(name string) ([]byte, error)
	Open(name string) (io.ReadCloser, error)
	WriteFile(name string, data []byte) error
	Remove(name string) error
	RemoveAll(name string) error
	Rename(oldpath, newpath string) error
	// CopyFile copies a regular file to a destination that must not exist yet.
	CopyFile(src, dst string) error
	MkdirAll(name string) error
	// Symlink creates link pointing at target. dir reports whether target is
	// a directory, which some platforms need to pick the link flavour.
	Symlink(target, link string, dir bool) error
	// ListFiles returns the non-directory entries directly below dir, sorted
	// by name. Symlinks to files are included, symlinks to directories are not.
	ListFiles(dir string) ([]string, error)
	// WalkFiles calls fn for every regular file below root without following
	// directory symlinks. fn may be called from several goroutines at once.
	WalkFiles(root string, fn func(path string, size int64) error) error
}

// OS is the Accessor backed by the host filesystem
type OS struct{}

var _ Accessor = OS{}

func (OS) Getwd() (string, error) {
	return os.Getwd()
}

func (OS) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}

func (OS) Lstat(name string) (fs.FileInfo, error) {
	return os.Lstat(name)
}

func (OS) AccessTime(name string) (time.Time, error) {
	info, err := os.Stat(name)
	if err != nil {
		return time.Time{}, err
	}
	return accessTime(info), nil
}

func (OS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

func (OS) Open(name string) (io.ReadCloser, error) {
	return os.Open(name)
}

func (OS) WriteFile(name string, data []byte) error {
	return os.WriteFile(name, data, 0o644)
}

func (OS) Remove(name string) error {
	return os.Remove(name)
}

func (OS) RemoveAll(name string) error {
	return os.RemoveAll(name)
}

// Rename falls back to copy and remove when a file crosses devices
func (OS) Rename(oldpath, newpath string) error {
	err := os.Rename(oldpath, newpath)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}

	info, statErr := os.Lstat(oldpath)
	if statErr != nil || !info.Mode().IsRegular() {
		return err
	}
	if err := copyContents(oldpath, newpath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC); err != nil {
		return fmt.Errorf("cross-device move: %w", err)
	}
	return os.Remove(oldpath)
}

func (OS) CopyFile(src, dst string) error {
	return copyContents(src, dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL)
}

func copyContents(src, dst string, flag int) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return &fs.PathError{Op: "copy", Path: src, Err: syscall.EISDIR}
	}

	out, err := os.OpenFile(dst, flag, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(dst)
		}
	}()

	_, err = io.Copy(out, in)
	return err
}

func (OS) MkdirAll(name string) error {
	return os.MkdirAll(name, 0o755)
}

func (OS) Symlink(target, link string, _ bool) error {
	return os.Symlink(target, link)
}

func (OS) ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		if e.IsDir() {
			continue
		}
		if e.Type()&fs.ModeSymlink != 0 {
			if info, err := os.Stat(p); err == nil && info.IsDir() {
				continue
			}
		}
		files = append(files, p)
	}
	sort.Strings(files)
	return files, nil
}

func (OS) WalkFiles(root string, fn func(path string, size int64) error) error {
	// the root itself may be a link; everything below it is not followed
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return err
	}
	conf := fastwalk.Config{Follow: false}

	var visited atomic.Int64
	err = fastwalk.Walk(&conf, resolved, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		visited.Add(1)
		if rel, err := filepath.Rel(resolved, p); err == nil {
			p = filepath.Join(root, rel)
		}
		return fn(p, info.Size())
	})
	if err != nil {
		return fmt.Errorf("walk %s after %d files: %w", root, visited.Load(), err)
	}
	return nil
}
