package filesystem

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Entry is a metadata snapshot of one path, taken when it is constructed
type Entry struct {
	Path         string    `json:"path"`
	Name         string    `json:"name"`
	Directory    string    `json:"directory"`
	Extension    string    `json:"extension"`
	IsDirectory  bool      `json:"isDirectory"`
	IsFile       bool      `json:"isFile"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

// NewEntry stats path through fs and captures its metadata. A missing path
// yields an entry with both IsFile and IsDirectory false; any other stat
// failure is returned.
func NewEntry(fs Accessor, path string) (*Entry, error) {
	info, err := fs.Stat(path)
	if err != nil && !isNotExist(err) {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	e := &Entry{
		Path:      path,
		Name:      baseName(path),
		Directory: dirName(path),
	}
	if err == nil {
		e.IsDirectory = info.IsDir()
		e.IsFile = !info.IsDir()
	}
	if !e.IsDirectory {
		e.Extension = extension(e.Name)
	}
	if e.IsFile {
		e.Size = info.Size()
		e.LastModified = info.ModTime()
	}
	return e, nil
}

// baseName returns the text after the last separator, empty when path ends
// in one. Unlike filepath.Base it does not trim trailing separators.
func baseName(path string) string {
	i := len(path) - 1
	for i >= 0 && !os.IsPathSeparator(path[i]) {
		i--
	}
	return path[i+1:]
}

// dirName returns the parent portion of path, or "" when path has no
// separator or is itself a root.
func dirName(path string) string {
	i := len(path) - 1
	for i >= 0 && !os.IsPathSeparator(path[i]) {
		i--
	}
	if i < 0 {
		return ""
	}

	dir := path[:i+1]
	trimmed := strings.TrimRightFunc(dir, isSeparator)
	if trimmed != "" {
		return trimmed
	}
	// only separators precede the name; a bare root has no parent
	if i == len(path)-1 {
		return ""
	}
	return dir[:1]
}

// extension returns the suffix from the last '.', or "" when the name has
// none or ends in '.'
func extension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return name[i:]
}

func isSeparator(r rune) bool {
	return r < 0x80 && os.IsPathSeparator(uint8(r))
}
