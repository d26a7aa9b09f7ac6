package filesystem

import (
	"fmt"
	"iter"

	"github.com/GriffinCanCode/FileSystemMCP/internal/shared/types"
	"go.uber.org/zap"
)

// DirectoryOps handles directory operations
type DirectoryOps struct {
	*Ops
}

// GetTools returns directory operation tool definitions
func (d *DirectoryOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "filesystem.list_directory_contents",
			Name:        "List Directory",
			Description: "Lists the files directly inside a directory with their metadata. Subdirectories are not included.",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Directory path", Required: true},
			},
			Returns:  "array",
			ReadOnly: true,
		},
		{
			ID:          "filesystem.delete_file_or_directory",
			Name:        "Delete",
			Description: "Deletes a file, or a directory with everything inside it. Succeeds when nothing exists at the path.",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File or directory path", Required: true},
			},
			Returns:     "boolean",
			Destructive: true,
		},
		{
			ID:          "filesystem.create_directory",
			Name:        "Create Directory",
			Description: "Creates a directory and any missing parents.",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Directory path", Required: true},
			},
			Returns: "boolean",
		},
	}
}

// ListDirectoryContents enumerates the non-directory entries directly under
// path. Names are read up front; each Entry is built when the sequence
// reaches it, and a failed build yields nil. The error is non-nil only when
// the directory itself cannot be enumerated.
func (d *DirectoryOps) ListDirectoryContents(path string) (entries iter.Seq[*Entry], err error) {
	log := d.log("list_directory_contents")
	defer func() {
		if r := recover(); r != nil {
			log.Error("Unexpected failure", zap.String("path", path), zap.Any("panic", r))
			entries, err = nil, fmt.Errorf("list %s: %v", path, r)
		}
	}()

	files, err := d.FS.ListFiles(path)
	if err != nil {
		log.Error("Failed to list directory", zap.String("path", path), zap.Error(err))
		return nil, err
	}

	return func(yield func(*Entry) bool) {
		for _, file := range files {
			if !yield(d.entry(log, file)) {
				return
			}
		}
	}, nil
}

func (d *DirectoryOps) entry(log *zap.Logger, path string) (e *Entry) {
	defer guard(log)

	e, err := NewEntry(d.FS, path)
	if err != nil {
		log.Warn("Failed to create entry for file", zap.String("path", path), zap.Error(err))
		return nil
	}
	return e
}

// DeleteFileOrDirectory removes path, recursively for directories. A path
// that does not exist counts as deleted.
func (d *DirectoryOps) DeleteFileOrDirectory(path string) (ok bool) {
	log := d.log("delete_file_or_directory")
	defer guard(log)

	k, err := d.probe(path)
	if err != nil {
		log.Error("Failed to delete file or directory", zap.String("path", path), zap.Error(err))
		return false
	}

	switch k {
	case kindDir:
		err = d.FS.RemoveAll(path)
	case kindFile:
		err = d.FS.Remove(path)
	}
	if err != nil {
		log.Error("Failed to delete file or directory", zap.String("path", path), zap.Error(err))
		return false
	}
	return true
}

// CreateDirectory creates path and any missing parents
func (d *DirectoryOps) CreateDirectory(path string) (ok bool) {
	log := d.log("create_directory")
	defer guard(log)

	if err := d.FS.MkdirAll(path); err != nil {
		log.Error("Failed to create directory", zap.String("path", path), zap.Error(err))
		return false
	}
	return true
}
