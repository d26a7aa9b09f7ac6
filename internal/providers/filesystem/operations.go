package filesystem

import (
	"io/fs"

	"github.com/GriffinCanCode/FileSystemMCP/internal/shared/types"
	"go.uber.org/zap"
)

// OperationsOps handles file manipulation operations
type OperationsOps struct {
	*Ops
}

// GetTools returns file manipulation tool definitions
func (o *OperationsOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "filesystem.move_file_or_directory",
			Name:        "Move",
			Description: "Moves a file or directory to a new location. An existing destination is replaced only when overwrite is true.",
			Parameters: []types.Parameter{
				{Name: "sourcePath", Type: "string", Description: "Path to move", Required: true},
				{Name: "destinationPath", Type: "string", Description: "New location", Required: true},
				{Name: "overwrite", Type: "boolean", Description: "Replace an existing destination", Required: false, Default: false},
			},
			Returns:     "boolean",
			Destructive: true,
		},
		{
			ID:          "filesystem.copy_file",
			Name:        "Copy File",
			Description: "Copies a file to a new location. Fails if the destination already exists.",
			Parameters: []types.Parameter{
				{Name: "sourcePath", Type: "string", Description: "File to copy", Required: true},
				{Name: "destinationPath", Type: "string", Description: "Location of the copy", Required: true},
			},
			Returns: "boolean",
		},
		{
			ID:          "filesystem.create_symlink",
			Name:        "Create Symlink",
			Description: "Creates a symbolic link to a file or directory.",
			Parameters: []types.Parameter{
				{Name: "sourcePath", Type: "string", Description: "Existing file or directory the link points at", Required: true},
				{Name: "linkPath", Type: "string", Description: "Where to create the link", Required: true},
			},
			Returns: "boolean",
		},
	}
}

// MoveFileOrDirectory moves src to dst. An existing destination directory
// is deleted first when overwrite is set; an existing destination file is
// replaced only when overwrite is set.
func (o *OperationsOps) MoveFileOrDirectory(src, dst string, overwrite bool) (ok bool) {
	log := o.log("move_file_or_directory").With(zap.String("source", src), zap.String("destination", dst))
	defer guard(log)

	srcKind, err := o.probe(src)
	if err != nil {
		log.Error("Failed to move file or directory", zap.Error(err))
		return false
	}
	dstKind, err := o.probe(dst)
	if err != nil {
		log.Error("Failed to move file or directory", zap.Error(err))
		return false
	}

	switch srcKind {
	case kindDir:
		if dstKind == kindDir {
			if !overwrite {
				log.Warn("Destination directory already exists")
				return false
			}
			if err := o.FS.RemoveAll(dst); err != nil {
				log.Error("Failed to move file or directory", zap.Error(err))
				return false
			}
		}
	case kindFile:
		exists := dstKind != kindNone
		if !exists {
			if exists, err = o.occupied(dst); err != nil {
				log.Error("Failed to move file or directory", zap.Error(err))
				return false
			}
		}
		if exists && !overwrite {
			log.Error("Failed to move file or directory",
				zap.Error(&fs.PathError{Op: "move", Path: dst, Err: fs.ErrExist}))
			return false
		}
	default:
		log.Warn("Source path does not exist")
		return false
	}

	if err := o.FS.Rename(src, dst); err != nil {
		log.Error("Failed to move file or directory", zap.Error(err))
		return false
	}
	return true
}

// CopyFile copies the file at src to dst, which must not exist
func (o *OperationsOps) CopyFile(src, dst string) (ok bool) {
	log := o.log("copy_file").With(zap.String("source", src), zap.String("destination", dst))
	defer guard(log)

	k, err := o.probe(src)
	if err != nil {
		log.Error("Failed to copy file", zap.Error(err))
		return false
	}
	if k != kindFile {
		log.Warn("Source path does not exist")
		return false
	}

	if err := o.FS.CopyFile(src, dst); err != nil {
		log.Error("Failed to copy file", zap.Error(err))
		return false
	}
	return true
}

// CreateSymlink creates link pointing at src. src is stored as given.
func (o *OperationsOps) CreateSymlink(src, link string) (ok bool) {
	log := o.log("create_symlink").With(zap.String("source", src), zap.String("link", link))
	defer guard(log)

	srcKind, err := o.probe(src)
	if err != nil {
		log.Error("Failed to create symlink", zap.Error(err))
		return false
	}
	if srcKind == kindNone {
		log.Warn("Source path does not exist")
		return false
	}

	linkKind, err := o.probe(link)
	if err != nil {
		log.Error("Failed to create symlink", zap.Error(err))
		return false
	}
	if linkKind != kindNone {
		log.Warn("Link path already exists")
		return false
	}

	if err := o.FS.Symlink(src, link, srcKind == kindDir); err != nil {
		log.Error("Failed to create symlink", zap.Error(err))
		return false
	}
	return true
}
