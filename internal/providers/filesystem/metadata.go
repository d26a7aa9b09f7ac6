package filesystem

import (
	"sync/atomic"
	"time"

	"github.com/GriffinCanCode/FileSystemMCP/internal/shared/types"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

// MetadataOps handles file metadata operations
type MetadataOps struct {
	*Ops
}

// GetTools returns metadata operation tool definitions
func (m *MetadataOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "filesystem.get_file_or_directory_size",
			Name:        "Get Size",
			Description: "Gets the size in bytes of a file, or the total size of all files below a directory. Returns -1 on failure.",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File or directory path", Required: true},
			},
			Returns:  "number",
			ReadOnly: true,
		},
		{
			ID:          "filesystem.get_file_or_directory_last_modified",
			Name:        "Get Last Access Time",
			Description: "Gets the last access time of a file or directory.",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File or directory path", Required: true},
			},
			Returns:  "string",
			ReadOnly: true,
		},
		{
			ID:          "filesystem.get_file_mime_type",
			Name:        "Get MIME Type",
			Description: "Detects the MIME type of a file from its contents.",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
			},
			Returns:  "string",
			ReadOnly: true,
		},
	}
}

// GetFileOrDirectorySize returns the length of a file or the summed length of
// every regular file below a directory. Directory symlinks inside the tree
// are not followed. Returns -1 on failure.
func (m *MetadataOps) GetFileOrDirectorySize(path string) (size int64) {
	size = -1
	log := m.log("get_file_or_directory_size").With(zap.String("path", path))
	defer guard(log)

	info, err := m.FS.Stat(path)
	if err != nil {
		if isNotExist(err) {
			log.Warn("Path does not exist")
		} else {
			log.Error("Failed to get size", zap.Error(err))
		}
		return -1
	}
	if !info.IsDir() {
		return info.Size()
	}

	var total atomic.Int64
	err = m.FS.WalkFiles(path, func(_ string, n int64) error {
		total.Add(n)
		return nil
	})
	if err != nil {
		log.Error("Failed to get size", zap.Error(err))
		return -1
	}
	return total.Load()
}

// GetFileOrDirectoryLastModified returns the last access time of path.
// Despite the name this is the access time, not the write time.
func (m *MetadataOps) GetFileOrDirectoryLastModified(path string) (t *time.Time) {
	log := m.log("get_file_or_directory_last_modified").With(zap.String("path", path))
	defer guard(log)

	k, err := m.probe(path)
	if err != nil {
		log.Error("Failed to get last modified date", zap.Error(err))
		return nil
	}
	if k == kindNone {
		log.Warn("Path does not exist")
		return nil
	}

	at, err := m.FS.AccessTime(path)
	if err != nil {
		log.Error("Failed to get last modified date", zap.Error(err))
		return nil
	}
	return &at
}

// GetFileMimeType detects the content type of the file at path
func (m *MetadataOps) GetFileMimeType(path string) (mime *string) {
	log := m.log("get_file_mime_type").With(zap.String("path", path))
	defer guard(log)

	k, err := m.probe(path)
	if err != nil {
		log.Error("Failed to detect MIME type", zap.Error(err))
		return nil
	}
	if k != kindFile {
		log.Warn("File does not exist")
		return nil
	}

	r, err := m.FS.Open(path)
	if err != nil {
		log.Error("Failed to detect MIME type", zap.Error(err))
		return nil
	}
	defer r.Close()

	detected, err := mimetype.DetectReader(r)
	if err != nil {
		log.Error("Failed to detect MIME type", zap.Error(err))
		return nil
	}
	s := detected.String()
	return &s
}
