package filesystem

import (
	"fmt"

	"github.com/GriffinCanCode/FileSystemMCP/internal/shared/types"
	"go.uber.org/zap"
)

// BasicOps handles basic file operations
type BasicOps struct {
	*Ops
}

// GetTools returns basic file operation tool definitions
func (b *BasicOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "filesystem.get_current_directory",
			Name:        "Get Current Directory",
			Description: "Gets the current working directory of the server process.",
			Parameters:  []types.Parameter{},
			Returns:     "string",
			ReadOnly:    true,
		},
		{
			ID:          "filesystem.read_file_contents",
			Name:        "Read File",
			Description: "Reads the whole contents of a file as text.",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
			},
			Returns:  "string",
			ReadOnly: true,
		},
		{
			ID:          "filesystem.write_file_contents",
			Name:        "Write File",
			Description: "Writes content to a file, creating or truncating it. Parent directories must exist.",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
				{Name: "content", Type: "string", Description: "Text to write", Required: true},
			},
			Returns:     "boolean",
			Destructive: true,
		},
		{
			ID:          "filesystem.file_or_directory_exists",
			Name:        "Check Existence",
			Description: "Checks whether a file or directory exists at the given path.",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File or directory path", Required: true},
			},
			Returns:  "boolean",
			ReadOnly: true,
		},
		{
			ID:          "filesystem.get_file_system_path",
			Name:        "Get Server Location",
			Description: "Gets the directory containing the server executable.",
			Parameters:  []types.Parameter{},
			Returns:     "string",
			ReadOnly:    true,
		},
	}
}

// GetCurrentDirectory returns the process working directory, or "" when it
// cannot be determined
func (b *BasicOps) GetCurrentDirectory() (dir string) {
	log := b.log("get_current_directory")
	defer guard(log)

	dir, err := b.FS.Getwd()
	if err != nil {
		log.Error("Failed to get current directory", zap.Error(err))
		return ""
	}
	return dir
}

// ReadFileContents returns the file's text or a message describing why it
// could not be read
func (b *BasicOps) ReadFileContents(path string) (content string) {
	content = fmt.Sprintf("Failed to read file '%s'", path)
	log := b.log("read_file_contents")
	defer guard(log)

	k, err := b.probe(path)
	if err != nil {
		log.Error("Failed to read file", zap.String("path", path), zap.Error(err))
		return fmt.Sprintf("Failed to read file '%s': %v", path, err)
	}
	if k != kindFile {
		return fmt.Sprintf("The file '%s' does not exist.", path)
	}

	data, err := b.FS.ReadFile(path)
	if err != nil {
		log.Error("Failed to read file", zap.String("path", path), zap.Error(err))
		return fmt.Sprintf("Failed to read file '%s': %v", path, err)
	}
	return string(data)
}

// WriteFileContents creates or truncates path with content
func (b *BasicOps) WriteFileContents(path, content string) (ok bool) {
	log := b.log("write_file_contents")
	defer guard(log)

	if err := b.FS.WriteFile(path, []byte(content)); err != nil {
		log.Error("Failed to write file", zap.String("path", path), zap.Error(err))
		return false
	}
	return true
}

// FileOrDirectoryExists reports whether path names a file or directory
func (b *BasicOps) FileOrDirectoryExists(path string) (exists bool) {
	log := b.log("file_or_directory_exists")
	defer guard(log)

	k, err := b.probe(path)
	if err != nil {
		log.Error("Failed to check existence", zap.String("path", path), zap.Error(err))
		return false
	}
	return k != kindNone
}

// GetFileSystemPath returns the directory holding the running executable
func (b *BasicOps) GetFileSystemPath() (dir *string) {
	log := b.log("get_file_system_path")
	defer guard(log)

	exe, err := b.Executable()
	if err != nil {
		log.Error("Failed to locate executable", zap.Error(err))
		return nil
	}
	return &exe
}
