package filesystem

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/GriffinCanCode/FileSystemMCP/internal/shared/types"
	"go.uber.org/zap"
)

// Instructions is handed to MCP clients when they initialize
const Instructions = `This is a file system server.
Use its tools to interact with the file system.
You can list directories, read and write files, and perform other file system operations.`

// Provider exposes the filesystem operations as a tool service
type Provider struct {
	*BasicOps
	*DirectoryOps
	*OperationsOps
	*MetadataOps
	*SearchOps
}

// Option configures a Provider
type Option func(*Ops)

// WithExecutable overrides how the executable's directory is located
func WithExecutable(fn func() (string, error)) Option {
	return func(o *Ops) {
		o.Executable = fn
	}
}

// NewProvider creates a filesystem provider over accessor. A nil logger
// discards diagnostics.
func NewProvider(accessor Accessor, logger *zap.Logger, opts ...Option) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	ops := &Ops{
		FS:         accessor,
		Logger:     logger,
		Executable: defaultExecutable,
	}
	for _, opt := range opts {
		opt(ops)
	}

	return &Provider{
		BasicOps:      &BasicOps{Ops: ops},
		DirectoryOps:  &DirectoryOps{Ops: ops},
		OperationsOps: &OperationsOps{Ops: ops},
		MetadataOps:   &MetadataOps{Ops: ops},
		SearchOps:     &SearchOps{Ops: ops},
	}
}

// Definition returns service metadata
func (p *Provider) Definition() types.Service {
	tools := slices.Concat(
		p.BasicOps.GetTools(),
		p.DirectoryOps.GetTools(),
		p.OperationsOps.GetTools(),
		p.MetadataOps.GetTools(),
		p.SearchOps.GetTools(),
	)

	return types.Service{
		ID:          "filesystem",
		Name:        "Filesystem Service",
		Description: "Direct file and directory operations on the host filesystem",
		Category:    types.CategoryFilesystem,
		Capabilities: []string{
			"read",
			"write",
			"list",
			"delete",
			"move",
			"copy",
			"symlink",
			"stat",
			"search",
		},
		Tools:        tools,
		Instructions: Instructions,
	}
}

// Execute runs a filesystem operation
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]any, appCtx *types.Context) (*types.Result, error) {
	if params == nil {
		params = map[string]any{}
	}

	switch toolID {
	case "filesystem.get_current_directory":
		return Success(p.GetCurrentDirectory())
	case "filesystem.get_file_system_path":
		return optional(p.GetFileSystemPath())
	case "filesystem.list_directory_contents":
		return p.list(params)
	case "filesystem.read_file_contents":
		return withPath(params, p.ReadFileContents)
	case "filesystem.write_file_contents":
		path, err := stringParam(params, "path")
		if err != nil {
			return Failure(err.Error())
		}
		content, err := stringParam(params, "content")
		if err != nil {
			return Failure(err.Error())
		}
		return Success(p.WriteFileContents(path, content))
	case "filesystem.delete_file_or_directory":
		return withPath(params, p.DeleteFileOrDirectory)
	case "filesystem.create_directory":
		return withPath(params, p.CreateDirectory)
	case "filesystem.move_file_or_directory":
		src, dst, err := pathPair(params, "sourcePath", "destinationPath")
		if err != nil {
			return Failure(err.Error())
		}
		overwrite, err := boolParam(params, "overwrite", false)
		if err != nil {
			return Failure(err.Error())
		}
		return Success(p.MoveFileOrDirectory(src, dst, overwrite))
	case "filesystem.copy_file":
		src, dst, err := pathPair(params, "sourcePath", "destinationPath")
		if err != nil {
			return Failure(err.Error())
		}
		return Success(p.CopyFile(src, dst))
	case "filesystem.create_symlink":
		src, link, err := pathPair(params, "sourcePath", "linkPath")
		if err != nil {
			return Failure(err.Error())
		}
		return Success(p.CreateSymlink(src, link))
	case "filesystem.file_or_directory_exists":
		return withPath(params, p.FileOrDirectoryExists)
	case "filesystem.get_file_or_directory_size":
		return withPath(params, p.GetFileOrDirectorySize)
	case "filesystem.get_file_or_directory_last_modified":
		path, err := stringParam(params, "path")
		if err != nil {
			return Failure(err.Error())
		}
		return optional(p.GetFileOrDirectoryLastModified(path))
	case "filesystem.get_file_mime_type":
		path, err := stringParam(params, "path")
		if err != nil {
			return Failure(err.Error())
		}
		return optional(p.GetFileMimeType(path))
	case "filesystem.find_files":
		path, pattern, err := pathPair(params, "path", "pattern")
		if err != nil {
			return Failure(err.Error())
		}
		matches := p.FindFiles(path, pattern)
		if matches == nil {
			return Success(nil)
		}
		return Success(matches)
	default:
		return Failure(fmt.Sprintf("unknown tool: %s", toolID))
	}
}

func (p *Provider) list(params map[string]any) (*types.Result, error) {
	path, err := stringParam(params, "path")
	if err != nil {
		return Failure(err.Error())
	}

	entries, err := p.ListDirectoryContents(path)
	if err != nil {
		return Failure(fmt.Sprintf("cannot list directory '%s': %v", path, err))
	}
	return Success(slices.AppendSeq(make([]*Entry, 0), entries))
}

func withPath[T any](params map[string]any, op func(string) T) (*types.Result, error) {
	path, err := stringParam(params, "path")
	if err != nil {
		return Failure(err.Error())
	}
	return Success(op(path))
}

func pathPair(params map[string]any, first, second string) (string, string, error) {
	a, err := stringParam(params, first)
	if err != nil {
		return "", "", err
	}
	b, err := stringParam(params, second)
	if err != nil {
		return "", "", err
	}
	return a, b, nil
}

// optional unwraps a pointer result so a nil pointer is stored as an
// untyped nil
func optional[T string | time.Time](v *T) (*types.Result, error) {
	if v == nil {
		return Success(nil)
	}
	return Success(*v)
}
