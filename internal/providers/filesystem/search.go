package filesystem

import (
	"path/filepath"
	"sort"
	"sync"

	"github.com/GriffinCanCode/FileSystemMCP/internal/shared/types"
	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

// SearchOps handles search operations
type SearchOps struct {
	*Ops
}

// GetTools returns search operation tool definitions
func (s *SearchOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "filesystem.find_files",
			Name:        "Find Files",
			Description: "Finds files below a directory whose relative path matches a glob pattern such as **/*.go.",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Directory to search", Required: true},
				{Name: "pattern", Type: "string", Description: "Glob pattern, ** matches any number of directories", Required: true},
			},
			Returns:  "array",
			ReadOnly: true,
		},
	}
}

// FindFiles returns the slash-separated paths, relative to path, of every
// regular file whose relative path matches pattern. Returns nil on failure.
func (s *SearchOps) FindFiles(path, pattern string) (matches []string) {
	log := s.log("find_files").With(zap.String("path", path), zap.String("pattern", pattern))
	defer guard(log)

	if !doublestar.ValidatePattern(pattern) {
		log.Warn("Invalid glob pattern")
		return nil
	}

	k, err := s.probe(path)
	if err != nil {
		log.Error("Failed to find files", zap.Error(err))
		return nil
	}
	if k != kindDir {
		log.Warn("Directory does not exist")
		return nil
	}

	var mu sync.Mutex
	found := []string{}
	err = s.FS.WalkFiles(path, func(p string, _ int64) error {
		rel, err := filepath.Rel(path, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if ok, _ := doublestar.Match(pattern, rel); !ok {
			return nil
		}
		mu.Lock()
		found = append(found, rel)
		mu.Unlock()
		return nil
	})
	if err != nil {
		log.Error("Failed to find files", zap.Error(err))
		return nil
	}

	sort.Strings(found)
	return found
}
