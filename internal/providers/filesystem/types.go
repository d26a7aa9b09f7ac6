package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/GriffinCanCode/FileSystemMCP/internal/shared/types"
	"go.uber.org/zap"
)

// Ops provides the collaborators shared by every operation group
type Ops struct {
	FS         Accessor
	Logger     *zap.Logger
	Executable func() (string, error)
}

// log returns the sink tagged with the operation name
func (o *Ops) log(op string) *zap.Logger {
	return o.Logger.With(zap.String("operation", op))
}

// guard recovers a panic raised inside an operation and logs it as an
// unexpected failure. It must be deferred; the operation's named result
// keeps whatever sentinel it was initialised with.
func guard(log *zap.Logger) {
	if r := recover(); r != nil {
		log.Error("Unexpected failure", zap.Any("panic", r), zap.Stack("stack"))
	}
}

// kind is what a path currently refers to
type kind int

const (
	kindNone kind = iota
	kindFile
	kindDir
)

// probe stats path and classifies it, following symlinks. A missing path is
// kindNone without error.
func (o *Ops) probe(path string) (kind, error) {
	info, err := o.FS.Stat(path)
	if err != nil {
		if isNotExist(err) {
			return kindNone, nil
		}
		return kindNone, err
	}
	if info.IsDir() {
		return kindDir, nil
	}
	return kindFile, nil
}

// occupied reports whether an entry exists at path, a dangling symlink included
func (o *Ops) occupied(path string) (bool, error) {
	if _, err := o.FS.Lstat(path); err != nil {
		if isNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// isNotExist treats a non-directory path component like a missing path
func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}

func defaultExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// Success helper
func Success(value any) (*types.Result, error) {
	return &types.Result{Success: true, Data: map[string]any{"result": value}}, nil
}

// Failure helper
func Failure(message string) (*types.Result, error) {
	msg := message
	return &types.Result{Success: false, Error: &msg}, nil
}

func stringParam(params map[string]any, name string) (string, error) {
	raw, ok := params[name]
	if !ok || raw == nil {
		return "", fmt.Errorf("%s parameter required", name)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", name)
	}
	return s, nil
}

func boolParam(params map[string]any, name string, def bool) (bool, error) {
	raw, ok := params[name]
	if !ok || raw == nil {
		return def, nil
	}
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch v {
		case "true", "True", "TRUE":
			return true, nil
		case "false", "False", "FALSE":
			return false, nil
		}
	}
	return false, fmt.Errorf("%s must be a boolean", name)
}
