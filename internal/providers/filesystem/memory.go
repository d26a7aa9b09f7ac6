package filesystem

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"
)

const maxSymlinkHops = 40

// Op names an Accessor method for fault injection on Memory
type Op string

const (
	OpGetwd      Op = "getwd"
	OpStat       Op = "stat"
	OpAccessTime Op = "atime"
	OpRead       Op = "read"
	OpOpen       Op = "open"
	OpWrite      Op = "write"
	OpRemove     Op = "remove"
	OpRename     Op = "rename"
	OpCopy       Op = "copy"
	OpMkdir      Op = "mkdir"
	OpSymlink    Op = "symlink"
	OpList       Op = "list"
	OpWalk       Op = "walk"
)

type memNode struct {
	dir      bool
	link     string
	data     []byte
	mode     fs.FileMode
	modTime  time.Time
	accessed time.Time
}

// Memory is an in-memory Accessor. Paths use forward slashes; relative paths
// resolve against the working directory, "/" unless changed with Chdir.
type Memory struct {
	mu     sync.RWMutex
	nodes  map[string]*memNode
	cwd    string
	now    func() time.Time
	faults map[faultKey]error
}

type faultKey struct {
	op   Op
	path string
}

var _ Accessor = (*Memory)(nil)

// NewMemory creates an empty tree holding only the root directory
func NewMemory() *Memory {
	m := &Memory{
		nodes:  make(map[string]*memNode),
		cwd:    "/",
		now:    time.Now,
		faults: make(map[faultKey]error),
	}
	t := m.now()
	m.nodes["/"] = &memNode{dir: true, mode: fs.ModeDir | 0o755, modTime: t, accessed: t}
	return m
}

// SetClock replaces the time source used for modification and access times
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Chdir changes the working directory used for relative paths
func (m *Memory) Chdir(dir string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cwd = m.abs(dir)
}

// FailOn makes op on name return err until cleared with a nil err
func (m *Memory) FailOn(op Op, name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := m.faultKey(op, name)
	if err == nil {
		delete(m.faults, key)
		return
	}
	m.faults[key] = err
}

// Touch sets the access time of name
func (m *Memory) Touch(name string, accessed time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, _, err := m.lookup("touch", name, true)
	if err != nil {
		return err
	}
	n.accessed = accessed
	return nil
}

func (m *Memory) faultKey(op Op, name string) faultKey {
	if op == OpGetwd {
		return faultKey{op: op}
	}
	return faultKey{op: op, path: m.abs(name)}
}

func (m *Memory) fault(op Op, name string) error {
	return m.faults[m.faultKey(op, name)]
}

func (m *Memory) abs(name string) string {
	name = filepath.ToSlash(name)
	if !path.IsAbs(name) {
		name = path.Join(m.cwd, name)
	}
	return path.Clean(name)
}

// resolve maps name to the key of the node it designates, substituting
// symlinks in every component. The final component is substituted only
// when follow is set. A path whose tail does not exist resolves to the
// lexical join of the resolved prefix and the remaining components.
func (m *Memory) resolve(name string, follow bool) (string, error) {
	p := m.abs(name)
	for hops := 0; hops <= maxSymlinkHops; hops++ {
		parts := splitPath(p)
		cur := "/"
		restarted := false
		for i, part := range parts {
			next := path.Join(cur, part)
			n, ok := m.nodes[next]
			if !ok {
				return path.Join(append([]string{next}, parts[i+1:]...)...), nil
			}
			last := i == len(parts)-1
			if n.link != "" && (!last || follow) {
				target := n.link
				if !path.IsAbs(target) {
					target = path.Join(cur, target)
				}
				p = path.Join(append([]string{target}, parts[i+1:]...)...)
				restarted = true
				break
			}
			if !n.dir && !last {
				return "", syscall.ENOTDIR
			}
			cur = next
		}
		if !restarted {
			return cur, nil
		}
	}
	return "", syscall.ELOOP
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func (m *Memory) lookup(op, name string, follow bool) (*memNode, string, error) {
	key, err := m.resolve(name, follow)
	if err != nil {
		return nil, "", &fs.PathError{Op: op, Path: name, Err: err}
	}
	n, ok := m.nodes[key]
	if !ok {
		return nil, key, &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
	}
	return n, key, nil
}

// parentDir checks that the directory holding key exists
func (m *Memory) parentDir(op, name, key string) error {
	parent, ok := m.nodes[path.Dir(key)]
	if !ok {
		return &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
	}
	if !parent.dir {
		return &fs.PathError{Op: op, Path: name, Err: syscall.ENOTDIR}
	}
	return nil
}

func (m *Memory) hasChildren(key string) bool {
	prefix := strings.TrimSuffix(key, "/") + "/"
	for k := range m.nodes {
		if k != key && strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

func (m *Memory) Getwd() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.fault(OpGetwd, ""); err != nil {
		return "", err
	}
	return m.cwd, nil
}

func (m *Memory) Stat(name string) (fs.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.fault(OpStat, name); err != nil {
		return nil, err
	}
	n, _, err := m.lookup("stat", name, true)
	if err != nil {
		return nil, err
	}
	return memInfo{name: path.Base(m.abs(name)), node: n}, nil
}

func (m *Memory) Lstat(name string) (fs.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.fault(OpStat, name); err != nil {
		return nil, err
	}
	n, _, err := m.lookup("lstat", name, false)
	if err != nil {
		return nil, err
	}
	return memInfo{name: path.Base(m.abs(name)), node: n}, nil
}

func (m *Memory) AccessTime(name string) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.fault(OpAccessTime, name); err != nil {
		return time.Time{}, err
	}
	n, _, err := m.lookup("stat", name, true)
	if err != nil {
		return time.Time{}, err
	}
	return n.accessed, nil
}

func (m *Memory) ReadFile(name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fault(OpRead, name); err != nil {
		return nil, err
	}
	n, _, err := m.lookup("read", name, true)
	if err != nil {
		return nil, err
	}
	if n.dir {
		return nil, &fs.PathError{Op: "read", Path: name, Err: syscall.EISDIR}
	}
	n.accessed = m.now()
	return bytes.Clone(n.data), nil
}

func (m *Memory) Open(name string) (io.ReadCloser, error) {
	data, err := func() ([]byte, error) {
		m.mu.RLock()
		defer m.mu.RUnlock()
		if err := m.fault(OpOpen, name); err != nil {
			return nil, err
		}
		n, _, err := m.lookup("open", name, true)
		if err != nil {
			return nil, err
		}
		if n.dir {
			return nil, &fs.PathError{Op: "open", Path: name, Err: syscall.EISDIR}
		}
		return bytes.Clone(n.data), nil
	}()
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *Memory) WriteFile(name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fault(OpWrite, name); err != nil {
		return err
	}
	key, err := m.resolve(name, true)
	if err != nil {
		return &fs.PathError{Op: "write", Path: name, Err: err}
	}
	t := m.now()
	if n, ok := m.nodes[key]; ok {
		if n.dir {
			return &fs.PathError{Op: "write", Path: name, Err: syscall.EISDIR}
		}
		n.data = bytes.Clone(data)
		n.modTime = t
		n.accessed = t
		return nil
	}
	if err := m.parentDir("write", name, key); err != nil {
		return err
	}
	m.nodes[key] = &memNode{data: bytes.Clone(data), mode: 0o644, modTime: t, accessed: t}
	return nil
}

func (m *Memory) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fault(OpRemove, name); err != nil {
		return err
	}
	n, key, err := m.lookup("remove", name, false)
	if err != nil {
		return err
	}
	if n.dir && m.hasChildren(key) {
		return &fs.PathError{Op: "remove", Path: name, Err: syscall.ENOTEMPTY}
	}
	delete(m.nodes, key)
	return nil
}

func (m *Memory) RemoveAll(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fault(OpRemove, name); err != nil {
		return err
	}
	key, err := m.resolve(name, false)
	if err != nil {
		return nil
	}
	if key == "/" {
		return &fs.PathError{Op: "removeall", Path: name, Err: syscall.EBUSY}
	}
	delete(m.nodes, key)
	prefix := key + "/"
	for k := range m.nodes {
		if strings.HasPrefix(k, prefix) {
			delete(m.nodes, k)
		}
	}
	return nil
}

func (m *Memory) Rename(oldpath, newpath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fault(OpRename, oldpath); err != nil {
		return err
	}
	n, from, err := m.lookup("rename", oldpath, false)
	if err != nil {
		return err
	}
	to, err := m.resolve(newpath, false)
	if err != nil {
		return &fs.PathError{Op: "rename", Path: newpath, Err: err}
	}
	if from == to {
		return nil
	}
	if err := m.parentDir("rename", newpath, to); err != nil {
		return err
	}
	if n.dir && strings.HasPrefix(to, from+"/") {
		return &fs.PathError{Op: "rename", Path: newpath, Err: syscall.EINVAL}
	}
	if existing, ok := m.nodes[to]; ok {
		switch {
		case n.dir && !existing.dir:
			return &fs.PathError{Op: "rename", Path: newpath, Err: syscall.ENOTDIR}
		case !n.dir && existing.dir:
			return &fs.PathError{Op: "rename", Path: newpath, Err: syscall.EISDIR}
		case existing.dir && m.hasChildren(to):
			return &fs.PathError{Op: "rename", Path: newpath, Err: syscall.ENOTEMPTY}
		}
	}

	m.nodes[to] = n
	delete(m.nodes, from)
	if n.dir {
		prefix := from + "/"
		for k, child := range m.nodes {
			if strings.HasPrefix(k, prefix) {
				m.nodes[to+"/"+strings.TrimPrefix(k, prefix)] = child
				delete(m.nodes, k)
			}
		}
	}
	return nil
}

func (m *Memory) CopyFile(src, dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fault(OpCopy, src); err != nil {
		return err
	}
	n, _, err := m.lookup("copy", src, true)
	if err != nil {
		return err
	}
	if n.dir {
		return &fs.PathError{Op: "copy", Path: src, Err: syscall.EISDIR}
	}
	key, err := m.resolve(dst, true)
	if err != nil {
		return &fs.PathError{Op: "copy", Path: dst, Err: err}
	}
	if _, ok := m.nodes[key]; ok {
		return &fs.PathError{Op: "copy", Path: dst, Err: fs.ErrExist}
	}
	if err := m.parentDir("copy", dst, key); err != nil {
		return err
	}
	t := m.now()
	m.nodes[key] = &memNode{data: bytes.Clone(n.data), mode: n.mode, modTime: t, accessed: t}
	return nil
}

func (m *Memory) MkdirAll(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fault(OpMkdir, name); err != nil {
		return err
	}
	key, err := m.resolve(name, true)
	if err != nil {
		return &fs.PathError{Op: "mkdir", Path: name, Err: err}
	}
	t := m.now()
	cur := "/"
	for _, part := range splitPath(key) {
		cur = path.Join(cur, part)
		if n, ok := m.nodes[cur]; ok {
			if !n.dir {
				return &fs.PathError{Op: "mkdir", Path: name, Err: syscall.ENOTDIR}
			}
			continue
		}
		m.nodes[cur] = &memNode{dir: true, mode: fs.ModeDir | 0o755, modTime: t, accessed: t}
	}
	return nil
}

func (m *Memory) Symlink(target, link string, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fault(OpSymlink, link); err != nil {
		return err
	}
	key, err := m.resolve(link, false)
	if err != nil {
		return &fs.PathError{Op: "symlink", Path: link, Err: err}
	}
	if _, ok := m.nodes[key]; ok {
		return &fs.PathError{Op: "symlink", Path: link, Err: fs.ErrExist}
	}
	if err := m.parentDir("symlink", link, key); err != nil {
		return err
	}
	t := m.now()
	m.nodes[key] = &memNode{link: filepath.ToSlash(target), mode: fs.ModeSymlink | 0o777, modTime: t, accessed: t}
	return nil
}

func (m *Memory) ListFiles(dir string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.fault(OpList, dir); err != nil {
		return nil, err
	}
	n, key, err := m.lookup("readdir", dir, true)
	if err != nil {
		return nil, err
	}
	if !n.dir {
		return nil, &fs.PathError{Op: "readdir", Path: dir, Err: syscall.ENOTDIR}
	}

	var files []string
	for k, child := range m.nodes {
		if k == key || path.Dir(k) != key {
			continue
		}
		if child.dir {
			continue
		}
		if child.link != "" {
			if target, _, err := m.lookup("stat", k, true); err == nil && target.dir {
				continue
			}
		}
		files = append(files, path.Join(filepath.ToSlash(dir), path.Base(k)))
	}
	sort.Strings(files)
	return files, nil
}

func (m *Memory) WalkFiles(root string, fn func(path string, size int64) error) error {
	type file struct {
		rel  string
		size int64
	}

	files, err := func() ([]file, error) {
		m.mu.RLock()
		defer m.mu.RUnlock()
		if err := m.fault(OpWalk, root); err != nil {
			return nil, err
		}
		n, key, err := m.lookup("walk", root, true)
		if err != nil {
			return nil, err
		}
		if !n.dir {
			return nil, &fs.PathError{Op: "walk", Path: root, Err: syscall.ENOTDIR}
		}
		prefix := strings.TrimSuffix(key, "/") + "/"
		var files []file
		for k, child := range m.nodes {
			if !strings.HasPrefix(k, prefix) || child.dir || child.link != "" {
				continue
			}
			files = append(files, file{rel: strings.TrimPrefix(k, prefix), size: int64(len(child.data))})
		}
		return files, nil
	}()
	if err != nil {
		return err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].rel < files[j].rel })
	for _, f := range files {
		if err := fn(path.Join(filepath.ToSlash(root), f.rel), f.size); err != nil {
			return err
		}
	}
	return nil
}

// Exists reports whether name exists without following a final symlink
func (m *Memory) Exists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, _, err := m.lookup("lstat", name, false)
	return err == nil
}

// Readlink returns the stored target of a symlink
func (m *Memory) Readlink(name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, _, err := m.lookup("readlink", name, false)
	if err != nil {
		return "", err
	}
	if n.link == "" {
		return "", &fs.PathError{Op: "readlink", Path: name, Err: errors.New("not a symlink")}
	}
	return n.link, nil
}

type memInfo struct {
	name string
	node *memNode
}

func (i memInfo) Name() string {
	return i.name
}

func (i memInfo) Size() int64 {
	if i.node.dir {
		return 0
	}
	return int64(len(i.node.data))
}

func (i memInfo) Mode() fs.FileMode {
	return i.node.mode
}

func (i memInfo) ModTime() time.Time {
	return i.node.modTime
}

func (i memInfo) IsDir() bool {
	return i.node.dir
}

func (i memInfo) Sys() any {
	return nil
}
