package testutil

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryFS implements types.FS with in-memory storage, including the
// symlink, rename, and readdir operations the link engine and backup
// store depend on.
type MemoryFS struct {
	mu    sync.RWMutex
	nodes map[string]*fileNode

	// Error injection: operations touching these paths fail.
	errorPaths map[string]error

	// Symlink-only injection: only Symlink calls creating these paths
	// fail, so earlier stats on the same path still succeed.
	symlinkErrorPaths map[string]error
}

// fileNode represents a file, directory, or symlink in memory
type fileNode struct {
	mode     fs.FileMode
	modTime  time.Time
	content  []byte
	isDir    bool
	isLink   bool
	linkDest string
}

// NewMemoryFS creates a new in-memory filesystem with a root directory.
func NewMemoryFS() *MemoryFS {
	return &MemoryFS{
		nodes: map[string]*fileNode{
			"/": {mode: 0755 | fs.ModeDir, modTime: time.Now(), isDir: true},
		},
		errorPaths:        make(map[string]error),
		symlinkErrorPaths: make(map[string]error),
	}
}

// InjectError makes every operation on path fail with err. Used to
// simulate permission failures.
func (m *MemoryFS) InjectError(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorPaths[filepath.Clean(path)] = err
}

// InjectSymlinkError makes only Symlink calls creating path fail with
// err. Used to exercise rollback paths after a successful move.
func (m *MemoryFS) InjectSymlinkError(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.symlinkErrorPaths[filepath.Clean(path)] = err
}

func (m *MemoryFS) checkError(path string) error {
	if err, ok := m.errorPaths[filepath.Clean(path)]; ok {
		return err
	}
	return nil
}

func (m *MemoryFS) get(path string) (*fileNode, bool) {
	n, ok := m.nodes[filepath.Clean(path)]
	return n, ok
}

// resolve follows symlink chains to a terminal node.
func (m *MemoryFS) resolve(path string) (*fileNode, string, error) {
	path = filepath.Clean(path)
	for depth := 0; depth < 16; depth++ {
		n, ok := m.nodes[path]
		if !ok {
			return nil, path, &fs.PathError{Op: "stat", Path: path, Err: fs.ErrNotExist}
		}
		if !n.isLink {
			return n, path, nil
		}
		dest := n.linkDest
		if !filepath.IsAbs(dest) {
			dest = filepath.Join(filepath.Dir(path), dest)
		}
		path = filepath.Clean(dest)
	}
	return nil, path, &fs.PathError{Op: "stat", Path: path, Err: fs.ErrInvalid}
}

func (m *MemoryFS) Stat(name string) (fs.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.checkError(name); err != nil {
		return nil, err
	}
	n, resolved, err := m.resolve(name)
	if err != nil {
		return nil, err
	}
	return &memFileInfo{name: filepath.Base(resolved), node: n}, nil
}

func (m *MemoryFS) Lstat(name string) (fs.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.checkError(name); err != nil {
		return nil, err
	}
	n, ok := m.get(name)
	if !ok {
		return nil, &fs.PathError{Op: "lstat", Path: name, Err: fs.ErrNotExist}
	}
	return &memFileInfo{name: filepath.Base(filepath.Clean(name)), node: n}, nil
}

func (m *MemoryFS) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.checkError(name); err != nil {
		return nil, err
	}
	n, _, err := m.resolve(name)
	if err != nil {
		return nil, err
	}
	if n.isDir {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}
	out := make([]byte, len(n.content))
	copy(out, n.content)
	return out, nil
}

// WriteFile stores content, creating parent directories as a test
// convenience.
func (m *MemoryFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkError(name); err != nil {
		return err
	}
	name = filepath.Clean(name)
	m.mkdirAllLocked(filepath.Dir(name))

	content := make([]byte, len(data))
	copy(content, data)
	m.nodes[name] = &fileNode{mode: perm, modTime: time.Now(), content: content}
	return nil
}

func (m *MemoryFS) MkdirAll(path string, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkError(path); err != nil {
		return err
	}
	m.mkdirAllLocked(filepath.Clean(path))
	return nil
}

func (m *MemoryFS) mkdirAllLocked(path string) {
	path = filepath.Clean(path)
	if path == "/" || path == "." {
		return
	}
	m.mkdirAllLocked(filepath.Dir(path))
	if _, ok := m.nodes[path]; !ok {
		m.nodes[path] = &fileNode{mode: 0755 | fs.ModeDir, modTime: time.Now(), isDir: true}
	}
}

func (m *MemoryFS) ReadDir(name string) ([]fs.DirEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.checkError(name); err != nil {
		return nil, err
	}
	n, resolved, err := m.resolve(name)
	if err != nil {
		return nil, err
	}
	if !n.isDir {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}

	var names []string
	prefix := resolved
	if prefix != "/" {
		prefix += "/"
	}
	for p := range m.nodes {
		if p == resolved || !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := strings.TrimPrefix(p, prefix)
		if !strings.Contains(rest, "/") {
			names = append(names, rest)
		}
	}
	sort.Strings(names)

	entries := make([]fs.DirEntry, 0, len(names))
	for _, base := range names {
		child := m.nodes[filepath.Join(resolved, base)]
		entries = append(entries, &memDirEntry{name: base, node: child})
	}
	return entries, nil
}

func (m *MemoryFS) Symlink(oldname, newname string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkError(newname); err != nil {
		return err
	}
	if err, ok := m.symlinkErrorPaths[filepath.Clean(newname)]; ok {
		return err
	}
	newname = filepath.Clean(newname)
	if _, ok := m.nodes[newname]; ok {
		return &fs.PathError{Op: "symlink", Path: newname, Err: fs.ErrExist}
	}
	if _, ok := m.nodes[filepath.Dir(newname)]; !ok {
		return &fs.PathError{Op: "symlink", Path: newname, Err: fs.ErrNotExist}
	}
	m.nodes[newname] = &fileNode{
		mode:     0777 | fs.ModeSymlink,
		modTime:  time.Now(),
		isLink:   true,
		linkDest: oldname,
	}
	return nil
}

func (m *MemoryFS) Readlink(name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.checkError(name); err != nil {
		return "", err
	}
	n, ok := m.get(name)
	if !ok {
		return "", &fs.PathError{Op: "readlink", Path: name, Err: fs.ErrNotExist}
	}
	if !n.isLink {
		return "", &fs.PathError{Op: "readlink", Path: name, Err: fs.ErrInvalid}
	}
	return n.linkDest, nil
}

func (m *MemoryFS) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkError(name); err != nil {
		return err
	}
	name = filepath.Clean(name)
	n, ok := m.nodes[name]
	if !ok {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
	}
	if n.isDir && m.hasChildrenLocked(name) {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrInvalid}
	}
	delete(m.nodes, name)
	return nil
}

func (m *MemoryFS) RemoveAll(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkError(path); err != nil {
		return err
	}
	path = filepath.Clean(path)
	for p := range m.nodes {
		if p == path || strings.HasPrefix(p, path+"/") {
			delete(m.nodes, p)
		}
	}
	return nil
}

func (m *MemoryFS) Rename(oldpath, newpath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkError(oldpath); err != nil {
		return err
	}
	if err := m.checkError(newpath); err != nil {
		return err
	}
	oldpath = filepath.Clean(oldpath)
	newpath = filepath.Clean(newpath)

	if _, ok := m.nodes[oldpath]; !ok {
		return &fs.PathError{Op: "rename", Path: oldpath, Err: fs.ErrNotExist}
	}
	if _, ok := m.nodes[filepath.Dir(newpath)]; !ok {
		return &fs.PathError{Op: "rename", Path: newpath, Err: fs.ErrNotExist}
	}

	// Move the node and, for directories, the whole subtree.
	moved := map[string]*fileNode{}
	for p, n := range m.nodes {
		if p == oldpath {
			moved[newpath] = n
			delete(m.nodes, p)
		} else if strings.HasPrefix(p, oldpath+"/") {
			moved[newpath+strings.TrimPrefix(p, oldpath)] = n
			delete(m.nodes, p)
		}
	}
	for p, n := range moved {
		m.nodes[p] = n
	}
	return nil
}

func (m *MemoryFS) hasChildrenLocked(path string) bool {
	prefix := path
	if prefix != "/" {
		prefix += "/"
	}
	for p := range m.nodes {
		if p != path && strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

// memFileInfo implements fs.FileInfo
type memFileInfo struct {
	name string
	node *fileNode
}

func (i *memFileInfo) Name() string       { return i.name }
func (i *memFileInfo) Size() int64        { return int64(len(i.node.content)) }
func (i *memFileInfo) Mode() fs.FileMode  { return i.node.mode }
func (i *memFileInfo) ModTime() time.Time { return i.node.modTime }
func (i *memFileInfo) IsDir() bool        { return i.node.isDir }
func (i *memFileInfo) Sys() interface{}   { return nil }

// memDirEntry implements fs.DirEntry
type memDirEntry struct {
	name string
	node *fileNode
}

func (e *memDirEntry) Name() string { return e.name }
func (e *memDirEntry) IsDir() bool  { return e.node.isDir }
func (e *memDirEntry) Type() fs.FileMode {
	return e.node.mode.Type()
}
func (e *memDirEntry) Info() (fs.FileInfo, error) {
	return &memFileInfo{name: e.name, node: e.node}, nil
}
