package filesystem

import (
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"time"
)

// MemoryFS is an in-memory FS implementation for tests.
type MemoryFS struct {
	files map[string][]byte
}

// NewMemory creates an empty in-memory filesystem.
func NewMemory() *MemoryFS {
	return &MemoryFS{files: make(map[string][]byte)}
}

// WriteFile adds or replaces a file.
func (m *MemoryFS) WriteFile(name string, data []byte) {
	m.files[path.Clean(name)] = data
}

func (m *MemoryFS) Stat(name string) (fs.FileInfo, error) {
	name = path.Clean(name)
	if data, ok := m.files[name]; ok {
		return memFileInfo{name: path.Base(name), size: int64(len(data))}, nil
	}
	if m.isDir(name) {
		return memFileInfo{name: path.Base(name), dir: true}, nil
	}
	return nil, &fs.PathError{Op: "stat", Path: name, Err: os.ErrNotExist}
}

func (m *MemoryFS) ReadFile(name string) ([]byte, error) {
	if data, ok := m.files[path.Clean(name)]; ok {
		return data, nil
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: os.ErrNotExist}
}

func (m *MemoryFS) ReadDir(name string) ([]fs.DirEntry, error) {
	name = path.Clean(name)
	if !m.isDir(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: os.ErrNotExist}
	}
	seen := make(map[string]bool)
	var entries []fs.DirEntry
	for p, data := range m.files {
		dir, base := path.Split(p)
		if path.Clean(dir) != name || seen[base] {
			continue
		}
		seen[base] = true
		entries = append(entries, memDirEntry{info: memFileInfo{name: base, size: int64(len(data))}})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

func (m *MemoryFS) isDir(name string) bool {
	prefix := name + "/"
	if name == "." {
		prefix = ""
	}
	for p := range m.files {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

type memFileInfo struct {
	name string
	size int64
	dir  bool
}

func (fi memFileInfo) Name() string       { return fi.name }
func (fi memFileInfo) Size() int64        { return fi.size }
func (fi memFileInfo) Mode() fs.FileMode  { return 0644 }
func (fi memFileInfo) ModTime() time.Time { return time.Time{} }
func (fi memFileInfo) IsDir() bool        { return fi.dir }
func (fi memFileInfo) Sys() interface{}   { return nil }

type memDirEntry struct {
	info memFileInfo
}

func (e memDirEntry) Name() string               { return e.info.name }
func (e memDirEntry) IsDir() bool                { return e.info.dir }
func (e memDirEntry) Type() fs.FileMode          { return e.info.Mode().Type() }
func (e memDirEntry) Info() (fs.FileInfo, error) { return e.info, nil }
