// Package filesystem provides the file access layer for auditscope.
//
// It contains the FS interface used to inject filesystems into the
// classifier and scanner, the OS-backed implementation, and the
// encoding-aware content source that exposes report files as lines.
package filesystem

import (
	"io/fs"
	"os"
)

// FS is the narrow filesystem interface the engine consumes. Tests
// inject an in-memory implementation.
type FS interface {
	Stat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	ReadDir(name string) ([]fs.DirEntry, error)
}

// osFS implements FS using the OS filesystem
type osFS struct{}

// NewOS creates a new OS filesystem implementation
func NewOS() FS {
	return &osFS{}
}

func (o *osFS) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}

func (o *osFS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

func (o *osFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return os.ReadDir(name)
}
