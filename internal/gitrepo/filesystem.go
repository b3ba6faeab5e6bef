package gitrepo

import (
	"io/fs"
	"os"
)

// FileSystem exposes the filesystem operations RepositoryManager performs outside of git.
type FileSystem interface {
	WriteFile(path string, data []byte, permissions fs.FileMode) error
}

// OSFileSystem implements FileSystem using the operating system primitives.
type OSFileSystem struct{}

// WriteFile writes data to a file with the supplied permissions.
func (OSFileSystem) WriteFile(path string, data []byte, permissions fs.FileMode) error {
	return os.WriteFile(path, data, permissions)
}
