// Package storage defines the local file-system abstraction used for
// document directories and published output.
package storage

import "github.com/starford/showcase/internal/models"

// Provider is the interface for file operations relative to a root.
type Provider interface {
	// List returns metadata for every .md file directly inside dir, sorted
	// by file name.
	List(dir string) ([]models.FileMeta, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// Exists reports whether path names an existing file.
	Exists(path string) (bool, error)
}
