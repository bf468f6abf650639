// Package storage defines the deck directory abstraction.
package storage

import "github.com/starford/flashdeck/internal/models"

// Provider is the interface for deck source file operations.
type Provider interface {
	// List returns metadata for every source file under dir (relative to the deck root).
	List(dir string) ([]models.SourceMetadata, error)
	// Read returns the raw bytes of the file at path (relative to the deck root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the deck root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to the deck root).
	Delete(path string) error
	// Move renames oldPath to newPath (both relative to the deck root).
	Move(oldPath, newPath string) error
	// Root returns the absolute deck directory.
	Root() string
	// IsSource reports whether a file name is a deck source.
	IsSource(name string) bool
}
