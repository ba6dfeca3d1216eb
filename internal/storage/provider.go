// Package storage defines the notes file-system abstraction.
package storage

import "github.com/starford/til/internal/models"

// Provider is the interface for note file operations.
type Provider interface {
	// List returns every "<topic>/<name>.md" file directly two levels below the root.
	List() ([]models.NoteFile, error)
	// Read returns the raw bytes of the file at path (relative to the root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the root).
	Write(path string, content []byte) error
}
