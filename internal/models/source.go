// Package models defines the file-level types shared by storage, the index and
// the service layer.
package models

import "time"

// SourceMetadata is a lightweight description of a deck source file.
type SourceMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Source is a deck source file as reported by the service layer. Indexed is
// false when the file is on disk but failed to parse.
type Source struct {
	SourceMetadata
	Content string `json:"content,omitempty"`
	Cards   int    `json:"cards"`
	Indexed bool   `json:"indexed"`
}
