// Package archive stores rendered images with the parameters that produced
// them in a single SQLite file.
package archive

import (
	"encoding/json"
	"time"
)

// Metadata describes the archive as a whole.
type Metadata struct {
	Name        string // Human-readable archive name
	Description string
	Generator   string // Tool and version that wrote the archive
}

// ToMap converts Metadata to a map for database insertion.
func (m Metadata) ToMap() map[string]string {
	result := make(map[string]string)

	if m.Name != "" {
		result["name"] = m.Name
	}
	if m.Description != "" {
		result["description"] = m.Description
	}
	if m.Generator != "" {
		result["generator"] = m.Generator
	}

	return result
}

// Entry is a single render to be written.
type Entry struct {
	Name      string // Unique key; writing an existing name replaces it
	Operation string
	Params    any // Marshalled to JSON
	Width     int
	Height    int
	Data      []byte // PNG data (gzip-compressed before storage)
}

// Record is a stored render as returned by Reader.
type Record struct {
	Name      string
	Operation string
	Params    json.RawMessage
	Width     int
	Height    int
	CreatedAt time.Time
	Data      []byte // Uncompressed PNG; nil in listings
}
