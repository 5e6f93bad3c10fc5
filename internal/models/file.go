package models

import "time"

// FileMeta describes a document file found on local storage.
type FileMeta struct {
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
