package models

import "time"

type Session struct {
	Name string `json:"name"`
}

// ImportFile describes one stored import artifact (a ParseResult serialized
// to JSON in the object store).
type ImportFile struct {
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
	ETag         string    `json:"etag"`
	Version      string    `json:"version,omitempty"`
}

type PresignedURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
	FileName  string    `json:"fileName"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
