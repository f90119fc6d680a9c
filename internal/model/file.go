package model

// StoredFile describes a file written to attachment storage
type StoredFile struct {
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}
