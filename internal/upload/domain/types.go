package domain

import "errors"

const (
	// FormField is the multipart field carrying the file
	FormField = "file"

	MsgNoFile       = "No file provided"
	MsgUploadFailed = "Failed to upload file"
)

var (
	// ErrExists is returned by a store when the target name is taken
	ErrExists = errors.New("stored file already exists")
	// ErrNotFound is returned when a stored file does not exist
	ErrNotFound = errors.New("stored file not found")
	// ErrInvalidName is returned for names that would escape the store
	ErrInvalidName = errors.New("invalid stored file name")
)

// StoredFile describes one persisted upload
type StoredFile struct {
	Name     string `json:"name"`
	FilePath string `json:"filePath"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum"`
}

// UploadResponse is the success body of POST /api/upload
type UploadResponse struct {
	FilePath string `json:"filePath"`
}

// Limits is reported by GET /api/upload/limits. Nothing enforces it.
type Limits struct {
	AdvisoryMaxBytes int64  `json:"advisory_max_bytes"`
	Backend          string `json:"backend"`
}
