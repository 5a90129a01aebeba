package entities

import (
	"time"

	"github.com/google/uuid"
)

// Media is one stored object: either an uploaded original or a thumbnail
// derived from one. Thumbnails carry SourceFilename pointing back at the
// original; originals carry ThumbID once the worker has linked a thumbnail.
type Media struct {
	ID             uuid.UUID  `json:"id"`
	Bucket         string     `json:"bucket"`
	Filename       string     `json:"filename"`
	UserID         string     `json:"user_id"`
	BusinessID     string     `json:"business_id"`
	Caption        string     `json:"caption,omitempty"`
	MimeType       string     `json:"mime_type"`
	Size           int64      `json:"size"`
	SourceFilename string     `json:"source_filename,omitempty"`
	ThumbID        *uuid.UUID `json:"thumb_id,omitempty"`
	Tags           []string   `json:"tags,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// MetadataPatch lists exactly the fields a caller may change after upload.
// ThumbID is written once by the thumbnail worker; Tags may be replaced by
// the owner. A nil field is left untouched.
type MetadataPatch struct {
	ThumbID *uuid.UUID
	Tags    []string
}

// Empty reports whether the patch would change nothing.
func (p MetadataPatch) Empty() bool {
	return p.ThumbID == nil && p.Tags == nil
}
