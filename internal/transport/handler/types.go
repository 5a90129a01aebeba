package handler

import "github.com/google/uuid"

type UploadMediaParams struct {
	UserID     string `validate:"required,max=64"`
	BusinessID string `validate:"required,max=64"`
	Caption    string `validate:"omitempty,max=255"`
}

type UploadMediaResponse struct {
	ID    string     `json:"id"`
	Links MediaLinks `json:"links"`
}

type MediaLinks struct {
	Media    string `json:"media"`
	Business string `json:"business"`
}

// MediaResponse describes one original. ThumbID stays absent until the
// worker links a thumbnail; ThumbURL is present regardless but resolves only
// after that.
type MediaResponse struct {
	ID         string     `json:"id"`
	URL        string     `json:"url"`
	ThumbURL   string     `json:"thumbUrl"`
	ThumbID    *uuid.UUID `json:"thumbId,omitempty"`
	MimeType   string     `json:"mimetype"`
	BusinessID string     `json:"businessId"`
	Caption    string     `json:"caption,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
}

type UpdateTagsRequest struct {
	Tags []string `json:"tags" validate:"required,dive,max=64"`
}
