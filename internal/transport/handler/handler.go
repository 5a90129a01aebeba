package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/avolkov/photoflow/internal/config"
	"github.com/avolkov/photoflow/internal/entities"
	"github.com/avolkov/photoflow/internal/mediastore"
)

type UseCase interface {
	UploadMedia(ctx context.Context, file io.Reader, mimeType, ext string, p UploadMediaParams) (entities.Media, error)
	GetMedia(ctx context.Context, id string) (entities.Media, error)
	OpenMediaStream(ctx context.Context, bucket, filename string) (io.ReadCloser, *entities.Media, error)
	UpdateTags(ctx context.Context, id string, tags []string) error
}

type Handler struct {
	useCase   UseCase
	cfg       *config.Config
	validator *validator.Validate
	allowed   map[string]struct{}
}

func New(useCase UseCase, cfg *config.Config) *Handler {
	allowed := make(map[string]struct{}, len(cfg.Upload.AllowedTypes))
	for _, t := range cfg.Upload.AllowedTypes {
		allowed[t] = struct{}{}
	}
	return &Handler{
		useCase:   useCase,
		cfg:       cfg,
		validator: validator.New(),
		allowed:   allowed,
	}
}

// UploadMedia accepts a multipart upload, stores the original and queues
// thumbnail generation. The 201 goes out as soon as the original is durable
// and the job is accepted by the broker; the thumbnail comes later.
func (h *Handler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Upload.MaxRequestBodyMB<<20)

	maxMultipartMem := h.cfg.Upload.MaxMultipartMemoryMB
	if err := r.ParseMultipartForm(maxMultipartMem << 20); err != nil {
		writeMultipartError(w, err)
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		if strings.Contains(err.Error(), "no such file") {
			writeJSONError(w, `missing image file: form field key should be "image"`, http.StatusBadRequest)
		} else {
			writeJSONError(w, "an error occurred while uploading the file: "+err.Error(), http.StatusBadRequest)
		}
		return
	}
	defer file.Close()

	params := UploadMediaParams{
		UserID:     r.Form.Get("userId"),
		BusinessID: r.Form.Get("businessId"),
		Caption:    r.Form.Get("caption"),
	}

	if err := h.validator.Struct(params); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(validationErrorsToMap(err))
		return
	}

	// Sniff the real type from the bytes; the declared part header is not
	// trusted.
	mime, err := mimetype.DetectReader(file)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if _, err := file.Seek(0, 0); err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if _, ok := h.allowed[mime.String()]; !ok {
		writeJSONError(w, fmt.Sprintf("unsupported file type: %s", mime.String()), http.StatusBadRequest)
		return
	}

	m, err := h.useCase.UploadMedia(r.Context(), file, mime.String(), mime.Extension(), params)
	if err != nil {
		writeJSONError(w, "unable to store media, please try again later", http.StatusInternalServerError)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, UploadMediaResponse{
		ID: m.ID.String(),
		Links: MediaLinks{
			Media:    "/media/" + m.ID.String(),
			Business: "/businesses/" + m.BusinessID,
		},
	})
}

// GetMedia returns an original's metadata. The thumbnail URL it reports may
// not resolve yet.
func (h *Handler) GetMedia(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	m, err := h.useCase.GetMedia(r.Context(), id)
	if errors.Is(err, mediastore.ErrNotFound) {
		http.NotFound(w, r)
		return
	} else if err != nil {
		writeJSONError(w, "unable to fetch media, please try again later", http.StatusInternalServerError)
		return
	}

	render.JSON(w, r, MediaResponse{
		ID:         m.ID.String(),
		URL:        "/media/originals/" + m.Filename,
		ThumbURL:   "/media/thumbnails/" + m.Filename,
		ThumbID:    m.ThumbID,
		MimeType:   m.MimeType,
		BusinessID: m.BusinessID,
		Caption:    m.Caption,
		Tags:       m.Tags,
	})
}

func (h *Handler) ServeOriginal(w http.ResponseWriter, r *http.Request) {
	h.serveMedia(w, r, mediastore.BucketOriginals)
}

func (h *Handler) ServeThumbnail(w http.ResponseWriter, r *http.Request) {
	h.serveMedia(w, r, mediastore.BucketDerivatives)
}

// serveMedia streams an object's bytes to the client as they arrive from
// the store. A missing object is an ordinary 404; an I/O failure on an
// object that exists is not.
func (h *Handler) serveMedia(w http.ResponseWriter, r *http.Request, bucket string) {
	filename := chi.URLParam(r, "filename")

	stream, m, err := h.useCase.OpenMediaStream(r.Context(), bucket, filename)
	if errors.Is(err, mediastore.ErrNotFound) {
		http.NotFound(w, r)
		return
	} else if err != nil {
		writeJSONError(w, "unable to read media, please try again later", http.StatusInternalServerError)
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", m.MimeType)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, stream); err != nil {
		// Headers are gone; nothing to do but drop the connection.
		return
	}
}

// UpdateMediaTags replaces the tag list on an original.
func (h *Handler) UpdateMediaTags(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateTagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(validationErrorsToMap(err))
		return
	}

	err := h.useCase.UpdateTags(r.Context(), id, req.Tags)
	if errors.Is(err, mediastore.ErrNotFound) {
		http.NotFound(w, r)
		return
	} else if err != nil {
		writeJSONError(w, "unable to update tags, please try again later", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
