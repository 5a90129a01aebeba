package router

import (
	"github.com/go-chi/chi/v5"

	"github.com/avolkov/photoflow/internal/transport/handler"
	"github.com/avolkov/photoflow/internal/transport/middleware"
)

func NewRouter(h *handler.Handler, authSecret []byte) chi.Router {
	r := chi.NewRouter()
	auth := middleware.Authenticator(authSecret)

	r.Route("/media", func(r chi.Router) {
		r.With(auth).Post("/", h.UploadMedia)
		r.Get("/originals/{filename}", h.ServeOriginal)
		r.Get("/thumbnails/{filename}", h.ServeThumbnail)
		r.Get("/{id}", h.GetMedia)
		r.With(auth).Put("/{id}/tags", h.UpdateMediaTags)
	})

	return r
}
