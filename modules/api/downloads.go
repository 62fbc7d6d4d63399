package api

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
)

type downloadsHandler struct {
	dir string
	log *slog.Logger
}

func (h *downloadsHandler) routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/guidebook", h.serveFile("guidebook.pdf"))
	r.Get("/app", h.serveFile("holograil.zip"))
	return r
}

func (h *downloadsHandler) serveFile(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(h.dir, name)
		if _, err := os.Stat(path); err != nil {
			respondJSON(w, r, http.StatusNotFound, errorResponse{Error: name + " was not found"})
			return
		}

		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
		http.ServeFile(w, r, path)
	}
}
