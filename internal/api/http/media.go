package http

import (
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-quiz/internal/rbac"
	"github.com/mind-engage/mindengage-quiz/internal/storage"
)

// MountMedia serves lesson media. GET is public so <audio> and <img> tags
// can load it without a bearer token; uploads need lesson:create.
func MountMedia(r chi.Router, bs storage.BlobStore, authn func(http.Handler) http.Handler) {
	// POST /media  multipart: key, file
	r.With(authn, rbac.Require(rbac.PermLessonCreate)).Post("/", func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()
		key := strings.TrimPrefix(r.FormValue("key"), "/")
		if key == "" {
			key = path.Base(hdr.Filename)
		}
		ct := hdr.Header.Get("Content-Type")
		if _, err := bs.Put(r.Context(), key, f, hdr.Size, ct); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"key": key, "url": storage.BlobScheme + key})
	})

	// GET /media/*   -> returns the blob at whatever follows /media/
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		rc, err := bs.Get(r.Context(), key)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		defer rc.Close()
		ct := mime.TypeByExtension(path.Ext(key))
		if ct == "" {
			ct = "application/octet-stream"
		}
		w.Header().Set("Content-Type", ct)
		_, _ = io.Copy(w, rc)
	})
}
