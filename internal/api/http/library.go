package http

import (
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	auth "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/game"
	"github.com/mind-engage/mindengage-quiz/internal/library"
	syncx "github.com/mind-engage/mindengage-quiz/internal/sync"
)

const (
	maxUploadMemory = 32 << 20
	maxDocumentSize = 8 << 20
)

// POST /api/library (multipart: file=quiz.xml|quiz.zip, images=..., title=...)
//
// A zip carries the document at its root plus images in any layout. A bare
// XML document may be sent with its images as repeated "images" parts.
func UploadLibraryHandler(lib *library.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			http.Error(w, "multipart form required", http.StatusBadRequest)
			return
		}
		defer r.MultipartForm.RemoveAll()

		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		title := strings.TrimSpace(r.FormValue("title"))
		if title == "" {
			title = library.TitleFromFilename(hdr.Filename)
		}

		var e library.Entry
		if strings.EqualFold(path.Ext(hdr.Filename), ".zip") {
			e, err = lib.ImportArchive(r.Context(), title, f, hdr.Size)
		} else {
			e, err = importDocument(r, lib, title, f)
		}
		if err != nil {
			respondError(w, r, err)
			return
		}
		hlog.FromRequest(r).Info().Str("quiz_id", e.ID).Str("title", e.Title).Msg("quiz uploaded")
		respondJSON(w, http.StatusCreated, e)
	}
}

func importDocument(r *http.Request, lib *library.Service, title string, f multipart.File) (library.Entry, error) {
	doc, err := io.ReadAll(io.LimitReader(f, maxDocumentSize))
	if err != nil {
		return library.Entry{}, err
	}

	var uploads []library.Upload
	for _, fh := range r.MultipartForm.File["images"] {
		imf, err := fh.Open()
		if err != nil {
			return library.Entry{}, err
		}
		defer imf.Close()
		uploads = append(uploads, library.Upload{Name: fh.Filename, Body: imf})
	}
	return lib.ImportDocument(r.Context(), title, doc, uploads)
}

// GET /api/library
func ListLibraryHandler(lib *library.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := lib.List(r.Context())
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}

// DELETE /api/library/{id}
func DeleteLibraryHandler(lib *library.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := lib.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
			respondError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// POST /api/library/{id}/open loads the quiz into the live session.
func OpenLibraryHandler(lib *library.Service, sess *game.Session, events EventLog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		q, e, err := lib.Open(r.Context(), id)
		if err != nil {
			respondError(w, r, err)
			return
		}
		if err := sess.Load(q, e.ID); err != nil {
			respondError(w, r, err)
			return
		}
		if err := events.Record(r.Context(), syncx.TypeQuizLoaded, e.ID, map[string]any{
			"title": e.Title,
			"by":    auth.SubjectFromContext(r.Context()),
		}); err != nil {
			hlog.FromRequest(r).Warn().Err(err).Msg("record quiz loaded")
		}
		respondJSON(w, http.StatusOK, sess.Snapshot())
	}
}
