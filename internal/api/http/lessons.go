package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"

	"github.com/mind-engage/mindengage-quiz/internal/lesson"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/storage"
)

// GET /lessons?course_id=&q=&limit=&offset=
func ListLessonsHandler(store lesson.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs := r.URL.Query()
		list, err := store.ListLessons(r.Context(), lesson.ListOpts{
			CourseID: qs.Get("course_id"),
			Q:        qs.Get("q"),
			Limit:    parseIntDefault(qs.Get("limit"), 50),
			Offset:   parseIntDefault(qs.Get("offset"), 0),
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /lessons/{lessonID} returns the learner-safe lesson with media URLs
// resolved.
func GetLessonHandler(store lesson.Store, bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l, err := store.GetLesson(r.Context(), chi.URLParam(r, "lessonID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		qs := make([]quiz.Question, len(l.Questions))
		for i, q := range l.Questions {
			if qs[i], err = storage.ResolveMedia(r.Context(), bs, q); err != nil {
				writeError(w, r, err)
				return
			}
		}
		l.Questions = qs
		writeJSON(w, http.StatusOK, l)
	}
}

// POST /lessons accepts a lesson as JSON, or as YAML when the content type
// says so (the same format the lessons directory uses).
func UploadLessonHandler(store lesson.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, 4<<20))
		if err != nil {
			http.Error(w, "read body", http.StatusBadRequest)
			return
		}
		var l lesson.Lesson
		if isYAML(r.Header.Get("Content-Type")) {
			err = yaml.Unmarshal(body, &l)
		} else {
			err = json.Unmarshal(body, &l)
		}
		if err != nil {
			http.Error(w, "bad lesson document: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := store.PutLesson(r.Context(), l); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": l.ID, "question_count": len(l.Questions)})
	}
}

func isYAML(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "yaml")
}
