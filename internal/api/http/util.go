package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/mind-engage/mindengage-quiz/internal/attempt"
	"github.com/mind-engage/mindengage-quiz/internal/lesson"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, attempt.ErrAttemptNotFound), errors.Is(err, attempt.ErrLessonNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, attempt.ErrAttemptCompleted):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, quiz.ErrInvalidQuestion), errors.Is(err, lesson.ErrInvalidLesson):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.WithField("path", r.URL.Path).WithError(err).Error("request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
