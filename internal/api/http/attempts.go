package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-quiz/internal/attempt"
	auth "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/rbac"
	"github.com/mind-engage/mindengage-quiz/internal/session"
	"github.com/mind-engage/mindengage-quiz/internal/storage"
)

// POST /attempts {"lesson_id": "..."}
func StartAttemptHandler(svc *attempt.Service, bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			LessonID string `json:"lesson_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.LessonID == "" {
			http.Error(w, "lesson_id required", http.StatusBadRequest)
			return
		}
		st, err := svc.Start(r.Context(), req.LessonID, auth.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, r, err)
			return
		}
		v, err := liveView(r.Context(), bs, st)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, v)
	}
}

// PUT /attempts/{attemptID}/answers/{questionID} body: quiz.Answer
func SetAnswerHandler(svc *attempt.Service, bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var a quiz.Answer
		if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		qid := chi.URLParam(r, "questionID")
		step(w, r, bs, func(attemptID, userID string) (session.Transition, error) {
			return svc.SetAnswer(r.Context(), attemptID, userID, qid, a)
		})
	}
}

// POST /attempts/{attemptID}/check
func CheckHandler(svc *attempt.Service, bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		step(w, r, bs, func(attemptID, userID string) (session.Transition, error) {
			return svc.Check(r.Context(), attemptID, userID)
		})
	}
}

// POST /attempts/{attemptID}/next
func NextHandler(svc *attempt.Service, bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		step(w, r, bs, func(attemptID, userID string) (session.Transition, error) {
			return svc.Next(r.Context(), attemptID, userID)
		})
	}
}

// POST /attempts/{attemptID}/reset-feedback
func ResetFeedbackHandler(svc *attempt.Service, bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		step(w, r, bs, func(attemptID, userID string) (session.Transition, error) {
			return svc.ResetFeedback(r.Context(), attemptID, userID)
		})
	}
}

// step runs one engine event for the caller's own attempt. Ignored events
// answer 200 with applied=false.
func step(w http.ResponseWriter, r *http.Request, bs storage.BlobStore,
	do func(attemptID, userID string) (session.Transition, error)) {
	tr, err := do(chi.URLParam(r, "attemptID"), auth.SubjectFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := liveView(r.Context(), bs, tr.State)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if tr.Completed != nil {
		v.Status = statusCompleted
		v.CanCheck, v.CanAdvance = false, false
	}
	writeJSON(w, http.StatusOK, stepResponse{
		Applied:   tr.Applied,
		Attempt:   v,
		Checked:   tr.Checked,
		Completed: tr.Completed,
	})
}

// viewer returns the user id an attempt lookup is restricted to; callers
// allowed to see every attempt get "".
func viewer(r *http.Request) string {
	if rbac.Can(r.Context(), rbac.PermAttemptAll) {
		return ""
	}
	return auth.SubjectFromContext(r.Context())
}

// GET /attempts/{attemptID}
func GetAttemptHandler(svc *attempt.Service, bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := svc.Get(r.Context(), chi.URLParam(r, "attemptID"), viewer(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		if snap.Record != nil {
			writeJSON(w, http.StatusOK, recordView(*snap.Record))
			return
		}
		v, err := liveView(r.Context(), bs, *snap.Live)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

// GET /attempts?lesson_id=&user_id=&limit=&offset=
// Learners only ever see their own completed attempts.
func ListAttemptsHandler(svc *attempt.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs := r.URL.Query()
		userID := viewer(r)
		if userID == "" {
			userID = qs.Get("user_id")
		}
		list, err := svc.List(r.Context(), attempt.ListOpts{
			UserID:   userID,
			LessonID: qs.Get("lesson_id"),
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

// GET /attempts/{attemptID}/submissions lists every checked answer in order.
func ListSubmissionsHandler(svc *attempt.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "attemptID")
		if _, err := svc.Get(r.Context(), id, viewer(r)); err != nil {
			writeError(w, r, err)
			return
		}
		subs, err := svc.Submissions(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, subs)
	}
}
