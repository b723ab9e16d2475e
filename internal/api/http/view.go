package http

import (
	"context"

	"github.com/mind-engage/mindengage-quiz/internal/attempt"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/session"
	"github.com/mind-engage/mindengage-quiz/internal/storage"
)

const (
	statusInProgress = "in_progress"
	statusCompleted  = attempt.StatusCompleted
)

// AttemptView is what a learner's client renders. The current question is
// always redacted; the explanation appears only once it has been checked.
type AttemptView struct {
	AttemptID string `json:"attempt_id"`
	LessonID  string `json:"lesson_id"`
	Status    string `json:"status"`

	Index    int              `json:"index"`
	Total    int              `json:"total"`
	Question *quiz.Question   `json:"question,omitempty"`
	Answer   *quiz.Answer     `json:"answer,omitempty"`
	Feedback session.Feedback `json:"feedback,omitempty"`
	Locked   bool             `json:"locked"`

	CanCheck    bool   `json:"can_check"`
	CanAdvance  bool   `json:"can_advance"`
	Explanation string `json:"explanation,omitempty"`

	Score  quiz.Score      `json:"score"`
	Result *attempt.Record `json:"result,omitempty"`
}

func liveView(ctx context.Context, bs storage.BlobStore, st session.State) (AttemptView, error) {
	v := AttemptView{
		AttemptID: st.AttemptID,
		LessonID:  st.LessonID,
		Status:    statusInProgress,
		Index:     st.Index,
		Total:     len(st.Questions),
		Feedback:  st.Feedback,
		Locked:    st.Locked,
		Score:     st.Score(),
	}
	cur, ok := st.Current()
	if !ok {
		return v, nil
	}
	q, err := storage.ResolveMedia(ctx, bs, quiz.Redact(cur))
	if err != nil {
		return AttemptView{}, err
	}
	v.Question = &q
	v.Answer = st.Answer(cur.ID)
	v.CanCheck = !st.Locked && cur.Kind != quiz.KindTheory && quiz.IsAnswered(cur, v.Answer)
	v.CanAdvance = cur.Kind == quiz.KindTheory || st.Feedback != session.FeedbackIdle
	if st.Feedback != session.FeedbackIdle {
		v.Explanation = cur.Explanation
	}
	return v, nil
}

func recordView(r attempt.Record) AttemptView {
	return AttemptView{
		AttemptID: r.ID,
		LessonID:  r.LessonID,
		Status:    statusCompleted,
		Index:     len(r.Attempt.Answers) - 1,
		Total:     len(r.Attempt.Answers),
		Score:     r.Score,
		Result:    &r,
	}
}

// stepResponse answers every attempt mutation. Applied is false when the
// engine ignored the call; the view is still current.
type stepResponse struct {
	Applied   bool                `json:"applied"`
	Attempt   AttemptView         `json:"attempt"`
	Checked   *quiz.Submission    `json:"checked,omitempty"`
	Completed *session.Completion `json:"completed,omitempty"`
}
