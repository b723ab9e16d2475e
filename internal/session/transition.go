package session

import (
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/grading"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

// Event is one input to the state machine.
type Event interface{ isEvent() }

// SetAnswer stores the answer for the active question.
type SetAnswer struct {
	QuestionID string      `json:"question_id"`
	Answer     quiz.Answer `json:"answer"`
}

// Check evaluates the active question's stored answer and locks it.
type Check struct{}

// Next advances past a checked question, or ends the attempt on the last one.
type Next struct{}

// ResetFeedback clears feedback and the lock so the learner can try again.
// Scoring is unaffected: only a question's first check counts.
type ResetFeedback struct{}

func (SetAnswer) isEvent()     {}
func (Check) isEvent()         {}
func (Next) isEvent()          {}
func (ResetFeedback) isEvent() {}

// Transition is the result of applying one event. Applied is false when the
// event was ignored. Checked and Completed are set only when the event
// produced them.
type Transition struct {
	State     State
	Applied   bool
	Checked   *quiz.Submission
	Completed *Completion
}

// Apply runs one event against s. It never fails: events that are not valid in
// the current state (a stale question id, a second check, advancing before a
// check, anything after completion) return s unchanged.
func Apply(s State, ev Event, now time.Time) Transition {
	noop := Transition{State: s}
	cur, ok := s.Current()
	if !ok || s.Done {
		return noop
	}
	switch e := ev.(type) {
	case SetAnswer:
		return setAnswer(s, cur, e)
	case Check:
		return check(s, cur)
	case Next:
		return next(s, cur, now)
	case ResetFeedback:
		if s.Feedback == FeedbackIdle && !s.Locked {
			return noop
		}
		out := s.clone()
		out.Feedback = FeedbackIdle
		out.Locked = false
		return Transition{State: out, Applied: true}
	}
	return noop
}

func setAnswer(s State, cur quiz.Question, e SetAnswer) Transition {
	if e.QuestionID != cur.ID || !quiz.Accepts(cur, e.Answer) {
		return Transition{State: s}
	}
	unlock := false
	if s.Locked {
		if !s.AllowRetry || s.Feedback != FeedbackIncorrect {
			return Transition{State: s}
		}
		unlock = true
	}
	out := s.clone()
	out.Answers[cur.ID] = e.Answer.Clone()
	out.Feedback = FeedbackIdle
	if unlock {
		out.Locked = false
	}
	return Transition{State: out, Applied: true}
}

func check(s State, cur quiz.Question) Transition {
	if s.Locked || cur.Kind == quiz.KindTheory {
		return Transition{State: s}
	}
	a := s.Answer(cur.ID)
	if !quiz.IsAnswered(cur, a) {
		return Transition{State: s}
	}
	correct := grading.Evaluate(cur, a)

	out := s.clone()
	out.Locked = true
	out.Feedback = FeedbackIncorrect
	if correct {
		out.Feedback = FeedbackCorrect
	}
	if _, seen := out.Checked[cur.ID]; !seen {
		out.Checked[cur.ID] = correct
		if correct {
			out.CorrectCount++
		}
	}
	return Transition{
		State:   out,
		Applied: true,
		Checked: &quiz.Submission{
			AttemptID:    s.AttemptID,
			QuestionID:   cur.ID,
			QuestionKind: cur.Kind,
			RawAnswer:    a,
			Checked:      true,
			Correct:      correct,
		},
	}
}

func next(s State, cur quiz.Question, now time.Time) Transition {
	if cur.Kind != quiz.KindTheory && s.Feedback == FeedbackIdle {
		return Transition{State: s}
	}
	out := s.clone()
	if !s.IsLast() {
		out.Index++
		out.Feedback = FeedbackIdle
		out.Locked = false
		return Transition{State: out, Applied: true}
	}
	out.Done = true
	out.CompletedAt = now
	return Transition{
		State:     out,
		Applied:   true,
		Completed: &Completion{Score: out.Score(), Attempt: out.attempt()},
	}
}
