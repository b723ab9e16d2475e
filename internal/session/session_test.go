package session

import (
	"sync"
	"testing"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func fixedClock() func() time.Time {
	now := t0
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func mcqQ(id, correct string) quiz.Question {
	return quiz.Question{
		ID:              id,
		Kind:            quiz.KindMCQ,
		Options:         []quiz.Option{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		CorrectOptionID: correct,
	}
}

func shortQ(id string, answers ...string) quiz.Question {
	return quiz.Question{ID: id, Kind: quiz.KindShortText, CorrectAnswers: answers}
}

func theoryQ(id string) quiz.Question {
	return quiz.Question{ID: id, Kind: quiz.KindTheory, Prompt: quiz.Media{Kind: quiz.MediaText, Text: "Verbs"}}
}

type recorder struct {
	mu          sync.Mutex
	completions []Completion
	checks      []quiz.Submission
}

func (r *recorder) opts() []Option {
	return []Option{
		WithAttemptID("att-1"),
		WithLessonID("lesson-1"),
		WithUserID("u1"),
		WithClock(fixedClock()),
		OnComplete(func(c Completion) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.completions = append(r.completions, c)
		}),
		OnCheck(func(s quiz.Submission) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.checks = append(r.checks, s)
		}),
	}
}

func newController(t *testing.T, r *recorder, qs ...quiz.Question) *Controller {
	t.Helper()
	c, err := NewController(qs, r.opts()...)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return c
}

func TestNew_RejectsInvalidList(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for empty list")
	}
	if _, err := New([]quiz.Question{mcqQ("q1", "zz")}); err == nil {
		t.Fatal("expected error for dangling correct_option_id")
	}
	s, err := New([]quiz.Question{mcqQ("q1", "a")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.AttemptID == "" {
		t.Fatal("attempt id should default to a uuid")
	}
}

func TestCheck_IdempotentNoDoubleScoring(t *testing.T) {
	r := &recorder{}
	c := newController(t, r, mcqQ("q1", "a"), mcqQ("q2", "b"))
	c.SetAnswer("q1", quiz.ChoiceAnswer("a"))
	c.CheckAnswer()
	c.CheckAnswer()

	s := c.State()
	if s.CorrectCount != 1 || len(s.Checked) != 1 {
		t.Fatalf("after double check: correct=%d checked=%d", s.CorrectCount, len(s.Checked))
	}
	if s.Feedback != FeedbackCorrect || !s.Locked {
		t.Fatalf("feedback=%s locked=%v", s.Feedback, s.Locked)
	}
	if len(r.checks) != 1 {
		t.Fatalf("check callback fired %d times", len(r.checks))
	}
}

func TestCheck_ConcurrentDoubleSubmit(t *testing.T) {
	r := &recorder{}
	c := newController(t, r, mcqQ("q1", "a"), mcqQ("q2", "b"))
	c.SetAnswer("q1", quiz.ChoiceAnswer("a"))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.CheckAnswer()
		}()
	}
	wg.Wait()
	if got := c.Score(); got.Correct != 1 || got.Total != 1 {
		t.Fatalf("score after concurrent checks = %+v", got)
	}
}

func TestCheck_RequiresAnswer(t *testing.T) {
	r := &recorder{}
	c := newController(t, r, shortQ("q1", "hello"), mcqQ("q2", "a"))
	c.CheckAnswer()
	c.SetAnswer("q1", quiz.TextAnswer("   "))
	c.CheckAnswer()
	if s := c.State(); s.Locked || len(s.Checked) != 0 {
		t.Fatalf("unanswered question was checked: %+v", s)
	}
}

func TestNext_BoundaryAndSingleCompletion(t *testing.T) {
	r := &recorder{}
	c := newController(t, r, mcqQ("q1", "a"), mcqQ("q2", "b"))

	c.NextQuestion()
	if c.State().Index != 0 {
		t.Fatal("advanced before checking")
	}

	c.SetAnswer("q1", quiz.ChoiceAnswer("a"))
	c.CheckAnswer()
	c.NextQuestion()
	if s := c.State(); s.Index != 1 || s.Feedback != FeedbackIdle || s.Locked {
		t.Fatalf("after advance: %+v", s)
	}

	c.SetAnswer("q2", quiz.ChoiceAnswer("c"))
	c.CheckAnswer()
	c.NextQuestion()
	c.NextQuestion()
	c.SetAnswer("q2", quiz.ChoiceAnswer("b"))
	c.CheckAnswer()
	c.ResetFeedback()
	c.NextQuestion()

	if len(r.completions) != 1 {
		t.Fatalf("completion fired %d times", len(r.completions))
	}
	got := r.completions[0]
	if got.Score != (quiz.Score{Correct: 1, Total: 2, Percentage: 50}) {
		t.Fatalf("score = %+v", got.Score)
	}
	s := c.State()
	if !s.Done || s.Index != 1 {
		t.Fatalf("final state: done=%v index=%d", s.Done, s.Index)
	}
	if s.Answers["q2"].Choice != "c" {
		t.Fatal("answer changed after completion")
	}
}

func TestSetAnswer_StaleQuestionIgnored(t *testing.T) {
	r := &recorder{}
	c := newController(t, r, mcqQ("q1", "a"), mcqQ("q2", "b"))
	c.SetAnswer("q2", quiz.ChoiceAnswer("b"))
	if c.State().Answer("q2") != nil {
		t.Fatal("wrote answer for an inactive question")
	}
	c.SetAnswer("q1", quiz.TextAnswer("a"))
	if c.State().Answer("q1") != nil {
		t.Fatal("accepted a wrong-shaped answer")
	}
}

func TestSetAnswer_LockedIgnoredUnlessRetry(t *testing.T) {
	r := &recorder{}
	c := newController(t, r, shortQ("q1", "hello"), mcqQ("q2", "a"))
	c.SetAnswer("q1", quiz.TextAnswer("bye"))
	c.CheckAnswer()
	c.SetAnswer("q1", quiz.TextAnswer("hello"))
	s := c.State()
	if s.Answers["q1"].Text != "bye" || s.Feedback != FeedbackIncorrect || !s.Locked {
		t.Fatalf("locked question was edited: %+v", s)
	}

	retry, err := NewController([]quiz.Question{shortQ("q1", "hello"), mcqQ("q2", "a")}, WithRetry(true))
	if err != nil {
		t.Fatal(err)
	}
	retry.SetAnswer("q1", quiz.TextAnswer("bye"))
	retry.CheckAnswer()
	retry.SetAnswer("q1", quiz.TextAnswer("Hello!"))
	if s := retry.State(); s.Locked || s.Feedback != FeedbackIdle {
		t.Fatalf("retry edit should unlock: %+v", s)
	}
	retry.CheckAnswer()
	s = retry.State()
	if s.Feedback != FeedbackCorrect {
		t.Fatalf("re-check feedback = %s", s.Feedback)
	}
	if s.CorrectCount != 0 || len(s.Checked) != 1 {
		t.Fatalf("re-check changed score: correct=%d checked=%d", s.CorrectCount, len(s.Checked))
	}
}

func TestRetry_CorrectCheckStaysLocked(t *testing.T) {
	c, err := NewController([]quiz.Question{mcqQ("q1", "a"), mcqQ("q2", "a")}, WithRetry(true))
	if err != nil {
		t.Fatal(err)
	}
	c.SetAnswer("q1", quiz.ChoiceAnswer("a"))
	c.CheckAnswer()
	c.SetAnswer("q1", quiz.ChoiceAnswer("b"))
	if got := c.State().Answers["q1"].Choice; got != "a" {
		t.Fatalf("correct answer was edited to %q", got)
	}
}

func TestResetFeedback_ReCheckDoesNotDoubleCount(t *testing.T) {
	r := &recorder{}
	c := newController(t, r, mcqQ("q1", "a"), mcqQ("q2", "a"))
	c.SetAnswer("q1", quiz.ChoiceAnswer("a"))
	c.CheckAnswer()
	c.ResetFeedback()
	if s := c.State(); s.Locked || s.Feedback != FeedbackIdle {
		t.Fatalf("after reset: %+v", s)
	}
	c.CheckAnswer()
	if got := c.Score(); got.Correct != 1 || got.Total != 1 {
		t.Fatalf("score = %+v", got)
	}
	if len(r.checks) != 2 {
		t.Fatalf("expected a check record per check, got %d", len(r.checks))
	}
}

func TestScoreMath_TwoOfThree(t *testing.T) {
	r := &recorder{}
	c := newController(t, r, mcqQ("q1", "a"), mcqQ("q2", "b"), mcqQ("q3", "c"))
	for _, pick := range []struct{ id, choice string }{{"q1", "a"}, {"q2", "b"}, {"q3", "a"}} {
		c.SetAnswer(pick.id, quiz.ChoiceAnswer(pick.choice))
		c.CheckAnswer()
		c.NextQuestion()
	}
	want := quiz.Score{Correct: 2, Total: 3, Percentage: 67}
	if len(r.completions) != 1 || r.completions[0].Score != want {
		t.Fatalf("completions = %+v", r.completions)
	}
}

func TestScenario_TheoryExcludedFromDenominator(t *testing.T) {
	r := &recorder{}
	c := newController(t, r, mcqQ("q1", "b"), shortQ("q2", "I am learning"), theoryQ("q3"))

	c.SetAnswer("q1", quiz.ChoiceAnswer("b"))
	c.CheckAnswer()
	c.NextQuestion()

	c.SetAnswer("q2", quiz.TextAnswer("I learning"))
	c.CheckAnswer()
	c.NextQuestion()

	c.CheckAnswer()
	c.NextQuestion()

	if len(r.completions) != 1 {
		t.Fatalf("completion fired %d times", len(r.completions))
	}
	got := r.completions[0]
	if got.Score != (quiz.Score{Correct: 1, Total: 2, Percentage: 50}) {
		t.Fatalf("score = %+v", got.Score)
	}

	att := got.Attempt
	if att.AttemptID != "att-1" || att.LessonID != "lesson-1" || att.UserID != "u1" {
		t.Fatalf("attempt ids = %+v", att)
	}
	if !att.CompletedAt.After(att.StartedAt) {
		t.Fatalf("timestamps: started %v completed %v", att.StartedAt, att.CompletedAt)
	}
	if len(att.Answers) != 3 {
		t.Fatalf("answers = %d", len(att.Answers))
	}
	want := []struct {
		kind    quiz.Kind
		checked bool
		correct bool
		raw     bool
	}{
		{quiz.KindMCQ, true, true, true},
		{quiz.KindShortText, true, false, true},
		{quiz.KindTheory, false, false, false},
	}
	for i, w := range want {
		a := att.Answers[i]
		if a.QuestionKind != w.kind || a.Checked != w.checked || a.Correct != w.correct || (a.RawAnswer != nil) != w.raw {
			t.Errorf("answer %d = %+v", i, a)
		}
		if a.AttemptID != "att-1" {
			t.Errorf("answer %d attempt id = %q", i, a.AttemptID)
		}
	}
	if len(r.checks) != 2 {
		t.Fatalf("check callbacks = %d", len(r.checks))
	}
}

func TestTheoryFirst_AdvancesWithoutCheck(t *testing.T) {
	r := &recorder{}
	c := newController(t, r, theoryQ("t1"), mcqQ("q1", "a"))
	c.SetAnswer("t1", quiz.TextAnswer("x"))
	c.NextQuestion()
	if s := c.State(); s.Index != 1 || len(s.Checked) != 0 {
		t.Fatalf("after theory: %+v", s)
	}
}

func TestTheoryOnly_ZeroScore(t *testing.T) {
	r := &recorder{}
	c := newController(t, r, theoryQ("t1"))
	c.NextQuestion()
	if len(r.completions) != 1 {
		t.Fatal("theory-only lesson should complete")
	}
	if got := r.completions[0].Score; got != (quiz.Score{}) {
		t.Fatalf("score = %+v", got)
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	s, err := New([]quiz.Question{mcqQ("q1", "a"), mcqQ("q2", "a")}, WithClock(fixedClock()))
	if err != nil {
		t.Fatal(err)
	}
	tr := Apply(s, SetAnswer{QuestionID: "q1", Answer: quiz.ChoiceAnswer("a")}, t0)
	if !tr.Applied {
		t.Fatal("set answer not applied")
	}
	if len(s.Answers) != 0 {
		t.Fatal("input state mutated")
	}
	tr2 := Apply(tr.State, Check{}, t0)
	if tr2.Checked == nil || !tr2.Checked.Correct {
		t.Fatalf("check = %+v", tr2.Checked)
	}
	if tr.State.Locked || len(tr.State.Checked) != 0 {
		t.Fatal("intermediate state mutated by check")
	}
	if again := Apply(tr2.State, Check{}, t0); again.Applied || again.Checked != nil {
		t.Fatal("second check should be ignored")
	}
}

func TestCallbacksMayReadController(t *testing.T) {
	var c *Controller
	var seen quiz.Score
	c, err := NewController([]quiz.Question{mcqQ("q1", "a")}, OnComplete(func(Completion) {
		seen = c.Score()
	}))
	if err != nil {
		t.Fatal(err)
	}
	c.SetAnswer("q1", quiz.ChoiceAnswer("a"))
	c.CheckAnswer()
	c.NextQuestion()
	if seen.Correct != 1 {
		t.Fatalf("score seen from callback = %+v", seen)
	}
}
