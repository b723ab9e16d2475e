package grading

import (
	"fmt"
	"strings"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

// Result is the outcome of evaluating one answer.
type Result struct {
	Kind     quiz.Kind
	Correct  bool
	Feedback []string // optional notes
}

// Strategy evaluates answers for a single question kind. Implementations must
// not panic and must treat a nil or wrong-shaped answer as incorrect.
type Strategy interface {
	Grade(q quiz.Question, a *quiz.Answer) Result
}

// Grader routes by question kind to the correct Strategy.
type Grader interface {
	Grade(q quiz.Question, a *quiz.Answer) Result
}

type defaultGrader struct {
	strategies map[quiz.Kind]Strategy
}

func (g *defaultGrader) Grade(q quiz.Question, a *quiz.Answer) Result {
	s, ok := g.strategies[q.Kind]
	if !ok {
		return Result{Kind: q.Kind, Feedback: []string{"no strategy available"}}
	}
	return s.Grade(q, a)
}

// Engine options

type Option func(*config)

type config struct {
	overrides map[quiz.Kind]Strategy
}

// WithStrategy replaces the built-in strategy for one kind.
func WithStrategy(k quiz.Kind, s Strategy) Option {
	return func(c *config) { c.overrides[k] = s }
}

// NewDefaultGrader installs built-in strategies for every kind.
func NewDefaultGrader(opts ...Option) Grader {
	cfg := &config{overrides: map[quiz.Kind]Strategy{}}
	for _, o := range opts {
		o(cfg)
	}
	g := &defaultGrader{strategies: builtins()}
	for k, s := range cfg.overrides {
		g.strategies[k] = s
	}
	return g
}

func builtins() map[quiz.Kind]Strategy {
	return map[quiz.Kind]Strategy{
		quiz.KindMCQ:       mcqStrategy{},
		quiz.KindShortText: shortTextStrategy{},
		quiz.KindReorder:   reorderStrategy{},
		quiz.KindCloze:     clozeStrategy{},
		quiz.KindMatch:     matchStrategy{},
		quiz.KindTheory:    theoryStrategy{},
	}
}

// Every kind must have a built-in strategy; a new kind without one fails at
// start-up instead of silently grading as incorrect.
func init() {
	b := builtins()
	for _, k := range quiz.Kinds() {
		if _, ok := b[k]; !ok {
			panic(fmt.Sprintf("grading: no strategy for kind %q", k))
		}
	}
}

var std = NewDefaultGrader()

// Evaluate reports whether a is a correct answer to q using the built-in
// strategies. Theory questions are always satisfied.
func Evaluate(q quiz.Question, a *quiz.Answer) bool {
	return std.Grade(q, a).Correct
}

// --- Strategies ---

func shaped(q quiz.Question, a *quiz.Answer) bool {
	return a != nil && a.Kind == q.Kind
}

type mcqStrategy struct{}

// Option ids are exact tokens; no normalization.
func (mcqStrategy) Grade(q quiz.Question, a *quiz.Answer) Result {
	res := Result{Kind: q.Kind}
	if !shaped(q, a) || a.Choice == "" {
		return res
	}
	known := false
	for _, o := range q.Options {
		if o.ID == q.CorrectOptionID {
			known = true
			break
		}
	}
	if !known {
		res.Feedback = append(res.Feedback, "correct option is not among options")
		return res
	}
	res.Correct = a.Choice == q.CorrectOptionID
	return res
}

type shortTextStrategy struct{}

func (shortTextStrategy) Grade(q quiz.Question, a *quiz.Answer) Result {
	res := Result{Kind: q.Kind}
	if !shaped(q, a) {
		return res
	}
	cand := Normalize(a.Text)
	if cand == "" {
		return res
	}
	for _, k := range q.CorrectAnswers {
		if Normalize(k) == cand {
			res.Correct = true
			return res
		}
	}
	return res
}

type reorderStrategy struct{}

// Tokens are joined with single spaces before normalizing, so punctuation
// inside tokens does not affect correctness.
func (reorderStrategy) Grade(q quiz.Question, a *quiz.Answer) Result {
	res := Result{Kind: q.Kind}
	if !shaped(q, a) || len(a.Order) == 0 {
		return res
	}
	target := q.CorrectSentence
	if strings.TrimSpace(target) == "" {
		target = strings.Join(q.CorrectOrder, " ")
	}
	want := Normalize(target)
	if want == "" {
		res.Feedback = append(res.Feedback, "no target sentence")
		return res
	}
	res.Correct = Normalize(strings.Join(a.Order, " ")) == want
	return res
}

type clozeStrategy struct{}

// Every expected blank must be present and exactly equal. A blank the learner
// never filled is incorrect even when its expected value is empty.
func (clozeStrategy) Grade(q quiz.Question, a *quiz.Answer) Result {
	res := Result{Kind: q.Kind}
	if !shaped(q, a) || len(q.BlankAnswers) == 0 {
		return res
	}
	for id, want := range q.BlankAnswers {
		got, ok := a.Blanks[id]
		if !ok || got != want {
			return res
		}
	}
	res.Correct = true
	return res
}

type matchStrategy struct{}

func (matchStrategy) Grade(q quiz.Question, a *quiz.Answer) Result {
	res := Result{Kind: q.Kind}
	if !shaped(q, a) || len(q.CorrectPairs) == 0 || len(a.Pairs) != len(q.CorrectPairs) {
		return res
	}
	correct := toSet(q.CorrectPairs)
	cand := toSet(a.Pairs)
	if len(cand) != len(a.Pairs) {
		res.Feedback = append(res.Feedback, "duplicate pairs")
		return res
	}
	res.Correct = setEqual(correct, cand)
	return res
}

type theoryStrategy struct{}

func (theoryStrategy) Grade(q quiz.Question, _ *quiz.Answer) Result {
	return Result{Kind: q.Kind, Correct: true}
}

// helpers

func toSet(pairs []quiz.Pair) map[quiz.Pair]struct{} {
	m := make(map[quiz.Pair]struct{}, len(pairs))
	for _, p := range pairs {
		m[p] = struct{}{}
	}
	return m
}

func setEqual(a, b map[quiz.Pair]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
