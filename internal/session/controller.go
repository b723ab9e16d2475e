package session

import (
	"sync"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

// Controller drives one attempt for an embedding caller that prefers method
// calls and callbacks over Apply. All methods are safe for concurrent use and
// never panic; calls that are not valid in the current state are ignored.
//
// Once the completion callback has fired the controller is finished and every
// mutator becomes a no-op.
type Controller struct {
	mu    sync.Mutex
	state State
	now   func() time.Time

	onComplete func(Completion)
	onCheck    func(quiz.Submission)
}

// NewController validates questions and starts an attempt at the first one.
func NewController(questions []quiz.Question, opts ...Option) (*Controller, error) {
	if err := quiz.ValidateList(questions); err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	return &Controller{
		state:      newState(questions, o),
		now:        o.now,
		onComplete: o.onComplete,
		onCheck:    o.onCheck,
	}, nil
}

func (c *Controller) SetAnswer(questionID string, a quiz.Answer) {
	c.dispatch(SetAnswer{QuestionID: questionID, Answer: a})
}

func (c *Controller) CheckAnswer()   { c.dispatch(Check{}) }
func (c *Controller) NextQuestion()  { c.dispatch(Next{}) }
func (c *Controller) ResetFeedback() { c.dispatch(ResetFeedback{}) }

// State returns a snapshot of the attempt.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Score() quiz.Score { return c.State().Score() }

// dispatch applies ev under the lock and runs callbacks after releasing it,
// so a callback may read the controller without deadlocking.
func (c *Controller) dispatch(ev Event) {
	c.mu.Lock()
	tr := Apply(c.state, ev, c.now())
	c.state = tr.State
	c.mu.Unlock()

	if tr.Checked != nil && c.onCheck != nil {
		c.onCheck(*tr.Checked)
	}
	if tr.Completed != nil && c.onComplete != nil {
		c.onComplete(*tr.Completed)
	}
}
