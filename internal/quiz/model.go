package quiz

import "math"

// Kind discriminates the question variants. The set is closed; code that
// switches over it must handle every value listed in Kinds.
type Kind string

const (
	KindMCQ       Kind = "mcq"
	KindShortText Kind = "short_text"
	KindReorder   Kind = "reorder"
	KindCloze     Kind = "cloze"
	KindMatch     Kind = "match"
	KindTheory    Kind = "theory"
)

// Kinds returns every question kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindMCQ, KindShortText, KindReorder, KindCloze, KindMatch, KindTheory}
}

func (k Kind) Valid() bool {
	switch k {
	case KindMCQ, KindShortText, KindReorder, KindCloze, KindMatch, KindTheory:
		return true
	}
	return false
}

type MediaKind string

const (
	MediaText  MediaKind = "text"
	MediaImage MediaKind = "image"
	MediaAudio MediaKind = "audio"
	MediaVideo MediaKind = "video"
)

// Media is the prompt/option envelope. StartSec/EndSec clip video; EndSec 0
// plays to the end.
type Media struct {
	Kind       MediaKind `json:"kind" yaml:"kind" validate:"omitempty,oneof=text image audio video"`
	Text       string    `json:"text,omitempty" yaml:"text,omitempty"`
	URL        string    `json:"url,omitempty" yaml:"url,omitempty"`
	Alt        string    `json:"alt,omitempty" yaml:"alt,omitempty"`
	Transcript string    `json:"transcript,omitempty" yaml:"transcript,omitempty"`
	StartSec   float64   `json:"start_sec,omitempty" yaml:"start_sec,omitempty" validate:"gte=0"`
	EndSec     float64   `json:"end_sec,omitempty" yaml:"end_sec,omitempty" validate:"gte=0"`
}

type Option struct {
	ID         string `json:"id" yaml:"id" validate:"required"`
	Content    Media  `json:"content" yaml:"content"`
	ClickSound string `json:"click_sound,omitempty" yaml:"click_sound,omitempty"`
}

type Blank struct {
	ID          string   `json:"id" yaml:"id" validate:"required"`
	Options     []string `json:"options,omitempty" yaml:"options,omitempty"`
	Placeholder string   `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
}

// Segment is either literal text or a blank.
type Segment struct {
	Text  string `json:"text,omitempty" yaml:"text,omitempty"`
	Blank *Blank `json:"blank,omitempty" yaml:"blank,omitempty"`
}

type Item struct {
	ID      string `json:"id" yaml:"id" validate:"required"`
	Content Media  `json:"content" yaml:"content"`
}

type Pair struct {
	LeftID  string `json:"left_id" yaml:"left_id"`
	RightID string `json:"right_id" yaml:"right_id"`
}

// Question is a flat tagged union over Kind. Only the fields belonging to the
// question's kind are meaningful.
type Question struct {
	ID          string `json:"id" yaml:"id" validate:"required"`
	Kind        Kind   `json:"kind" yaml:"kind" validate:"required,oneof=mcq short_text reorder cloze match theory"`
	Prompt      Media  `json:"prompt" yaml:"prompt"`
	Explanation string `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	PraiseKey   string `json:"praise_key,omitempty" yaml:"praise_key,omitempty"`

	// mcq
	Options         []Option `json:"options,omitempty" yaml:"options,omitempty" validate:"omitempty,dive"`
	CorrectOptionID string   `json:"correct_option_id,omitempty" yaml:"correct_option_id,omitempty"`

	// short_text
	CorrectAnswers []string `json:"correct_answers,omitempty" yaml:"correct_answers,omitempty"`
	Placeholder    string   `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`

	// reorder
	Tokens          []string `json:"tokens,omitempty" yaml:"tokens,omitempty"`
	CorrectSentence string   `json:"correct_sentence,omitempty" yaml:"correct_sentence,omitempty"`
	CorrectOrder    []string `json:"correct_order,omitempty" yaml:"correct_order,omitempty"`

	// cloze
	Segments     []Segment         `json:"segments,omitempty" yaml:"segments,omitempty"`
	BlankAnswers map[string]string `json:"blank_answers,omitempty" yaml:"blank_answers,omitempty"`

	// match
	LeftItems    []Item `json:"left_items,omitempty" yaml:"left_items,omitempty" validate:"omitempty,dive"`
	RightItems   []Item `json:"right_items,omitempty" yaml:"right_items,omitempty" validate:"omitempty,dive"`
	CorrectPairs []Pair `json:"correct_pairs,omitempty" yaml:"correct_pairs,omitempty"`
}

// Blanks returns the blanks of a cloze question in segment order.
func (q Question) Blanks() []Blank {
	var out []Blank
	for _, s := range q.Segments {
		if s.Blank != nil {
			out = append(out, *s.Blank)
		}
	}
	return out
}

// Score summarizes an attempt. Percentage is rounded to the nearest integer.
type Score struct {
	Correct    int `json:"correct"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

func NewScore(correct, total int) Score {
	s := Score{Correct: correct, Total: total}
	if total > 0 {
		s.Percentage = int(math.Round(float64(correct) / float64(total) * 100))
	}
	return s
}

// Submission is one answer-submission record, either streamed at check time or
// collected into the final attempt payload.
type Submission struct {
	AttemptID    string  `json:"attempt_id"`
	QuestionID   string  `json:"question_id"`
	QuestionKind Kind    `json:"question_kind"`
	RawAnswer    *Answer `json:"raw_answer,omitempty"`
	Checked      bool    `json:"checked"`
	Correct      bool    `json:"correct"`
}
