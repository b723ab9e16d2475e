package quiz

import (
	"strings"
)

// Answer is the in-progress value for one question. Kind records which of the
// shape fields is meaningful.
type Answer struct {
	Kind   Kind              `json:"kind"`
	Choice string            `json:"choice,omitempty"`
	Text   string            `json:"text,omitempty"`
	Order  []string          `json:"order,omitempty"`
	Blanks map[string]string `json:"blanks,omitempty"`
	Pairs  []Pair            `json:"pairs,omitempty"`
}

func ChoiceAnswer(optionID string) Answer { return Answer{Kind: KindMCQ, Choice: optionID} }
func TextAnswer(text string) Answer       { return Answer{Kind: KindShortText, Text: text} }

func OrderAnswer(tokens ...string) Answer {
	return Answer{Kind: KindReorder, Order: append([]string(nil), tokens...)}
}

func BlanksAnswer(blanks map[string]string) Answer {
	cp := make(map[string]string, len(blanks))
	for k, v := range blanks {
		cp[k] = v
	}
	return Answer{Kind: KindCloze, Blanks: cp}
}

func PairsAnswer(pairs ...Pair) Answer {
	return Answer{Kind: KindMatch, Pairs: append([]Pair(nil), pairs...)}
}

// Clone returns a deep copy so stored answers never alias caller memory.
func (a Answer) Clone() Answer {
	out := a
	if a.Order != nil {
		out.Order = append([]string(nil), a.Order...)
	}
	if a.Blanks != nil {
		out.Blanks = make(map[string]string, len(a.Blanks))
		for k, v := range a.Blanks {
			out.Blanks[k] = v
		}
	}
	if a.Pairs != nil {
		out.Pairs = append([]Pair(nil), a.Pairs...)
	}
	return out
}

// MergeBlank returns a cloze answer with one blank set. The input is not
// modified; renderers call this once per edited blank.
func MergeBlank(a Answer, blankID, value string) Answer {
	out := BlanksAnswer(a.Blanks)
	out.Blanks[blankID] = value
	return out
}

// Accepts reports whether an answer has the shape the question's kind takes.
// Theory questions accept nothing.
func Accepts(q Question, a Answer) bool {
	if q.Kind == KindTheory {
		return false
	}
	return a.Kind == q.Kind
}

// IsAnswered gates checking. It is deliberately looser than evaluation: a cloze
// with one filled blank or a match with one pair counts as answered so that
// partial work can be checked (and graded incorrect).
func IsAnswered(q Question, a *Answer) bool {
	if q.Kind == KindTheory {
		return true
	}
	if a == nil || a.Kind != q.Kind {
		return false
	}
	switch q.Kind {
	case KindMCQ:
		return a.Choice != ""
	case KindShortText:
		return strings.TrimSpace(a.Text) != ""
	case KindReorder:
		return len(a.Order) > 0
	case KindCloze:
		return len(a.Blanks) > 0
	case KindMatch:
		return len(a.Pairs) > 0
	}
	return false
}
