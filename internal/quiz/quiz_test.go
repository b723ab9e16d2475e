package quiz

import (
	"errors"
	"testing"
)

func mcq() Question {
	return Question{
		ID:     "q1",
		Kind:   KindMCQ,
		Prompt: Media{Kind: MediaText, Text: "Pick the greeting"},
		Options: []Option{
			{ID: "a", Content: Media{Kind: MediaText, Text: "Hello"}},
			{ID: "b", Content: Media{Kind: MediaText, Text: "Table"}},
		},
		CorrectOptionID: "a",
	}
}

func cloze() Question {
	return Question{
		ID:   "q2",
		Kind: KindCloze,
		Segments: []Segment{
			{Text: "I "},
			{Blank: &Blank{ID: "b1"}},
			{Text: " "},
			{Blank: &Blank{ID: "b2", Options: []string{"learning", "learn"}}},
			{Text: " English."},
		},
		BlankAnswers: map[string]string{"b1": "am", "b2": "learning"},
	}
}

func match() Question {
	return Question{
		ID:           "q3",
		Kind:         KindMatch,
		LeftItems:    []Item{{ID: "l1"}, {ID: "l2"}},
		RightItems:   []Item{{ID: "r1"}, {ID: "r2"}},
		CorrectPairs: []Pair{{LeftID: "l1", RightID: "r1"}, {LeftID: "l2", RightID: "r2"}},
	}
}

func TestValidate_Valid(t *testing.T) {
	qs := []Question{
		mcq(),
		cloze(),
		match(),
		{ID: "q4", Kind: KindShortText, CorrectAnswers: []string{"hello"}},
		{ID: "q5", Kind: KindReorder, Tokens: []string{"I", "am"}, CorrectSentence: "I am"},
		{ID: "q6", Kind: KindReorder, Tokens: []string{"I", "am"}, CorrectOrder: []string{"I", "am"}},
		{ID: "q7", Kind: KindTheory, Prompt: Media{Kind: MediaVideo, URL: "blob:intro.mp4", StartSec: 3, EndSec: 9}},
	}
	if err := ValidateList(qs); err != nil {
		t.Fatalf("ValidateList: %v", err)
	}
}

func TestValidate_Invalid(t *testing.T) {
	badMCQ := mcq()
	badMCQ.CorrectOptionID = "z"

	dupOption := mcq()
	dupOption.Options = append(dupOption.Options, Option{ID: "a"})

	badCloze := cloze()
	badCloze.BlankAnswers = map[string]string{"b9": "x"}

	dupPair := match()
	dupPair.CorrectPairs = []Pair{{LeftID: "l1", RightID: "r1"}, {LeftID: "l1", RightID: "r2"}}

	unknownRight := match()
	unknownRight.CorrectPairs = []Pair{{LeftID: "l1", RightID: "r9"}}

	cases := map[string]Question{
		"mcq unknown correct id":  badMCQ,
		"mcq duplicate option id": dupOption,
		"cloze unknown blank":     badCloze,
		"match reused left id":    dupPair,
		"match unknown right id":  unknownRight,
		"short_text no answers":   {ID: "s", Kind: KindShortText},
		"reorder both targets":    {ID: "r", Kind: KindReorder, Tokens: []string{"a"}, CorrectSentence: "a", CorrectOrder: []string{"a"}},
		"reorder no target":       {ID: "r", Kind: KindReorder, Tokens: []string{"a"}},
		"reorder foreign token":   {ID: "r", Kind: KindReorder, Tokens: []string{"a"}, CorrectOrder: []string{"b"}},
		"unknown kind":            {ID: "x", Kind: "essay"},
		"missing id":              {Kind: KindTheory},
		"negative clip":           {ID: "v", Kind: KindTheory, Prompt: Media{Kind: MediaVideo, StartSec: -1}},
	}
	for name, q := range cases {
		t.Run(name, func(t *testing.T) {
			err := Validate(q)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrInvalidQuestion) {
				t.Fatalf("error %v does not wrap ErrInvalidQuestion", err)
			}
		})
	}
}

func TestValidateList_DuplicateIDs(t *testing.T) {
	if err := ValidateList([]Question{mcq(), mcq()}); err == nil {
		t.Fatal("expected duplicate id error")
	}
	if err := ValidateList(nil); err == nil {
		t.Fatal("expected empty list error")
	}
}

func TestIsAnswered(t *testing.T) {
	text := func(s string) *Answer { a := TextAnswer(s); return &a }
	tests := []struct {
		name string
		q    Question
		a    *Answer
		want bool
	}{
		{"theory always", Question{Kind: KindTheory}, nil, true},
		{"nil answer", mcq(), nil, false},
		{"mcq empty", mcq(), &Answer{Kind: KindMCQ}, false},
		{"mcq picked", mcq(), &Answer{Kind: KindMCQ, Choice: "b"}, true},
		{"wrong shape", mcq(), text("a"), false},
		{"short blank", Question{Kind: KindShortText}, text("   "), false},
		{"short text", Question{Kind: KindShortText}, text(" hi "), true},
		{"reorder empty", Question{Kind: KindReorder}, &Answer{Kind: KindReorder}, false},
		{"reorder one", Question{Kind: KindReorder}, &Answer{Kind: KindReorder, Order: []string{"I"}}, true},
		{"cloze partial", cloze(), &Answer{Kind: KindCloze, Blanks: map[string]string{"b1": "am"}}, true},
		{"cloze none", cloze(), &Answer{Kind: KindCloze, Blanks: map[string]string{}}, false},
		{"match partial", match(), &Answer{Kind: KindMatch, Pairs: []Pair{{LeftID: "l1", RightID: "r1"}}}, true},
		{"match none", match(), &Answer{Kind: KindMatch}, false},
	}
	for _, tc := range tests {
		if got := IsAnswered(tc.q, tc.a); got != tc.want {
			t.Errorf("%s: IsAnswered = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestAccepts(t *testing.T) {
	if !Accepts(mcq(), ChoiceAnswer("a")) {
		t.Error("mcq should accept a choice")
	}
	if Accepts(mcq(), OrderAnswer("a")) {
		t.Error("mcq should not accept an order")
	}
	if Accepts(Question{Kind: KindTheory}, Answer{Kind: KindTheory}) {
		t.Error("theory accepts nothing")
	}
}

func TestMergeBlank_DoesNotMutate(t *testing.T) {
	a := BlanksAnswer(map[string]string{"b1": "am"})
	b := MergeBlank(a, "b2", "learning")
	if len(a.Blanks) != 1 {
		t.Fatalf("input mutated: %v", a.Blanks)
	}
	if b.Blanks["b1"] != "am" || b.Blanks["b2"] != "learning" {
		t.Fatalf("merge result %v", b.Blanks)
	}
	c := MergeBlank(Answer{Kind: KindCloze}, "b1", "x")
	if c.Blanks["b1"] != "x" {
		t.Fatalf("merge into empty answer: %v", c.Blanks)
	}
}

func TestRedact(t *testing.T) {
	q := Redact(cloze())
	if q.BlankAnswers != nil {
		t.Fatal("blank answers leaked")
	}
	if len(q.Segments) != 5 {
		t.Fatal("segments should survive redaction")
	}
	m := Redact(mcq())
	if m.CorrectOptionID != "" || len(m.Options) != 2 {
		t.Fatalf("redacted mcq = %+v", m)
	}
}

func TestNewScore(t *testing.T) {
	tests := []struct {
		correct, total, pct int
	}{
		{2, 3, 67},
		{1, 2, 50},
		{0, 0, 0},
		{1, 3, 33},
		{3, 3, 100},
	}
	for _, tc := range tests {
		if got := NewScore(tc.correct, tc.total); got.Percentage != tc.pct {
			t.Errorf("NewScore(%d,%d).Percentage = %d, want %d", tc.correct, tc.total, got.Percentage, tc.pct)
		}
	}
}
