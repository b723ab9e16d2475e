package quiz

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidQuestion wraps every content-authoring problem found by Validate.
var ErrInvalidQuestion = errors.New("invalid question")

var validate = validator.New()

// Validate checks a question's content for authoring errors: missing ids,
// duplicate ids inside the question, and correctness fields that point at ids
// the question does not define.
func Validate(q Question) error {
	var errs []error
	if err := validate.Struct(q); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fmt.Errorf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
		} else {
			errs = append(errs, err)
		}
	}

	switch q.Kind {
	case KindMCQ:
		errs = append(errs, validateMCQ(q)...)
	case KindShortText:
		if len(q.CorrectAnswers) == 0 {
			errs = append(errs, errors.New("short_text needs at least one correct answer"))
		}
	case KindReorder:
		errs = append(errs, validateReorder(q)...)
	case KindCloze:
		errs = append(errs, validateCloze(q)...)
	case KindMatch:
		errs = append(errs, validateMatch(q)...)
	case KindTheory:
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w %q: %w", ErrInvalidQuestion, q.ID, errors.Join(errs...))
}

// ValidateList checks a whole question list: non-empty, unique question ids,
// and every question valid on its own.
func ValidateList(qs []Question) error {
	if len(qs) == 0 {
		return fmt.Errorf("%w: empty question list", ErrInvalidQuestion)
	}
	seen := make(map[string]struct{}, len(qs))
	var errs []error
	for _, q := range qs {
		if _, dup := seen[q.ID]; dup && q.ID != "" {
			errs = append(errs, fmt.Errorf("%w: duplicate question id %q", ErrInvalidQuestion, q.ID))
		}
		seen[q.ID] = struct{}{}
		if err := Validate(q); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func validateMCQ(q Question) []error {
	var errs []error
	if len(q.Options) == 0 {
		errs = append(errs, errors.New("mcq needs options"))
	}
	ids, dups := idSet(len(q.Options), func(i int) string { return q.Options[i].ID })
	for _, d := range dups {
		errs = append(errs, fmt.Errorf("duplicate option id %q", d))
	}
	if _, ok := ids[q.CorrectOptionID]; !ok {
		errs = append(errs, fmt.Errorf("correct_option_id %q is not an option", q.CorrectOptionID))
	}
	return errs
}

func validateReorder(q Question) []error {
	var errs []error
	if len(q.Tokens) == 0 {
		errs = append(errs, errors.New("reorder needs tokens"))
	}
	hasSentence := strings.TrimSpace(q.CorrectSentence) != ""
	hasOrder := len(q.CorrectOrder) > 0
	switch {
	case hasSentence && hasOrder:
		errs = append(errs, errors.New("reorder sets both correct_sentence and correct_order"))
	case !hasSentence && !hasOrder:
		errs = append(errs, errors.New("reorder needs correct_sentence or correct_order"))
	}
	if hasOrder {
		bag := make(map[string]int, len(q.Tokens))
		for _, t := range q.Tokens {
			bag[t]++
		}
		for _, t := range q.CorrectOrder {
			if bag[t] == 0 {
				errs = append(errs, fmt.Errorf("correct_order token %q is not in tokens", t))
				continue
			}
			bag[t]--
		}
	}
	return errs
}

func validateCloze(q Question) []error {
	var errs []error
	blanks := q.Blanks()
	if len(blanks) == 0 {
		errs = append(errs, errors.New("cloze needs at least one blank"))
	}
	ids, dups := idSet(len(blanks), func(i int) string { return blanks[i].ID })
	for _, d := range dups {
		errs = append(errs, fmt.Errorf("duplicate blank id %q", d))
	}
	for _, b := range blanks {
		if b.ID == "" {
			errs = append(errs, errors.New("blank without id"))
		}
	}
	if len(q.BlankAnswers) == 0 {
		errs = append(errs, errors.New("cloze needs blank_answers"))
	}
	for id := range q.BlankAnswers {
		if _, ok := ids[id]; !ok {
			errs = append(errs, fmt.Errorf("blank_answers key %q is not a blank", id))
		}
	}
	return errs
}

func validateMatch(q Question) []error {
	var errs []error
	left, dups := idSet(len(q.LeftItems), func(i int) string { return q.LeftItems[i].ID })
	for _, d := range dups {
		errs = append(errs, fmt.Errorf("duplicate left item id %q", d))
	}
	right, dups := idSet(len(q.RightItems), func(i int) string { return q.RightItems[i].ID })
	for _, d := range dups {
		errs = append(errs, fmt.Errorf("duplicate right item id %q", d))
	}
	if len(q.CorrectPairs) == 0 {
		errs = append(errs, errors.New("match needs correct_pairs"))
	}
	usedL := map[string]bool{}
	usedR := map[string]bool{}
	for _, p := range q.CorrectPairs {
		if _, ok := left[p.LeftID]; !ok {
			errs = append(errs, fmt.Errorf("pair left id %q is not a left item", p.LeftID))
		}
		if _, ok := right[p.RightID]; !ok {
			errs = append(errs, fmt.Errorf("pair right id %q is not a right item", p.RightID))
		}
		if usedL[p.LeftID] || usedR[p.RightID] {
			errs = append(errs, fmt.Errorf("pair %q-%q reuses an item", p.LeftID, p.RightID))
		}
		usedL[p.LeftID], usedR[p.RightID] = true, true
	}
	return errs
}

func idSet(n int, id func(int) string) (map[string]struct{}, []string) {
	set := make(map[string]struct{}, n)
	var dups []string
	for i := 0; i < n; i++ {
		k := id(i)
		if _, ok := set[k]; ok {
			dups = append(dups, k)
			continue
		}
		set[k] = struct{}{}
	}
	return set, dups
}
