package quiz

// Redact returns a copy of q with every correctness field cleared, so the
// question can be served to a learner before it is checked.
func Redact(q Question) Question {
	out := q
	out.CorrectOptionID = ""
	out.CorrectAnswers = nil
	out.CorrectSentence = ""
	out.CorrectOrder = nil
	out.BlankAnswers = nil
	out.CorrectPairs = nil
	out.Explanation = ""
	return out
}

// RedactAll applies Redact to every question.
func RedactAll(qs []Question) []Question {
	out := make([]Question, len(qs))
	for i, q := range qs {
		out[i] = Redact(q)
	}
	return out
}
