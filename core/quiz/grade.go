package quiz

import (
	"math"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/ropeacademy/academy/core/grading"
)

// GradeQuestion grades a single answer. A blank answer is always incorrect.
// Both the answer and the reference of a choice question may name the choice or give its number.
func GradeQuestion(q Question, answer string) Verdict {
	v := Verdict{
		QuestionID: q.ID,
		Kind:       q.Kind,
		Answer:     answer,
		MaxPoints:  q.Worth(),
	}

	if strings.TrimSpace(answer) != "" {
		switch q.Kind {
		case KindNumber:
			v.Correct = grading.IsNumberAnswerCorrect(answer, q.Answer)
		case KindChoice:
			chosen, ok := matchChoice(q.Choices, answer)
			ref, refOk := matchChoice(q.Choices, q.Answer)
			v.Correct = ok && refOk && grading.Normalize(chosen) == grading.Normalize(ref)
		default:
			v.Correct = grading.IsTextAnswerCorrect(answer, q.Answer)
		}
	}

	if v.Correct {
		v.Points = v.MaxPoints
	} else {
		v.Feedback = newFeedback(q, answer)
	}
	return v
}

// matchChoice returns the choice the answer designates.
// Choices are compared normalized; a 1-based choice number also designates a choice.
func matchChoice(choices []string, answer string) (string, bool) {
	norm := grading.Normalize(answer)
	if norm == "" {
		return "", false
	}
	for _, c := range choices {
		if grading.Normalize(c) == norm {
			return c, true
		}
	}
	if n, ok := grading.ParseNumber(answer); ok && n >= 1 && n <= float64(len(choices)) && n == math.Trunc(n) {
		return choices[int(n)-1], true
	}
	return "", false
}

func newFeedback(q Question, answer string) *Feedback {
	fb := &Feedback{Expected: q.Answer}
	if q.Kind != KindText && q.Kind != "" {
		return fb
	}

	answerSet := make(map[string]struct{})
	for _, tok := range grading.Keywords(answer) {
		answerSet[tok] = struct{}{}
	}
	for _, tok := range grading.Keywords(q.Answer) {
		if _, ok := answerSet[tok]; ok {
			continue
		}
		fb.MissingKeywords = append(fb.MissingKeywords, tok)
		answerSet[tok] = struct{}{} // report each keyword once
	}

	fb.Diff = tokenDiff(answer, q.Answer)
	return fb
}

// tokenDiff returns a unified diff of the normalized words of both answers, one word per line.
func tokenDiff(answer, expected string) string {
	diff := difflib.UnifiedDiff{
		A:        tokenLines(answer),
		B:        tokenLines(expected),
		FromFile: "answer",
		ToFile:   "expected",
		Context:  1,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}
	return text
}

func tokenLines(text string) []string {
	tokens := grading.Tokenize(text)
	lines := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		lines = append(lines, tok+"\n")
	}
	return lines
}
