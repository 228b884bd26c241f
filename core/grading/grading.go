// Package grading decides whether a trainee's answer matches a reference answer.
//
// Text answers are compared after normalization (case, accents, punctuation), first exactly,
// then by token overlap once French stop words are dropped. Numeric answers are compared with
// a 1% relative tolerance floored at 0.01.
//
// Every function is pure: no state, no I/O, safe for concurrent use. Ungradable input never
// fails loudly; it is reported as an incorrect answer.
package grading

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	TextSimilarityThreshold = 0.6
	KeywordHitThreshold     = 0.5

	RelativeTolerance = 0.01
	AbsoluteTolerance = 0.01

	MinTokenLength = 2
)

var (
	// optional sign, digits with an optional fraction, optional exponent
	decimalRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

	// combining diacritical marks block (U+0300..U+036F)
	combiningDiacriticals = &unicode.RangeTable{
		R16: []unicode.Range16{{Lo: 0x0300, Hi: 0x036f, Stride: 1}},
	}

	stopWords = toSet([]string{
		"le", "la", "les", "de", "des", "du", "un", "une", "et", "ou", "au", "aux",
		"pour", "par", "dans", "sur", "avec", "sans", "en", "a", "d", "l",
		"que", "qui", "quoi", "dont", "est", "sont", "etre",
		"cette", "ce", "ces", "mon", "ma", "mes", "ton", "ta", "tes", "son", "sa", "ses",
	})
)

// IsStopWord reports whether the normalized token is one of the ignored French stop words.
func IsStopWord(token string) bool {
	_, ok := stopWords[token]
	return ok
}

// Normalize lower-cases text, strips accents and replaces anything but [a-z0-9] with single spaces.
func Normalize(text string) string {
	text = strings.ToLower(text)

	// NFD splits "é" into "e" + U+0301; the marks are then dropped.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(combiningDiacriticals)))
	if stripped, _, err := transform.String(stripMarks, text); err == nil {
		text = stripped
	}

	var b strings.Builder
	b.Grow(len(text))
	space := false
	for _, r := range text {
		if ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
			continue
		}
		space = true
	}
	return b.String()
}

// Tokenize splits the normalized text into its words, in order.
func Tokenize(text string) []string {
	return strings.Fields(Normalize(text))
}

// FilterTokens drops stop words and tokens shorter than MinTokenLength, preserving order.
func FilterTokens(tokens []string) []string {
	filtered := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if len(tok) < MinTokenLength || IsStopWord(tok) {
			continue
		}
		filtered = append(filtered, tok)
	}
	return filtered
}

// Keywords returns the filtered tokens of text.
func Keywords(text string) []string {
	return FilterTokens(Tokenize(text))
}

// JaccardSimilarity returns |A∩B| / |A∪B| of both token sets.
// Two empty sets are identical (1); a single empty set shares nothing (0).
func JaccardSimilarity(a, b []string) float64 {
	setA, setB := toSet(a), toSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	var inter int
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

// KeywordHitRate returns the fraction of the reference tokens found in the answer tokens.
// It is a recall against the reference only: extra answer tokens do not lower it.
func KeywordHitRate(answer, reference []string) float64 {
	if len(reference) == 0 {
		return 0
	}
	answerSet := toSet(answer)

	var hits int
	for _, tok := range reference {
		if _, ok := answerSet[tok]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(reference))
}

// IsTextAnswerCorrect reports whether userAnswer is an acceptable match for correctAnswer.
//
// Answers equal after Normalize always match. Otherwise, with stop words dropped, the answer
// matches when the Jaccard similarity reaches TextSimilarityThreshold or when it holds at least
// KeywordHitThreshold of the reference keywords.
func IsTextAnswerCorrect(userAnswer, correctAnswer string) bool {
	if Normalize(userAnswer) == Normalize(correctAnswer) {
		return true
	}

	userTokens := Keywords(userAnswer)
	correctTokens := Keywords(correctAnswer)
	if len(userTokens) == 0 || len(correctTokens) == 0 {
		return false
	}

	similarity := JaccardSimilarity(userTokens, correctTokens)
	keywordHit := KeywordHitRate(userTokens, correctTokens)
	return similarity >= TextSimilarityThreshold || keywordHit >= KeywordHitThreshold
}

// ParseNumber coerces a numeric answer. A single comma is read as the decimal separator.
// Only plain decimals are accepted: digit separators, hex and non-finite values are rejected.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	if !decimalRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || !isFinite(f) {
		return 0, false
	}
	return f, true
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// NumbersMatch reports whether userAnswer is within tolerance of correctAnswer:
// max(|correctAnswer| * RelativeTolerance, AbsoluteTolerance).
func NumbersMatch(userAnswer, correctAnswer float64) bool {
	if !isFinite(userAnswer) || !isFinite(correctAnswer) {
		return false
	}
	tolerance := math.Max(math.Abs(correctAnswer)*RelativeTolerance, AbsoluteTolerance)
	return math.Abs(userAnswer-correctAnswer) <= tolerance
}

// IsNumberAnswerCorrect parses both answers and compares them with NumbersMatch.
// An answer that is not a number is incorrect.
func IsNumberAnswerCorrect(userAnswer, correctAnswer string) bool {
	usr, ok := ParseNumber(userAnswer)
	if !ok {
		return false
	}
	correct, ok := ParseNumber(correctAnswer)
	if !ok {
		return false
	}
	return NumbersMatch(usr, correct)
}

func toSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}
