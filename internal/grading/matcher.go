// Package grading decides whether submitted answers match a question's
// correct answer and turns graded responses into a score.
package grading

import (
	"strings"

	"github.com/lshigami/tutorlab/internal/model"
)

type Encoding int

const (
	EncodingPlain Encoding = iota
	EncodingMarkup
)

func (e Encoding) String() string {
	if e == EncodingMarkup {
		return "markup"
	}
	return "plain"
}

// AnswerKey is the single correct-answer form a question is graded against.
type AnswerKey struct {
	Encoding Encoding
	Text     string
}

// KeyFor picks the authoritative correct-answer form of q, falling back to
// the other form when the preferred one is missing. ok is false when the
// question carries neither.
func KeyFor(q model.QuestionSnapshot) (AnswerKey, bool) {
	markup := AnswerKey{Encoding: EncodingMarkup}
	plain := AnswerKey{Encoding: EncodingPlain}
	hasMarkup := q.CorrectAnswerMarkup != nil
	hasPlain := q.CorrectAnswer != nil
	if hasMarkup {
		markup.Text = *q.CorrectAnswerMarkup
	}
	if hasPlain {
		plain.Text = *q.CorrectAnswer
	}

	preferred, fallback := plain, markup
	hasPreferred, hasFallback := hasPlain, hasMarkup
	if q.IsMarkupFormat {
		preferred, fallback = markup, plain
		hasPreferred, hasFallback = hasMarkup, hasPlain
	}
	switch {
	case hasPreferred:
		return preferred, true
	case hasFallback:
		return fallback, true
	}
	return AnswerKey{}, false
}

// Matches compares submitted against the key. Both encodings reduce to
// lowercase letters and digits before comparison.
func (k AnswerKey) Matches(submitted string) bool {
	return normalize(submitted) == normalize(k.Text)
}

// CheckAnswer reports whether submitted is equivalent to the correct answer
// of q once case, surrounding whitespace and punctuation are ignored.
func CheckAnswer(q model.QuestionSnapshot, submitted string) bool {
	key, ok := KeyFor(q)
	if !ok {
		return false
	}
	return key.Matches(submitted)
}

func normalize(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
