package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lshigami/tutorlab/internal/model"
)

func strPtr(s string) *string { return &s }

func TestCheckAnswer_Plain(t *testing.T) {
	q := model.QuestionSnapshot{ID: 1, CorrectAnswer: strPtr("B")}

	tests := []struct {
		input string
		want  bool
	}{
		{"B", true},
		{"b", true},
		{" B ", true},
		{"(b).", true},
		{"C", false},
		{"", false},
		{"bb", false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, CheckAnswer(q, tc.input), "CheckAnswer(%q)", tc.input)
	}
}

func TestCheckAnswer_Markup(t *testing.T) {
	q := model.QuestionSnapshot{
		ID:                  2,
		CorrectAnswer:       strPtr("one half"),
		CorrectAnswerMarkup: strPtr(`$\frac{1}{2}$`),
		IsMarkupFormat:      true,
	}

	assert.True(t, CheckAnswer(q, `\frac{1}{2}`))
	assert.True(t, CheckAnswer(q, `$ \FRAC{1}{2} $`))
	assert.False(t, CheckAnswer(q, "one half"), "plain form must not be used when markup is authoritative")
}

func TestCheckAnswer_PrefersPlainWhenNotMarkup(t *testing.T) {
	q := model.QuestionSnapshot{
		ID:                  3,
		CorrectAnswer:       strPtr("12"),
		CorrectAnswerMarkup: strPtr(`$13$`),
	}

	assert.True(t, CheckAnswer(q, "12"))
	assert.False(t, CheckAnswer(q, "13"))
}

func TestCheckAnswer_FallsBackToOtherForm(t *testing.T) {
	markupOnly := model.QuestionSnapshot{ID: 4, CorrectAnswerMarkup: strPtr(`x^2`)}
	assert.True(t, CheckAnswer(markupOnly, "x2"))

	plainOnly := model.QuestionSnapshot{ID: 5, CorrectAnswer: strPtr("Paris"), IsMarkupFormat: true}
	assert.True(t, CheckAnswer(plainOnly, "paris!"))
}

func TestCheckAnswer_NoCorrectAnswer(t *testing.T) {
	assert.False(t, CheckAnswer(model.QuestionSnapshot{ID: 6}, "anything"))
}

func TestCheckAnswer_Reflexive(t *testing.T) {
	answers := []string{"B", "  42 ", "Photo-synthesis", `\sqrt{2}`, "Hello, World!"}
	for _, a := range answers {
		plain := model.QuestionSnapshot{CorrectAnswer: strPtr(a)}
		markup := model.QuestionSnapshot{CorrectAnswerMarkup: strPtr(a), IsMarkupFormat: true}
		assert.True(t, CheckAnswer(plain, a), "plain %q", a)
		assert.True(t, CheckAnswer(markup, a), "markup %q", a)
	}
}

func TestKeyFor(t *testing.T) {
	q := model.QuestionSnapshot{CorrectAnswer: strPtr("a"), CorrectAnswerMarkup: strPtr("$a$"), IsMarkupFormat: true}
	key, ok := KeyFor(q)
	assert.True(t, ok)
	assert.Equal(t, EncodingMarkup, key.Encoding)
	assert.Equal(t, "$a$", key.Text)

	q.IsMarkupFormat = false
	key, ok = KeyFor(q)
	assert.True(t, ok)
	assert.Equal(t, EncodingPlain, key.Encoding)
	assert.Equal(t, "plain", key.Encoding.String())

	_, ok = KeyFor(model.QuestionSnapshot{})
	assert.False(t, ok)
}
