package grading

import (
	"fmt"
	"math"

	"github.com/lshigami/tutorlab/internal/model"
)

// Summary is the outcome of grading a whole document.
type Summary struct {
	TotalQuestions int
	Answered       int
	Correct        int
	Score          int
}

// Percentage converts a correct count into a rounded 0-100 score.
func Percentage(correct, total int) (int, error) {
	if total <= 0 {
		return 0, fmt.Errorf("cannot score a test with %d questions", total)
	}
	if correct < 0 || correct > total {
		return 0, fmt.Errorf("correct count %d is out of valid range (0-%d)", correct, total)
	}
	return int(math.Round(float64(correct) / float64(total) * 100)), nil
}

// GradeResponse writes the verdict for one response against its question.
// Unanswered responses are left ungraded.
func GradeResponse(q model.QuestionSnapshot, r *model.ResponseItem) {
	if r.StudentAnswer == nil {
		r.IsCorrect = nil
		return
	}
	ok := CheckAnswer(q, *r.StudentAnswer)
	r.IsCorrect = &ok
}

// GradeAll re-grades every response of d in place, ignoring any previous
// verdict, and returns the resulting summary.
func GradeAll(d *model.TestData) (Summary, error) {
	if err := d.Validate(); err != nil {
		return Summary{}, err
	}
	sum := Summary{TotalQuestions: len(d.Questions)}
	for i := range d.Responses {
		r := &d.Responses[i]
		GradeResponse(d.Questions[i], r)
		if r.StudentAnswer != nil {
			sum.Answered++
		}
		if r.IsCorrect != nil && *r.IsCorrect {
			sum.Correct++
		}
	}
	score, err := Percentage(sum.Correct, sum.TotalQuestions)
	if err != nil {
		return Summary{}, err
	}
	sum.Score = score
	return sum, nil
}
