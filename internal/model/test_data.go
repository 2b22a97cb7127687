package model

import (
	"fmt"
	"time"
)

// QuestionSnapshot is the immutable copy of a bank question held by an
// execution. Both correct-answer forms are kept; IsMarkupFormat says which
// one was authored as authoritative.
type QuestionSnapshot struct {
	ID                  uint     `json:"id"`
	SubtopicID          uint     `json:"subtopic_id"`
	Text                string   `json:"text"`
	Options             []string `json:"options"`
	Difficulty          int      `json:"difficulty"`
	CorrectAnswer       *string  `json:"correct_answer"`
	CorrectAnswerMarkup *string  `json:"correct_answer_markup"`
	IsMarkupFormat      bool     `json:"is_markup_format"`
}

// ResponseItem is the student's side of one question. StudentAnswer and
// IsCorrect stay nil until the question is answered and graded.
type ResponseItem struct {
	QuestionID    uint    `json:"question_id"`
	StudentAnswer *string `json:"student_answer"`
	IsCorrect     *bool   `json:"is_correct"`
	TimeSpent     int     `json:"time_spent"`
}

type Timing struct {
	StartTime        *time.Time `json:"start_time"`
	EndTime          *time.Time `json:"end_time"`
	TotalAllowedTime *int       `json:"total_allowed_time"`
}

// TestData is the denormalized document persisted with every execution.
// Questions and Responses are aligned by index.
type TestData struct {
	Questions []QuestionSnapshot `json:"questions"`
	Responses []ResponseItem     `json:"responses"`
	Timing    Timing             `json:"timing"`
}

// NewTestData builds a document with one empty response per question.
func NewTestData(questions []QuestionSnapshot, allowedSeconds *int) TestData {
	responses := make([]ResponseItem, len(questions))
	for i, q := range questions {
		responses[i] = ResponseItem{QuestionID: q.ID}
	}
	return TestData{
		Questions: questions,
		Responses: responses,
		Timing:    Timing{TotalAllowedTime: allowedSeconds},
	}
}

func (d TestData) Clone() TestData {
	out := TestData{Timing: d.Timing}
	out.Questions = make([]QuestionSnapshot, len(d.Questions))
	for i, q := range d.Questions {
		q.Options = append([]string(nil), q.Options...)
		out.Questions[i] = q
	}
	out.Responses = make([]ResponseItem, len(d.Responses))
	copy(out.Responses, d.Responses)
	return out
}

// Validate checks the alignment invariant between questions and responses.
func (d TestData) Validate() error {
	if len(d.Questions) != len(d.Responses) {
		return fmt.Errorf("test data has %d questions but %d responses", len(d.Questions), len(d.Responses))
	}
	for i := range d.Responses {
		if d.Responses[i].QuestionID != d.Questions[i].ID {
			return fmt.Errorf("response %d references question %d, expected %d", i, d.Responses[i].QuestionID, d.Questions[i].ID)
		}
	}
	return nil
}

// ResponseIndex returns the slot holding questionID, or -1.
func (d TestData) ResponseIndex(questionID uint) int {
	for i := range d.Responses {
		if d.Responses[i].QuestionID == questionID {
			return i
		}
	}
	return -1
}

// AllAnswered is true when every response holds an answer. An empty
// document is never considered answered.
func (d TestData) AllAnswered() bool {
	if len(d.Responses) == 0 {
		return false
	}
	for _, r := range d.Responses {
		if r.StudentAnswer == nil {
			return false
		}
	}
	return true
}
