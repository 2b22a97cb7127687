package dto

import "time"

// QuestionCreateDTO is the body for adding a question to the bank.
type QuestionCreateDTO struct {
	TopicID             uint     `json:"topic_id" binding:"required"`
	SubtopicID          uint     `json:"subtopic_id" binding:"required"`
	Text                string   `json:"text" binding:"required"`
	Options             []string `json:"options" binding:"omitempty,dive,required"`
	Difficulty          int      `json:"difficulty" binding:"required,min=1,max=5"`
	CorrectAnswer       *string  `json:"correct_answer"`
	CorrectAnswerMarkup *string  `json:"correct_answer_markup"`
	IsMarkupFormat      bool     `json:"is_markup_format"`
}

// QuestionResponseDTO is the bank view of a question, answers included.
type QuestionResponseDTO struct {
	ID                  uint      `json:"id"`
	TopicID             uint      `json:"topic_id"`
	SubtopicID          uint      `json:"subtopic_id"`
	Text                string    `json:"text"`
	Options             []string  `json:"options" copier:"-"`
	Difficulty          int       `json:"difficulty"`
	CorrectAnswer       *string   `json:"correct_answer,omitempty"`
	CorrectAnswerMarkup *string   `json:"correct_answer_markup,omitempty"`
	IsMarkupFormat      bool      `json:"is_markup_format"`
	CreatedByID         uint      `json:"created_by_id"`
	CreatedAt           time.Time `json:"created_at"`
}

type ErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}
