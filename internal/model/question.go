package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Question is an entry of the question bank. Executions never reference it
// directly; they carry a QuestionSnapshot taken when the attempt is created.
type Question struct {
	ID                  uint                         `gorm:"primarykey" json:"id"`
	TopicID             uint                         `json:"topic_id" gorm:"not null;index"`
	SubtopicID          uint                         `json:"subtopic_id" gorm:"not null;index"`
	Text                string                       `json:"text" gorm:"type:text;not null"`
	Options             datatypes.JSONType[[]string] `json:"options"`
	Difficulty          int                          `json:"difficulty" gorm:"not null;default:1"`
	CorrectAnswer       *string                      `json:"correct_answer,omitempty" gorm:"type:text"`
	CorrectAnswerMarkup *string                      `json:"correct_answer_markup,omitempty" gorm:"type:text"`
	IsMarkupFormat      bool                         `json:"is_markup_format" gorm:"not null;default:false"`
	CreatedByID         uint                         `json:"created_by_id" gorm:"not null;index"`
	CreatedAt           time.Time                    `json:"created_at"`
	UpdatedAt           time.Time                    `json:"updated_at"`
	DeletedAt           gorm.DeletedAt               `gorm:"index" json:"-"`
}

// Snapshot freezes the question as it is right now.
func (q Question) Snapshot() QuestionSnapshot {
	return QuestionSnapshot{
		ID:                  q.ID,
		SubtopicID:          q.SubtopicID,
		Text:                q.Text,
		Options:             append([]string(nil), q.Options.Data()...),
		Difficulty:          q.Difficulty,
		CorrectAnswer:       q.CorrectAnswer,
		CorrectAnswerMarkup: q.CorrectAnswerMarkup,
		IsMarkupFormat:      q.IsMarkupFormat,
	}
}
