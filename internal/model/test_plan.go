package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TimingMode string

const (
	TimingModeTimed   TimingMode = "TIMED"
	TimingModeUntimed TimingMode = "UNTIMED"
)

// PlanConfig enumerates what a plan asks. It is fixed once the plan exists.
type PlanConfig struct {
	TopicIDs       []uint `json:"topic_ids"`
	SubtopicIDs    []uint `json:"subtopic_ids"`
	TotalQuestions int    `json:"total_questions"`
}

type TestPlan struct {
	ID               uint                           `gorm:"primarykey" json:"id"`
	StudentID        uint                           `json:"student_id" gorm:"not null;index"`
	CreatedByID      uint                           `json:"created_by_id" gorm:"not null;index"`
	ExamBoardID      *uint                          `json:"exam_board_id,omitempty"`
	Title            string                         `json:"title" gorm:"not null"`
	Description      string                         `json:"description,omitempty"`
	TimingMode       TimingMode                     `json:"timing_mode" gorm:"not null;default:'UNTIMED'"`
	TimeLimitMinutes *int                           `json:"time_limit_minutes,omitempty"`
	Config           datatypes.JSONType[PlanConfig] `json:"config"`
	CreatedAt        time.Time                      `json:"created_at"`
	UpdatedAt        time.Time                      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt                 `gorm:"index" json:"-"`
}

// CanAccess reports whether userID is the plan's student or its creator.
func (p *TestPlan) CanAccess(userID uint) bool {
	return userID != 0 && (p.StudentID == userID || p.CreatedByID == userID)
}

// AllowedSeconds is the total time budget of a timed plan, nil when untimed.
func (p *TestPlan) AllowedSeconds() *int {
	if p.TimingMode != TimingModeTimed || p.TimeLimitMinutes == nil {
		return nil
	}
	s := *p.TimeLimitMinutes * 60
	return &s
}
