package dto

import "time"

// PlanCreateDTO is sent by a tutor, parent or admin to set up a test for a student.
type PlanCreateDTO struct {
	StudentID        uint   `json:"student_id" binding:"required"`
	ExamBoardID      *uint  `json:"exam_board_id"`
	Title            string `json:"title" binding:"required"`
	Description      string `json:"description"`
	TimingMode       string `json:"timing_mode" binding:"required,oneof=TIMED UNTIMED"`
	TimeLimitMinutes *int   `json:"time_limit_minutes" binding:"omitempty,min=1"`
	TopicIDs         []uint `json:"topic_ids"`
	SubtopicIDs      []uint `json:"subtopic_ids" binding:"required,min=1"`
	TotalQuestions   int    `json:"total_questions" binding:"required,min=1,max=200"`
}

// PlanUpdateDTO only carries descriptive metadata.
type PlanUpdateDTO struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

type PlanConfigDTO struct {
	TopicIDs       []uint `json:"topic_ids"`
	SubtopicIDs    []uint `json:"subtopic_ids"`
	TotalQuestions int    `json:"total_questions"`
}

type PlanResponseDTO struct {
	ID               uint          `json:"id"`
	StudentID        uint          `json:"student_id"`
	CreatedByID      uint          `json:"created_by_id"`
	ExamBoardID      *uint         `json:"exam_board_id,omitempty"`
	Title            string        `json:"title"`
	Description      string        `json:"description,omitempty"`
	TimingMode       string        `json:"timing_mode"`
	TimeLimitMinutes *int          `json:"time_limit_minutes,omitempty"`
	Config           PlanConfigDTO `json:"config" copier:"-"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}
