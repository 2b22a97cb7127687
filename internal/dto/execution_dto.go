package dto

import (
	"time"

	"github.com/lshigami/tutorlab/internal/model"
)

// SubmitAnswerDTO records one answer.
type SubmitAnswerDTO struct {
	QuestionID uint   `json:"questionId" binding:"required"`
	Answer     string `json:"answer" binding:"required"`
	TimeSpent  int    `json:"timeSpent" binding:"min=0"`
}

// SubmittedResponseDTO is one entry of a bulk submission. Fields are loose
// so the service can report every malformed entry at once.
type SubmittedResponseDTO struct {
	QuestionID *uint    `json:"questionId" validate:"required,gt=0"`
	Answer     *string  `json:"answer" validate:"required,notblank"`
	TimeTaken  *float64 `json:"timeTaken" validate:"required,gte=0"`
}

type SubmitAllAnswersDTO struct {
	EndTime   *time.Time             `json:"endTime"`
	Responses []SubmittedResponseDTO `json:"responses" binding:"required"`
}

// ExecutionResponseDTO is the public view of a TestExecution.
type ExecutionResponseDTO struct {
	ID          uint                  `json:"id"`
	TestPlanID  uint                  `json:"test_plan_id"`
	StudentID   uint                  `json:"student_id"`
	Status      model.ExecutionStatus `json:"status"`
	StartedAt   *time.Time            `json:"started_at"`
	PausedAt    *time.Time            `json:"paused_at"`
	CompletedAt *time.Time            `json:"completed_at"`
	Score       *int                  `json:"score"`
	TestData    model.TestData        `json:"test_data" copier:"-"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// ExecutionSummaryDTO is used when listing the attempts of a plan.
type ExecutionSummaryDTO struct {
	ID             uint                  `json:"id"`
	TestPlanID     uint                  `json:"test_plan_id"`
	Status         model.ExecutionStatus `json:"status"`
	Score          *int                  `json:"score"`
	TotalQuestions int                   `json:"total_questions"`
	StartedAt      *time.Time            `json:"started_at"`
	CompletedAt    *time.Time            `json:"completed_at"`
	CreatedAt      time.Time             `json:"created_at"`
}

// CompleteExecutionDTO is returned by the explicit complete call.
type CompleteExecutionDTO struct {
	Execution ExecutionResponseDTO `json:"execution"`
	TestData  model.TestData       `json:"testData"`
}

// ScoreResultDTO is returned by score calculation.
type ScoreResultDTO struct {
	ExecutionID    uint `json:"execution_id"`
	TotalQuestions int  `json:"total_questions"`
	Answered       int  `json:"answered"`
	CorrectAnswers int  `json:"correct_answers"`
	Score          int  `json:"score"`
}

// QuestionResultDTO pairs a question snapshot with the student's response.
type QuestionResultDTO struct {
	Question    model.QuestionSnapshot `json:"question"`
	Response    model.ResponseItem     `json:"response"`
	Explanation string                 `json:"explanation,omitempty"`
}

type ExecutionResultsDTO struct {
	ExecutionID    uint                `json:"execution_id"`
	TotalQuestions int                 `json:"total_questions"`
	CorrectAnswers int                 `json:"correct_answers"`
	Score          int                 `json:"score"`
	CompletedAt    *time.Time          `json:"completed_at"`
	Questions      []QuestionResultDTO `json:"questions"`
}
