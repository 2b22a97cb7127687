package model

import (
	"time"

	"gorm.io/datatypes"
)

// TestExecution is one attempt at a TestPlan. The whole question/response
// list lives in TestData and is rewritten on every mutation; Version guards
// those rewrites against concurrent writers.
type TestExecution struct {
	ID          uint                         `gorm:"primarykey" json:"id"`
	TestPlanID  uint                         `json:"test_plan_id" gorm:"not null;index"`
	StudentID   uint                         `json:"student_id" gorm:"not null;index"`
	Status      ExecutionStatus              `json:"status" gorm:"not null;index;default:'NOT_STARTED'"`
	StartedAt   *time.Time                   `json:"started_at,omitempty"`
	PausedAt    *time.Time                   `json:"paused_at,omitempty"`
	CompletedAt *time.Time                   `json:"completed_at,omitempty"`
	Score       *int                         `json:"score,omitempty"`
	TestData    datatypes.JSONType[TestData] `json:"test_data"`
	Version     int                          `json:"-" gorm:"not null;default:1"`
	CreatedAt   time.Time                    `json:"created_at"`
	UpdatedAt   time.Time                    `json:"updated_at"`
}

// Data returns a copy of the document that callers may mutate freely and
// hand back through SetData.
func (e *TestExecution) Data() TestData {
	return e.TestData.Data().Clone()
}

func (e *TestExecution) SetData(d TestData) {
	e.TestData = datatypes.NewJSONType(d)
}

// Apply runs action through the state machine and stamps the matching
// timestamp. Scoring on completion is the caller's job.
func (e *TestExecution) Apply(action Action, now time.Time) error {
	next, err := e.Status.Next(action)
	if err != nil {
		return err
	}
	switch action {
	case ActionStart:
		e.StartedAt = &now
	case ActionPause:
		e.PausedAt = &now
	case ActionResume:
		e.PausedAt = nil
	case ActionComplete:
		e.CompletedAt = &now
	}
	e.Status = next
	if next != StatusCompleted {
		e.Score = nil
	}
	return nil
}
