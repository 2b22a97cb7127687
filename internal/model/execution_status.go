package model

import "fmt"

type ExecutionStatus string

const (
	StatusNotStarted ExecutionStatus = "NOT_STARTED"
	StatusInProgress ExecutionStatus = "IN_PROGRESS"
	StatusPaused     ExecutionStatus = "PAUSED"
	StatusCompleted  ExecutionStatus = "COMPLETED"
	StatusAbandoned  ExecutionStatus = "ABANDONED"
)

type Action string

const (
	ActionStart    Action = "start"
	ActionPause    Action = "pause"
	ActionResume   Action = "resume"
	ActionComplete Action = "complete"
	ActionAbandon  Action = "abandon"
)

// TransitionError is returned for any move the state machine does not allow.
// Message carries the user-facing precondition that failed.
type TransitionError struct {
	From    ExecutionStatus
	Action  Action
	Message string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s (cannot %s from %s)", e.Message, e.Action, e.From)
}

func (s ExecutionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

func (s ExecutionStatus) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusPaused, StatusCompleted, StatusAbandoned:
		return true
	}
	return false
}

// Next returns the status reached by applying action to s.
func (s ExecutionStatus) Next(action Action) (ExecutionStatus, error) {
	reject := func(msg string) (ExecutionStatus, error) {
		return s, &TransitionError{From: s, Action: action, Message: msg}
	}
	if s == StatusCompleted {
		return reject("Test already completed")
	}
	if s == StatusAbandoned {
		return reject("Test was abandoned")
	}

	switch action {
	case ActionStart:
		if s != StatusNotStarted {
			return reject("Test already started")
		}
		return StatusInProgress, nil
	case ActionPause:
		if s != StatusInProgress {
			return reject("Test is not in progress")
		}
		return StatusPaused, nil
	case ActionResume:
		if s != StatusPaused {
			return reject("Test is not paused")
		}
		return StatusInProgress, nil
	case ActionComplete:
		switch s {
		case StatusNotStarted:
			return reject("Test must be started first")
		case StatusPaused:
			return reject("Test is paused, resume it first")
		}
		return StatusCompleted, nil
	case ActionAbandon:
		return StatusAbandoned, nil
	}
	return reject("Unknown action")
}

// RequireInProgress is the precondition shared by every answer-writing path.
func (s ExecutionStatus) RequireInProgress() error {
	switch s {
	case StatusInProgress:
		return nil
	case StatusNotStarted:
		return &TransitionError{From: s, Action: "answer", Message: "Test must be started first"}
	case StatusPaused:
		return &TransitionError{From: s, Action: "answer", Message: "Test is paused, resume it first"}
	default:
		return &TransitionError{From: s, Action: "answer", Message: "Test already finished"}
	}
}
