package batch

import (
	"errors"
	"fmt"
)

// State is the orchestrator's lifecycle state.
type State string

const (
	StateIdle       State = "idle"
	StateConfirming State = "confirming"
	StateRunning    State = "running"
	StateCompleted  State = "completed"
	StateAborted    State = "aborted"
	StateFailed     State = "failed"
)

// Terminal reports whether s ends a run.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateAborted || s == StateFailed
}

var (
	// ErrParse marks a response that did not contain the expected sections.
	ErrParse = errors.New("unparseable response")
	// ErrWrite marks a failed metadata write.
	ErrWrite = errors.New("metadata write failed")
	// ErrInvalidState is returned when an operation is not allowed in the
	// current state.
	ErrInvalidState = errors.New("invalid orchestrator state")
	// ErrLocked is returned when another run holds the run lock.
	ErrLocked = errors.New("another run is in progress")

	errTracker = errors.New("processed set update failed")
	errAborted = errors.New("run aborted")
)

// UnitError is a non-fatal failure recorded against one scene.
type UnitError struct {
	Scene   string `json:"scene" yaml:"scene"`
	Label   string `json:"triplet" yaml:"triplet"`
	Message string `json:"message" yaml:"message"`
	Err     error  `json:"-" yaml:"-"`
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("scene %s: %s", e.Scene, e.Message)
}

func (e *UnitError) Unwrap() error { return e.Err }
