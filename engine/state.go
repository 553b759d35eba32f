package engine

import (
	"fmt"
	"time"

	"github.com/4gsim/bpmn-engine/model"
	"github.com/go-playground/validator/v10"
)

// StateVersion is the snapshot format version produced by GetState.
// Snapshots with a different version are rejected on resume.
const StateVersion = 1

const (
	StatePending   = "pending"
	StateRunning   = "running"
	StateCompleted = "completed"
	StateStopped   = "stopped"
	StateError     = "error"
)

// DefinitionState is a serializable snapshot of one run.
// It round-trips through Resume: restoring it reproduces the pending and
// running sets of the original run at the moment the snapshot was taken.
type DefinitionState struct {
	Version     int    `json:"version" validate:"required,eq=1"`
	ExecutionId string `json:"executionId" validate:"required"`

	Id           string `json:"id" validate:"required"`
	Type         string `json:"type" validate:"required,eq=definition"`
	State        string `json:"state" validate:"required,oneof=pending running completed stopped error"`
	EntryPointId string `json:"entryPointId" validate:"required"`

	Environment EnvironmentState        `json:"environment"`
	Processes   map[string]ProcessState `json:"processes,omitempty" validate:"dive"`
}

// ProcessState is the snapshot of one process within a run.
// A process that had not been started when the snapshot was taken has no entry.
type ProcessState struct {
	Id    string `json:"id" validate:"required"`
	Type  string `json:"type" validate:"required,eq=process"`
	State string `json:"state" validate:"required,oneof=pending running completed stopped error"`

	Activities map[string]ActivityState `json:"activities,omitempty" validate:"dive"`
}

// ActivityState reflects the most recent transition of one activity.
// Fields for states not currently true are absent, so that snapshots stay
// minimal and diffable.
type ActivityState struct {
	Id   string `json:"id" validate:"required"`
	Type string `json:"type" validate:"required"`

	Entered   bool `json:"entered,omitempty"`
	Waiting   bool `json:"waiting,omitempty"`
	Taken     bool `json:"taken,omitempty"`
	Discarded bool `json:"discarded,omitempty"`

	Contexts []ExecutionContextState `json:"contexts,omitempty" validate:"dive"`
	Loop     *LoopState              `json:"loop,omitempty"`
}

// ExecutionContextState captures one waiting execution context.
type ExecutionContextState struct {
	Id    string `json:"id" validate:"required"`
	Index int    `json:"index"`

	Input         map[string]any `json:"input,omitempty"`
	PendingSignal bool           `json:"pendingSignal,omitempty"`
	DueAt         *time.Time     `json:"dueAt,omitempty"` // timer catch events only
}

// LoopState captures a multi-instance loop mid-flight.
// Results preserve the item index order regardless of completion order.
type LoopState struct {
	IsSequential bool  `json:"isSequential"`
	Cardinality  int   `json:"cardinality" validate:"gte=0"`
	Items        []any `json:"items,omitempty"`

	Results []LoopResult `json:"results,omitempty" validate:"dive"`
}

// LoopResult is the output of one completed loop iteration.
type LoopResult struct {
	Index  int            `json:"index" validate:"gte=0"`
	Output map[string]any `json:"output,omitempty"`
}

// EnvironmentState is the deep-cloned snapshot of an environment.
type EnvironmentState struct {
	Variables map[string]any `json:"variables,omitempty"`
	Output    map[string]any `json:"output,omitempty"`
}

// A PendingActivity describes an activity that waits for an external signal.
type PendingActivity struct {
	ProcessId string            `json:"processId"`
	ElementId string            `json:"elementId"`
	ContextId string            `json:"contextId"`
	Type      model.ElementType `json:"type"`

	DueAt *time.Time  `json:"dueAt,omitempty"` // timer catch events only
	Form  *model.Form `json:"form,omitempty"`  // user tasks with a form only
}

var stateValidate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the snapshot structurally.
// Cross-checks against the process graph are done separately on resume.
func (s DefinitionState) Validate() error {
	if err := stateValidate.Struct(s); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return Error{
				Type:   ErrorBug,
				Title:  "failed to validate state",
				Detail: err.Error(),
			}
		}

		causes := make([]ErrorCause, len(validationErrors))
		for i, fieldError := range validationErrors {
			causes[i] = ErrorCause{
				Pointer: fieldError.Namespace(),
				Type:    "state",
				Detail:  fmt.Sprintf("invalid value for %s constraint", fieldError.Tag()),
			}
		}

		return Error{
			Type:   ErrorValidation,
			Title:  "invalid state",
			Detail: fmt.Sprintf("state has %d validation warning(s)", len(causes)),
			Causes: causes,
		}
	}

	return nil
}
