package engine

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// ExecuteCmd provides data for the start of a new run.
type ExecuteCmd struct {
	// Variables to set at environment scope before the entry process starts.
	Variables map[string]any `json:"variables,omitempty"`
}

// ResumeCmd provides data for the continuation of a previously stopped run.
type ResumeCmd struct {
	// State snapshot, previously taken via GetState.
	State DefinitionState `json:"state"`
	// Additional variables to set at environment scope after the snapshot is restored.
	Variables map[string]any `json:"variables,omitempty"`
}

// SignalCmd addresses a waiting activity.
type SignalCmd struct {
	// Optional ID of an activity or, within a loop, of an execution context
	// (e.g. "task" or "task_2"). If empty, the first waiting activity of any
	// running process consumes the signal.
	ActivityId string `json:"activityId,omitempty"`
	// Optional payload, made available to the activity's output mapping as "signal".
	Value any `json:"value,omitempty"`
}

// SendMessageCmd provides data for the delivery of a message to a catch element.
type SendMessageCmd struct {
	// ID of the message catch element.
	TargetId string `json:"targetId" validate:"required"`
	// Optional payload, made available to the catch element's output mapping as "signal".
	Value any `json:"value,omitempty"`
}

// SetTimeCmd provides data for increasing the engine's time.
type SetTimeCmd struct {
	Time time.Time `json:"time" validate:"required"`
}

func (c SendMessageCmd) Validate() error {
	return validateCmd(c, "invalid send message command")
}

func (c SetTimeCmd) Validate() error {
	return validateCmd(c, "invalid set time command")
}

// validateCmd checks a command structurally, analogous to [DefinitionState.Validate].
func validateCmd(cmd any, title string) error {
	if err := stateValidate.Struct(cmd); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return Error{
				Type:   ErrorBug,
				Title:  title,
				Detail: err.Error(),
			}
		}

		causes := make([]ErrorCause, len(validationErrors))
		for i, fieldError := range validationErrors {
			causes[i] = ErrorCause{
				Pointer: fieldError.Namespace(),
				Type:    "command",
				Detail:  fmt.Sprintf("invalid value for %s constraint", fieldError.Tag()),
			}
		}

		return Error{
			Type:   ErrorValidation,
			Title:  title,
			Detail: fmt.Sprintf("command has %d validation warning(s)", len(causes)),
			Causes: causes,
		}
	}

	return nil
}
