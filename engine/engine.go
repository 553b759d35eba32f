package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/4gsim/bpmn-engine/model"
)

// A Definition executes the process graph of one process definition.
//
// Execution is cooperative and event-driven: Execute and Resume run the
// synchronous activation cascade until the run either completes or reaches
// quiescence, meaning that all remaining work waits for an external signal,
// message or timer. A waiting activity is not a goroutine - it is a state
// that stays dormant until Signal is called, possibly much later and
// possibly after a full restart via Resume.
type Definition interface {
	// Execute starts the executable entry process and runs until completion or quiescence.
	//
	// If the graph has no executable process, an error of type [ErrorProcessModel] is returned.
	Execute(context.Context, ExecuteCmd) error

	// Resume restores a run from a state snapshot, previously taken via GetState,
	// and continues it until completion or quiescence.
	//
	// A snapshot that references element IDs absent from the graph is rejected
	// with an error of type [ErrorValidation] - it is never partially applied.
	Resume(context.Context, ResumeCmd) error

	// Signal unblocks a waiting activity, optionally carrying a value.
	//
	// If an activity ID is given, only that activity - or, within a loop, the
	// execution context with that ID - is addressed. Otherwise the first
	// waiting activity of any running process consumes the signal.
	// It returns true, if some waiting activity consumed the signal.
	Signal(context.Context, SignalCmd) (bool, error)

	// SendMessage delivers a message to a catch element, activating it if necessary.
	SendMessage(context.Context, SendMessageCmd) error

	// Stop freezes the run without completing it.
	//
	// Waiting activities are not forced to a terminal state - their execution
	// contexts are captured so that the run can be continued via Resume.
	Stop(context.Context) error

	// SetTime increases the engine's time for testing purposes.
	// Due timer catch events are fired as a consequence.
	SetTime(context.Context, SetTimeCmd) error

	// GetState returns a serializable snapshot of the run.
	GetState() (DefinitionState, error)

	// GetOutput returns the output accumulated by completed activities.
	GetOutput() map[string]any

	// GetPendingActivities returns all activities that currently wait for a signal.
	GetPendingActivities() []PendingActivity

	// GetChildActivityById returns the state of a single activity.
	GetChildActivityById(id string) (ActivityState, bool)

	// Shutdown stops background work like a running timer executor.
	// The run itself is not affected - use Stop to freeze it.
	Shutdown()
}

// A ServiceFn implements the work of a service task.
// It receives the resolved input parameters and returns the task output.
type ServiceFn func(input map[string]any) (map[string]any, error)

// Options configure the execution of a definition.
type Options struct {
	// Listener receives transition callbacks. Optional.
	Listener Listener

	// Evaluator evaluates flow conditions and IO parameter expressions.
	// If nil, an expression evaluator based on expr-lang is used.
	Evaluator Evaluator

	// BehaviorFactory overrides the behavior of individual elements.
	// If the factory returns nil for an element, the default behavior of its
	// element type is used.
	BehaviorFactory func(element *model.Element) Behavior

	// Services provides the functions executed by service tasks, keyed by element ID.
	Services map[string]ServiceFn

	// TimerExecutorEnabled enables a background executor that fires due timer
	// catch events. When disabled, timers fire through SetTime only.
	TimerExecutorEnabled bool
}

func (o Options) Validate() error {
	for id, service := range o.Services {
		if strings.TrimSpace(id) == "" {
			return errors.New("service ID must not be empty or blank")
		}
		if service == nil {
			return fmt.Errorf("service %s must not be nil", id)
		}
	}
	return nil
}

type Error struct {
	Type   ErrorType
	Title  string
	Detail string
	Causes []ErrorCause
}

func (e Error) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s: %s: %s", e.Type, e.Title, e.Detail))

	for _, cause := range e.Causes {
		sb.WriteRune('\n')
		sb.WriteString(cause.String())
	}

	return sb.String()
}

type ErrorType int

const (
	ErrorBug ErrorType = iota + 1
	ErrorConflict
	ErrorNotFound
	ErrorProcessModel
	ErrorValidation
)

func MapErrorType(s string) ErrorType {
	switch s {
	case "BUG":
		return ErrorBug
	case "CONFLICT":
		return ErrorConflict
	case "NOT_FOUND":
		return ErrorNotFound
	case "PROCESS_MODEL":
		return ErrorProcessModel
	case "VALIDATION":
		return ErrorValidation
	default:
		return 0
	}
}

func (v ErrorType) String() string {
	switch v {
	case ErrorBug:
		return "BUG"
	case ErrorConflict:
		return "CONFLICT"
	case ErrorNotFound:
		return "NOT_FOUND"
	case ErrorProcessModel:
		return "PROCESS_MODEL"
	case ErrorValidation:
		return "VALIDATION"
	default:
		return "UNKNOWN"
	}
}

// A cause of a process model or validation [Error] like a missing start event
// or a state snapshot referencing an unknown element.
type ErrorCause struct {
	Pointer string // A pointer, locating the invalid element or sequence flow.
	Type    string // Type indicator.
	Detail  string // Human-readable, detailed information about the cause.
}

func (e ErrorCause) String() string {
	return fmt.Sprintf("%s: %s: %s", e.Type, e.Pointer, e.Detail)
}
