package internal

import (
	"fmt"
	"time"

	"github.com/4gsim/bpmn-engine/engine"
)

// An executionContext is one concrete run of an activity.
// Several contexts exist concurrently under one activity only when driven by
// a loop controller. A context is folded into the activity's aggregate and
// dropped from memory once it ended.
type executionContext struct {
	id    string
	index int // spawn index within a loop, -1 for a singular activation

	activity *activity

	input  map[string]any
	output map[string]any

	waiting     bool
	ended       bool
	signalValue any

	dueAt *time.Time // timer catch events only

	// onComplete is owned by the activity or its loop controller.
	onComplete func(ec *executionContext, output map[string]any, err error)
}

// newExecutionContext resolves the input parameter mappings of the element
// and creates a context. extra values (loop item and index) become part of
// the input itself.
func newExecutionContext(a *activity, id string, index int, extra map[string]any) (*executionContext, error) {
	ec := executionContext{
		id:       id,
		index:    index,
		activity: a,
		input:    make(map[string]any),
	}

	for name, value := range extra {
		ec.input[name] = value
	}

	if io := a.element.Io; io != nil {
		inputContext := map[string]any{
			"variables": a.ctx.Environment.Variables(),
		}
		for name, value := range extra {
			inputContext[name] = value
		}

		for name, value := range io.Input {
			resolved, err := engine.Resolve(a.ctx.Evaluator, value, inputContext)
			if err != nil {
				return nil, err
			}
			ec.input[name] = resolved
		}
	}

	return &ec, nil
}

// resumeExecutionContext restores a context from a snapshot without
// re-resolving input parameters.
func resumeExecutionContext(a *activity, state engine.ExecutionContextState) *executionContext {
	return &executionContext{
		id:       state.Id,
		index:    state.Index,
		activity: a,
		input:    state.Input,
		dueAt:    state.DueAt,
	}
}

func (ec *executionContext) Id() string {
	return ec.id
}

func (ec *executionContext) ElementId() string {
	return ec.activity.element.Id
}

func (ec *executionContext) Input() map[string]any {
	return ec.input
}

func (ec *executionContext) Output() map[string]any {
	return ec.output
}

// Signal completes a waiting context.
// The value, if any, is exposed to the output mapping as "signal".
func (ec *executionContext) Signal(value any) error {
	if !ec.waiting {
		return engine.Error{
			Type:   engine.ErrorConflict,
			Title:  "failed to signal execution context",
			Detail: fmt.Sprintf("execution context %s is not waiting", ec.id),
		}
	}

	ec.signalValue = value
	ec.complete(nil, nil)

	ec.activity.ctx.Drain()
	return nil
}

// complete ends the context with the behavior's raw output.
// If the element declares an output mapping, it replaces the raw output.
// complete is idempotent - a second call is swallowed.
func (ec *executionContext) complete(output map[string]any, err error) {
	if ec.ended {
		return
	}

	if err == nil {
		if io := ec.activity.element.Io; io != nil && len(io.Output) != 0 {
			output, err = ec.resolveOutput()
		}
	}

	ec.ended = true
	ec.waiting = false
	ec.output = output

	ec.onComplete(ec, output, err)
}

// resolveOutput evaluates the output parameter mappings against the resolved
// input, the accumulated variables and the signal value, if any.
func (ec *executionContext) resolveOutput() (map[string]any, error) {
	outputContext := map[string]any{
		"variables": ec.activity.ctx.Environment.Variables(),
		"signal":    ec.signalValue,
	}
	for name, value := range ec.input {
		outputContext[name] = value
	}

	output := make(map[string]any)
	for name, value := range ec.activity.element.Io.Output {
		resolved, err := engine.Resolve(ec.activity.ctx.Evaluator, value, outputContext)
		if err != nil {
			return nil, err
		}
		output[name] = resolved
	}

	return output, nil
}

func (ec *executionContext) getState() engine.ExecutionContextState {
	return engine.ExecutionContextState{
		Id:            ec.id,
		Index:         ec.index,
		Input:         ec.input,
		PendingSignal: ec.waiting,
		DueAt:         ec.dueAt,
	}
}
