package engine

import (
	"encoding/json"
	"fmt"
)

// NewEnvironment creates an environment with the given initial variables.
func NewEnvironment(variables map[string]any) *Environment {
	environment := Environment{
		variables: make(map[string]any, len(variables)),
		output:    make(map[string]any),
	}

	environment.AssignVariables(variables)
	return &environment
}

// An Environment is the variable scope of one run.
//
// It is shared by reference between all processes and activities of a
// definition instance. Mutation discipline: only the currently executing
// activity or process may write, which holds automatically since execution
// is single-threaded.
type Environment struct {
	variables map[string]any
	output    map[string]any
}

func (e *Environment) Get(name string) (any, bool) {
	value, ok := e.variables[name]
	return value, ok
}

func (e *Environment) Set(name string, value any) {
	e.variables[name] = value
}

func (e *Environment) AssignVariables(variables map[string]any) {
	for name, value := range variables {
		e.variables[name] = value
	}
}

// AssignResult merges a partial result, produced by a completed activity,
// into the accumulated output.
func (e *Environment) AssignResult(partial map[string]any) {
	for name, value := range partial {
		e.output[name] = value
	}
}

// AssignTaskInput records the raw signal payload of an activity under the
// "taskInput" output key. No entry is written when the payload is nil, so
// that no default value is synthesized for signals without payload.
func (e *Environment) AssignTaskInput(activityId string, value any) {
	if value == nil {
		return
	}

	taskInput, ok := e.output["taskInput"].(map[string]any)
	if !ok {
		taskInput = make(map[string]any)
		e.output["taskInput"] = taskInput
	}

	taskInput[activityId] = value
}

// Variables returns the live variable mapping, not a copy.
func (e *Environment) Variables() map[string]any {
	return e.variables
}

// GetOutput returns the live accumulated output, not a copy.
func (e *Environment) GetOutput() map[string]any {
	return e.output
}

// GetState returns a deep-cloned snapshot of the environment.
func (e *Environment) GetState() EnvironmentState {
	return EnvironmentState{
		Variables: cloneMap(e.variables),
		Output:    cloneMap(e.output),
	}
}

// Resume replaces the environment's content with a previously taken snapshot.
func (e *Environment) Resume(state EnvironmentState) {
	e.variables = cloneMap(state.Variables)
	e.output = cloneMap(state.Output)

	if e.variables == nil {
		e.variables = make(map[string]any)
	}
	if e.output == nil {
		e.output = make(map[string]any)
	}
}

// cloneMap deep-clones via JSON. Snapshot values must be JSON-serializable
// anyway, since callers persist them as JSON.
func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}

	data, err := json.Marshal(m)
	if err != nil {
		panic(fmt.Sprintf("failed to clone map: %v", err))
	}

	var clone map[string]any
	if err := json.Unmarshal(data, &clone); err != nil {
		panic(fmt.Sprintf("failed to clone map: %v", err))
	}

	return clone
}
