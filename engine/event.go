package engine

import (
	"github.com/4gsim/bpmn-engine/model"
)

// A Listener is a fixed registry of transition callbacks.
//
// Callbacks are invoked synchronously by the execution driver, in the strict
// per-activation order enter, start, wait, end, leave. Since the driver owns
// the registry for the whole run, there is no listener registration to tear
// down when a process completes. Nil callbacks are skipped.
type Listener struct {
	OnEnter func(Event)
	OnStart func(Event)
	OnWait  func(Event)
	OnEnd   func(Event)
	OnLeave func(Event)
	OnError func(Event, error)
}

// An Event describes one state transition of a definition, process or activity.
type Event struct {
	// ExecutionId identifies the run that raised the event.
	ExecutionId string

	// DefinitionId is the ID of the definition.
	DefinitionId string
	// ProcessId is the ID of the owning process. Empty for definition scoped events.
	ProcessId string
	// ElementId is the ID of the element the event relates to.
	// For process scoped events it equals the process ID.
	ElementId string
	// ElementType is the type of the element. Zero for definition scoped events.
	ElementType model.ElementType

	// ContextId identifies the execution context: the element ID for a
	// singular activation, or "<elementId>_<index>" inside a loop.
	ContextId string
	// LoopIndex is the spawn index within a loop, or -1 outside loops.
	LoopIndex int
	// IsLoopContext marks the end event of a single loop iteration, as
	// opposed to the aggregate end of the looped activity itself.
	IsLoopContext bool

	// Form is set on wait events of user tasks that declare a form.
	Form *model.Form

	// Context allows a wait event consumer to signal the waiting execution
	// context directly. Nil for all other events.
	Context ExecutionContext
}

// An ExecutionContext is one concrete run of an activity.
// Several execution contexts may exist concurrently under one activity, but
// only when driven by a multi-instance loop.
type ExecutionContext interface {
	// Id returns the context ID: the element ID, or "<elementId>_<index>" inside a loop.
	Id() string

	// ElementId returns the ID of the owning activity's element.
	ElementId() string

	// Input returns the resolved input parameters of this activation.
	Input() map[string]any

	// Output returns the output of this activation. Empty until the context ended.
	Output() map[string]any

	// Signal completes a waiting context, optionally carrying a value.
	// It returns an error of type [ErrorConflict], if the context is not waiting.
	Signal(value any) error
}

// A Behavior implements the type specific logic of an activity.
//
// Execute either calls complete synchronously - the activity then ends in the
// same cascade - or holds it, leaving the activity waiting until the execution
// context is signaled. The complete callback must be called at most once.
type Behavior interface {
	Execute(ec ExecutionContext, complete func(output map[string]any, err error))
}
