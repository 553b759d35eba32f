package internal

import (
	"fmt"
	"time"

	"github.com/4gsim/bpmn-engine/engine"
	"github.com/4gsim/bpmn-engine/model"
)

// An Execution is one run of a definition.
//
// It owns the processes of the graph and routes signals, messages and timer
// due dates between them. All methods assume external synchronization - the
// owning engine serializes access.
type Execution struct {
	ctx *Context

	entryPointId string
	processes    []*process
	processById  map[string]*process

	started bool
	stopped bool
	err     error
}

func NewExecution(definitions *model.Definitions, options engine.Options, executionId string, now func() time.Time) (*Execution, error) {
	if causes := validateGraph(definitions); len(causes) != 0 {
		return nil, engine.Error{
			Type:   engine.ErrorProcessModel,
			Title:  "invalid process model",
			Detail: fmt.Sprintf("model has %d validation warning(s)", len(causes)),
			Causes: causes,
		}
	}

	evaluator := options.Evaluator
	if evaluator == nil {
		evaluator = engine.NewExprEvaluator()
	}

	ctx := Context{
		Definitions: definitions,
		Options:     options,
		Evaluator:   evaluator,
		Environment: engine.NewEnvironment(nil),
		ExecutionId: executionId,
		Now:         now,
	}

	execution := Execution{
		ctx:          &ctx,
		entryPointId: definitions.ExecutableProcessId(),
		processById:  make(map[string]*process),
	}

	ctx.Route = execution.routeMessage

	for _, processElement := range definitions.Processes {
		p := newProcess(&ctx, processElement)
		p.onEnd = execution.onProcessEnd

		execution.processes = append(execution.processes, p)
		execution.processById[processElement.Id] = p
	}

	return &execution, nil
}

// Execute starts the executable entry process and drains the cascade.
func (e *Execution) Execute(variables map[string]any) error {
	if e.started {
		return engine.Error{
			Type:   engine.ErrorConflict,
			Title:  "failed to execute definition",
			Detail: fmt.Sprintf("definition %s is already executed", e.ctx.Definitions.Id),
		}
	}

	e.started = true
	e.ctx.Environment.AssignVariables(variables)

	e.ctx.emitEnter(e.newEvent())
	e.ctx.emitStart(e.newEvent())

	e.processById[e.entryPointId].run()
	e.ctx.Drain()

	return e.err
}

// Resume restores a run from a snapshot and continues it.
// The snapshot is validated structurally and cross-checked against the
// graph before any process is touched.
func (e *Execution) Resume(state engine.DefinitionState, variables map[string]any) error {
	if e.started {
		return engine.Error{
			Type:   engine.ErrorConflict,
			Title:  "failed to resume definition",
			Detail: fmt.Sprintf("definition %s is already executed", e.ctx.Definitions.Id),
		}
	}

	if err := state.Validate(); err != nil {
		return err
	}
	if causes := validateState(e.ctx.Definitions, state); len(causes) != 0 {
		return engine.Error{
			Type:   engine.ErrorValidation,
			Title:  "invalid state",
			Detail: fmt.Sprintf("state has %d validation warning(s)", len(causes)),
			Causes: causes,
		}
	}

	e.started = true
	e.ctx.ExecutionId = state.ExecutionId
	e.ctx.Environment.Resume(state.Environment)
	e.ctx.Environment.AssignVariables(variables)

	for _, p := range e.processes {
		processState, ok := state.Processes[p.element.Id]
		if !ok {
			continue
		}
		p.resume(processState)
	}

	e.ctx.Drain()

	return e.err
}

// Signal unblocks a waiting activity of any running process.
func (e *Execution) Signal(activityId string, value any) (bool, error) {
	if e.stopped {
		return false, engine.Error{
			Type:   engine.ErrorConflict,
			Title:  "failed to signal definition",
			Detail: fmt.Sprintf("definition %s is stopped", e.ctx.Definitions.Id),
		}
	}

	for _, p := range e.processes {
		if !p.isRunning() {
			continue
		}
		if p.signal(activityId, value) {
			e.ctx.Drain()
			return true, e.err
		}
	}

	return false, nil
}

// SendMessage delivers a message to a catch element.
func (e *Execution) SendMessage(targetId string, value any) error {
	if e.stopped {
		return engine.Error{
			Type:   engine.ErrorConflict,
			Title:  "failed to send message",
			Detail: fmt.Sprintf("definition %s is stopped", e.ctx.Definitions.Id),
		}
	}

	if err := e.routeMessage(targetId, value); err != nil {
		return err
	}

	e.ctx.Drain()
	return e.err
}

// routeMessage resolves the target process of a message. A pending process
// is started first and the delivery deferred, so that the message arrives
// after the process's start cascade settled.
func (e *Execution) routeMessage(targetId string, value any) error {
	processElement := e.ctx.Definitions.ProcessByElementId(targetId)
	if processElement == nil {
		return engine.Error{
			Type:   engine.ErrorNotFound,
			Title:  "failed to send message",
			Detail: fmt.Sprintf("definitions have no element %s", targetId),
		}
	}

	p := e.processById[processElement.Id]

	switch p.state {
	case engine.StateRunning:
		return p.sendMessage(targetId, value)
	case engine.StatePending:
		p.run()

		p.pendingMessages++
		e.ctx.Defer(func() {
			p.pendingMessages--
			if err := p.sendMessage(targetId, value); err != nil {
				p.state = engine.StateError
				p.err = err
				e.onProcessEnd(p)
			}
		})
		return nil
	default:
		return engine.Error{
			Type:   engine.ErrorConflict,
			Title:  "failed to send message",
			Detail: fmt.Sprintf("process %s is %s", p.element.Id, p.state),
		}
	}
}

// Stop freezes the run. Waiting activities stay waiting, so a subsequent
// GetState captures them for a later resume.
func (e *Execution) Stop() {
	if e.stopped {
		return
	}

	e.stopped = true
	for _, p := range e.processes {
		p.stop()
	}
}

func (e *Execution) onProcessEnd(p *process) {
	if p.err != nil && e.err == nil {
		e.err = p.err
	}

	for _, other := range e.processes {
		if other.isRunning() {
			return
		}
	}

	if e.err == nil {
		e.ctx.emitEnd(e.newEvent())
		e.ctx.emitLeave(e.newEvent())
	}
}

// FireDueTimers signals every waiting timer catch event whose due date is
// reached, returning the number of fired timers.
func (e *Execution) FireDueTimers(now time.Time) int {
	fired := 0

	for _, p := range e.processes {
		if !p.isRunning() {
			continue
		}

		for _, element := range p.element.ChildrenByType(model.ElementTimerCatchEvent) {
			a := p.activities[element.Id]
			for _, ec := range waitingContexts(a) {
				if ec.dueAt != nil && !ec.dueAt.After(now) {
					if ec.Signal(nil) == nil {
						fired++
					}
				}
			}
		}
	}

	if fired != 0 {
		e.ctx.Drain()
	}

	return fired
}

func (e *Execution) GetState() engine.DefinitionState {
	state := engine.DefinitionState{
		Version:     engine.StateVersion,
		ExecutionId: e.ctx.ExecutionId,

		Id:           e.ctx.Definitions.Id,
		Type:         "definition",
		State:        e.status(),
		EntryPointId: e.entryPointId,

		Environment: e.ctx.Environment.GetState(),
	}

	for _, p := range e.processes {
		if p.state == engine.StatePending {
			continue
		}

		if state.Processes == nil {
			state.Processes = make(map[string]engine.ProcessState)
		}
		state.Processes[p.element.Id] = p.getState()
	}

	return state
}

func (e *Execution) GetOutput() map[string]any {
	return e.ctx.Environment.GetOutput()
}

func (e *Execution) GetPendingActivities() []engine.PendingActivity {
	var pending []engine.PendingActivity

	for _, p := range e.processes {
		for _, element := range p.element.Children {
			a := p.activities[element.Id]
			for _, ec := range waitingContexts(a) {
				activity := engine.PendingActivity{
					ProcessId: p.element.Id,
					ElementId: element.Id,
					ContextId: ec.id,
					Type:      element.Type,
					DueAt:     ec.dueAt,
				}

				if element.Type == model.ElementUserTask {
					activity.Form = element.Form
				}

				pending = append(pending, activity)
			}
		}
	}

	return pending
}

func (e *Execution) GetChildActivityById(id string) (engine.ActivityState, bool) {
	for _, p := range e.processes {
		if a, ok := p.activities[id]; ok {
			return a.getState(), true
		}
	}
	return engine.ActivityState{}, false
}

func (e *Execution) status() string {
	switch {
	case e.err != nil:
		return engine.StateError
	case e.stopped:
		return engine.StateStopped
	case !e.started:
		return engine.StatePending
	default:
		for _, p := range e.processes {
			if p.isRunning() {
				return engine.StateRunning
			}
		}
		return engine.StateCompleted
	}
}

// waitingContexts collects the waiting execution contexts of an activity,
// ordered by spawn index within a loop.
func waitingContexts(a *activity) []*executionContext {
	if a.loop != nil {
		indexes := a.loop.waitingIndexes()
		contexts := make([]*executionContext, len(indexes))
		for i, index := range indexes {
			contexts[i] = a.loop.contexts[index]
		}
		return contexts
	}

	if a.state == stateWaiting {
		return []*executionContext{a.execution}
	}
	return nil
}

func (e *Execution) newEvent() engine.Event {
	return engine.Event{
		ExecutionId:  e.ctx.ExecutionId,
		DefinitionId: e.ctx.Definitions.Id,
		ElementId:    e.ctx.Definitions.Id,
		ContextId:    e.ctx.Definitions.Id,
		LoopIndex:    -1,
	}
}
