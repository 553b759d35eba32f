package internal

import (
	"github.com/4gsim/bpmn-engine/engine"
	"github.com/4gsim/bpmn-engine/model"
)

type activityState int

const (
	stateIdle activityState = iota
	stateEntered
	stateStarted
	stateWaiting
	stateEnded
	stateLeft
	stateDiscarded
)

// An activity is the generic state machine for one graph node.
//
// Per activation it transitions
//
//	idle -> entered -> started -> (waiting) -> ended -> left
//
// or, when all inbound flows resolve as discarded,
//
//	idle -> discarded -> left
//
// Each transition is reached at most once per activation. After left, the
// machine resets to idle, so that a loop-back flow can activate it again.
type activity struct {
	ctx     *Context
	process *process
	element *model.Element

	behavior engine.Behavior
	inbound  []*sequenceFlow
	outbound []*sequenceFlow

	state activityState

	// discardedInbound tracks which inbound flows resolved as discarded
	// during the current idle phase. Join semantics are count-based: the
	// first taken flow enters the activity, a full set of discarded flows
	// discards it.
	discardedInbound map[string]bool

	execution *executionContext // singular activation
	loop      *loopController   // multi-instance activation

	lastOutput map[string]any // output of the most recent completion, for flow conditions

	taken     bool // most recent activation completed
	discarded bool // most recent activation was discarded
	errored   bool
}

func newActivity(ctx *Context, p *process, element *model.Element) *activity {
	return &activity{
		ctx:              ctx,
		process:          p,
		element:          element,
		behavior:         newBehavior(ctx, element),
		discardedInbound: make(map[string]bool),
	}
}

// onInbound is invoked by the process driver whenever an inbound flow fired.
// Resolutions arriving while the activity is not idle are swallowed - an
// activity enters at most once per activation.
func (a *activity) onInbound(flow *sequenceFlow, taken bool) {
	if a.state != stateIdle {
		return
	}

	if taken {
		a.activate()
		return
	}

	a.discardedInbound[flow.model.Id] = true
	if len(a.discardedInbound) == len(a.inbound) {
		a.discard()
	}
}

// activate runs one activation through the state machine until it either
// settles in waiting or reaches left.
func (a *activity) activate() {
	a.enter()
	if a.errored {
		return
	}

	a.start()
}

func (a *activity) enter() {
	a.state = stateEntered
	a.taken = false
	a.discarded = false
	a.errored = false
	clear(a.discardedInbound)

	a.process.onActivityEnter(a)
	a.ctx.emitEnter(a.newEvent(nil))

	if a.element.Loop != nil {
		loop, err := newLoopController(a)
		if err != nil {
			a.fail(nil, err)
			return
		}
		a.loop = loop
		return
	}

	ec, err := newExecutionContext(a, a.element.Id, -1, nil)
	if err != nil {
		a.fail(nil, err)
		return
	}

	ec.onComplete = a.onContextComplete
	a.execution = ec
}

func (a *activity) start() {
	a.state = stateStarted
	a.ctx.emitStart(a.newEvent(nil))

	if a.loop != nil {
		a.loop.start()
		return
	}

	a.runContext(a.execution)
}

// runContext executes the behavior for one context. If the behavior holds
// the completion callback, the context starts waiting and a wait event is
// emitted, carrying the context so a consumer may signal it directly.
func (a *activity) runContext(ec *executionContext) {
	a.behavior.Execute(ec, ec.complete)

	if !ec.ended && !a.errored {
		ec.waiting = true
		a.state = stateWaiting

		event := a.newEvent(ec)
		event.Form = a.element.Form
		event.Context = ec
		a.ctx.emitWait(event)
	}
}

// onContextComplete handles the completion of a singular activation.
// Loop iterations complete through the loop controller instead.
func (a *activity) onContextComplete(ec *executionContext, output map[string]any, err error) {
	if err != nil {
		a.fail(ec, err)
		return
	}

	a.end(ec, output)
	a.leave()
}

// end transitions to ended, folding the context's results into the
// environment's accumulated output.
func (a *activity) end(ec *executionContext, output map[string]any) {
	a.state = stateEnded
	a.lastOutput = output

	a.ctx.Environment.AssignTaskInput(ec.id, ec.signalValue)
	if len(output) != 0 {
		a.ctx.Environment.AssignResult(output)
	}

	a.ctx.emitEnd(a.newEvent(ec))
}

// endLoop transitions to ended once the last loop iteration completed.
// The aggregate, ordered by spawn index, is recorded under the element ID.
func (a *activity) endLoop(results []map[string]any) {
	a.state = stateEnded

	aggregate := make([]any, len(results))
	for i := range results {
		aggregate[i] = results[i]
	}

	a.lastOutput = map[string]any{a.element.Id: aggregate}
	a.ctx.Environment.AssignResult(a.lastOutput)

	a.ctx.emitEnd(a.newEvent(nil))
	a.leave()
}

// leave emits the final transition of a successful activation and fires the
// outbound flows afterwards.
func (a *activity) leave() {
	a.state = stateLeft
	a.taken = true

	a.ctx.emitLeave(a.newEvent(nil))
	a.process.onActivityTerminal(a)

	taken, discarded, err := selectOutbound(a.ctx, a)
	if err != nil {
		event := a.newEvent(nil)
		a.ctx.emitError(event, err)
		a.process.onActivityError(a, event, err)
		a.reset()
		return
	}

	a.reset()

	for _, flow := range taken {
		flow.take()
		a.process.notifyTarget(flow, true)
	}
	for _, flow := range discarded {
		flow.discard()
		a.process.notifyTarget(flow, false)
	}
}

// discard drives an activation that never entered to left.
// No start or end is emitted and all outbound flows are discarded transitively.
func (a *activity) discard() {
	a.state = stateDiscarded
	a.discarded = true
	a.taken = false
	clear(a.discardedInbound)

	a.ctx.emitLeave(a.newEvent(nil))
	a.process.onActivityDiscarded(a)

	a.reset()

	for _, flow := range a.outbound {
		flow.discard()
		a.process.notifyTarget(flow, false)
	}
}

// fail stops the activation without taking any outbound flow.
// The process decides whether the error ends the whole run.
func (a *activity) fail(ec *executionContext, err error) {
	if a.errored {
		return
	}

	a.errored = true
	a.state = stateLeft

	event := a.newEvent(ec)
	a.ctx.emitError(event, err)
	a.process.onActivityTerminal(a)

	a.reset()
	a.process.onActivityError(a, event, err)
}

// reset prepares the machine for a possible re-activation via a loop-back
// flow. The taken/discarded flags survive for state snapshots.
func (a *activity) reset() {
	a.state = stateIdle
	a.execution = nil
	a.loop = nil

	for _, flow := range a.inbound {
		flow.reset()
	}
}

// signal forwards an external signal to the waiting execution context.
// Within a loop, contextId may address one specific iteration.
func (a *activity) signal(contextId string, value any) bool {
	if a.loop != nil {
		return a.loop.signal(contextId, value)
	}

	if a.state != stateWaiting {
		return false
	}
	if contextId != "" && contextId != a.element.Id {
		return false
	}

	return a.execution.Signal(value) == nil
}

// isWaiting reports if the activity has at least one waiting execution context.
func (a *activity) isWaiting() bool {
	if a.loop != nil {
		return a.loop.hasWaiting()
	}
	return a.state == stateWaiting
}

func (a *activity) getState() engine.ActivityState {
	state := engine.ActivityState{
		Id:   a.element.Id,
		Type: a.element.Type.String(),
	}

	switch a.state {
	case stateEntered, stateStarted:
		state.Entered = true
	case stateWaiting:
		state.Entered = true
		state.Waiting = true
	}

	state.Taken = a.taken
	state.Discarded = a.discarded

	if a.state == stateWaiting {
		if a.loop != nil {
			state.Loop = a.loop.getState()
			state.Contexts = a.loop.getContextStates()
		} else {
			state.Contexts = []engine.ExecutionContextState{a.execution.getState()}
		}
	}

	return state
}

// resume restores an activation from a snapshot. A waiting activation
// re-executes its behavior - waiting behaviors hold the callback again - and
// re-emits its wait events, so a listener re-learns the pending work.
func (a *activity) resume(state engine.ActivityState) {
	a.taken = state.Taken
	a.discarded = state.Discarded

	if !state.Waiting {
		return
	}

	a.state = stateWaiting

	if state.Loop != nil {
		a.loop = resumeLoopController(a, state)
		return
	}

	if len(state.Contexts) == 0 {
		return
	}

	ec := resumeExecutionContext(a, state.Contexts[0])
	ec.onComplete = a.onContextComplete
	a.execution = ec

	a.behavior.Execute(ec, ec.complete)
	if !ec.ended {
		ec.waiting = true

		event := a.newEvent(ec)
		event.Form = a.element.Form
		event.Context = ec
		a.ctx.emitWait(event)
	}
}

func (a *activity) newEvent(ec *executionContext) engine.Event {
	event := engine.Event{
		ExecutionId:  a.ctx.ExecutionId,
		DefinitionId: a.ctx.Definitions.Id,
		ProcessId:    a.process.element.Id,
		ElementId:    a.element.Id,
		ElementType:  a.element.Type,
		ContextId:    a.element.Id,
		LoopIndex:    -1,
	}

	if ec != nil {
		event.ContextId = ec.id
		event.LoopIndex = ec.index
	}

	return event
}
