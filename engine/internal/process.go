package internal

import (
	"fmt"

	"github.com/4gsim/bpmn-engine/engine"
	"github.com/4gsim/bpmn-engine/model"
)

// A process drives the activities of one process element.
//
// It owns the sequence flow instances, routes inbound resolutions to the
// target activities and decides when the process run is over: no activation
// in flight, nothing waiting and no message still underway.
type process struct {
	ctx     *Context
	element *model.Element

	activities map[string]*activity
	flows      []*sequenceFlow

	state        string
	runningCount int // activations that entered but did not reach a terminal transition yet

	// pendingMessages counts messages accepted but not yet delivered.
	// Delivery to a process that was started for the message is deferred,
	// and the process must not complete in between.
	pendingMessages int

	err error

	// onEnd is owned by the execution and invoked once per run, after the
	// process completed or failed.
	onEnd func(p *process)
}

func newProcess(ctx *Context, element *model.Element) *process {
	p := process{
		ctx:        ctx,
		element:    element,
		activities: make(map[string]*activity),
		state:      engine.StatePending,
	}

	for _, child := range element.Children {
		p.activities[child.Id] = newActivity(ctx, &p, child)
	}

	// one flow instance per edge, shared between source and target
	for _, child := range element.Children {
		source := p.activities[child.Id]
		for _, outgoing := range child.Outgoing {
			flow := sequenceFlow{model: outgoing}
			p.flows = append(p.flows, &flow)

			source.outbound = append(source.outbound, &flow)

			target := p.activities[outgoing.Target.Id]
			target.inbound = append(target.inbound, &flow)
		}
	}

	return &p
}

// run starts the process by activating its none start events.
// Completion is checked through the tick queue, once the cascade settled.
func (p *process) run() {
	p.state = engine.StateRunning

	p.ctx.emitEnter(p.newEvent())
	p.ctx.emitStart(p.newEvent())

	for _, startEvent := range p.element.ChildrenByType(model.ElementNoneStartEvent) {
		p.activities[startEvent.Id].activate()
	}

	p.ctx.Defer(p.checkComplete)
}

func (p *process) onActivityEnter(a *activity) {
	p.runningCount++
}

// onActivityTerminal is invoked when an activation ended or failed, before
// its outbound flows fire. The completion check is deferred, so that
// downstream activations triggered by the same cascade are counted first.
func (p *process) onActivityTerminal(a *activity) {
	p.runningCount--
	p.ctx.Defer(p.checkComplete)
}

func (p *process) onActivityDiscarded(a *activity) {
	p.ctx.Defer(p.checkComplete)
}

func (p *process) onActivityError(a *activity, event engine.Event, err error) {
	if p.state != engine.StateRunning {
		return
	}

	p.state = engine.StateError
	p.err = err

	p.ctx.Defer(func() {
		if p.onEnd != nil {
			p.onEnd(p)
		}
	})
}

func (p *process) notifyTarget(flow *sequenceFlow, taken bool) {
	target := p.activities[flow.model.Target.Id]
	target.onInbound(flow, taken)
}

// checkComplete completes the process run once it is quiescent.
// The check runs deferred and re-verifies, since work queued between the
// scheduling and the tick may have re-activated the process.
func (p *process) checkComplete() {
	if p.state != engine.StateRunning {
		return
	}
	if p.runningCount != 0 || p.pendingMessages != 0 {
		return
	}

	p.state = engine.StateCompleted

	p.ctx.emitEnd(p.newEvent())
	p.ctx.emitLeave(p.newEvent())

	if p.onEnd != nil {
		p.onEnd(p)
	}
}

// signal forwards an external signal to a waiting activity.
// The ID may address the activity element or one specific execution context,
// e.g. one iteration of a loop.
func (p *process) signal(id string, value any) bool {
	if a, ok := p.activities[id]; ok {
		return a.signal("", value)
	}

	// graph order, so that routing between waiting activities is deterministic
	for _, child := range p.element.Children {
		if p.activities[child.Id].signal(id, value) {
			return true
		}
	}

	return false
}

// sendMessage delivers a message to a catch element.
// An element not yet reached by the token flow is activated first, so the
// message is never lost between activation and delivery.
func (p *process) sendMessage(targetId string, value any) error {
	a, ok := p.activities[targetId]
	if !ok {
		return engine.Error{
			Type:   engine.ErrorNotFound,
			Title:  "failed to send message",
			Detail: fmt.Sprintf("process %s has no element %s", p.element.Id, targetId),
		}
	}

	if !a.isWaiting() && a.state == stateIdle {
		a.activate()
	}

	if !a.signal("", value) {
		return engine.Error{
			Type:   engine.ErrorConflict,
			Title:  "failed to send message",
			Detail: fmt.Sprintf("element %s is not waiting for a message", targetId),
		}
	}

	return nil
}

func (p *process) stop() {
	if p.state == engine.StateRunning {
		p.state = engine.StateStopped
	}
}

func (p *process) isRunning() bool {
	return p.state == engine.StateRunning
}

func (p *process) getState() engine.ProcessState {
	state := engine.ProcessState{
		Id:         p.element.Id,
		Type:       "process",
		State:      p.state,
		Activities: make(map[string]engine.ActivityState),
	}

	for id, a := range p.activities {
		activityState := a.getState()
		if activityState.Entered || activityState.Taken || activityState.Discarded {
			state.Activities[id] = activityState
		}
	}

	if len(state.Activities) == 0 {
		state.Activities = nil
	}

	return state
}

// resume restores the process from a snapshot. A stopped process resumes as
// running. Waiting activities re-emit their wait events while resuming.
func (p *process) resume(state engine.ProcessState) {
	p.state = state.State
	if p.state == engine.StateStopped {
		p.state = engine.StateRunning
	}

	for id, activityState := range state.Activities {
		a := p.activities[id]
		a.resume(activityState)

		if activityState.Entered {
			p.runningCount++
		}
	}

	if p.state == engine.StateRunning {
		p.ctx.Defer(p.checkComplete)
	}
}

func (p *process) newEvent() engine.Event {
	return engine.Event{
		ExecutionId:  p.ctx.ExecutionId,
		DefinitionId: p.ctx.Definitions.Id,
		ProcessId:    p.element.Id,
		ElementId:    p.element.Id,
		ElementType:  model.ElementProcess,
		ContextId:    p.element.Id,
		LoopIndex:    -1,
	}
}
