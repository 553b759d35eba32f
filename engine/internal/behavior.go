package internal

import (
	"fmt"

	"github.com/4gsim/bpmn-engine/engine"
	"github.com/4gsim/bpmn-engine/model"
)

// newBehavior returns the behavior for an element, honoring a configured
// behavior factory override first.
func newBehavior(ctx *Context, element *model.Element) engine.Behavior {
	if factory := ctx.Options.BehaviorFactory; factory != nil {
		if behavior := factory(element); behavior != nil {
			return behavior
		}
	}

	switch element.Type {
	case model.ElementManualTask, model.ElementUserTask, model.ElementMessageCatchEvent:
		return waitBehavior{}
	case model.ElementServiceTask:
		return serviceBehavior{ctx: ctx}
	case model.ElementMessageThrowEvent:
		return throwBehavior{ctx: ctx}
	case model.ElementTimerCatchEvent:
		return timerBehavior{ctx: ctx}
	default:
		return passBehavior{}
	}
}

// passBehavior completes immediately, without output.
// Start events, end events, gateways and plain tasks use it.
type passBehavior struct{}

func (passBehavior) Execute(ec engine.ExecutionContext, complete func(output map[string]any, err error)) {
	complete(nil, nil)
}

// waitBehavior holds the completion callback until the execution context is
// signaled. User tasks, manual tasks and message catch events use it.
type waitBehavior struct{}

func (waitBehavior) Execute(ec engine.ExecutionContext, complete func(output map[string]any, err error)) {
}

// serviceBehavior runs the service function registered for the element,
// synchronously, passing the resolved input parameters.
type serviceBehavior struct {
	ctx *Context
}

func (b serviceBehavior) Execute(ec engine.ExecutionContext, complete func(output map[string]any, err error)) {
	service, ok := b.ctx.Options.Services[ec.ElementId()]
	if !ok {
		complete(nil, engine.Error{
			Type:   engine.ErrorNotFound,
			Title:  "failed to execute service task",
			Detail: fmt.Sprintf("no service registered for element %s", ec.ElementId()),
		})
		return
	}

	complete(service(ec.Input()))
}

// throwBehavior routes a message along the element's message flow and
// completes. The resolved input parameters become the message value.
type throwBehavior struct {
	ctx *Context
}

func (b throwBehavior) Execute(ec engine.ExecutionContext, complete func(output map[string]any, err error)) {
	messageFlow := b.ctx.Definitions.MessageFlowBySourceId(ec.ElementId())
	if messageFlow == nil {
		complete(nil, engine.Error{
			Type:   engine.ErrorProcessModel,
			Title:  "failed to throw message",
			Detail: fmt.Sprintf("element %s has no outgoing message flow", ec.ElementId()),
		})
		return
	}

	var value any
	if input := ec.Input(); len(input) != 0 {
		value = input
	}

	if err := b.ctx.Route(messageFlow.TargetId, value); err != nil {
		complete(nil, err)
		return
	}

	complete(nil, nil)
}

// timerBehavior computes the due date on first execution and holds the
// callback. A restored context keeps its original due date.
type timerBehavior struct {
	ctx *Context
}

func (b timerBehavior) Execute(ec engine.ExecutionContext, complete func(output map[string]any, err error)) {
	tec := ec.(*executionContext)
	if tec.dueAt != nil {
		return
	}

	dueAt, err := evaluateTimer(tec.activity.element.Timer, b.ctx.Time())
	if err != nil {
		complete(nil, err)
		return
	}

	tec.dueAt = &dueAt
}
