package internal

import (
	"github.com/4gsim/bpmn-engine/engine"
	"github.com/4gsim/bpmn-engine/model"
)

// A sequenceFlow wraps one graph edge with its per-activation outcome.
// An upstream activation fires the flow exactly once: taken or discarded,
// never both. The outcome is reset when the source activity is re-activated.
type sequenceFlow struct {
	model *model.SequenceFlow

	taken     bool
	discarded bool
}

func (f *sequenceFlow) take() {
	f.taken = true
	f.discarded = false
}

func (f *sequenceFlow) discard() {
	f.discarded = true
	f.taken = false
}

func (f *sequenceFlow) reset() {
	f.taken = false
	f.discarded = false
}

// selectOutbound decides which outbound flows fire when an activity leaves.
//
// A flow with a condition is taken only if the condition evaluates truthy
// against the current environment and the activity's output. If no
// conditional flow is satisfied, the default flow is taken. Unconditional,
// non-default flows are always taken.
func selectOutbound(ctx *Context, a *activity) (taken []*sequenceFlow, discarded []*sequenceFlow, err error) {
	conditionContext := map[string]any{
		"variables": ctx.Environment.Variables(),
		"output":    a.lastOutput,
	}

	var defaultFlow *sequenceFlow
	conditionSatisfied := false

	for _, flow := range a.outbound {
		if flow.model.IsDefault() {
			defaultFlow = flow
			continue
		}

		if flow.model.Condition == "" {
			taken = append(taken, flow)
			continue
		}

		result, resolveErr := engine.Resolve(ctx.Evaluator, flow.model.Condition, conditionContext)
		if resolveErr != nil {
			return nil, nil, resolveErr
		}

		if engine.IsTruthy(result) {
			taken = append(taken, flow)
			conditionSatisfied = true
		} else {
			discarded = append(discarded, flow)
		}
	}

	if defaultFlow != nil {
		if conditionSatisfied {
			discarded = append(discarded, defaultFlow)
		} else {
			taken = append(taken, defaultFlow)
		}
	}

	return taken, discarded, nil
}
