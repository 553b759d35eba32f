package internal

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/4gsim/bpmn-engine/engine"
)

// A loopController drives the multi-instance repetition of one activity.
//
// Sequential mode spawns execution context i only after context i-1 ended.
// Parallel mode spawns all contexts at loop entry, tolerating signals in any
// order - including reverse. Either way the aggregate preserves the spawn
// index order: each result's position is fixed when its context is spawned,
// not when it completes.
type loopController struct {
	activity *activity

	sequential  bool
	cardinality int
	items       []any // nil for a pure cardinality loop

	contexts map[int]*executionContext // active contexts by spawn index
	results  []map[string]any          // indexed by spawn position
	done     []bool

	completedCount int
}

func newLoopController(a *activity) (*loopController, error) {
	loop := loopController{
		activity:   a,
		sequential: a.element.Loop.Sequential,
		contexts:   make(map[int]*executionContext),
	}

	characteristics := a.element.Loop
	if characteristics.Collection != "" {
		value, ok := a.ctx.Environment.Get(characteristics.Collection)
		if !ok {
			return nil, engine.Error{
				Type:   engine.ErrorNotFound,
				Title:  "failed to start loop",
				Detail: fmt.Sprintf("environment has no collection variable %s", characteristics.Collection),
			}
		}

		items, ok := value.([]any)
		if !ok {
			return nil, engine.Error{
				Type:   engine.ErrorConflict,
				Title:  "failed to start loop",
				Detail: fmt.Sprintf("collection variable %s is not a list", characteristics.Collection),
			}
		}

		loop.items = items
		loop.cardinality = len(items)
	} else {
		value, err := engine.Resolve(a.ctx.Evaluator, characteristics.Cardinality, map[string]any{
			"variables": a.ctx.Environment.Variables(),
		})
		if err != nil {
			return nil, err
		}

		cardinality, ok := toInt(value)
		if !ok || cardinality < 0 {
			return nil, engine.Error{
				Type:   engine.ErrorConflict,
				Title:  "failed to start loop",
				Detail: fmt.Sprintf("loop cardinality %v is not a non-negative integer", value),
			}
		}

		loop.cardinality = cardinality
	}

	loop.results = make([]map[string]any, loop.cardinality)
	loop.done = make([]bool, loop.cardinality)

	return &loop, nil
}

func (l *loopController) start() {
	if l.cardinality == 0 {
		l.activity.endLoop(nil)
		return
	}

	if l.sequential {
		l.spawn(0)
		return
	}

	for i := 0; i < l.cardinality; i++ {
		l.spawn(i)

		if l.activity.errored {
			return
		}
	}
}

func (l *loopController) spawn(index int) {
	extra := map[string]any{"index": index}
	if l.items != nil {
		extra["item"] = l.items[index]
	}

	ec, err := newExecutionContext(l.activity, fmt.Sprintf("%s_%d", l.activity.element.Id, index), index, extra)
	if err != nil {
		l.activity.fail(nil, err)
		return
	}

	ec.onComplete = l.onContextComplete
	l.contexts[index] = ec

	l.run(ec)
}

func (l *loopController) run(ec *executionContext) {
	l.activity.behavior.Execute(ec, ec.complete)

	if !ec.ended && !l.activity.errored {
		ec.waiting = true
		l.activity.state = stateWaiting

		event := l.activity.newEvent(ec)
		event.Form = l.activity.element.Form
		event.Context = ec
		l.activity.ctx.emitWait(event)
	}
}

// onContextComplete folds one iteration's output into the aggregate at its
// fixed spawn position. The iteration's end event carries IsLoopContext, so
// a listener can tell it apart from the aggregate end of the activity.
func (l *loopController) onContextComplete(ec *executionContext, output map[string]any, err error) {
	if err != nil {
		l.activity.fail(ec, err)
		return
	}

	delete(l.contexts, ec.index)
	l.results[ec.index] = output
	l.done[ec.index] = true
	l.completedCount++

	l.activity.ctx.Environment.AssignTaskInput(ec.id, ec.signalValue)

	event := l.activity.newEvent(ec)
	event.IsLoopContext = true
	l.activity.ctx.emitEnd(event)

	if l.completedCount == l.cardinality {
		l.activity.endLoop(l.results)
		return
	}

	if l.sequential {
		l.spawn(ec.index + 1)
	}
}

// signal forwards a signal to the waiting context with the given ID, or to
// the lowest-index waiting context, if no ID is given.
func (l *loopController) signal(contextId string, value any) bool {
	if contextId != "" {
		for _, ec := range l.contexts {
			if ec.id == contextId && ec.waiting {
				return ec.Signal(value) == nil
			}
		}
		return false
	}

	indexes := l.waitingIndexes()
	if len(indexes) == 0 {
		return false
	}

	return l.contexts[indexes[0]].Signal(value) == nil
}

func (l *loopController) hasWaiting() bool {
	return len(l.waitingIndexes()) != 0
}

func (l *loopController) waitingIndexes() []int {
	var indexes []int
	for index, ec := range l.contexts {
		if ec.waiting {
			indexes = append(indexes, index)
		}
	}

	sort.Ints(indexes)
	return indexes
}

func (l *loopController) getState() *engine.LoopState {
	state := engine.LoopState{
		IsSequential: l.sequential,
		Cardinality:  l.cardinality,
		Items:        l.items,
	}

	for index, output := range l.results {
		if l.done[index] {
			state.Results = append(state.Results, engine.LoopResult{Index: index, Output: output})
		}
	}

	return &state
}

func (l *loopController) getContextStates() []engine.ExecutionContextState {
	indexes := l.waitingIndexes()

	states := make([]engine.ExecutionContextState, len(indexes))
	for i, index := range indexes {
		states[i] = l.contexts[index].getState()
	}
	return states
}

// resumeLoopController restores a loop mid-flight: accumulated results stay
// untouched and only the contexts that were still pending are re-spawned, in
// their original order.
func resumeLoopController(a *activity, state engine.ActivityState) *loopController {
	loop := loopController{
		activity:    a,
		sequential:  state.Loop.IsSequential,
		cardinality: state.Loop.Cardinality,
		items:       state.Loop.Items,
		contexts:    make(map[int]*executionContext),
		results:     make([]map[string]any, state.Loop.Cardinality),
		done:        make([]bool, state.Loop.Cardinality),
	}

	for _, result := range state.Loop.Results {
		loop.results[result.Index] = result.Output
		loop.done[result.Index] = true
		loop.completedCount++
	}

	for _, contextState := range state.Contexts {
		ec := resumeExecutionContext(a, contextState)
		ec.onComplete = loop.onContextComplete
		loop.contexts[contextState.Index] = ec

		loop.run(ec)
	}

	return &loop
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), v == float64(int(v))
	case string: // integer literal
		i, err := strconv.Atoi(v)
		return i, err == nil
	default:
		return 0, false
	}
}
