package mem

import (
	"context"
	"testing"

	"github.com/4gsim/bpmn-engine/engine"
	"github.com/4gsim/bpmn-engine/model"
	"github.com/stretchr/testify/assert"
)

func TestSequentialLoop(t *testing.T) {
	assert := assert.New(t)

	// given a user task iterating over a collection, one context at a time
	b := model.NewBuilder("order")

	p := b.Process("orderProcess", true)
	p.StartEvent("start")
	p.UserTask("review",
		model.WithSequentialLoop("", "items"),
		model.WithIo(nil, map[string]string{"item": "${item}", "r": "${signal}"}),
	)
	p.EndEvent("end")
	p.Flow("f1", "start", "review")
	p.Flow("f2", "review", "end")

	recorder := recorder{}

	d := mustCreateDefinition(t, mustBuild(t, b), func(o *Options) {
		o.Common.Listener = recorder.listener()
	})
	defer d.Shutdown()

	err := d.Execute(context.Background(), engine.ExecuteCmd{
		Variables: map[string]any{"items": []any{"x", "y", "z"}},
	})
	if err != nil {
		t.Fatalf("failed to execute definition: %v", err)
	}

	// then only the first context is spawned
	pending := d.GetPendingActivities()
	if len(pending) != 1 {
		t.Fatalf("expected one pending activity, got %d", len(pending))
	}
	assert.Equal("review_0", pending[0].ContextId)

	// when each context is signaled in turn
	for i, value := range []string{"s0", "s1", "s2"} {
		consumed, err := d.Signal(context.Background(), engine.SignalCmd{Value: value})
		assert.Nil(err)
		assert.True(consumed, "signal %d not consumed", i)
	}

	// then contexts never overlap and the aggregate preserves the item order
	assert.Equal(1, recorder.count("wait:review_0"))
	assert.Equal(1, recorder.count("wait:review_1"))
	assert.Equal(1, recorder.count("wait:review_2"))

	output := d.GetOutput()
	assert.Equal([]any{
		map[string]any{"item": "x", "r": "s0"},
		map[string]any{"item": "y", "r": "s1"},
		map[string]any{"item": "z", "r": "s2"},
	}, output["review"])

	state, err := d.GetState()
	assert.Nil(err)
	assert.Equal(engine.StateCompleted, state.State)
}

func TestParallelLoop(t *testing.T) {
	assert := assert.New(t)

	// given a user task with three parallel contexts
	b := model.NewBuilder("order")

	p := b.Process("orderProcess", true)
	p.StartEvent("start")
	p.UserTask("multi",
		model.WithParallelLoop("3", ""),
		model.WithIo(nil, map[string]string{"n": "${signal}"}),
	)
	p.EndEvent("end")
	p.Flow("f1", "start", "multi")
	p.Flow("f2", "multi", "end")

	d := mustCreateDefinition(t, mustBuild(t, b))
	defer d.Shutdown()

	if err := d.Execute(context.Background(), engine.ExecuteCmd{}); err != nil {
		t.Fatalf("failed to execute definition: %v", err)
	}

	// then all contexts are spawned at loop entry
	pending := d.GetPendingActivities()
	if len(pending) != 3 {
		t.Fatalf("expected three pending activities, got %d", len(pending))
	}
	assert.Equal("multi_0", pending[0].ContextId)
	assert.Equal("multi_1", pending[1].ContextId)
	assert.Equal("multi_2", pending[2].ContextId)

	// when signaled in reverse order
	for contextId, value := range map[string]any{"multi_2": "c", "multi_1": "b", "multi_0": "a"} {
		consumed, err := d.Signal(context.Background(), engine.SignalCmd{ActivityId: contextId, Value: value})
		assert.Nil(err)
		assert.True(consumed, "signal for %s not consumed", contextId)
	}

	// then the aggregate is ordered by spawn index, not by signal order
	output := d.GetOutput()
	assert.Equal([]any{
		map[string]any{"n": "a"},
		map[string]any{"n": "b"},
		map[string]any{"n": "c"},
	}, output["multi"])

	state, err := d.GetState()
	assert.Nil(err)
	assert.Equal(engine.StateCompleted, state.State)
}

func TestLoopCardinalityExpression(t *testing.T) {
	assert := assert.New(t)

	// given a non-waiting task looping a computed number of times
	b := model.NewBuilder("order")

	p := b.Process("orderProcess", true)
	p.StartEvent("start")
	p.Task("calc",
		model.WithSequentialLoop("${variables.n}", ""),
		model.WithIo(nil, map[string]string{"i": "${index}"}),
	)
	p.EndEvent("end")
	p.Flow("f1", "start", "calc")
	p.Flow("f2", "calc", "end")

	d := mustCreateDefinition(t, mustBuild(t, b))
	defer d.Shutdown()

	// when
	err := d.Execute(context.Background(), engine.ExecuteCmd{Variables: map[string]any{"n": 2}})

	// then the loop runs to completion without waiting
	assert.Nil(err)

	output := d.GetOutput()
	assert.Equal([]any{
		map[string]any{"i": 0},
		map[string]any{"i": 1},
	}, output["calc"])
}

func TestLoopWithUnknownCollection(t *testing.T) {
	assert := assert.New(t)

	// given
	b := model.NewBuilder("order")

	p := b.Process("orderProcess", true)
	p.StartEvent("start")
	p.Task("review", model.WithSequentialLoop("", "items"))
	p.EndEvent("end")
	p.Flow("f1", "start", "review")
	p.Flow("f2", "review", "end")

	d := mustCreateDefinition(t, mustBuild(t, b))
	defer d.Shutdown()

	// when executed without the collection variable
	err := d.Execute(context.Background(), engine.ExecuteCmd{})

	// then
	engineErr, ok := err.(engine.Error)
	assert.True(ok)
	assert.Equal(engine.ErrorNotFound, engineErr.Type)
}

func TestStopAndResumeMidLoop(t *testing.T) {
	assert := assert.New(t)

	newDefinitions := func() *model.Definitions {
		b := model.NewBuilder("order")

		p := b.Process("orderProcess", true)
		p.StartEvent("start")
		p.UserTask("review",
			model.WithSequentialLoop("", "items"),
			model.WithIo(nil, map[string]string{"r": "${signal}"}),
		)
		p.EndEvent("end")
		p.Flow("f1", "start", "review")
		p.Flow("f2", "review", "end")

		return mustBuild(t, b)
	}

	d := mustCreateDefinition(t, newDefinitions())
	defer d.Shutdown()

	err := d.Execute(context.Background(), engine.ExecuteCmd{
		Variables: map[string]any{"items": []any{"x", "y", "z"}},
	})
	if err != nil {
		t.Fatalf("failed to execute definition: %v", err)
	}

	// given the first iteration completed before the stop
	consumed, err := d.Signal(context.Background(), engine.SignalCmd{Value: "s0"})
	assert.Nil(err)
	assert.True(consumed)

	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("failed to stop definition: %v", err)
	}

	state, err := d.GetState()
	assert.Nil(err)

	reviewState := state.Processes["orderProcess"].Activities["review"]
	if reviewState.Loop == nil {
		t.Fatal("expected a loop state")
	}
	assert.True(reviewState.Loop.IsSequential)
	assert.Equal(3, reviewState.Loop.Cardinality)
	assert.Len(reviewState.Loop.Results, 1)
	assert.Equal(0, reviewState.Loop.Results[0].Index)

	// when resumed in a fresh definition
	resumed := mustCreateDefinition(t, newDefinitions())
	defer resumed.Shutdown()

	if err := resumed.Resume(context.Background(), engine.ResumeCmd{State: state}); err != nil {
		t.Fatalf("failed to resume definition: %v", err)
	}

	pending := resumed.GetPendingActivities()
	if len(pending) != 1 {
		t.Fatalf("expected one pending activity, got %d", len(pending))
	}
	assert.Equal("review_1", pending[0].ContextId)

	for _, value := range []string{"s1", "s2"} {
		consumed, err := resumed.Signal(context.Background(), engine.SignalCmd{Value: value})
		assert.Nil(err)
		assert.True(consumed)
	}

	// then the aggregate contains the result from before the stop
	output := resumed.GetOutput()
	assert.Equal([]any{
		map[string]any{"r": "s0"},
		map[string]any{"r": "s1"},
		map[string]any{"r": "s2"},
	}, output["review"])
}
