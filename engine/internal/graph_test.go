package internal

import (
	"testing"

	"github.com/4gsim/bpmn-engine/engine"
	"github.com/4gsim/bpmn-engine/model"
	"github.com/stretchr/testify/assert"
)

func mustBuild(t *testing.T, b *model.Builder) *model.Definitions {
	definitions, err := b.Build()
	if err != nil {
		t.Fatalf("failed to build process graph: %v", err)
	}
	return definitions
}

func TestValidateGraph(t *testing.T) {
	assert := assert.New(t)

	t.Run("valid", func(t *testing.T) {
		b := model.NewBuilder("order")

		p := b.Process("orderProcess", true)
		p.StartEvent("start")
		p.EndEvent("end")
		p.Flow("f1", "start", "end")

		// when
		causes := validateGraph(mustBuild(t, b))

		// then
		assert.Empty(causes)
	})

	t.Run("no executable process", func(t *testing.T) {
		b := model.NewBuilder("order")

		p := b.Process("orderProcess", false)
		p.StartEvent("start")
		p.EndEvent("end")
		p.Flow("f1", "start", "end")

		// when
		causes := validateGraph(mustBuild(t, b))

		// then
		assert.Len(causes, 1)
		assert.Equal("definitions", causes[0].Type)
	})

	t.Run("no start event", func(t *testing.T) {
		b := model.NewBuilder("order")

		p := b.Process("orderProcess", true)
		p.UserTask("approve")

		// when
		causes := validateGraph(mustBuild(t, b))

		// then
		assert.Len(causes, 1)
		assert.Equal("process", causes[0].Type)
	})

	t.Run("unknown default flow", func(t *testing.T) {
		b := model.NewBuilder("order")

		p := b.Process("orderProcess", true)
		p.StartEvent("start")
		p.ExclusiveGateway("gw", model.WithDefaultFlow("unknown"))
		p.EndEvent("end")
		p.Flow("f1", "start", "gw")
		p.Flow("f2", "gw", "end")

		// when
		causes := validateGraph(mustBuild(t, b))

		// then
		assert.Len(causes, 1)
		assert.Equal("element", causes[0].Type)
		assert.Equal("/orderProcess/gw", causes[0].Pointer)
	})

	t.Run("loop with cardinality and collection", func(t *testing.T) {
		b := model.NewBuilder("order")

		p := b.Process("orderProcess", true)
		p.StartEvent("start")
		p.Task("review", model.WithSequentialLoop("3", "items"))
		p.EndEvent("end")
		p.Flow("f1", "start", "review")
		p.Flow("f2", "review", "end")

		// when
		causes := validateGraph(mustBuild(t, b))

		// then
		assert.Len(causes, 1)
		assert.Equal("element", causes[0].Type)
	})

	t.Run("timer catch event without timer", func(t *testing.T) {
		b := model.NewBuilder("order")

		p := b.Process("orderProcess", true)
		p.StartEvent("start")
		p.Element("wait1h", model.ElementTimerCatchEvent)
		p.EndEvent("end")
		p.Flow("f1", "start", "wait1h")
		p.Flow("f2", "wait1h", "end")

		// when
		causes := validateGraph(mustBuild(t, b))

		// then
		assert.Len(causes, 1)
		assert.Equal("element", causes[0].Type)
	})
}

func TestValidateState(t *testing.T) {
	assert := assert.New(t)

	b := model.NewBuilder("order")

	p := b.Process("orderProcess", true)
	p.StartEvent("start")
	p.EndEvent("end")
	p.Flow("f1", "start", "end")

	definitions := mustBuild(t, b)

	t.Run("unknown process", func(t *testing.T) {
		state := engine.DefinitionState{
			Id: "order",
			Processes: map[string]engine.ProcessState{
				"unknown": {Id: "unknown", Type: "process", State: engine.StateStopped},
			},
		}

		// when
		causes := validateState(definitions, state)

		// then
		assert.Len(causes, 1)
		assert.Equal("state", causes[0].Type)
	})

	t.Run("unknown element", func(t *testing.T) {
		state := engine.DefinitionState{
			Id: "order",
			Processes: map[string]engine.ProcessState{
				"orderProcess": {
					Id:    "orderProcess",
					Type:  "process",
					State: engine.StateStopped,
					Activities: map[string]engine.ActivityState{
						"bogus": {Id: "bogus", Type: "TASK"},
					},
				},
			},
		}

		// when
		causes := validateState(definitions, state)

		// then
		assert.Len(causes, 1)
		assert.Equal("/orderProcess/bogus", causes[0].Pointer)
	})

	t.Run("different definition", func(t *testing.T) {
		state := engine.DefinitionState{Id: "other"}

		// when
		causes := validateState(definitions, state)

		// then
		assert.Len(causes, 1)
	})
}
