package mem

import (
	"context"
	"testing"

	"github.com/4gsim/bpmn-engine/engine"
	"github.com/4gsim/bpmn-engine/model"
	"github.com/stretchr/testify/assert"
)

func newCollaboration(t *testing.T) *model.Definitions {
	b := model.NewBuilder("collab")

	buyer := b.Process("buyer", true)
	buyer.StartEvent("start1")
	buyer.MessageThrowEvent("sendOrder", model.WithIo(map[string]string{"orderId": "${variables.orderId}"}, nil))
	buyer.EndEvent("end1")
	buyer.Flow("f1", "start1", "sendOrder")
	buyer.Flow("f2", "sendOrder", "end1")

	seller := b.Process("seller", false)
	seller.StartEvent("start2")
	seller.MessageCatchEvent("receiveOrder", model.WithIo(nil, map[string]string{"received": "${signal.orderId}"}))
	seller.EndEvent("end2")
	seller.Flow("f3", "start2", "receiveOrder")
	seller.Flow("f4", "receiveOrder", "end2")

	b.MessageFlow("m1", "sendOrder", "receiveOrder")

	return mustBuild(t, b)
}

func TestMessageThrowStartsTargetProcess(t *testing.T) {
	assert := assert.New(t)

	// given
	recorder := recorder{}

	d := mustCreateDefinition(t, newCollaboration(t), func(o *Options) {
		o.Common.Listener = recorder.listener()
	})
	defer d.Shutdown()

	// when
	err := d.Execute(context.Background(), engine.ExecuteCmd{Variables: map[string]any{"orderId": 7}})

	// then the message is delivered after the seller's start cascade settled
	assert.Nil(err)

	assert.True(recorder.has("start:seller"))
	assert.True(recorder.has("wait:receiveOrder"))
	assert.True(recorder.has("start:end2"))

	assert.Equal(7, d.GetOutput()["received"])

	state, stateErr := d.GetState()
	assert.Nil(stateErr)
	assert.Equal(engine.StateCompleted, state.State)
	assert.Equal(engine.StateCompleted, state.Processes["buyer"].State)
	assert.Equal(engine.StateCompleted, state.Processes["seller"].State)
}

func TestSendMessage(t *testing.T) {
	assert := assert.New(t)

	// given a collaboration whose seller is not started by the buyer
	b := model.NewBuilder("collab")

	buyer := b.Process("buyer", true)
	buyer.StartEvent("start1")
	buyer.EndEvent("end1")
	buyer.Flow("f1", "start1", "end1")

	seller := b.Process("seller", false)
	seller.StartEvent("start2")
	seller.MessageCatchEvent("receiveOrder", model.WithIo(nil, map[string]string{"received": "${signal.orderId}"}))
	seller.EndEvent("end2")
	seller.Flow("f2", "start2", "receiveOrder")
	seller.Flow("f3", "receiveOrder", "end2")

	d := mustCreateDefinition(t, mustBuild(t, b))
	defer d.Shutdown()

	if err := d.Execute(context.Background(), engine.ExecuteCmd{}); err != nil {
		t.Fatalf("failed to execute definition: %v", err)
	}

	// when
	err := d.SendMessage(context.Background(), engine.SendMessageCmd{
		TargetId: "receiveOrder",
		Value:    map[string]any{"orderId": 9},
	})

	// then
	assert.Nil(err)
	assert.Equal(9, d.GetOutput()["received"])

	// a message to the now completed process is rejected
	err = d.SendMessage(context.Background(), engine.SendMessageCmd{
		TargetId: "receiveOrder",
		Value:    map[string]any{"orderId": 10},
	})

	engineErr, ok := err.(engine.Error)
	assert.True(ok)
	assert.Equal(engine.ErrorConflict, engineErr.Type)
}

func TestSendMessageValidation(t *testing.T) {
	assert := assert.New(t)

	d := mustCreateDefinition(t, newCollaboration(t))
	defer d.Shutdown()

	t.Run("empty target", func(t *testing.T) {
		// when
		err := d.SendMessage(context.Background(), engine.SendMessageCmd{})

		// then
		engineErr, ok := err.(engine.Error)
		assert.True(ok)
		assert.Equal(engine.ErrorValidation, engineErr.Type)
	})

	t.Run("unknown target", func(t *testing.T) {
		// when
		err := d.SendMessage(context.Background(), engine.SendMessageCmd{TargetId: "unknown"})

		// then
		engineErr, ok := err.(engine.Error)
		assert.True(ok)
		assert.Equal(engine.ErrorNotFound, engineErr.Type)
	})
}
