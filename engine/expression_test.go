package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	assert := assert.New(t)

	evaluator := NewExprEvaluator()

	context := map[string]any{
		"variables": map[string]any{
			"orderId": 7,
			"name":    "Jane",
		},
	}

	t.Run("no template", func(t *testing.T) {
		// when
		value, err := Resolve(evaluator, "plain text", context)

		// then
		assert.Nil(err)
		assert.Equal("plain text", value)
	})

	t.Run("single template preserves type", func(t *testing.T) {
		// when
		value, err := Resolve(evaluator, "${variables.orderId}", context)

		// then
		assert.Nil(err)
		assert.Equal(7, value)
	})

	t.Run("mixed template interpolates", func(t *testing.T) {
		// when
		value, err := Resolve(evaluator, "order ${variables.orderId} for ${variables.name}", context)

		// then
		assert.Nil(err)
		assert.Equal("order 7 for Jane", value)
	})

	t.Run("undefined variable yields nil", func(t *testing.T) {
		// when
		value, err := Resolve(evaluator, "${variables.unknown}", context)

		// then
		assert.Nil(err)
		assert.Nil(value)
	})

	t.Run("comparison", func(t *testing.T) {
		// when
		value, err := Resolve(evaluator, "${variables.orderId > 5}", context)

		// then
		assert.Nil(err)
		assert.Equal(true, value)
	})

	t.Run("invalid expression", func(t *testing.T) {
		// when
		_, err := Resolve(evaluator, "${variables.orderId >}", context)

		// then
		assert.NotNil(err)
	})
}

func TestIsTruthy(t *testing.T) {
	assert := assert.New(t)

	assert.False(IsTruthy(nil))
	assert.False(IsTruthy(false))
	assert.False(IsTruthy(""))
	assert.False(IsTruthy(0))
	assert.False(IsTruthy(int64(0)))
	assert.False(IsTruthy(float64(0)))

	assert.True(IsTruthy(true))
	assert.True(IsTruthy("x"))
	assert.True(IsTruthy(1))
	assert.True(IsTruthy(0.5))
	assert.True(IsTruthy(map[string]any{}))
}
