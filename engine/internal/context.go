package internal

import (
	"time"

	"github.com/4gsim/bpmn-engine/engine"
	"github.com/4gsim/bpmn-engine/model"
)

// Context carries everything one run needs: the graph, the options, the
// environment and the tick queue used for deliberate deferrals.
type Context struct {
	Definitions *model.Definitions
	Options     engine.Options
	Evaluator   engine.Evaluator
	Environment *engine.Environment
	ExecutionId string

	// Now returns the engine's current time. The owning engine may apply a
	// testing offset (see SetTime).
	Now func() time.Time

	// Route delivers a message to a catch element, set by the execution.
	Route func(targetId string, value any) error

	queue    []func()
	draining bool
}

func (c *Context) Time() time.Time {
	return c.Now()
}

// Defer queues work to run after the current synchronous cascade settled.
// The run has exactly two uses for this: delivering a message to a process
// that was just spun up, and completing a definition or process run.
func (c *Context) Defer(fn func()) {
	c.queue = append(c.queue, fn)
}

// Drain runs deferred work until the queue is empty.
// Nested calls return immediately - the outermost cascade drains everything.
func (c *Context) Drain() {
	if c.draining {
		return
	}

	c.draining = true
	for len(c.queue) != 0 {
		fn := c.queue[0]
		c.queue = c.queue[1:]
		fn()
	}
	c.draining = false
}

func (c *Context) emitEnter(event engine.Event) {
	if fn := c.Options.Listener.OnEnter; fn != nil {
		fn(event)
	}
}

func (c *Context) emitStart(event engine.Event) {
	if fn := c.Options.Listener.OnStart; fn != nil {
		fn(event)
	}
}

func (c *Context) emitWait(event engine.Event) {
	if fn := c.Options.Listener.OnWait; fn != nil {
		fn(event)
	}
}

func (c *Context) emitEnd(event engine.Event) {
	if fn := c.Options.Listener.OnEnd; fn != nil {
		fn(event)
	}
}

func (c *Context) emitLeave(event engine.Event) {
	if fn := c.Options.Listener.OnLeave; fn != nil {
		fn(event)
	}
}

func (c *Context) emitError(event engine.Event, err error) {
	if fn := c.Options.Listener.OnError; fn != nil {
		fn(event, err)
	}
}
