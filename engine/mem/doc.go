// Package mem implements an in-memory process engine.
/*
mem provides a full implementation of the [engine.Definition] interface.

Create a Definition

Since testing must be deterministic, a mem definition is created with a
disabled timer executor, not running a goroutine. Timers then fire through
SetTime only. If a timer executor is needed, it can be configured via
[mem.Options].Common.TimerExecutorEnabled.

	d, err := mem.New(definitions, func(o *mem.Options) {
		o.Common.TimerExecutorEnabled = true
	})
	if err != nil {
		log.Fatalf("failed to create definition: %v", err)
	}

	defer d.Shutdown()
*/
package mem
