package mem

import (
	"testing"

	"github.com/4gsim/bpmn-engine/engine"
	"github.com/4gsim/bpmn-engine/model"
)

func mustCreateDefinition(t *testing.T, definitions *model.Definitions, customizers ...func(*Options)) engine.Definition {
	d, err := New(definitions, customizers...)
	if err != nil {
		t.Fatalf("failed to create definition: %v", err)
	}
	return d
}

func mustBuild(t *testing.T, b *model.Builder) *model.Definitions {
	definitions, err := b.Build()
	if err != nil {
		t.Fatalf("failed to build process graph: %v", err)
	}
	return definitions
}

// recorder captures transitions as "<transition>:<contextId>" strings.
type recorder struct {
	transitions []string
	errs        []error
}

func (r *recorder) listener() engine.Listener {
	return engine.Listener{
		OnEnter: r.record("enter"),
		OnStart: r.record("start"),
		OnWait:  r.record("wait"),
		OnEnd:   r.record("end"),
		OnLeave: r.record("leave"),
		OnError: func(event engine.Event, err error) {
			r.transitions = append(r.transitions, "error:"+event.ContextId)
			r.errs = append(r.errs, err)
		},
	}
}

func (r *recorder) record(transition string) func(engine.Event) {
	return func(event engine.Event) {
		r.transitions = append(r.transitions, transition+":"+event.ContextId)
	}
}

func (r *recorder) count(transition string) int {
	count := 0
	for _, recorded := range r.transitions {
		if recorded == transition {
			count++
		}
	}
	return count
}

func (r *recorder) has(transition string) bool {
	for _, recorded := range r.transitions {
		if recorded == transition {
			return true
		}
	}
	return false
}
