package model

import (
	"fmt"
)

// NewBuilder creates a builder for a process graph with the given definition ID.
//
//	b := model.NewBuilder("order")
//
//	p := b.Process("orderProcess", true)
//	p.StartEvent("start")
//	p.UserTask("approve")
//	p.EndEvent("end")
//	p.Flow("f1", "start", "approve")
//	p.Flow("f2", "approve", "end")
//
//	definitions, err := b.Build()
func NewBuilder(definitionId string) *Builder {
	return &Builder{definitionId: definitionId}
}

// A Builder constructs a [Definitions] graph programmatically.
// Sequence flows may reference elements that are added later - all references
// are resolved when [Builder.Build] is called.
type Builder struct {
	definitionId string
	processes    []*ProcessBuilder
	messageFlows []*MessageFlow
	errs         []error
}

// Process adds a process element and returns a builder for its children.
func (b *Builder) Process(id string, executable bool) *ProcessBuilder {
	p := &ProcessBuilder{
		b: b,
		element: &Element{
			Id:         id,
			Type:       ElementProcess,
			Executable: executable,
		},
	}

	b.processes = append(b.processes, p)
	return p
}

// MessageFlow connects a message throw event with a catch element of another process.
func (b *Builder) MessageFlow(id string, sourceId string, targetId string) *Builder {
	b.messageFlows = append(b.messageFlows, &MessageFlow{Id: id, SourceId: sourceId, TargetId: targetId})
	return b
}

// Build resolves all sequence flow references and returns the graph.
func (b *Builder) Build() (*Definitions, error) {
	definitions := Definitions{
		Id:           b.definitionId,
		MessageFlows: b.messageFlows,
	}

	elements := make(map[string]*Element)
	for _, p := range b.processes {
		if _, ok := elements[p.element.Id]; ok {
			b.errs = append(b.errs, fmt.Errorf("duplicate element ID %s", p.element.Id))
		}
		elements[p.element.Id] = p.element

		for _, child := range p.element.Children {
			if _, ok := elements[child.Id]; ok {
				b.errs = append(b.errs, fmt.Errorf("duplicate element ID %s", child.Id))
			}
			elements[child.Id] = child
		}
	}

	for _, p := range b.processes {
		for _, flow := range p.flows {
			source, ok := elements[flow.sourceId]
			if !ok {
				b.errs = append(b.errs, fmt.Errorf("sequence flow %s has no source element %s", flow.flow.Id, flow.sourceId))
				continue
			}
			target, ok := elements[flow.targetId]
			if !ok {
				b.errs = append(b.errs, fmt.Errorf("sequence flow %s has no target element %s", flow.flow.Id, flow.targetId))
				continue
			}

			flow.flow.Source = source
			flow.flow.Target = target

			source.Outgoing = append(source.Outgoing, flow.flow)
			target.Incoming = append(target.Incoming, flow.flow)
		}

		definitions.Processes = append(definitions.Processes, p.element)
	}

	for _, messageFlow := range b.messageFlows {
		if _, ok := elements[messageFlow.SourceId]; !ok {
			b.errs = append(b.errs, fmt.Errorf("message flow %s has no source element %s", messageFlow.Id, messageFlow.SourceId))
		}
		if _, ok := elements[messageFlow.TargetId]; !ok {
			b.errs = append(b.errs, fmt.Errorf("message flow %s has no target element %s", messageFlow.Id, messageFlow.TargetId))
		}
	}

	if len(b.errs) != 0 {
		return nil, fmt.Errorf("invalid process graph: %v", b.errs[0])
	}

	return &definitions, nil
}

// A ProcessBuilder adds child elements and sequence flows to one process.
type ProcessBuilder struct {
	b       *Builder
	element *Element
	flows   []builderFlow
}

type builderFlow struct {
	flow     *SequenceFlow
	sourceId string
	targetId string
}

// An ElementOption customizes an element added through a [ProcessBuilder].
type ElementOption func(*Element)

func WithName(name string) ElementOption {
	return func(e *Element) { e.Name = name }
}

// WithDefaultFlow marks the given outgoing sequence flow as the element's default flow.
func WithDefaultFlow(flowId string) ElementOption {
	return func(e *Element) { e.Default = flowId }
}

func WithIo(input map[string]string, output map[string]string) ElementOption {
	return func(e *Element) { e.Io = &IoSpec{Input: input, Output: output} }
}

func WithForm(form Form) ElementOption {
	return func(e *Element) { e.Form = &form }
}

// WithSequentialLoop repeats the element once per iteration, one at a time.
// cardinality is an expression or integer literal; collection names an
// environment variable holding the items - one of both must be empty.
func WithSequentialLoop(cardinality string, collection string) ElementOption {
	return func(e *Element) {
		e.Loop = &LoopCharacteristics{Sequential: true, Cardinality: cardinality, Collection: collection}
	}
}

// WithParallelLoop repeats the element once per iteration, all iterations at once.
func WithParallelLoop(cardinality string, collection string) ElementOption {
	return func(e *Element) {
		e.Loop = &LoopCharacteristics{Cardinality: cardinality, Collection: collection}
	}
}

func WithTimer(timer Timer) ElementOption {
	return func(e *Element) { e.Timer = &timer }
}

// Element adds a child element of an arbitrary type.
func (p *ProcessBuilder) Element(id string, elementType ElementType, options ...ElementOption) *ProcessBuilder {
	element := &Element{
		Id:     id,
		Type:   elementType,
		Parent: p.element,
	}

	for _, option := range options {
		option(element)
	}

	p.element.Children = append(p.element.Children, element)
	return p
}

func (p *ProcessBuilder) StartEvent(id string, options ...ElementOption) *ProcessBuilder {
	return p.Element(id, ElementNoneStartEvent, options...)
}

func (p *ProcessBuilder) EndEvent(id string, options ...ElementOption) *ProcessBuilder {
	return p.Element(id, ElementNoneEndEvent, options...)
}

func (p *ProcessBuilder) Task(id string, options ...ElementOption) *ProcessBuilder {
	return p.Element(id, ElementTask, options...)
}

func (p *ProcessBuilder) ManualTask(id string, options ...ElementOption) *ProcessBuilder {
	return p.Element(id, ElementManualTask, options...)
}

func (p *ProcessBuilder) UserTask(id string, options ...ElementOption) *ProcessBuilder {
	return p.Element(id, ElementUserTask, options...)
}

func (p *ProcessBuilder) ServiceTask(id string, options ...ElementOption) *ProcessBuilder {
	return p.Element(id, ElementServiceTask, options...)
}

func (p *ProcessBuilder) ExclusiveGateway(id string, options ...ElementOption) *ProcessBuilder {
	return p.Element(id, ElementExclusiveGateway, options...)
}

func (p *ProcessBuilder) MessageThrowEvent(id string, options ...ElementOption) *ProcessBuilder {
	return p.Element(id, ElementMessageThrowEvent, options...)
}

func (p *ProcessBuilder) MessageCatchEvent(id string, options ...ElementOption) *ProcessBuilder {
	return p.Element(id, ElementMessageCatchEvent, options...)
}

func (p *ProcessBuilder) TimerCatchEvent(id string, timer Timer, options ...ElementOption) *ProcessBuilder {
	options = append(options, WithTimer(timer))
	return p.Element(id, ElementTimerCatchEvent, options...)
}

// Flow adds an unconditional sequence flow between two elements.
func (p *ProcessBuilder) Flow(id string, sourceId string, targetId string) *ProcessBuilder {
	return p.ConditionalFlow(id, sourceId, targetId, "")
}

// ConditionalFlow adds a sequence flow that is taken only when the condition
// expression evaluates to a truthy value.
func (p *ProcessBuilder) ConditionalFlow(id string, sourceId string, targetId string, condition string) *ProcessBuilder {
	p.flows = append(p.flows, builderFlow{
		flow:     &SequenceFlow{Id: id, Condition: condition},
		sourceId: sourceId,
		targetId: targetId,
	})
	return p
}
