package model

import "time"

// An Element is one node of a process graph.
// Process elements own their children, all other elements are leaves.
type Element struct {
	Id   string
	Name string
	Type ElementType

	Parent   *Element
	Incoming []*SequenceFlow
	Outgoing []*SequenceFlow

	Children []*Element // children of a process element

	Executable bool   // marks a process element as executable
	Default    string // ID of the default outgoing sequence flow

	Io    *IoSpec              // optional input/output parameter mappings
	Form  *Form                // optional form, exposed when a user task waits
	Loop  *LoopCharacteristics // optional multi-instance characteristics
	Timer *Timer               // optional timer definition of a timer catch event
}

func (e *Element) ChildById(id string) *Element {
	for i := 0; i < len(e.Children); i++ {
		if e.Children[i].Id == id {
			return e.Children[i]
		}
	}
	return nil
}

func (e *Element) ChildrenByType(elementType ElementType) []*Element {
	var elements []*Element
	for i := 0; i < len(e.Children); i++ {
		if e.Children[i].Type == elementType {
			elements = append(elements, e.Children[i])
		}
	}
	return elements
}

func (e *Element) OutgoingById(id string) *SequenceFlow {
	for i := 0; i < len(e.Outgoing); i++ {
		if e.Outgoing[i].Id == id {
			return e.Outgoing[i]
		}
	}
	return nil
}

// A SequenceFlow is a directed, possibly conditional, edge between two elements.
type SequenceFlow struct {
	Id     string
	Source *Element
	Target *Element

	// Condition is an optional expression like "${variables.approved}".
	// An unconditional, non-default flow is always taken.
	Condition string
}

// IsDefault indicates if the flow is the default outgoing sequence flow of its source element.
func (f *SequenceFlow) IsDefault() bool {
	return f.Source != nil && f.Source.Default == f.Id
}

// A MessageFlow connects a message throw event with a catch element in another process.
type MessageFlow struct {
	Id       string
	SourceId string
	TargetId string
}

// IoSpec maps input and output parameters of an element.
//
// Input expressions are resolved against the environment when the element is activated.
// Output expressions are resolved when the element completes, with the resolved input
// parameters and an optional "signal" value in scope.
type IoSpec struct {
	Input  map[string]string
	Output map[string]string
}

// A Form describes the fields a waiting user task expects to be filled.
type Form struct {
	Key    string
	Fields []FormField
}

type FormField struct {
	Id           string
	Label        string
	Type         string
	DefaultValue string // optional expression like "${variables.assignee}"
}

// LoopCharacteristics declare multi-instance repetition of an element.
// Either Cardinality or Collection must be set.
type LoopCharacteristics struct {
	Sequential  bool
	Cardinality string // expression or integer literal, yielding the number of iterations
	Collection  string // name of an environment variable holding the items to iterate
}

// A Timer defines when a timer catch event is due.
// Exactly one of Time, TimeCycle or TimeDuration must be set.
type Timer struct {
	Time         time.Time
	TimeCycle    string // cron expression
	TimeDuration string // ISO 8601 duration
}

func (t Timer) IsZero() bool {
	return t.Time.IsZero() && t.TimeCycle == "" && t.TimeDuration == ""
}
