package model

// Definitions is the root of a parsed process graph: one or more processes plus
// the message flows that connect them.
//
// A Definitions value is immutable after construction - the execution engine
// only reads it. Use a [Builder] to construct one programmatically.
type Definitions struct {
	Id string

	Processes    []*Element
	MessageFlows []*MessageFlow
}

// ExecutableProcessId returns the ID of the first executable process, or an
// empty string, if no process is executable.
func (d *Definitions) ExecutableProcessId() string {
	for i := range d.Processes {
		if d.Processes[i].Executable {
			return d.Processes[i].Id
		}
	}
	return ""
}

// ProcessById returns the process with the given id, or nil, if no such process exists.
func (d *Definitions) ProcessById(id string) *Element {
	for i := range d.Processes {
		if d.Processes[i].Id == id {
			return d.Processes[i]
		}
	}
	return nil
}

// ProcessByElementId returns the process owning the element with the given id,
// or nil, if no process owns such an element.
func (d *Definitions) ProcessByElementId(id string) *Element {
	for i := range d.Processes {
		if d.Processes[i].ChildById(id) != nil {
			return d.Processes[i]
		}
	}
	return nil
}

// ElementById returns the element with the given id within any process, or nil.
func (d *Definitions) ElementById(id string) *Element {
	for i := range d.Processes {
		if d.Processes[i].Id == id {
			return d.Processes[i]
		}
		if element := d.Processes[i].ChildById(id); element != nil {
			return element
		}
	}
	return nil
}

// MessageFlowBySourceId returns the message flow leaving the given element, or nil.
func (d *Definitions) MessageFlowBySourceId(sourceId string) *MessageFlow {
	for i := range d.MessageFlows {
		if d.MessageFlows[i].SourceId == sourceId {
			return d.MessageFlows[i]
		}
	}
	return nil
}
