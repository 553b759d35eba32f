package internal

import (
	"fmt"
	"slices"
	"strings"

	"github.com/4gsim/bpmn-engine/engine"
	"github.com/4gsim/bpmn-engine/model"
)

// validateGraph validates if the definitions and their elements can be executed.
// If the graph is invalid, causes are returned.
func validateGraph(definitions *model.Definitions) []engine.ErrorCause {
	var causes []engine.ErrorCause

	if len(definitions.Processes) == 0 {
		causes = append(causes, engine.ErrorCause{
			Pointer: "/",
			Type:    "definitions",
			Detail:  "definitions have no process",
		})
		return causes
	}

	if definitions.ExecutableProcessId() == "" {
		causes = append(causes, engine.ErrorCause{
			Pointer: "/",
			Type:    "definitions",
			Detail:  "definitions have no executable process",
		})
	}

	for _, processElement := range definitions.Processes {
		if processElement.Id == "" {
			causes = append(causes, engine.ErrorCause{
				Pointer: elementPointer(processElement),
				Type:    "process",
				Detail:  "process has no ID",
			})
		}

		if len(processElement.ChildrenByType(model.ElementNoneStartEvent)) == 0 {
			causes = append(causes, engine.ErrorCause{
				Pointer: elementPointer(processElement),
				Type:    "process",
				Detail:  fmt.Sprintf("process %s has no none start event element", processElement.Id),
			})
		}

		for _, element := range processElement.Children {
			if element.Id == "" {
				causes = append(causes, engine.ErrorCause{
					Pointer: elementPointer(element),
					Type:    "element",
					Detail:  fmt.Sprintf("element of type %s has no ID", element.Type),
				})
			}

			if element.Default != "" {
				sequenceFlow := element.OutgoingById(element.Default)
				if sequenceFlow == nil || sequenceFlow.Source != element {
					causes = append(causes, engine.ErrorCause{
						Pointer: elementPointer(element),
						Type:    "element",
						Detail:  fmt.Sprintf("element %s has no default sequence flow %s", element.Id, element.Default),
					})
				}
			}

			if element.Loop != nil {
				hasCardinality := element.Loop.Cardinality != ""
				hasCollection := element.Loop.Collection != ""
				if hasCardinality == hasCollection {
					causes = append(causes, engine.ErrorCause{
						Pointer: elementPointer(element),
						Type:    "element",
						Detail:  fmt.Sprintf("element %s must specify either a loop cardinality or a loop collection", element.Id),
					})
				}
			}

			if element.Type == model.ElementTimerCatchEvent && (element.Timer == nil || element.Timer.IsZero()) {
				causes = append(causes, engine.ErrorCause{
					Pointer: elementPointer(element),
					Type:    "element",
					Detail:  fmt.Sprintf("timer catch event %s has no timer definition", element.Id),
				})
			}

			for _, sequenceFlow := range element.Incoming {
				if sequenceFlow.Source == nil {
					causes = append(causes, engine.ErrorCause{
						Pointer: fmt.Sprintf("%s/%s", elementPointer(processElement), sequenceFlow.Id),
						Type:    "sequence_flow",
						Detail:  fmt.Sprintf("sequence flow %s has no source element", sequenceFlow.Id),
					})
				}
			}
			for _, sequenceFlow := range element.Outgoing {
				if sequenceFlow.Target == nil {
					causes = append(causes, engine.ErrorCause{
						Pointer: fmt.Sprintf("%s/%s", elementPointer(processElement), sequenceFlow.Id),
						Type:    "sequence_flow",
						Detail:  fmt.Sprintf("sequence flow %s has no target element", sequenceFlow.Id),
					})
				}
			}
		}
	}

	for _, messageFlow := range definitions.MessageFlows {
		if definitions.ElementById(messageFlow.SourceId) == nil {
			causes = append(causes, engine.ErrorCause{
				Pointer: fmt.Sprintf("/%s", messageFlow.Id),
				Type:    "message_flow",
				Detail:  fmt.Sprintf("message flow %s has no source element %s", messageFlow.Id, messageFlow.SourceId),
			})
		}
		if definitions.ElementById(messageFlow.TargetId) == nil {
			causes = append(causes, engine.ErrorCause{
				Pointer: fmt.Sprintf("/%s", messageFlow.Id),
				Type:    "message_flow",
				Detail:  fmt.Sprintf("message flow %s has no target element %s", messageFlow.Id, messageFlow.TargetId),
			})
		}
	}

	return causes
}

// validateState cross-checks a snapshot against the graph.
// Snapshots referencing unknown IDs are rejected, never coerced.
func validateState(definitions *model.Definitions, state engine.DefinitionState) []engine.ErrorCause {
	var causes []engine.ErrorCause

	if state.Id != definitions.Id {
		causes = append(causes, engine.ErrorCause{
			Pointer: "/",
			Type:    "state",
			Detail:  fmt.Sprintf("state belongs to definition %s, not %s", state.Id, definitions.Id),
		})
	}

	for processId, processState := range state.Processes {
		processElement := definitions.ProcessById(processId)
		if processElement == nil {
			causes = append(causes, engine.ErrorCause{
				Pointer: fmt.Sprintf("/%s", processId),
				Type:    "state",
				Detail:  fmt.Sprintf("definitions have no process %s", processId),
			})
			continue
		}

		for activityId := range processState.Activities {
			if processElement.ChildById(activityId) == nil {
				causes = append(causes, engine.ErrorCause{
					Pointer: fmt.Sprintf("/%s/%s", processId, activityId),
					Type:    "state",
					Detail:  fmt.Sprintf("process %s has no element %s", processId, activityId),
				})
			}
		}
	}

	return causes
}

func elementPointer(element *model.Element) string {
	var ids []string

	curr := element
	for {
		ids = append(ids, curr.Id)
		if curr.Parent == nil {
			break
		}
		curr = curr.Parent
	}

	ids = append(ids, "") // for leading slash

	slices.Reverse(ids)

	return strings.Join(ids, "/")
}
