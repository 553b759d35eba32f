package model

import "fmt"

// ElementType describes the different element types of a process graph - tasks, gateways and events.
type ElementType int

const (
	ElementExclusiveGateway ElementType = iota + 1
	ElementManualTask
	ElementMessageCatchEvent
	ElementMessageThrowEvent
	ElementNoneEndEvent
	ElementNoneStartEvent
	ElementProcess
	ElementServiceTask
	ElementTask
	ElementTimerCatchEvent
	ElementUserTask
)

func MapElementType(s string) ElementType {
	switch s {
	case "EXCLUSIVE_GATEWAY":
		return ElementExclusiveGateway
	case "MANUAL_TASK":
		return ElementManualTask
	case "MESSAGE_CATCH_EVENT":
		return ElementMessageCatchEvent
	case "MESSAGE_THROW_EVENT":
		return ElementMessageThrowEvent
	case "NONE_END_EVENT":
		return ElementNoneEndEvent
	case "NONE_START_EVENT":
		return ElementNoneStartEvent
	case "PROCESS":
		return ElementProcess
	case "SERVICE_TASK":
		return ElementServiceTask
	case "TASK":
		return ElementTask
	case "TIMER_CATCH_EVENT":
		return ElementTimerCatchEvent
	case "USER_TASK":
		return ElementUserTask
	default:
		return 0
	}
}

func (v ElementType) MarshalJSON() ([]byte, error) {
	s := v.String()
	if s == "" {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%q", s)), nil
}

func (v ElementType) String() string {
	switch v {
	case ElementExclusiveGateway:
		return "EXCLUSIVE_GATEWAY"
	case ElementManualTask:
		return "MANUAL_TASK"
	case ElementMessageCatchEvent:
		return "MESSAGE_CATCH_EVENT"
	case ElementMessageThrowEvent:
		return "MESSAGE_THROW_EVENT"
	case ElementNoneEndEvent:
		return "NONE_END_EVENT"
	case ElementNoneStartEvent:
		return "NONE_START_EVENT"
	case ElementProcess:
		return "PROCESS"
	case ElementServiceTask:
		return "SERVICE_TASK"
	case ElementTask:
		return "TASK"
	case ElementTimerCatchEvent:
		return "TIMER_CATCH_EVENT"
	case ElementUserTask:
		return "USER_TASK"
	default:
		return ""
	}
}

func (v *ElementType) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) > 2 {
		s = s[1 : len(s)-1]
		*v = MapElementType(s)
	}
	if *v == 0 {
		return fmt.Errorf("invalid element type data %s", s)
	}
	return nil
}

// IsWaiting indicates if instances of this element type stay dormant until an external signal arrives.
func (v ElementType) IsWaiting() bool {
	switch v {
	case
		ElementManualTask,
		ElementMessageCatchEvent,
		ElementTimerCatchEvent,
		ElementUserTask:
		return true
	default:
		return false
	}
}
