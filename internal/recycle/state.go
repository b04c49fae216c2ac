package recycle

// State is a stage of a recycling run.
//
//	Validating -> Dispatching -> AwaitingAll -> Assembling -> Done
//	Validating -> Rejected
type State int

const (
	StateValidating State = iota + 1
	StateDispatching
	StateAwaitingAll
	StateAssembling
	StateDone
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateDispatching:
		return "dispatching"
	case StateAwaitingAll:
		return "awaiting_all"
	case StateAssembling:
		return "assembling"
	case StateDone:
		return "done"
	case StateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateRejected
}
