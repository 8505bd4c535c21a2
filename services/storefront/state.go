package storefront

// Session state machine. Per order the navigator cycles
// Ready -> Submitting -> Confirmed -> Ready; Closed is reachable from
// every state on teardown.
type State int

const (
	StateClosed State = iota
	StateOpening
	StateReady
	StateSubmitting
	StateConfirmed
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpening:
		return "opening"
	case StateReady:
		return "ready"
	case StateSubmitting:
		return "submitting"
	case StateConfirmed:
		return "confirmed"
	}
	return "unknown"
}

var transitions = map[State][]State{
	StateClosed:     {StateOpening},
	StateOpening:    {StateReady, StateClosed},
	StateReady:      {StateSubmitting, StateClosed},
	StateSubmitting: {StateConfirmed, StateReady, StateClosed},
	StateConfirmed:  {StateReady, StateClosed},
}

func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
