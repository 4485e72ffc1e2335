package workflows

// StateMachine enforces manual status transitions. Staying in the current
// state is always permitted.
type StateMachine struct {
	allowedTransitions map[string][]string
}

// NewStateMachine creates a state machine from a transition table keyed by
// source state.
func NewStateMachine(transitions map[string][]string) *StateMachine {
	table := make(map[string][]string, len(transitions))
	for from, to := range transitions {
		table[from] = append([]string(nil), to...)
	}
	return &StateMachine{allowedTransitions: table}
}

// CanTransition checks if a status transition is allowed
func (sm *StateMachine) CanTransition(from, to string) bool {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return false
	}
	if from == to {
		return true
	}
	for _, allowedTo := range allowed {
		if allowedTo == to {
			return true
		}
	}
	return false
}

// GetAllowedTransitions returns the allowed next statuses for a given status
func (sm *StateMachine) GetAllowedTransitions(from string) []string {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return []string{}
	}
	return append([]string(nil), allowed...)
}
