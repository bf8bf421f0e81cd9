package store

import "fmt"

// ValidTransitions defines allowed single-hop status transitions.
// Terminated is terminal: no transition out of it is ever legal, and
// ids are never reused.
var ValidTransitions = map[Status][]Status{
	StatusRunning: {
		StatusStopped,    // stop
		StatusTerminated, // terminate
	},
	StatusStopped: {
		StatusRunning,    // start
		StatusTerminated, // terminate
	},
	StatusTerminated: {},
}

// CanTransitionTo checks if a transition from the current status to the
// target status is valid.
func (s Status) CanTransitionTo(target Status) error {
	allowed, ok := ValidTransitions[s]
	if !ok {
		return fmt.Errorf("%w: unknown status: %s", ErrInvalidTransition, s)
	}

	for _, valid := range allowed {
		if valid == target {
			return nil
		}
	}

	return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidTransition, s, target)
}

// IsTerminal returns true if no further transitions are permitted.
func (s Status) IsTerminal() bool {
	return s == StatusTerminated
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}
