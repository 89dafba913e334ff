package interview

import (
	"errors"
	"fmt"
)

// State is a step of the conversation.
type State string

const (
	StateInitial       State = "INITIAL"
	StateInterviewing  State = "INTERVIEWING"
	StateAnalyzing     State = "ANALYZING"
	StateFeedbackReady State = "FEEDBACK_READY"
)

// Event triggers a state change.
type Event string

const (
	EventDocumentsSubmitted Event = "documents_submitted"
	EventEndRequested       Event = "end_requested"
	EventAnalysisSucceeded  Event = "analysis_succeeded"
	EventAnalysisFailed     Event = "analysis_failed"
	EventRestart            Event = "restart"
)

var ErrInvalidTransition = errors.New("invalid state transition")

var transitions = map[State]map[Event]State{
	StateInitial: {
		EventDocumentsSubmitted: StateInterviewing,
	},
	StateInterviewing: {
		EventEndRequested: StateAnalyzing,
	},
	StateAnalyzing: {
		EventAnalysisSucceeded: StateFeedbackReady,
		EventAnalysisFailed:    StateInterviewing,
	},
	StateFeedbackReady: {
		EventRestart: StateInitial,
	},
}

// Machine is the four-state conversation machine. The zero value starts in StateInitial.
type Machine struct {
	state State
}

func (m *Machine) CurrentState() State {
	if m.state == "" {
		return StateInitial
	}
	return m.state
}

// Transition applies e and returns the new state. Unknown pairs leave the state unchanged.
func (m *Machine) Transition(e Event) (State, error) {
	from := m.CurrentState()
	to, ok := transitions[from][e]
	if !ok {
		return from, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, e, from)
	}

	m.state = to
	return to, nil
}
