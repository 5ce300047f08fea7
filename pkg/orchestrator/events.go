package orchestrator

import "time"

// EventType names a lifecycle event.
type EventType string

const (
	EventSubmitted       EventType = "submitted"
	EventReviewComplete  EventType = "review-complete"
	EventRouted          EventType = "routed"
	EventVotingOpened    EventType = "voting-opened"
	EventVoteCast        EventType = "vote-cast"
	EventVotingClosed    EventType = "voting-closed"
	EventJurySelected    EventType = "jury-selected"
	EventVerdictReached  EventType = "verdict-reached"
	EventPassed          EventType = "passed"
	EventRejected        EventType = "rejected"
	EventTimelockStarted EventType = "timelock-started"
	EventTimelockExpired EventType = "timelock-expired"
	EventExecuted        EventType = "executed"
)

// Event is one observable lifecycle emission. Events for a single proposal
// are strictly ordered; across proposals they interleave arbitrarily.
type Event struct {
	Type       EventType              `json:"type"`
	ProposalID string                 `json:"proposal_id"`
	Phase      string                 `json:"phase"`
	Timestamp  time.Time              `json:"timestamp"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// Observer receives lifecycle events. Implementations must not call back
// into the orchestrator from OnEvent.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }
