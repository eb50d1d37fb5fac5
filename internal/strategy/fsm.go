package strategy

// Event is a lifecycle trigger applied to a strategy's status.
type Event int

const (
	// EventEndWithinHorizon fires when collectEnd moves inside the
	// collection horizon, on creation or update.
	EventEndWithinHorizon Event = iota
	// EventEndBeyondHorizon fires when collectEnd moves outside the
	// collection horizon.
	EventEndBeyondHorizon
	// EventExpired fires when collectEnd has passed.
	EventExpired
	// EventCancel fires on manual cancellation.
	EventCancel
	// EventDelete fires on soft deletion.
	EventDelete
)

func (e Event) String() string {
	switch e {
	case EventEndWithinHorizon:
		return "end_within_horizon"
	case EventEndBeyondHorizon:
		return "end_beyond_horizon"
	case EventExpired:
		return "expired"
	case EventCancel:
		return "cancel"
	case EventDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Transition is the outcome of applying an event to a status.
type Transition struct {
	Next Status
	// Collect is true when the transition should trigger an immediate
	// forecast collection.
	Collect bool
}

// transitions is the full state machine, state x event. Missing entries
// leave the status untouched with no side effect. In particular SUCCESS
// only ever reacts to cancel and delete, and nothing revives a CANCELLED
// strategy except an explicit window change.
var transitions = map[Status]map[Event]Transition{
	StatusPending: {
		EventEndWithinHorizon: {Next: StatusCollecting, Collect: true},
		EventExpired:          {Next: StatusSuccess},
		EventCancel:           {Next: StatusCancelled},
		EventDelete:           {Next: StatusCancelled},
	},
	StatusCollecting: {
		EventEndBeyondHorizon: {Next: StatusPending},
		EventExpired:          {Next: StatusSuccess},
		EventCancel:           {Next: StatusCancelled},
		EventDelete:           {Next: StatusCancelled},
	},
	StatusSuccess: {
		EventCancel: {Next: StatusCancelled},
		EventDelete: {Next: StatusCancelled},
	},
	StatusCancelled: {
		EventEndWithinHorizon: {Next: StatusCollecting, Collect: true},
		EventDelete:           {Next: StatusCancelled},
	},
}

// Apply resolves an event against the current status. changed is false
// when the machine has no transition for this pair and the status stays
// as it is.
func Apply(current Status, event Event) (Transition, bool) {
	t, ok := transitions[current][event]
	if !ok {
		return Transition{Next: current}, false
	}
	return t, t.Next != current || t.Collect
}

// InitialStatus picks the status of a freshly created strategy.
func InitialStatus(withinHorizon bool) Status {
	if withinHorizon {
		return StatusCollecting
	}
	return StatusPending
}
