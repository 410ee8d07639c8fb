package shared

// State is the start state of a Registration.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateStarted
	StateFailedStart
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateStarted:
		return "started"
	case StateFailedStart:
		return "failed_start"
	default:
		return "unknown"
	}
}
