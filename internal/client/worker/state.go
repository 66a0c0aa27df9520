package worker

// State is the lifecycle state of a Worker.
type State int

const (
	StateInstalling State = iota
	StateWaiting
	StateActivating
	StateActive
	StateRedundant
)

func (s State) String() string {
	switch s {
	case StateInstalling:
		return "installing"
	case StateWaiting:
		return "waiting"
	case StateActivating:
		return "activating"
	case StateActive:
		return "active"
	case StateRedundant:
		return "redundant"
	default:
		return "unknown"
	}
}
