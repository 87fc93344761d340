package live

// State is the connection state of a Manager.
type State int

const (
	// StateClosed means no transport is live.
	StateClosed State = iota
	// StateConnecting means a dial is in progress.
	StateConnecting
	// StateOpen means the transport is ready.
	StateOpen
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
