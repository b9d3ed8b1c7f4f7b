package connection

// State represents the controller's connection state.
type State uint8

const (
	// StateDisconnected indicates no session and no attempt in progress.
	StateDisconnected State = iota

	// StateConnecting indicates a connection attempt is in progress.
	StateConnecting

	// StateConnected indicates a live session.
	StateConnected

	// StateReconnecting indicates the controller is waiting out a backoff delay.
	StateReconnecting

	// StateClosed indicates the controller has stopped for good.
	StateClosed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateReconnecting:
		return "RECONNECTING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}
