package connio

// State is one position in the per-connection state machine described in
// spec §4.5 (component C5): Http → Upgrading → WebSocketOpen →
// CloseSent/CloseReceived → Closed.
type State int32

const (
	StateHttp State = iota
	StateUpgrading
	StateWebSocketOpen
	StateCloseSent
	StateCloseReceived
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateHttp:
		return "Http"
	case StateUpgrading:
		return "Upgrading"
	case StateWebSocketOpen:
		return "WebSocketOpen"
	case StateCloseSent:
		return "CloseSent"
	case StateCloseReceived:
		return "CloseReceived"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}
