package transport

type State int8

const (
	Disconnected State = iota
	Connecting
	Connected
	// GivenUp is terminal: reconnect attempts are exhausted and no further
	// automatic retries will be made.
	GivenUp
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case GivenUp:
		return "given_up"
	default:
		return "unknown"
	}
}
