package capture

import "time"

// Direction identifies which side of the relay originated a payload
type Direction int

const (
	// ClientToServer marks bytes received from the client and forwarded to the server
	ClientToServer Direction = iota
	// ServerToClient marks bytes received from the server and forwarded to the client
	ServerToClient
)

// String returns the string representation of a Direction
func (d Direction) String() string {
	switch d {
	case ClientToServer:
		return "client->server"
	case ServerToClient:
		return "server->client"
	default:
		return "unknown"
	}
}

// Record is one captured unit of forwarded traffic.
// Records are immutable once appended to a Log.
type Record struct {
	// Offset is the time elapsed since the relay session started
	Offset time.Duration

	// Direction is the side the payload originated from
	Direction Direction

	// Payload holds the exact bytes that were forwarded.
	// The Log stores its own copy; callers must not rely on aliasing.
	Payload []byte
}
