package conn

import "errors"

var (
	// ErrClosed is returned for operations on a disconnected connection
	ErrClosed = errors.New("connection is closed")
	// ErrReceiving is returned when a handler is registered, or BeginReceive
	// is called again, after the connection has been armed
	ErrReceiving = errors.New("connection is already receiving")
)

// Conn is the capability set the relay requires of each side of a
// session. Implementations must deliver data events in arrival order
// and fire the disconnect handler exactly once.
type Conn interface {
	// Identity returns a stable identifier for logging and display,
	// typically the remote address
	Identity() string

	// Connected reports current liveness
	Connected() bool

	// Write queues bytes for transmission
	Write(p []byte) error

	// Flush pushes queued bytes toward the peer. Completion of the
	// underlying transmission is not awaited.
	Flush() error

	// OnData registers the handler invoked with each contiguous chunk
	// of received bytes. Must be called before BeginReceive.
	OnData(fn func(p []byte)) error

	// OnDisconnected registers the handler invoked exactly once when
	// the connection transitions to not-connected. Must be called
	// before BeginReceive.
	OnDisconnected(fn func()) error

	// BeginReceive arms the connection and starts delivering events.
	// Must be called exactly once, after handler registration.
	BeginReceive() error

	// Disconnect requests the connection close. Idempotent.
	Disconnect() error
}
