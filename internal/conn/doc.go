// Package conn provides the connection abstraction the relay core is
// built against.
//
// The relay never touches sockets directly. It drives each side of a
// session through the Conn interface: a capability set covering
// identity, liveness, buffered output, and callback registration for
// the two asynchronous signals a connection produces (data received,
// disconnected). Events are delivered in arrival order per connection;
// the two connections of a session may deliver concurrently.
//
// # Implementations
//
// TCP wraps a net.Conn and delivers events from a dedicated read-loop
// goroutine. WebSocket does the same over a gorilla/websocket
// connection using binary messages. Mock is an in-memory, scriptable
// implementation for tests: it records writes, flushes, and disconnect
// calls, and lets the test deliver data and disconnect signals on
// demand.
//
// # Signal contract
//
// Handlers must be registered before BeginReceive; registration after
// the connection is armed fails with ErrReceiving. The disconnect
// handler fires exactly once, whether the close was local (Disconnect)
// or remote (read failure). Disconnect is idempotent.
package conn
