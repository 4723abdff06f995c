// Package session implements the relay core: it owns the two
// connections of an intercepted pair, forwards every byte unmodified in
// both directions, captures a timestamped record of each forwarded
// payload, and tears both sides down consistently when either side
// disconnects.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wiretap-proxy/wiretap/internal/capture"
	"github.com/wiretap-proxy/wiretap/internal/conn"
	"github.com/wiretap-proxy/wiretap/internal/dispatch"
	"github.com/wiretap-proxy/wiretap/internal/logging"
)

// DisconnectedMarker is appended to the display name when the session
// tears down. Hosts treat its presence as the session-ended signal.
const DisconnectedMarker = " [Disconnected]"

// State is the lifecycle state of a session
type State int

const (
	// StateActive means both sides are wired and traffic is relayed
	StateActive State = iota
	// StateTearingDown means one side disconnected and the counterpart
	// is being closed
	StateTearingDown
	// StateDisconnected is terminal; no traffic is relayed
	StateDisconnected
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateTearingDown:
		return "tearing-down"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// side identifies one end of the relayed pair
type side int

const (
	sideClient side = iota
	sideServer
)

func (s side) String() string {
	if s == sideClient {
		return "client"
	}
	return "server"
}

// Options configures a Session. All fields are optional.
type Options struct {
	// Dispatch marshals change notifications onto the host's
	// execution context. Nil runs them inline.
	Dispatch dispatch.Func

	// Logger receives session diagnostics. Nil disables logging.
	Logger *logging.Logger

	// OnRecord is notified, via Dispatch, after each record is
	// appended to the capture log
	OnRecord func(capture.Record)

	// OnNameChange is notified, via Dispatch, after the display name
	// changes
	OnNameChange func(name string)

	// OnClosed is invoked once, from the teardown path, when the
	// session reaches its terminal state
	OnClosed func(s *Session)
}

// Session relays traffic between a client connection and a server
// connection while recording everything that passes through.
type Session struct {
	id     string
	start  time.Time
	client conn.Conn
	server conn.Conn
	log    *capture.Log
	bridge *dispatch.Bridge
	logger *logging.Logger

	onRecord     func(capture.Record)
	onNameChange func(string)
	onClosed     func(*Session)

	mu    sync.Mutex
	name  string
	state State
}

// New wires a session over the given pair of connections and starts
// receiving on both. Construction is synchronous: if any subscription
// or begin-receive step fails, the error is returned and no receive
// loop is left active on either connection.
func New(client, server conn.Conn, opts *Options) (*Session, error) {
	if client == nil || server == nil {
		return nil, fmt.Errorf("session requires both a client and a server connection")
	}
	if opts == nil {
		opts = &Options{}
	}

	s := &Session{
		id:           uuid.New().String(),
		start:        time.Now(),
		client:       client,
		server:       server,
		bridge:       dispatch.NewBridge(opts.Dispatch),
		logger:       opts.Logger,
		onRecord:     opts.OnRecord,
		onNameChange: opts.OnNameChange,
		onClosed:     opts.OnClosed,
		name:         client.Identity(),
		state:        StateActive,
	}
	s.log = capture.NewLog(s.recordAppended)

	if err := client.OnData(s.SendToServer); err != nil {
		return nil, fmt.Errorf("subscribe to client data: %w", err)
	}
	if err := client.OnDisconnected(func() { s.sideDisconnected(sideClient) }); err != nil {
		return nil, fmt.Errorf("subscribe to client disconnect: %w", err)
	}
	if err := server.OnData(s.SendToClient); err != nil {
		return nil, fmt.Errorf("subscribe to server data: %w", err)
	}
	if err := server.OnDisconnected(func() { s.sideDisconnected(sideServer) }); err != nil {
		return nil, fmt.Errorf("subscribe to server disconnect: %w", err)
	}

	if err := client.BeginReceive(); err != nil {
		return nil, fmt.Errorf("begin receive on client: %w", err)
	}
	if err := server.BeginReceive(); err != nil {
		// The client loop is already running; stop it so the failed
		// construction leaves nothing armed. The terminal state keeps
		// the rollback disconnect from running the teardown cascade.
		s.mu.Lock()
		s.state = StateDisconnected
		s.mu.Unlock()
		_ = client.Disconnect()
		return nil, fmt.Errorf("begin receive on server: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Relay session started",
			logging.String("session_id", s.id),
			logging.String("client", client.Identity()),
			logging.String("server", server.Identity()))
	}

	return s, nil
}

// ID returns the session's unique identifier
func (s *Session) ID() string {
	return s.id
}

// StartTime returns the instant the session was constructed.
// Capture record offsets are relative to it.
func (s *Session) StartTime() time.Time {
	return s.start
}

// DisplayName returns the session's human-readable label. It is the
// client identity, suffixed with DisconnectedMarker after teardown.
func (s *Session) DisplayName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// State returns the session's lifecycle state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsConnected reports whether both underlying connections are live.
// Safe to call at any time; after teardown it returns false.
func (s *Session) IsConnected() bool {
	return s.client.Connected() && s.server.Connected()
}

// Records returns a snapshot of the capture log
func (s *Session) Records() []capture.Record {
	return s.log.Snapshot()
}

// RecordCount returns the number of captured records
func (s *Session) RecordCount() int {
	return s.log.Len()
}

// SendToServer forwards bytes to the server connection and captures a
// client->server record. After teardown it is a no-op: the bytes are
// dropped and nothing is recorded. Transport failures are absorbed into
// the disconnect cascade, never returned.
func (s *Session) SendToServer(p []byte) {
	s.forward(sideServer, capture.ClientToServer, p)
}

// SendToClient forwards bytes to the client connection and captures a
// server->client record. Same teardown and failure policy as
// SendToServer.
func (s *Session) SendToClient(p []byte) {
	s.forward(sideClient, capture.ServerToClient, p)
}

// forward writes to the destination side first, then appends the
// capture record; both complete before the call returns. A record is
// never appended unless the forward was attempted.
func (s *Session) forward(dest side, direction capture.Direction, p []byte) {
	if s.State() != StateActive {
		if s.logger != nil {
			s.logger.Debug("Dropping payload for ended session",
				logging.String("session_id", s.id),
				logging.String("direction", direction.String()),
				logging.Int("size", len(p)))
		}
		return
	}

	c := s.client
	if dest == sideServer {
		c = s.server
	}

	if err := s.writeAndFlush(c, p); err != nil {
		if s.logger != nil {
			s.logger.Warn("Forward failed, treating as disconnect",
				logging.String("session_id", s.id),
				logging.String("side", dest.String()),
				logging.Error(err))
		}
		s.sideDisconnected(dest)
		return
	}

	s.log.Append(capture.Record{
		Offset:    time.Since(s.start),
		Direction: direction,
		Payload:   p,
	})
}

func (s *Session) writeAndFlush(c conn.Conn, p []byte) error {
	if err := c.Write(p); err != nil {
		return err
	}
	return c.Flush()
}

// recordAppended is the capture log's append callback. The record is
// already visible in the log when it runs.
func (s *Session) recordAppended(r capture.Record) {
	if s.logger != nil {
		s.logger.Debug("Captured payload",
			logging.String("session_id", s.id),
			logging.String("direction", r.Direction.String()),
			logging.Int("size", len(r.Payload)),
			logging.Duration("offset", r.Offset))
	}
	s.bridge.Notify(func() {
		if s.onRecord != nil {
			s.onRecord(r)
		}
	})
}

// Disconnect tears the session down, starting from the server side.
// The cascade closes the client connection as well. Idempotent.
func (s *Session) Disconnect() {
	_ = s.server.Disconnect()
	// The server's own disconnect signal normally drives the cascade;
	// run it directly as well so teardown is deterministic even when
	// the signal is delivered asynchronously
	s.sideDisconnected(sideServer)
}

// sideDisconnected is the disconnect coordinator. The first signal from
// either side moves the session to the terminal state, closes the
// counterpart, and marks the display name; later signals are no-ops.
func (s *Session) sideDisconnected(from side) {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return
	}
	s.state = StateTearingDown
	s.name += DisconnectedMarker
	name := s.name
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Info("Session tearing down",
			logging.String("session_id", s.id),
			logging.String("initiated_by", from.String()))
	}

	if from == sideClient {
		_ = s.server.Disconnect()
	} else {
		_ = s.client.Disconnect()
	}

	s.mu.Lock()
	s.state = StateDisconnected
	s.mu.Unlock()

	s.bridge.Notify(func() {
		if s.onNameChange != nil {
			s.onNameChange(name)
		}
	})

	if s.logger != nil {
		s.logger.Info("Session disconnected",
			logging.String("session_id", s.id),
			logging.Int("records", s.log.Len()),
			logging.Duration("lifetime", time.Since(s.start)))
	}

	if s.onClosed != nil {
		s.onClosed(s)
	}
}
