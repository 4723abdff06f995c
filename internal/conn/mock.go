package conn

import (
	"bytes"
	"sync"
)

// Mock is an in-memory Conn implementation for tests.
// Tests deliver inbound data and disconnect signals with DeliverData
// and DeliverDisconnect, and inspect what the relay did through
// Written, FlushCount, and DisconnectCalls.
type Mock struct {
	mu              sync.Mutex
	identity        string
	connected       bool
	receiving       bool
	signalled       bool
	dataFn          func([]byte)
	discFn          func()
	written         bytes.Buffer
	writes          [][]byte
	flushCount      int
	disconnectCalls int
	writeErr        error
	beginErr        error
}

// NewMock creates a connected mock with the given identity
func NewMock(identity string) *Mock {
	return &Mock{
		identity:  identity,
		connected: true,
	}
}

// Identity returns the identity the mock was created with
func (c *Mock) Identity() string {
	return c.identity
}

// Connected reports the mock's liveness
func (c *Mock) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Write records the bytes the relay forwarded to this side
func (c *Mock) Write(p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	if !c.connected {
		return ErrClosed
	}
	c.written.Write(p)
	c.writes = append(c.writes, bytes.Clone(p))
	return nil
}

// Flush counts flush calls
func (c *Mock) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return ErrClosed
	}
	c.flushCount++
	return nil
}

// OnData registers the data handler. Must precede BeginReceive.
func (c *Mock) OnData(fn func(p []byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return ErrClosed
	}
	if c.receiving {
		return ErrReceiving
	}
	c.dataFn = fn
	return nil
}

// OnDisconnected registers the disconnect handler. Must precede BeginReceive.
func (c *Mock) OnDisconnected(fn func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return ErrClosed
	}
	if c.receiving {
		return ErrReceiving
	}
	c.discFn = fn
	return nil
}

// BeginReceive arms the mock
func (c *Mock) BeginReceive() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.beginErr != nil {
		return c.beginErr
	}
	if !c.connected {
		return ErrClosed
	}
	if c.receiving {
		return ErrReceiving
	}
	c.receiving = true
	return nil
}

// Disconnect marks the mock disconnected and, like a real connection,
// fires the disconnect signal. Idempotent.
func (c *Mock) Disconnect() error {
	c.mu.Lock()
	c.disconnectCalls++
	wasConnected := c.connected
	c.connected = false
	c.mu.Unlock()

	if wasConnected {
		c.fireDisconnect()
	}
	return nil
}

// DeliverData simulates bytes arriving from the peer. The registered
// data handler runs inline on the caller's goroutine, matching the
// per-connection sequential delivery guarantee.
func (c *Mock) DeliverData(p []byte) {
	c.mu.Lock()
	fn := c.dataFn
	armed := c.receiving && c.connected
	c.mu.Unlock()

	if armed && fn != nil {
		fn(p)
	}
}

// DeliverDisconnect simulates the peer closing the connection
func (c *Mock) DeliverDisconnect() {
	c.mu.Lock()
	wasConnected := c.connected
	c.connected = false
	c.mu.Unlock()

	if wasConnected {
		c.fireDisconnect()
	}
}

// fireDisconnect invokes the disconnect handler at most once,
// outside the mock's lock so handlers may call back into it
func (c *Mock) fireDisconnect() {
	c.mu.Lock()
	if c.signalled {
		c.mu.Unlock()
		return
	}
	c.signalled = true
	fn := c.discFn
	c.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// FailWrites makes subsequent Write calls return err
func (c *Mock) FailWrites(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeErr = err
}

// FailBeginReceive makes BeginReceive return err
func (c *Mock) FailBeginReceive(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.beginErr = err
}

// Written returns all bytes written to this side, concatenated
func (c *Mock) Written() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return bytes.Clone(c.written.Bytes())
}

// Writes returns each Write call's payload separately
func (c *Mock) Writes() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.writes))
	copy(out, c.writes)
	return out
}

// FlushCount returns the number of Flush calls
func (c *Mock) FlushCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flushCount
}

// DisconnectCalls returns the number of Disconnect calls
func (c *Mock) DisconnectCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnectCalls
}

// Receiving reports whether BeginReceive was called
func (c *Mock) Receiving() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.receiving
}
