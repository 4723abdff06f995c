package conn

import (
	"bytes"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const wsCloseGracePeriod = time.Second

// WebSocket adapts a gorilla websocket connection to the Conn
// interface. Payloads are carried as binary messages; queued writes are
// coalesced into one message per Flush.
type WebSocket struct {
	ws       *websocket.Conn
	identity string

	// writeMu guards pending and serializes WriteMessage calls,
	// which gorilla does not allow concurrently
	writeMu sync.Mutex
	pending bytes.Buffer

	mu        sync.Mutex
	dataFn    func([]byte)
	discFn    func()
	receiving bool
	closed    bool

	discOnce sync.Once
}

// NewWebSocket wraps an established websocket connection
func NewWebSocket(ws *websocket.Conn) *WebSocket {
	return &WebSocket{
		ws:       ws,
		identity: ws.RemoteAddr().String(),
	}
}

// Identity returns the remote address of the underlying connection
func (c *WebSocket) Identity() string {
	return c.identity
}

// Connected reports whether the connection is still live
func (c *WebSocket) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// Write queues bytes for the next Flush
func (c *WebSocket) Write(p []byte) error {
	if !c.Connected() {
		return ErrClosed
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := c.pending.Write(p)
	return err
}

// Flush sends all queued bytes as a single binary message
func (c *WebSocket) Flush() error {
	if !c.Connected() {
		return ErrClosed
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.pending.Len() == 0 {
		return nil
	}
	payload := bytes.Clone(c.pending.Bytes())
	c.pending.Reset()
	return c.ws.WriteMessage(websocket.BinaryMessage, payload)
}

// OnData registers the data handler. Must precede BeginReceive.
func (c *WebSocket) OnData(fn func(p []byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.receiving {
		return ErrReceiving
	}
	c.dataFn = fn
	return nil
}

// OnDisconnected registers the disconnect handler. Must precede BeginReceive.
func (c *WebSocket) OnDisconnected(fn func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.receiving {
		return ErrReceiving
	}
	c.discFn = fn
	return nil
}

// BeginReceive starts the message read loop
func (c *WebSocket) BeginReceive() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.receiving {
		c.mu.Unlock()
		return ErrReceiving
	}
	c.receiving = true
	dataFn := c.dataFn
	c.mu.Unlock()

	go c.readLoop(dataFn)
	return nil
}

func (c *WebSocket) readLoop(dataFn func([]byte)) {
	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			c.teardown(true)
			return
		}
		if len(payload) > 0 && dataFn != nil {
			dataFn(payload)
		}
	}
}

// Disconnect sends a best-effort close message, closes the connection,
// and fires the disconnect signal if it has not fired yet
func (c *WebSocket) Disconnect() error {
	c.teardown(false)
	return nil
}

func (c *WebSocket) teardown(remote bool) {
	c.mu.Lock()
	alreadyClosed := c.closed
	c.closed = true
	discFn := c.discFn
	c.mu.Unlock()

	if !alreadyClosed {
		if !remote {
			c.writeMu.Lock()
			deadline := time.Now().Add(wsCloseGracePeriod)
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			c.writeMu.Unlock()
		}
		_ = c.ws.Close()
	}

	c.discOnce.Do(func() {
		if discFn != nil {
			discFn()
		}
	})
}
