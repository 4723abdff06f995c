package conn

import (
	"bufio"
	"bytes"
	"net"
	"sync"
)

const tcpReadBufferSize = 32 * 1024

// TCP adapts a net.Conn to the Conn interface.
// Writes are buffered until Flush; received data is delivered from a
// dedicated read-loop goroutine started by BeginReceive.
type TCP struct {
	nc       net.Conn
	identity string

	// writeMu guards the buffered writer
	writeMu sync.Mutex
	bw      *bufio.Writer

	mu        sync.Mutex
	dataFn    func([]byte)
	discFn    func()
	receiving bool
	closed    bool

	discOnce sync.Once
}

// NewTCP wraps an established net.Conn
func NewTCP(nc net.Conn) *TCP {
	return &TCP{
		nc:       nc,
		identity: nc.RemoteAddr().String(),
		bw:       bufio.NewWriter(nc),
	}
}

// Identity returns the remote address of the underlying connection
func (c *TCP) Identity() string {
	return c.identity
}

// Connected reports whether the connection is still live
func (c *TCP) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// Write queues bytes for transmission
func (c *TCP) Write(p []byte) error {
	if !c.Connected() {
		return ErrClosed
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := c.bw.Write(p)
	return err
}

// Flush pushes queued bytes to the socket
func (c *TCP) Flush() error {
	if !c.Connected() {
		return ErrClosed
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.bw.Flush()
}

// OnData registers the data handler. Must precede BeginReceive.
func (c *TCP) OnData(fn func(p []byte)) error {
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
func (c *TCP) OnDisconnected(fn func()) error {
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

// BeginReceive starts the read loop. Handlers registered afterwards are
// rejected, so the loop can snapshot them without further locking.
func (c *TCP) BeginReceive() error {
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

func (c *TCP) readLoop(dataFn func([]byte)) {
	buf := make([]byte, tcpReadBufferSize)
	for {
		n, err := c.nc.Read(buf)
		if n > 0 && dataFn != nil {
			// The loop reuses buf, so hand the handler its own copy
			dataFn(bytes.Clone(buf[:n]))
		}
		if err != nil {
			c.teardown()
			return
		}
	}
}

// Disconnect closes the connection and fires the disconnect signal
// if it has not fired yet
func (c *TCP) Disconnect() error {
	c.teardown()
	return nil
}

func (c *TCP) teardown() {
	c.mu.Lock()
	alreadyClosed := c.closed
	c.closed = true
	discFn := c.discFn
	c.mu.Unlock()

	if !alreadyClosed {
		_ = c.nc.Close()
	}

	c.discOnce.Do(func() {
		if discFn != nil {
			discFn()
		}
	})
}
