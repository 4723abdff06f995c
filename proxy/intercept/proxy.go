// Package intercept runs the man-in-the-middle accept loop: it listens
// for client connections, dials the upstream target for each one, and
// hands the pair to a relay session that forwards and captures the
// traffic.
package intercept

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/wiretap-proxy/wiretap/internal/conn"
	"github.com/wiretap-proxy/wiretap/internal/dispatch"
	"github.com/wiretap-proxy/wiretap/internal/logging"
	"github.com/wiretap-proxy/wiretap/internal/session"
	"github.com/wiretap-proxy/wiretap/proxy/registry"
)

const dialTimeout = 10 * time.Second

// Proxy accepts client connections and relays each one to the target
type Proxy struct {
	listenAddr string
	targetAddr string
	registry   *registry.Registry
	dispatch   dispatch.Func
	logger     *logging.Logger

	mu     sync.Mutex
	ln     net.Listener
	closed bool
}

// Options configures the Proxy
type Options struct {
	// ListenAddr is the address to accept client connections on
	ListenAddr string

	// TargetAddr is the upstream server every client is relayed to
	TargetAddr string

	// Registry receives each created session. Required.
	Registry *registry.Registry

	// Dispatch marshals session notifications; nil runs them inline
	Dispatch dispatch.Func

	// Logger receives proxy diagnostics
	Logger *logging.Logger
}

// New creates a Proxy
func New(opts *Options) (*Proxy, error) {
	if opts == nil || opts.ListenAddr == "" || opts.TargetAddr == "" {
		return nil, fmt.Errorf("listen and target addresses are required")
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}

	return &Proxy{
		listenAddr: opts.ListenAddr,
		targetAddr: opts.TargetAddr,
		registry:   opts.Registry,
		dispatch:   opts.Dispatch,
		logger:     opts.Logger,
	}, nil
}

// Start binds the listener and runs the accept loop until ctx is
// cancelled or Close is called
func (p *Proxy) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", p.listenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", p.listenAddr, err)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		_ = ln.Close()
		return fmt.Errorf("proxy is closed")
	}
	p.ln = ln
	p.mu.Unlock()

	if p.logger != nil {
		p.logger.Info("Intercept proxy listening",
			logging.String("listen", ln.Addr().String()),
			logging.String("target", p.targetAddr))
	}

	// Unblock Accept when the context ends
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	for {
		clientNC, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.mu.Lock()
			closed := p.closed
			p.mu.Unlock()
			if closed {
				return nil
			}
			if p.logger != nil {
				p.logger.Error("Accept failed", logging.Error(err))
			}
			continue
		}

		go p.intercept(ctx, clientNC)
	}
}

// intercept pairs one accepted client with a fresh upstream connection
// and starts a relay session over the two
func (p *Proxy) intercept(ctx context.Context, clientNC net.Conn) {
	if p.logger != nil {
		p.logger.Debug("Client connected",
			logging.String("client", clientNC.RemoteAddr().String()))
	}

	dialer := net.Dialer{Timeout: dialTimeout}
	serverNC, err := dialer.DialContext(ctx, "tcp", p.targetAddr)
	if err != nil {
		if p.logger != nil {
			p.logger.Error("Failed to dial target",
				logging.String("target", p.targetAddr),
				logging.Error(err))
		}
		_ = clientNC.Close()
		return
	}

	client := conn.NewTCP(clientNC)
	server := conn.NewTCP(serverNC)

	s, err := session.New(client, server, &session.Options{
		Dispatch: p.dispatch,
		Logger:   p.logger,
		OnClosed: p.sessionClosed,
	})
	if err != nil {
		if p.logger != nil {
			p.logger.Error("Failed to start session", logging.Error(err))
		}
		_ = client.Disconnect()
		_ = server.Disconnect()
		return
	}

	p.registry.Add(s)
}

// sessionClosed runs when a session reaches its terminal state. The
// session stays in the registry so its capture remains inspectable.
func (p *Proxy) sessionClosed(s *session.Session) {
	if p.logger != nil {
		p.logger.Info("Session ended",
			logging.String("session_id", s.ID()),
			logging.String("display_name", s.DisplayName()),
			logging.Int("records", s.RecordCount()))
	}
}

// Addr returns the bound listener address, or empty before Start
func (p *Proxy) Addr() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ln == nil {
		return ""
	}
	return p.ln.Addr().String()
}

// Close stops the accept loop and disconnects all registered sessions
func (p *Proxy) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	ln := p.ln
	p.mu.Unlock()

	if ln != nil {
		_ = ln.Close()
	}

	for _, s := range p.registry.List() {
		s.Disconnect()
	}
	return nil
}
