package rcp

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/brightgate/dvtree/ctree"
)

// serverOptions holds the tunables set via ServerOption (spec §4.E: idle
// timeout, request budget, frame size cap, push back-pressure high-water
// mark). Grounded on fox's options.go functional-options builder.
type serverOptions struct {
	idleTimeout   time.Duration
	requestBudget int
	maxFrameSize  int
	highWaterMark int
	errorLog      func(msg string, fatal bool)
}

func defaultServerOptions() serverOptions {
	return serverOptions{
		idleTimeout:   5 * time.Minute,
		requestBudget: 0, // unlimited
		maxFrameSize:  DefaultMaxFrameSize,
		highWaterMark: 1024,
		errorLog:      func(string, bool) {},
	}
}

// ServerOption configures a Server at construction time.
type ServerOption func(*serverOptions)

// WithIdleTimeout bounds how long a connection may sit without sending a
// request before it is closed. Zero disables the timeout.
func WithIdleTimeout(d time.Duration) ServerOption {
	return func(o *serverOptions) { o.idleTimeout = d }
}

// WithRequestBudget caps the number of requests served per connection
// before it is closed, to bound the resource cost of a single peer. Zero
// means unlimited.
func WithRequestBudget(n int) ServerOption {
	return func(o *serverOptions) { o.requestBudget = n }
}

// WithMaxFrameSize overrides DefaultMaxFrameSize.
func WithMaxFrameSize(n int) ServerOption {
	return func(o *serverOptions) { o.maxFrameSize = n }
}

// WithHighWaterMark sets the per-push-client outbound queue depth above
// which the client is disconnected rather than allowed to stall tree
// dispatch indefinitely (spec §4.E back-pressure requirement).
func WithHighWaterMark(n int) ServerOption {
	return func(o *serverOptions) { o.highWaterMark = n }
}

// WithErrorLog installs the callback used for non-fatal connection
// diagnostics (spec §7's ErrorLog shape).
func WithErrorLog(fn func(msg string, fatal bool)) ServerOption {
	return func(o *serverOptions) { o.errorLog = fn }
}

// Server exposes a ctree.Tree over the remote config protocol. One Server
// serves one Tree; the push registry is installed as that tree's single
// global listener pair for the Server's lifetime.
type Server struct {
	tree *ctree.Tree
	opts serverOptions
	reg  *pushRegistry

	mu       sync.Mutex
	conns    map[*conn]struct{}
	listener net.Listener
}

// NewServer builds a Server over tree. It does not start listening; call
// Serve or ListenAndServe.
func NewServer(tree *ctree.Tree, opts ...ServerOption) *Server {
	o := defaultServerOptions()
	for _, opt := range opts {
		opt(&o)
	}

	s := &Server{
		tree:  tree,
		opts:  o,
		reg:   newPushRegistry(),
		conns: make(map[*conn]struct{}),
	}
	s.reg.attachToTree(tree, s.onPushOverflow)
	return s
}

func (s *Server) onPushOverflow(c *pushClient) {
	s.opts.errorLog("rcp: push client "+c.id.String()+" exceeded high-water mark, disconnecting", false)
	s.reg.remove(c.id)
	if c.owner != nil {
		c.owner.close()
	}
}

// ListenAndServe binds addr and serves until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return errors.Wrap(err, "rcp: listen")
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled or Accept fails.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		nc, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return errors.Wrap(err, "rcp: accept")
			}
		}
		c := newConn(nc, s.tree, s.reg, s.opts, s.opts.errorLog)
		s.track(c)
		go func() {
			defer s.untrack(c)
			c.serve(ctx)
		}()
	}
}

func (s *Server) track(c *conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[c] = struct{}{}
}

func (s *Server) untrack(c *conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, c)
}

// Close closes the listener and every active connection.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	for c := range s.conns {
		c.close()
	}
	return nil
}
