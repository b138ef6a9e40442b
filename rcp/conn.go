package rcp

import (
	"context"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/brightgate/dvtree/ctree"
)

// connState names a connection's position in the read/dispatch/push cycle
// (spec §4.E's state table). Framing itself collapses READING_LEN and
// READING_BODY into a single ReadFrame call; connState exists so tests and
// diagnostics can observe the high-level phase, grounded on
// transitorykris-kbgp's fsm.go state-name idiom.
type connState int32

const (
	stateReadingLen connState = iota
	stateDispatch
	stateClosed
)

func (s connState) String() string {
	switch s {
	case stateReadingLen:
		return "READING_LEN"
	case stateDispatch:
		return "DISPATCH"
	case stateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// conn is one accepted connection: a request/response reader loop and a
// push-sender loop, supervised as a unit by an errgroup so either side's
// failure tears down both (grounded on kbgp's session.go pairing a read
// loop with a keepalive/send loop per peer, and on fox's
// locked_router.go pattern of guarding a shared structure — here the
// registry — against concurrent mutation while requests are served).
type conn struct {
	id      uuid.UUID
	nc      net.Conn
	tree    *ctree.Tree
	opts    serverOptions
	log     func(msg string, fatal bool)
	state   connState
	pushReg *pushRegistry

	pushMu sync.Mutex
	push   *pushClient // non-nil once this connection has subscribed
}

func (c *conn) getPush() *pushClient {
	c.pushMu.Lock()
	defer c.pushMu.Unlock()
	return c.push
}

func (c *conn) setPush(pc *pushClient) {
	c.pushMu.Lock()
	defer c.pushMu.Unlock()
	c.push = pc
}

func newConn(nc net.Conn, tree *ctree.Tree, reg *pushRegistry, opts serverOptions, log func(string, bool)) *conn {
	return &conn{
		id:      uuid.New(),
		nc:      nc,
		tree:    tree,
		opts:    opts,
		log:     log,
		pushReg: reg,
		state:   stateReadingLen,
	}
}

// serve runs the connection until the peer disconnects, an idle timeout
// fires, or a protocol error closes the stream.
func (c *conn) serve(ctx context.Context) {
	defer c.close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.readLoop(ctx) })
	g.Go(func() error { return c.sendLoop(ctx) })

	if err := g.Wait(); err != nil && c.log != nil {
		c.log("rcp: connection "+c.id.String()+": "+err.Error(), false)
	}
}

func (c *conn) close() {
	c.state = stateClosed
	if pc := c.getPush(); pc != nil {
		c.pushReg.remove(pc.id)
	}
	_ = c.nc.Close()
}

func (c *conn) readLoop(ctx context.Context) error {
	served := 0
	for {
		if c.opts.requestBudget > 0 && served >= c.opts.requestBudget {
			return errors.Wrap(ErrProtocol, "request budget exhausted")
		}
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if c.opts.idleTimeout > 0 {
			_ = c.nc.SetReadDeadline(time.Now().Add(c.opts.idleTimeout))
		}

		c.state = stateReadingLen
		req, err := ReadFrame(c.nc, c.opts.maxFrameSize)
		if err != nil {
			return errors.Wrap(ErrIO, err.Error())
		}

		c.state = stateDispatch
		resp := c.handle(req)
		c.state = stateReadingLen

		if err := WriteFrame(c.nc, resp); err != nil {
			return errors.Wrap(ErrIO, err.Error())
		}
		served++
	}
}

// sendLoop drains this connection's push queue, if one exists, writing
// each queued frame to the wire as it arrives.
func (c *conn) sendLoop(ctx context.Context) error {
	for {
		pc := c.getPush()
		if pc == nil {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(50 * time.Millisecond):
				continue
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-pc.wake:
		case <-time.After(time.Second):
		}

		for {
			f, ok := pc.queue.Pop()
			if !ok {
				break
			}
			if err := WriteFrame(c.nc, f); err != nil {
				return errors.Wrap(ErrIO, err.Error())
			}
		}
	}
}

// handle dispatches one request frame, intercepting the push-subscription
// and dump actions that need connection-local state (the pushClient and
// its queue) rather than just the tree.
func (c *conn) handle(req Frame) Frame {
	switch req.Action {
	case ActionAddPushClient:
		return c.addPushClient(req)
	case ActionRemovePushClient:
		return c.removePushClient(req)
	case ActionDumpTree, ActionDumpTreeNode:
		return c.dumpTree(req)
	default:
		return dispatch(c.tree, req)
	}
}

func (c *conn) addPushClient(req Frame) Frame {
	n := c.tree.LookupIndexed(req.Node)
	if n == nil {
		return errFrame(req, ctree.ErrInvalidPath)
	}

	recursive := req.Flags&recursiveFlag != 0
	pc := newPushClient(c, req.Node, recursive, c.opts.highWaterMark)
	c.setPush(pc)
	c.pushReg.add(pc)

	dumpSubtree(n, recursive, func(f Frame) { pc.enqueue(f) })

	return Frame{Action: ActionAddPushClient, Node: req.Node, Value: pc.id.String()}
}

func (c *conn) removePushClient(req Frame) Frame {
	pc := c.getPush()
	if pc == nil || pc.id.String() != req.Value {
		return errFrame(req, ErrProtocol)
	}
	c.pushReg.remove(pc.id)
	c.setPush(nil)
	return Frame{Action: ActionRemovePushClient, Value: req.Value}
}

func (c *conn) dumpTree(req Frame) Frame {
	path := req.Node
	if path == "" {
		path = "/"
	}
	n := c.tree.LookupIndexed(strings.TrimSuffix(path, "/") + "/")
	if n == nil && path == "/" {
		n = c.tree.Root()
	}
	if n == nil {
		return errFrame(req, ctree.ErrInvalidPath)
	}

	if pc := c.getPush(); pc != nil {
		dumpSubtree(n, true, func(f Frame) { pc.enqueue(f) })
		return Frame{Action: ActionDumpTree, Node: n.Path()}
	}

	// No push subscription: dump synchronously over the request/response
	// channel as a single concatenated DUMP_TREE reply.
	var lines []string
	dumpSubtree(n, true, func(f Frame) {
		lines = append(lines, f.Action.String()+" "+f.Node+" "+f.Key+" "+f.Value)
	})
	return Frame{Action: ActionDumpTree, Node: n.Path(), Value: strings.Join(lines, listSep)}
}
