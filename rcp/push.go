package rcp

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/brightgate/dvtree/attr"
	"github.com/brightgate/dvtree/ctree"
)

// recursiveFlag marks an ADD_PUSH_CLIENT request as wanting events from the
// whole subtree rather than just the named node. It is carried in Frame's
// otherwise-unused (for this action) Flags field.
const recursiveFlag int32 = 1

// pushClient is one subscriber: every node/attribute event under path (and,
// if recursive, its descendants) is encoded as a push frame and queued for
// the owning connection's sender loop. owner lets the registry disconnect
// the connection outright when this subscriber overflows its queue, rather
// than merely dropping it from the fan-out.
type pushClient struct {
	id        uuid.UUID
	path      string
	recursive bool
	queue     *frameQueue
	wake      chan struct{}
	owner     *conn
}

func newPushClient(owner *conn, path string, recursive bool, highWater int) *pushClient {
	return &pushClient{
		id:        uuid.New(),
		path:      path,
		recursive: recursive,
		queue:     newFrameQueue(highWater),
		wake:      make(chan struct{}, 1),
		owner:     owner,
	}
}

// matches reports whether an event at nodePath is in scope for this
// subscription.
func (c *pushClient) matches(nodePath string) bool {
	if nodePath == c.path {
		return true
	}
	return c.recursive && strings.HasPrefix(nodePath, strings.TrimSuffix(c.path, "/")+"/")
}

// enqueue pushes f and wakes the connection's sender loop. Returns false
// once the client's queue has exceeded its high-water mark (see
// frameQueue.Push), signaling the caller to tear the subscriber down.
func (c *pushClient) enqueue(f Frame) bool {
	ok := c.queue.Push(f)
	select {
	case c.wake <- struct{}{}:
	default:
	}
	return ok
}

// pushRegistry is the process-wide set of active subscribers, fed by the
// tree's single global node/attribute listener slot (ctree.Tree only
// supports one of each — see Tree.GlobalNodeListenerSet/
// GlobalAttributeListenerSet — so the server installs exactly one fan-out
// listener here rather than one per connection).
type pushRegistry struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*pushClient
	onFull  func(*pushClient)
}

func newPushRegistry() *pushRegistry {
	return &pushRegistry{clients: make(map[uuid.UUID]*pushClient)}
}

func (r *pushRegistry) add(c *pushClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.id] = c
}

func (r *pushRegistry) remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, id)
}

func (r *pushRegistry) snapshot() []*pushClient {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*pushClient, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}

// attachToTree installs the registry's fan-out as the tree's single global
// node and attribute listener. onOverflow is invoked (outside any lock)
// when a subscriber's queue crosses its high-water mark, so the caller can
// disconnect that subscriber's connection.
func (r *pushRegistry) attachToTree(tree *ctree.Tree, onOverflow func(*pushClient)) {
	r.onFull = onOverflow
	tree.GlobalNodeListenerSet(func(ev ctree.NodeEvent) {
		path := ev.Node.Path()
		for _, c := range r.snapshot() {
			if !c.matches(path) {
				continue
			}
			f := Frame{
				Action:    ActionPushMessageNode,
				NodeEvent: uint8(ev.Kind),
				Node:      path,
				Key:       ev.ChildName,
			}
			if !c.enqueue(f) && r.onFull != nil {
				r.onFull(c)
			}
		}
	})
	tree.GlobalAttributeListenerSet(func(ev ctree.AttrEvent) {
		path := ev.Node.Path()
		for _, c := range r.snapshot() {
			if !c.matches(path) {
				continue
			}
			s, _ := attr.ValueToString(ev.Typ, ev.Value)
			f := Frame{
				Action:    ActionPushMessageAttr,
				AttrEvent: uint8(ev.Kind),
				Node:      path,
				Key:       ev.Key,
				Type:      ev.Typ,
				Value:     s,
			}
			if !c.enqueue(f) && r.onFull != nil {
				r.onFull(c)
			}
		}
	})
}

// dumpSubtree walks n (and, per spec's dump-on-subscribe supplement,
// recursively if recursive is set) queuing a DUMP_TREE_NODE frame per node
// and a DUMP_TREE_ATTR frame per non-NO_EXPORT attribute, so a freshly
// added push client can materialize the current state before live events
// start arriving.
func dumpSubtree(n *ctree.Node, recursive bool, emit func(Frame)) {
	emit(Frame{Action: ActionDumpTreeNode, Node: n.Path()})
	for _, rec := range n.GetAttributeKeys() {
		if rec.Flags.Has(attr.NoExport) {
			continue
		}
		s, err := attr.ValueToString(rec.Typ, rec.Value)
		if err != nil {
			continue
		}
		emit(Frame{
			Action:      ActionDumpTreeAttr,
			Node:        n.Path(),
			Key:         rec.Key,
			Type:        rec.Typ,
			Value:       s,
			Ranges:      attr.RangesToString(rec.Ranges),
			Flags:       int32(rec.Flags),
			Description: rec.Description,
		})
	}
	if !recursive {
		return
	}
	children := n.GetChildren()
	for _, c := range children {
		dumpSubtree(c, true, emit)
		c.Release()
	}
}
