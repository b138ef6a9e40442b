package ctree

import "github.com/brightgate/dvtree/attr"

// NodeEventKind identifies what happened to a child edge. Values are
// wire-stable (spec §6).
type NodeEventKind int8

const (
	ChildAdded   NodeEventKind = 0
	ChildRemoved NodeEventKind = 1
)

// AttrEventKind identifies what happened to an attribute. Values are
// wire-stable (spec §6).
type AttrEventKind int8

const (
	AttributeAdded    AttrEventKind = 0
	AttributeModified AttrEventKind = 1
	AttributeRemoved  AttrEventKind = 2
)

// NodeEvent is delivered to node listeners when a child is added or
// removed from the node they are subscribed to.
type NodeEvent struct {
	Node      *Node
	Kind      NodeEventKind
	ChildName string
}

// AttrEvent is delivered to attribute listeners when an attribute on the
// node they are subscribed to is added, modified or removed.
type AttrEvent struct {
	Node  *Node
	Kind  AttrEventKind
	Key   string
	Typ   attr.Type
	Value attr.Value
}

// NodeListener receives NodeEvents. Implementations must not block and
// must not acquire the lock of the node the event originated from (spec
// §5's reentrancy rule); the tree never holds that lock while invoking
// listeners, so ordinary tree calls from within a listener are safe.
type NodeListener func(ev NodeEvent)

// AttrListener receives AttrEvents, same reentrancy contract as
// NodeListener.
type AttrListener func(ev AttrEvent)
