package ctree

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/brightgate/dvtree/attr"
)

// attrKey identifies an attribute within a node: the (key, type) pair from
// spec §3.
type attrKey struct {
	key string
	typ attr.Type
}

// Node is a path-addressed position in the tree. It owns a set of typed
// attributes and a set of named children. All mutable state is guarded by
// mu: readers take RLock, writers take Lock, matching the per-node
// reader-writer policy of spec §5.
type Node struct {
	name   string
	path   string
	tree   *Tree
	parent *Node // weak: never the owner of the node's lifetime

	mu         sync.RWMutex
	attrs      map[attrKey]*attr.Record
	children   map[string]*Node
	childOrder []string // insertion order, stable per spec §4.B

	nodeListeners map[ListenerHandle]NodeListener
	attrListeners map[ListenerHandle]AttrListener
	nextListener  int64
	updaters      map[attrKey]*updaterEntry

	refcount atomic.Int32
	detached atomic.Bool
}

// ListenerHandle identifies a previously registered listener so it can be
// removed later. Go func values are not comparable, so registration
// returns a handle rather than requiring the listener itself back
// (spec's addNodeListener/removeNodeListener pairing, expressed with a
// token instead of object identity).
type ListenerHandle int64

func newNode(tree *Tree, parent *Node, name, path string) *Node {
	return &Node{
		name:          name,
		path:          path,
		tree:          tree,
		parent:        parent,
		attrs:         make(map[attrKey]*attr.Record),
		children:      make(map[string]*Node),
		updaters:      make(map[attrKey]*updaterEntry),
		nodeListeners: make(map[ListenerHandle]NodeListener),
		attrListeners: make(map[ListenerHandle]AttrListener),
	}
}

// Name returns the node's own segment name. The root node's name is "".
func (n *Node) Name() string { return n.name }

// Path returns the node's canonical, slash-delimited absolute path.
func (n *Node) Path() string { return n.path }

// Tree returns the tree this node belongs to.
func (n *Node) Tree() *Tree { return n.tree }

// Parent returns the parent node, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// acquire increments the refcount and returns n, for use by lookup paths
// that hand a reference back to a caller.
func (n *Node) acquire() *Node {
	n.refcount.Add(1)
	return n
}

// Release decrements the refcount on a node reference obtained from
// Tree.GetNode, Tree.GetRelativeNode or Node.GetChildren. Node.Parent and
// Tree.Root do not acquire, so their results are not Released. The
// garbage collector owns the actual memory; Release exists so the spec's
// "destructor deferred until refcount hits zero" contract has an
// observable point for tests and for any future teardown hook.
func (n *Node) Release() {
	if n.refcount.Add(-1) == 0 && n.detached.Load() {
		n.runDestroyHooks()
	}
}

// CreateAttribute creates or idempotently refreshes an attribute. See
// spec §4.B: a matching existing (key,type) with identical ranges and
// flags refreshes the description and leaves the value untouched; a
// mismatch in ranges or flags is ErrConflict; a default outside ranges is
// ErrOutOfRange.
func (n *Node) CreateAttribute(key string, typ attr.Type, def attr.Value, ranges attr.Range, flags attr.Flags, description string) error {
	if def.IsNaN() {
		return newAttrErr(key, typ, attr.ErrInvalidValue)
	}
	if !ranges.Contains(def) {
		return newAttrErr(key, typ, attr.ErrOutOfRange)
	}

	k := attrKey{key, typ}

	n.mu.Lock()
	existing, ok := n.attrs[k]
	if ok {
		if !existing.Ranges.Equal(ranges) || existing.Flags != flags {
			n.mu.Unlock()
			return newAttrErr(key, typ, attr.ErrConflict)
		}
		existing.Description = description
		n.mu.Unlock()
		return nil
	}

	rec := &attr.Record{
		Key:         key,
		Typ:         typ,
		Value:       def,
		Ranges:      ranges,
		Flags:       flags,
		Description: description,
	}
	if flags&attr.NotifyOnly != 0 {
		rec.Value = attr.Value{Typ: typ}
	}
	n.attrs[k] = rec
	n.mu.Unlock()

	n.dispatchAttr(AttrEvent{Node: n, Kind: AttributeAdded, Key: key, Typ: typ, Value: rec.Value})
	return nil
}

// RemoveAttribute removes the (key,type) attribute and any updater bound
// to it. No-op if absent.
func (n *Node) RemoveAttribute(key string, typ attr.Type) {
	k := attrKey{key, typ}

	n.mu.Lock()
	rec, ok := n.attrs[k]
	if !ok {
		n.mu.Unlock()
		return
	}
	delete(n.attrs, k)
	delete(n.updaters, k)
	n.mu.Unlock()

	n.dispatchAttr(AttrEvent{Node: n, Kind: AttributeRemoved, Key: key, Typ: typ, Value: rec.Value})
}

// ClearAttributes removes every attribute on n without touching children.
// [EXPANSION] grounded on the original's sshsNodeRemoveAllAttributes.
func (n *Node) ClearAttributes() {
	n.mu.Lock()
	keys := make([]attrKey, 0, len(n.attrs))
	recs := make(map[attrKey]*attr.Record, len(n.attrs))
	for k, rec := range n.attrs {
		keys = append(keys, k)
		recs[k] = rec
	}
	n.attrs = make(map[attrKey]*attr.Record)
	n.updaters = make(map[attrKey]*updaterEntry)
	n.mu.Unlock()

	for _, k := range keys {
		n.dispatchAttr(AttrEvent{Node: n, Kind: AttributeRemoved, Key: k.key, Typ: k.typ, Value: recs[k].Value})
	}
}

// PutAttribute validates and stores value, returning whether the stored
// value actually changed. READ_ONLY attributes reject ordinary puts with
// attr.ErrReadOnly; use UpdateReadOnly to bypass that guard.
func (n *Node) PutAttribute(key string, typ attr.Type, value attr.Value) (bool, error) {
	return n.put(key, typ, value, false)
}

// UpdateReadOnly is the privileged path used by attribute updaters (spec
// §4.C) and in-process telemetry producers: identical to PutAttribute but
// bypasses the READ_ONLY guard.
func (n *Node) UpdateReadOnly(key string, typ attr.Type, value attr.Value) (bool, error) {
	return n.put(key, typ, value, true)
}

func (n *Node) put(key string, typ attr.Type, value attr.Value, privileged bool) (bool, error) {
	if value.Typ != typ {
		return false, newAttrErr(key, typ, attr.ErrTypeMismatch)
	}
	if value.IsNaN() {
		return false, newAttrErr(key, typ, attr.ErrInvalidValue)
	}

	k := attrKey{key, typ}

	n.mu.Lock()
	rec, ok := n.attrs[k]
	if !ok {
		n.mu.Unlock()
		return false, newAttrErr(key, typ, attr.ErrNotFound)
	}
	if !privileged && rec.Flags.Has(attr.ReadOnly) {
		n.mu.Unlock()
		return false, newAttrErr(key, typ, attr.ErrReadOnly)
	}
	if !rec.Ranges.Contains(value) {
		n.mu.Unlock()
		return false, newAttrErr(key, typ, attr.ErrOutOfRange)
	}

	notifyOnly := rec.Flags.Has(attr.NotifyOnly)
	changed := notifyOnly || !rec.Value.Equal(value)
	if !notifyOnly {
		rec.Value = value
	}
	n.mu.Unlock()

	if changed {
		n.dispatchAttr(AttrEvent{Node: n, Kind: AttributeModified, Key: key, Typ: typ, Value: value})
	}
	return changed, nil
}

// GetAttribute returns a copy of the current value of (key,type).
func (n *Node) GetAttribute(key string, typ attr.Type) (attr.Value, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	rec, ok := n.attrs[attrKey{key, typ}]
	if !ok {
		return attr.Value{}, newAttrErr(key, typ, attr.ErrNotFound)
	}
	return rec.Value, nil
}

// GetRecord returns a copy of the full attribute record for (key,type).
func (n *Node) GetRecord(key string, typ attr.Type) (attr.Record, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	rec, ok := n.attrs[attrKey{key, typ}]
	if !ok {
		return attr.Record{}, newAttrErr(key, typ, attr.ErrNotFound)
	}
	return *rec, nil
}

// Exists reports whether (key,type) is present.
func (n *Node) Exists(key string, typ attr.Type) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	_, ok := n.attrs[attrKey{key, typ}]
	return ok
}

// GetAttributeKeys returns every (key,type) pair on n, ordered
// lexicographically by key then by type, per spec §4.B.
func (n *Node) GetAttributeKeys() []attr.Record {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]attr.Record, 0, len(n.attrs))
	for _, rec := range n.attrs {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key != out[j].Key {
			return out[i].Key < out[j].Key
		}
		return out[i].Typ < out[j].Typ
	})
	return out
}

// GetChildNames returns child names in insertion order.
func (n *Node) GetChildNames() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]string, len(n.childOrder))
	copy(out, n.childOrder)
	return out
}

// GetChildren returns acquired references to every child, in insertion
// order. Callers must Release each one when done.
func (n *Node) GetChildren() []*Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]*Node, 0, len(n.childOrder))
	for _, name := range n.childOrder {
		out = append(out, n.children[name].acquire())
	}
	return out
}

// getChildLocked looks up a child by name without taking n's lock (caller
// already holds it, or this is an already-RLocked read path).
func (n *Node) getChildLocked(name string) (*Node, bool) {
	c, ok := n.children[name]
	return c, ok
}

// AddNodeListener subscribes l to CHILD_ADDED/CHILD_REMOVED events on n.
// The returned handle is passed to RemoveNodeListener to unsubscribe.
func (n *Node) AddNodeListener(l NodeListener) ListenerHandle {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextListener++
	h := ListenerHandle(n.nextListener)
	n.nodeListeners[h] = l
	return h
}

// RemoveNodeListener unsubscribes a listener previously registered with
// AddNodeListener. No-op if h is unknown.
func (n *Node) RemoveNodeListener(h ListenerHandle) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.nodeListeners, h)
}

// AddAttributeListener subscribes l to every attribute event on n.
func (n *Node) AddAttributeListener(l AttrListener) ListenerHandle {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextListener++
	h := ListenerHandle(n.nextListener)
	n.attrListeners[h] = l
	return h
}

// RemoveAttributeListener unsubscribes a listener previously registered
// with AddAttributeListener. No-op if h is unknown.
func (n *Node) RemoveAttributeListener(h ListenerHandle) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.attrListeners, h)
}

// dispatchNode snapshots listeners under RLock then invokes them after
// releasing the lock, per spec §5's reentrancy rule: a listener must never
// observe n's own lock held by the dispatcher.
func (n *Node) dispatchNode(ev NodeEvent) {
	n.mu.RLock()
	local := make([]NodeListener, 0, len(n.nodeListeners))
	for _, l := range n.nodeListeners {
		local = append(local, l)
	}
	n.mu.RUnlock()

	for _, l := range local {
		l(ev)
	}
	if n.tree != nil {
		n.tree.dispatchGlobalNode(ev)
	}
}

func (n *Node) dispatchAttr(ev AttrEvent) {
	n.mu.RLock()
	local := make([]AttrListener, 0, len(n.attrListeners))
	for _, l := range n.attrListeners {
		local = append(local, l)
	}
	n.mu.RUnlock()

	for _, l := range local {
		l(ev)
	}
	if n.tree != nil {
		n.tree.dispatchGlobalAttr(ev)
	}
}

// runDestroyHooks is the deferred-destructor point from spec §5. This
// implementation has no OS resources to release; it exists as the single
// place a future teardown hook would be invoked once refcount reaches
// zero on a detached node.
func (n *Node) runDestroyHooks() {}

func newAttrErr(key string, typ attr.Type, err error) error {
	return &attr.ValueError{Key: key, Type: typ, Err: err}
}
