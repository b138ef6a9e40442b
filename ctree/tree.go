package ctree

import (
	"sync"
)

// Tree owns the root Node and provides path resolution across the whole
// hierarchy (spec §3, §4.C).
type Tree struct {
	root *Node

	mu        sync.RWMutex
	index     map[string]*Node
	globalNd  NodeListener
	globalAt  AttrListener
	hasGlobal struct {
		nd bool
		at bool
	}

	updMu        sync.Mutex
	updaterNodes map[*Node]struct{}

	errorLog func(msg string, fatal bool)
}

// NewTree constructs an empty tree with just a root node at "/".
func NewTree() *Tree {
	t := &Tree{
		index: make(map[string]*Node),
	}
	t.root = newNode(t, nil, "", "/")
	t.index["/"] = t.root
	t.errorLog = func(string, bool) {}
	return t
}

// SetErrorLog installs this tree's error-log callback used by
// AttributeUpdaterRun and by callers that want to surface failures
// without aborting (spec §7). Safe to call at any time; install is
// atomic under the tree's mutex.
func (t *Tree) SetErrorLog(fn func(msg string, fatal bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if fn == nil {
		fn = func(string, bool) {}
	}
	t.errorLog = fn
}

func (t *Tree) logError(msg string, fatal bool) {
	t.mu.RLock()
	fn := t.errorLog
	t.mu.RUnlock()
	fn(msg, fatal)
}

// Root returns the root node. It is never destroyed, so no acquire is
// needed to hold it safely.
func (t *Tree) Root() *Node { return t.root }

// GetNode resolves path, auto-creating any missing ancestor and leaf
// nodes along the way (spec §3's lifecycle rule). The returned node is
// acquired; callers should Release it when done.
func (t *Tree) GetNode(path string) (*Node, error) {
	segments, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	current := t.root
	for _, seg := range segments {
		current = t.getOrCreateChild(current, seg)
	}
	return current.acquire(), nil
}

// ExistsNode reports whether path resolves to an existing node, without
// creating anything.
func (t *Tree) ExistsNode(path string) bool {
	segments, err := splitPath(path)
	if err != nil {
		return false
	}

	current := t.root
	for _, seg := range segments {
		current.mu.RLock()
		next, ok := current.getChildLocked(seg)
		current.mu.RUnlock()
		if !ok {
			return false
		}
		current = next
	}
	return true
}

// GetRelativeNode resolves path rooted at base unless path is absolute
// (starts with "/"), in which case it behaves like GetNode.
func (t *Tree) GetRelativeNode(base *Node, path string) (*Node, error) {
	if path != "" && path[0] == '/' {
		return t.GetNode(path)
	}

	segments, err := splitPath("/" + path)
	if err != nil {
		return nil, err
	}

	current := base
	for _, seg := range segments {
		current = t.getOrCreateChild(current, seg)
	}
	return current.acquire(), nil
}

func (t *Tree) getOrCreateChild(parent *Node, name string) *Node {
	parent.mu.RLock()
	child, ok := parent.getChildLocked(name)
	parent.mu.RUnlock()
	if ok {
		return child
	}

	parent.mu.Lock()
	child, ok = parent.getChildLocked(name)
	if !ok {
		child = newNode(t, parent, name, canonicalPath(parent.path, name))
		parent.children[name] = child
		parent.childOrder = append(parent.childOrder, name)
	}
	parent.mu.Unlock()

	if !ok {
		t.mu.Lock()
		t.index[child.path] = child
		t.mu.Unlock()
		parent.dispatchNode(NodeEvent{Node: parent, Kind: ChildAdded, ChildName: name})
	}
	return child
}

// LookupIndexed returns the node at the given canonical path using the
// tree-wide path index, without walking the child chain. Returns nil if
// absent. Used by rcp and xmlio for fast existence probes.
func (t *Tree) LookupIndexed(path string) *Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.index[path]
}

func (t *Tree) unindex(path string) {
	t.mu.Lock()
	delete(t.index, path)
	t.mu.Unlock()
}

// GlobalNodeListenerSet installs the single process-wide node-event sink.
// It receives every node event, from every node, after per-node listeners
// have already run. Passing nil clears it. Safe to call while events are
// in flight (spec §4.C).
func (t *Tree) GlobalNodeListenerSet(l NodeListener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.globalNd = l
	t.hasGlobal.nd = l != nil
}

// GlobalAttributeListenerSet installs the single process-wide
// attribute-event sink. See GlobalNodeListenerSet.
func (t *Tree) GlobalAttributeListenerSet(l AttrListener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.globalAt = l
	t.hasGlobal.at = l != nil
}

func (t *Tree) dispatchGlobalNode(ev NodeEvent) {
	t.mu.RLock()
	l, ok := t.globalNd, t.hasGlobal.nd
	t.mu.RUnlock()
	if ok {
		l(ev)
	}
}

func (t *Tree) dispatchGlobalAttr(ev AttrEvent) {
	t.mu.RLock()
	l, ok := t.globalAt, t.hasGlobal.at
	t.mu.RUnlock()
	if ok {
		l(ev)
	}
}
