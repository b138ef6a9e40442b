package ctree

import "github.com/brightgate/dvtree/attr"

// RemoveNode removes the subtree rooted at n from its parent. Per spec
// §4.B/§8: for every node in the subtree, in leaf-first order, every
// attribute emits ATTRIBUTE_REMOVED and then the node's removal from its
// parent emits CHILD_REMOVED on that parent. The root cannot be removed.
func (n *Node) RemoveNode() error {
	if n.parent == nil {
		return newPathError(n.path, ErrInvalidPath)
	}
	n.removeRecursive()
	return nil
}

// ClearSubTree removes every descendant of n. If clearThisNode is true, n
// itself is also detached (root is exempt: its own attributes are cleared
// instead, since the root can never be detached).
func (n *Node) ClearSubTree(clearThisNode bool) {
	n.mu.Lock()
	children := make([]*Node, 0, len(n.childOrder))
	for _, name := range n.childOrder {
		children = append(children, n.children[name])
	}
	n.mu.Unlock()

	for _, c := range children {
		c.removeRecursive()
	}

	if clearThisNode {
		if n.parent != nil {
			n.removeRecursive()
		} else {
			n.ClearAttributes()
		}
	}
}

// removeRecursive implements the leaf-first removal walk shared by
// RemoveNode and ClearSubTree.
func (n *Node) removeRecursive() {
	n.mu.Lock()
	children := make([]*Node, 0, len(n.childOrder))
	for _, name := range n.childOrder {
		children = append(children, n.children[name])
	}
	n.mu.Unlock()

	for _, c := range children {
		c.removeRecursive()
	}

	n.mu.Lock()
	recs := make([]*attr.Record, 0, len(n.attrs))
	for _, rec := range n.attrs {
		recs = append(recs, rec)
	}
	n.attrs = make(map[attrKey]*attr.Record)
	n.updaters = make(map[attrKey]*updaterEntry)
	n.mu.Unlock()

	for _, rec := range recs {
		n.dispatchAttr(AttrEvent{Node: n, Kind: AttributeRemoved, Key: rec.Key, Typ: rec.Typ, Value: rec.Value})
	}

	parent := n.parent
	if parent == nil {
		return
	}

	parent.mu.Lock()
	delete(parent.children, n.name)
	parent.childOrder = removeString(parent.childOrder, n.name)
	parent.mu.Unlock()

	n.detached.Store(true)
	if n.tree != nil {
		n.tree.unindex(n.path)
	}

	parent.dispatchNode(NodeEvent{Node: parent, Kind: ChildRemoved, ChildName: n.name})
}

func removeString(s []string, v string) []string {
	out := s[:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
