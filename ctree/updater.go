package ctree

import (
	"fmt"
	"sort"

	"github.com/brightgate/dvtree/attr"
)

// UpdaterFunc is invoked by Tree.AttributeUpdaterRun to refresh a single
// attribute. It returns the new value to store, or an error if the value
// could not be computed this pass. userData is whatever was passed to
// RegisterUpdater, threaded through unchanged (spec §9 supplement, made
// explicit from the original's void* userData parameter).
type UpdaterFunc func(node *Node, key string, typ attr.Type, userData any) (attr.Value, error)

type updaterEntry struct {
	fn       UpdaterFunc
	userData any
}

// RegisterUpdater binds fn to (key,type) on n. The tree invokes fn during
// AttributeUpdaterRun and applies its result via UpdateReadOnly, so
// READ_ONLY attributes can be refreshed this way.
func (n *Node) RegisterUpdater(key string, typ attr.Type, fn UpdaterFunc, userData any) {
	k := attrKey{key, typ}

	n.mu.Lock()
	n.updaters[k] = &updaterEntry{fn: fn, userData: userData}
	n.mu.Unlock()

	if n.tree != nil {
		n.tree.registerUpdaterNode(n)
	}
}

// RemoveUpdater unbinds the updater for (key,type), if any.
func (n *Node) RemoveUpdater(key string, typ attr.Type) {
	n.mu.Lock()
	delete(n.updaters, attrKey{key, typ})
	n.mu.Unlock()
}

func (t *Tree) registerUpdaterNode(n *Node) {
	t.updMu.Lock()
	if t.updaterNodes == nil {
		t.updaterNodes = make(map[*Node]struct{})
	}
	t.updaterNodes[n] = struct{}{}
	t.updMu.Unlock()
}

// AttributeUpdaterRun drives one pass of every registered updater, in a
// stable (path, then key, then type) order. The tree performs no
// background polling; callers drive the cadence (spec §4.C). A failing
// updater is reported via the error-log callback and does not abort the
// pass.
func (t *Tree) AttributeUpdaterRun() {
	t.updMu.Lock()
	nodes := make([]*Node, 0, len(t.updaterNodes))
	for n := range t.updaterNodes {
		nodes = append(nodes, n)
	}
	t.updMu.Unlock()

	sort.Slice(nodes, func(i, j int) bool { return nodes[i].path < nodes[j].path })

	for _, n := range nodes {
		n.mu.RLock()
		type entry struct {
			key attrKey
			e   *updaterEntry
		}
		entries := make([]entry, 0, len(n.updaters))
		for k, e := range n.updaters {
			entries = append(entries, entry{k, e})
		}
		n.mu.RUnlock()

		sort.Slice(entries, func(i, j int) bool {
			if entries[i].key.key != entries[j].key.key {
				return entries[i].key.key < entries[j].key.key
			}
			return entries[i].key.typ < entries[j].key.typ
		})

		for _, en := range entries {
			val, err := en.e.fn(n, en.key.key, en.key.typ, en.e.userData)
			if err != nil {
				t.logError(fmt.Sprintf("updater failed for %s%s (%s): %v", n.path, en.key.key, en.key.typ, err), false)
				continue
			}
			if _, err := n.UpdateReadOnly(en.key.key, en.key.typ, val); err != nil {
				t.logError(fmt.Sprintf("updater apply failed for %s%s (%s): %v", n.path, en.key.key, en.key.typ, err), false)
			}
		}
	}
}
