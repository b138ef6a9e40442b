package rcp

import (
	"strings"

	"github.com/brightgate/dvtree/attr"
	"github.com/brightgate/dvtree/ctree"
)

// listSep joins multi-valued replies (child names, attribute keys), per
// spec §4.E's GET_CHILDREN/GET_ATTRIBUTES reply format. Child names are
// restricted by the path grammar to [A-Za-z0-9_]+; attribute keys are not
// validated, so a key containing "|" makes a GET_ATTRIBUTES reply ambiguous.
const listSep = "|"

// dispatch executes one request frame against tree and returns the reply
// frame. Push-subscription actions (ADD_PUSH_CLIENT, REMOVE_PUSH_CLIENT) are
// handled by the caller (conn.go) since they need access to the
// connection's pushClient, not just the tree; dispatch returns
// ErrProtocol for them here as a safety net.
func dispatch(tree *ctree.Tree, req Frame) Frame {
	switch req.Action {
	case ActionNodeExists:
		return okFrame(req, boolValue(tree.ExistsNode(req.Node)))

	case ActionAttrExists:
		n := tree.LookupIndexed(req.Node)
		if n == nil {
			return okFrame(req, boolValue(false))
		}
		return okFrame(req, boolValue(n.Exists(req.Key, req.Type)))

	case ActionGet:
		return withNode(tree, req, func(n *ctree.Node) Frame {
			v, err := n.GetAttribute(req.Key, req.Type)
			if err != nil {
				return errFrame(req, err)
			}
			s, err := attr.ValueToString(req.Type, v)
			if err != nil {
				return errFrame(req, err)
			}
			return okFrame(req, s)
		})

	case ActionPut:
		return withNode(tree, req, func(n *ctree.Node) Frame {
			v, err := attr.StringToValue(req.Type, req.Value)
			if err != nil {
				return errFrame(req, err)
			}
			if _, err := n.PutAttribute(req.Key, req.Type, v); err != nil {
				return errFrame(req, err)
			}
			return okFrame(req, "")
		})

	case ActionGetChildren:
		return withNode(tree, req, func(n *ctree.Node) Frame {
			return okFrame(req, strings.Join(n.GetChildNames(), listSep))
		})

	case ActionGetAttributes:
		return withNode(tree, req, func(n *ctree.Node) Frame {
			recs := n.GetAttributeKeys()
			keys := make([]string, 0, len(recs))
			for _, r := range recs {
				keys = append(keys, r.Key+":"+r.Typ.String())
			}
			return okFrame(req, strings.Join(keys, listSep))
		})

	case ActionGetType:
		// The type is what the caller is asking for, so the lookup is by key
		// alone and req.Type is ignored. When several types share the key,
		// the one with the lowest type code is reported.
		return withNode(tree, req, func(n *ctree.Node) Frame {
			for _, r := range n.GetAttributeKeys() {
				if r.Key == req.Key {
					f := okFrame(req, "")
					f.Type = r.Typ
					return f
				}
			}
			return errFrame(req, &attr.ValueError{Key: req.Key, Type: attr.Unknown, Err: attr.ErrNotFound})
		})

	case ActionGetRanges:
		return withRecord(tree, req, func(r attr.Record) Frame {
			f := okFrame(req, "")
			f.Ranges = attr.RangesToString(r.Ranges)
			return f
		})

	case ActionGetFlags:
		return withRecord(tree, req, func(r attr.Record) Frame {
			f := okFrame(req, "")
			f.Flags = int32(r.Flags)
			return f
		})

	case ActionGetDescription:
		return withRecord(tree, req, func(r attr.Record) Frame {
			f := okFrame(req, "")
			f.Description = r.Description
			return f
		})

	case ActionAddModule, ActionRemoveModule:
		// Module (un)registration is a client-façade concern (spec §4.F):
		// the wire action only needs the node to exist so a caller can
		// probe reachability before registering locally.
		return withNode(tree, req, func(n *ctree.Node) Frame {
			return okFrame(req, "")
		})

	default:
		return Frame{Action: ActionError, Node: req.Node, Key: req.Key, Value: errorMessage(ErrProtocol)}
	}
}

func withNode(tree *ctree.Tree, req Frame, fn func(*ctree.Node) Frame) Frame {
	n := tree.LookupIndexed(req.Node)
	if n == nil {
		return errFrame(req, ctree.ErrInvalidPath)
	}
	return fn(n)
}

func withRecord(tree *ctree.Tree, req Frame, fn func(attr.Record) Frame) Frame {
	return withNode(tree, req, func(n *ctree.Node) Frame {
		rec, err := n.GetRecord(req.Key, req.Type)
		if err != nil {
			return errFrame(req, err)
		}
		return fn(rec)
	})
}

func okFrame(req Frame, value string) Frame {
	return Frame{Action: req.Action, Node: req.Node, Key: req.Key, Type: req.Type, Value: value}
}

func errFrame(req Frame, err error) Frame {
	return Frame{Action: ActionError, Node: req.Node, Key: req.Key, Type: req.Type, Value: errorMessage(err)}
}

func boolValue(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
