// Package rcp implements the remote config protocol: a length-prefixed
// framing carrying a discriminated action union over a TCP byte stream,
// exposing a ctree.Tree to networked clients and streaming push updates
// to subscribers (spec §4.E, §6).
package rcp

// Action identifies the request or push kind carried by a frame. Values
// are wire-stable (spec §6: "Action codes: as enumerated in §4.E (0…19)").
type Action uint8

const (
	ActionNodeExists Action = iota
	ActionAttrExists
	ActionGet
	ActionPut
	ActionGetChildren
	ActionGetAttributes
	ActionGetType
	ActionGetRanges
	ActionGetFlags
	ActionGetDescription
	ActionAddPushClient
	ActionRemovePushClient
	ActionPushMessageNode
	ActionPushMessageAttr
	ActionDumpTree
	ActionDumpTreeNode
	ActionDumpTreeAttr
	ActionAddModule
	ActionRemoveModule
	ActionError
)

func (a Action) String() string {
	switch a {
	case ActionNodeExists:
		return "NODE_EXISTS"
	case ActionAttrExists:
		return "ATTR_EXISTS"
	case ActionGet:
		return "GET"
	case ActionPut:
		return "PUT"
	case ActionGetChildren:
		return "GET_CHILDREN"
	case ActionGetAttributes:
		return "GET_ATTRIBUTES"
	case ActionGetType:
		return "GET_TYPE"
	case ActionGetRanges:
		return "GET_RANGES"
	case ActionGetFlags:
		return "GET_FLAGS"
	case ActionGetDescription:
		return "GET_DESCRIPTION"
	case ActionAddPushClient:
		return "ADD_PUSH_CLIENT"
	case ActionRemovePushClient:
		return "REMOVE_PUSH_CLIENT"
	case ActionPushMessageNode:
		return "PUSH_MESSAGE_NODE"
	case ActionPushMessageAttr:
		return "PUSH_MESSAGE_ATTR"
	case ActionDumpTree:
		return "DUMP_TREE"
	case ActionDumpTreeNode:
		return "DUMP_TREE_NODE"
	case ActionDumpTreeAttr:
		return "DUMP_TREE_ATTR"
	case ActionAddModule:
		return "ADD_MODULE"
	case ActionRemoveModule:
		return "REMOVE_MODULE"
	case ActionError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
