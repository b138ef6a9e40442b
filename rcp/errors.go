package rcp

import (
	"errors"

	"github.com/brightgate/dvtree/attr"
	"github.com/brightgate/dvtree/ctree"
)

// Error kinds specific to the protocol layer (spec §7): ProtocolError and
// IOError. Attribute/node kinds are attr.Err*/ctree.Err*; they map to an
// ERROR reply by errorMessage below rather than getting redeclared here.
var (
	ErrProtocol = errors.New("rcp: protocol error")
	ErrIO       = errors.New("rcp: connection io error")
)

// errorMessage renders err as the human-readable diagnostic carried in an
// ERROR reply's Value field (spec §4.E table).
func errorMessage(err error) string {
	switch {
	case errors.Is(err, attr.ErrNotFound):
		return "not found: " + err.Error()
	case errors.Is(err, attr.ErrTypeMismatch):
		return "type mismatch: " + err.Error()
	case errors.Is(err, attr.ErrOutOfRange):
		return "out of range: " + err.Error()
	case errors.Is(err, attr.ErrReadOnly):
		return "read only: " + err.Error()
	case errors.Is(err, attr.ErrConflict):
		return "conflict: " + err.Error()
	case errors.Is(err, attr.ErrInvalidValue):
		return "invalid value: " + err.Error()
	case errors.Is(err, ctree.ErrInvalidPath):
		return "invalid path: " + err.Error()
	default:
		return err.Error()
	}
}
