package ctree

import "errors"

// Error kinds specific to node/tree operations (spec §7). Attribute-level
// kinds (NotFound, TypeMismatch, OutOfRange, ReadOnly, Conflict,
// InvalidValue) are attr.Err*; callers match those with errors.Is just the
// same.
var (
	ErrInvalidPath = errors.New("invalid path")
	ErrNodeInUse   = errors.New("node has outstanding references")
)

// PathError wraps ErrInvalidPath with the offending path string.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string { return "invalid path " + e.Path + ": " + e.Err.Error() }
func (e *PathError) Unwrap() error { return e.Err }

func newPathError(p string, err error) error {
	return &PathError{Path: p, Err: err}
}
