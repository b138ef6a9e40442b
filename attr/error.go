package attr

import "errors"

// Error kinds shared across attr, ctree, xmlio and rcp. Callers should
// match on these with errors.Is; the concrete wrapper types below carry
// the offending key/type for diagnostics.
var (
	ErrNotFound     = errors.New("attribute not found")
	ErrTypeMismatch = errors.New("attribute type mismatch")
	ErrOutOfRange   = errors.New("value out of range")
	ErrReadOnly     = errors.New("attribute is read-only")
	ErrConflict     = errors.New("attribute already exists with different ranges or flags")
	ErrInvalidValue = errors.New("invalid value")
)

// ValueError wraps one of the sentinel errors above with the (key, type)
// pair it occurred on.
type ValueError struct {
	Key  string
	Type Type
	Err  error
}

func (e *ValueError) Error() string {
	return e.Key + " (" + e.Type.String() + "): " + e.Err.Error()
}

func (e *ValueError) Unwrap() error {
	return e.Err
}

func newValueError(key string, t Type, err error) error {
	return &ValueError{Key: key, Type: t, Err: err}
}
