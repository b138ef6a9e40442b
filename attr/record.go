package attr

// Record is the full metadata for one attribute: its key/type identity,
// current value, range, flags and description. Two Records with the same
// Key but different Type coexist on a node (spec §3).
type Record struct {
	Key         string
	Typ         Type
	Value       Value
	Ranges      Range
	Flags       Flags
	Description string
}

// Validate checks that r.Value satisfies r.Ranges and is not a NaN float,
// per spec §9's Open Question resolution.
func (r Record) Validate() error {
	if r.Value.IsNaN() {
		return newValueError(r.Key, r.Typ, ErrInvalidValue)
	}
	if !r.Ranges.Contains(r.Value) {
		return newValueError(r.Key, r.Typ, ErrOutOfRange)
	}
	return nil
}
