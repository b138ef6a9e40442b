package attr

import "strings"

// Flags is a bitset over the per-attribute modifiers defined in spec §3.
type Flags int32

const (
	Normal     Flags = 0
	ReadOnly   Flags = 1 << 0
	NotifyOnly Flags = 1 << 1
	NoExport   Flags = 1 << 2
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// FlagsToString renders f as a "|"-joined list of flag names, or "normal"
// when no bit is set.
func FlagsToString(f Flags) string {
	if f == Normal {
		return "normal"
	}
	var names []string
	if f.Has(ReadOnly) {
		names = append(names, "read_only")
	}
	if f.Has(NotifyOnly) {
		names = append(names, "notify_only")
	}
	if f.Has(NoExport) {
		names = append(names, "no_export")
	}
	return strings.Join(names, "|")
}

// StringToFlags parses the form produced by FlagsToString.
func StringToFlags(s string) (Flags, error) {
	if s == "" || s == "normal" {
		return Normal, nil
	}
	var f Flags
	for _, name := range strings.Split(s, "|") {
		switch strings.TrimSpace(name) {
		case "read_only":
			f |= ReadOnly
		case "notify_only":
			f |= NotifyOnly
		case "no_export":
			f |= NoExport
		default:
			return 0, newValueError("", Unknown, ErrInvalidValue)
		}
	}
	return f, nil
}
