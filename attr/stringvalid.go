package attr

import (
	"unicode/utf8"
)

// ValidString reports whether s is acceptable as a STRING attribute value:
// valid UTF-8 and free of embedded NUL bytes, which would make the value
// unrepresentable in the XML and RCP string forms. Normalization to NFC
// happens on store (see StringValue), not here, so that
// stringToValue(valueToString(v)) == v holds for every valid UTF-8 input
// rather than rejecting already-stored non-NFC values on reimport.
func ValidString(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			return false
		}
	}
	return true
}
