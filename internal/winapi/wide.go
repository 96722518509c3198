package winapi

import "unicode/utf16"

// FromWide converts a fixed-size WCHAR buffer to a string. The buffer is
// cut at its first NUL; a buffer without any NUL decodes as empty
// Unpaired surrogates become U+FFFD
func FromWide(chars []uint16) string {
	for i, c := range chars {
		if c == 0 {
			return string(utf16.Decode(chars[:i]))
		}
	}
	return ""
}
