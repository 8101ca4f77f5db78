package assetgate

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// IsValidKey reports whether key is safe to resolve against a storage root.
// A valid key:
//   - is not empty, ".", or "/"
//   - is relative and does not end with "/"
//   - contains no "..", "//" or "." segments
//   - contains none of \ ? # ~
//   - is valid UTF-8 without NUL, control characters, DEL or whitespace
func IsValidKey(key string) bool {
	if key == "" || key == "/" || key == "." {
		return false
	}

	if key[0] == '/' || strings.HasSuffix(key, "/") {
		return false
	}

	if strings.Contains(key, "..") || strings.Contains(key, "//") {
		return false
	}

	if strings.ContainsAny(key, `\?#~`) {
		return false
	}

	if !utf8.ValidString(key) {
		return false
	}

	if strings.HasPrefix(key, "./") || strings.Contains(key, "/./") || strings.HasSuffix(key, "/.") {
		return false
	}

	for _, r := range key {
		if r < 0x20 || r == 0x7f || unicode.IsSpace(r) {
			return false
		}
	}

	return true
}
