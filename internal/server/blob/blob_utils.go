package blob

import (
	"regexp"
	"unicode/utf8"
)

// leading slash, any backslash, or a ".." path segment
var regexForbiddenPatterns = regexp.MustCompile(`^/|\\|(^|/)\.\.(/|$)`)

// ValidateKey reports whether key is safe to use as an object key and as a relative path on disk.
func ValidateKey(key string) bool {
	// S3 keys are 1 to 1024 bytes
	if len(key) == 0 || len(key) > 1024 {
		return false
	}
	if key == "." {
		return false
	}
	if regexForbiddenPatterns.MatchString(key) {
		return false
	}
	return utf8.ValidString(key)
}
