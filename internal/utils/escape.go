package utils

import (
	"net/url"
	"strings"
)

// escapeSegment matches encodeURIComponent: spaces become %20, not '+'.
func escapeSegment(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// IsValidURL reports whether raw is an absolute http(s) URL.
func IsValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
