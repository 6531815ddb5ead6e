package litelib

import "strings"

// ProcessResponse returns the daemon reply as a Go string, dropping any NUL
// terminators the native library leaves behind.
func ProcessResponse(raw string) string {
	return strings.TrimRight(raw, "\x00")
}

// IsOK reports whether a reply is the "OK" sentinel, ignoring case and
// surrounding whitespace.
func IsOK(resp string) bool {
	return strings.EqualFold(strings.TrimSpace(resp), "OK")
}
