package models

import "strings"

const keyPrefix = "tbt:code_attempts"

// SanitizeKeySegment escapes the key delimiter so a crafted identifier such
// as "user:admin" cannot land in another subject's window.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// Key names the sliding window for one subject.
func Key(scope Scope, subject string) string {
	return keyPrefix + ":" + string(scope) + ":" + SanitizeKeySegment(subject)
}
