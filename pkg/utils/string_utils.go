package utils

import (
	"regexp"
	"strings"
)

// BlankToNil returns nil for nil pointers and for strings that are empty after trimming.
func BlankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

var unsafeFileChars = regexp.MustCompile(`[^\w.\-]+`)

// SafeFileName replaces anything outside [A-Za-z0-9_.-] with underscores.
func SafeFileName(name, fallback string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = fallback
	}
	return unsafeFileChars.ReplaceAllString(name, "_")
}
