package model

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CleanText trims surrounding whitespace and normalizes to NFC, so labels built
// from decomposed input ("c" + U+030C) match those built from precomposed "č".
func CleanText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
