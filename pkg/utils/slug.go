package utils

import (
	"regexp"
	"strings"
)

var nonSlugChars = regexp.MustCompile("[^a-z0-9]+")

// Slugify lowercases s and collapses every run of other characters into a
// single hyphen. Names with no usable characters fall back to "org".
func Slugify(s string) string {
	s = nonSlugChars.ReplaceAllString(strings.ToLower(s), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "org"
	}
	return s
}
