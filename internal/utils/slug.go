package utils

import (
	"fmt"

	"github.com/gosimple/slug"
)

// UniqueSlug builds a URL slug from title, appending -2, -3, ... while taken
// reports the candidate as already in use.
func UniqueSlug(title string, taken func(string) bool) string {
	base := slug.Make(title)
	if base == "" {
		base = "untitled"
	}
	candidate := base
	for i := 2; taken(candidate); i++ {
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return candidate
}
