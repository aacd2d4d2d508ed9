// Package htmlsanitize strips dangerous markup from user-supplied
// text before it is persisted or broadcast.
package htmlsanitize

import (
	"github.com/microcosm-cc/bluemonday"
)

var (
	// basic allows simple formatting tags, nothing interactive.
	basic = bluemonday.UGCPolicy()
	// strict strips all markup, leaving plain text.
	strict = bluemonday.StrictPolicy()
)

// Sanitize removes unsafe HTML while keeping common formatting tags.
func Sanitize(s string) string {
	return basic.Sanitize(s)
}

// PlainText strips all markup. Comment text and entity names pass
// through this before storage.
func PlainText(s string) string {
	return strict.Sanitize(s)
}
