package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Visit notes and feedback come from mobile text inputs; nothing here should
// ever render markup, so strip everything rather than allowing a UGC subset.
var sanitizer = bluemonday.StrictPolicy()

// Sanitize strips all HTML from user-supplied text.
func Sanitize(input string) string {
	return strings.TrimSpace(sanitizer.Sanitize(input))
}
