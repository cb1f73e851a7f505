// Package sanitize provides HTML sanitization for user-generated block
// content. Uses bluemonday to strip dangerous HTML (script tags, event
// handlers, javascript: URLs) while preserving the inline formatting the
// editor frontend emits.
package sanitize

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// policy is the singleton bluemonday policy for sanitizing block content.
// Initialized once via sync.Once for thread-safe lazy initialization.
var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

// getPolicy returns the shared sanitization policy, initializing it on first call.
func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.UGCPolicy()

		// The editor emits class attributes for alignment and code blocks.
		policy.AllowAttrs("class").Globally()

		// Allow inline styles the editor uses for text and highlight color.
		policy.AllowAttrs("style").OnElements("span", "p", "div")
	})
	return policy
}

// HTML sanitizes user-generated block content by stripping dangerous
// elements (script, iframe, event handlers, javascript: URLs) while
// preserving safe formatting tags. Plain text passes through unchanged.
//
// This MUST be called on all content arriving over the API before it enters
// a document: block content round-trips through storage and back into
// browsers, so unsanitized input would be stored XSS.
func HTML(input string) string {
	if input == "" {
		return ""
	}
	return getPolicy().Sanitize(input)
}
