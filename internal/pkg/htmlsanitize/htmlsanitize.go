// Package htmlsanitize cleans user-authored documentation HTML.
package htmlsanitize

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.UGCPolicy()
		// Editor checklists and code blocks.
		policy.AllowAttrs("type", "checked", "disabled").OnElements("input")
		policy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code", "pre", "span", "div")
	})
	return policy
}

// Sanitize strips scripts, event handlers and unsafe URLs while keeping formatting.
func Sanitize(html string) string {
	if html == "" {
		return ""
	}
	return getPolicy().Sanitize(html)
}
