// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package format

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	htmlPolicy     *bluemonday.Policy
	htmlPolicyOnce sync.Once
)

func policy() *bluemonday.Policy {
	htmlPolicyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.RequireNoFollowOnLinks(false)
		p.AddTargetBlankToFullyQualifiedLinks(true)
		p.RequireNoReferrerOnLinks(true)
		htmlPolicy = p
	})
	return htmlPolicy
}

// SanitizeHTML cleans a server-provided html payload. Scripts, event
// handlers, and unsafe URLs are removed; basic formatting survives.
func SanitizeHTML(html string) string {
	return policy().Sanitize(html)
}
