// Package sanitize provides HTML sanitization for user-generated content.
// Blog bodies keep safe rich-text formatting; comments, expert questions, and
// replies are reduced to plain text before they are stored or mailed.
package sanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	richPolicy     *bluemonday.Policy
	richPolicyOnce sync.Once

	strictPolicy     *bluemonday.Policy
	strictPolicyOnce sync.Once
)

// getRichPolicy returns the shared blog-content policy, initializing it on
// first call.
func getRichPolicy() *bluemonday.Policy {
	richPolicyOnce.Do(func() {
		richPolicy = bluemonday.UGCPolicy()

		// The dashboard editor emits classes for alignment and code blocks.
		richPolicy.AllowAttrs("class").Globally()
		richPolicy.AllowAttrs("style").OnElements("span", "p", "div", "td", "th")

		richPolicy.AllowElements("table", "thead", "tbody", "tfoot", "tr", "td", "th", "colgroup", "col", "caption", "figure", "figcaption")
		richPolicy.AllowAttrs("colspan", "rowspan").OnElements("td", "th")

		// Embedded media uploaded through /api/admin/blog.
		richPolicy.AllowElements("video", "source")
		richPolicy.AllowAttrs("src", "type").OnElements("source")
		richPolicy.AllowAttrs("controls", "poster", "width", "height").OnElements("video")
		richPolicy.AllowURLSchemes("http", "https")

		richPolicy.RequireNoFollowOnLinks(true)
		richPolicy.AddTargetBlankToFullyQualifiedLinks(true)
	})
	return richPolicy
}

func getStrictPolicy() *bluemonday.Policy {
	strictPolicyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// HTML sanitizes blog HTML by stripping dangerous elements (script, iframe,
// event handlers, javascript: URLs) while preserving formatting.
//
// This MUST be called on all admin-provided content before it is stored.
func HTML(input string) string {
	if input == "" {
		return ""
	}
	return getRichPolicy().Sanitize(input)
}

// PlainText strips every tag and returns trimmed, unescaped text. Used for
// comments, expert-form questions, and replies.
func PlainText(input string) string {
	if input == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(getStrictPolicy().Sanitize(input)))
}

// Excerpt returns the first maxRunes characters of the plain text of content,
// cut on a word boundary and suffixed with an ellipsis when truncated.
func Excerpt(content string, maxRunes int) string {
	text := strings.Join(strings.Fields(PlainText(content)), " ")
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	cut := string(runes[:maxRunes])
	if i := strings.LastIndexByte(cut, ' '); i > maxRunes/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}
