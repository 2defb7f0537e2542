package validation

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var tweetPolicy = newTweetPolicy()

func newTweetPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "i", "em", "strong", "u", "s", "code", "br")
	p.AllowAttrs("href").OnElements("a")
	p.AllowStandardURLs()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// SanitizeTweet strips everything outside the inline allow-list and checks the
// visible length of the result against limit.
func SanitizeTweet(content string, limit int) (string, error) {
	clean := strings.TrimSpace(tweetPolicy.Sanitize(content))
	if clean == "" {
		return "", fmt.Errorf("content is required")
	}
	if n := VisibleLength(clean); n > limit {
		return "", fmt.Errorf("content must not exceed %d characters", limit)
	}
	return clean, nil
}

// VisibleLength counts the characters a reader sees once markup is removed.
func VisibleLength(markup string) int {
	text := bluemonday.StrictPolicy().Sanitize(markup)
	return utf8.RuneCountInString(html.UnescapeString(text))
}

// SanitizePlain removes all markup, for comments and descriptions.
func SanitizePlain(s string) string {
	return strings.TrimSpace(html.UnescapeString(bluemonday.StrictPolicy().Sanitize(s)))
}
