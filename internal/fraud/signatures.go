// Package fraud screens clicks for automated and fraudulent traffic.
// signatures.go implements Aho-Corasick matching of user agents against bot signatures.
package fraud

import (
	"strings"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// DefaultBotSignatures are lowercase fragments of automation, crawler and
// link-preview user agents.
var DefaultBotSignatures = []string{
	"bot",
	"crawler",
	"spider",
	"scraper",
	"headless",
	"selenium",
	"chrome-lighthouse",
	"googlebot",
	"bingbot",
	"yahoo",
	"baidu",
	"yandex",
	"duckduckbot",
	"facebookexternalhit",
	"twitterbot",
	"linkedinbot",
	"whatsapp",
	"telegrambot",
	"slurp",
	"embedly",
	"quora link preview",
	"outbrain",
	"pinterest",
	"applebot",
	"semrushbot",
	"ahrefsbot",
	"mj12bot",
	"petalbot",
	"bytespider",
}

// SignatureMatcher finds signatures in a user agent in a single pass.
// It is immutable after construction and safe for concurrent use.
type SignatureMatcher struct {
	matcher    *ahocorasick.Matcher
	signatures []string
}

// NewSignatureMatcher builds the automaton over the given signatures.
// Matching is case-insensitive.
func NewSignatureMatcher(signatures []string) *SignatureMatcher {
	normalized := make([]string, 0, len(signatures))
	for _, sig := range signatures {
		sig = strings.ToLower(strings.TrimSpace(sig))
		if sig != "" {
			normalized = append(normalized, sig)
		}
	}

	m := &SignatureMatcher{signatures: normalized}
	if len(normalized) > 0 {
		m.matcher = ahocorasick.NewStringMatcher(normalized)
	}
	return m
}

// Match returns the signatures found in userAgent, in signature-list order.
func (m *SignatureMatcher) Match(userAgent string) []string {
	if m.matcher == nil || userAgent == "" {
		return nil
	}

	hits := m.matcher.MatchThreadSafe([]byte(strings.ToLower(userAgent)))
	if len(hits) == 0 {
		return nil
	}

	found := make([]string, 0, len(hits))
	for _, idx := range hits {
		if idx < len(m.signatures) {
			found = append(found, m.signatures[idx])
		}
	}
	return found
}

// Contains reports whether any signature occurs in userAgent.
func (m *SignatureMatcher) Contains(userAgent string) bool {
	if m.matcher == nil || userAgent == "" {
		return false
	}
	return m.matcher.Contains([]byte(strings.ToLower(userAgent)))
}
