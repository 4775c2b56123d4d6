// Package redirect builds the destination URL of a screened click.
package redirect

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// Select returns blackURL for valid clicks and whiteURL for everything else.
func Select(valid bool, blackURL, whiteURL string) string {
	if valid {
		return blackURL
	}
	return whiteURL
}

// Compose selects the destination for the verdict and merges the inbound
// query string into it. Inbound keys replace every base value for that key
// at the key's original position; inbound-only keys are appended in inbound
// order. Blank values are kept. Scheme, host, path and fragment are untouched.
func Compose(valid bool, blackURL, whiteURL, rawInboundQuery string) (string, error) {
	return Merge(Select(valid, blackURL, whiteURL), rawInboundQuery)
}

// Merge merges rawInboundQuery into the query of base.
func Merge(base, rawInboundQuery string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse destination %q: %w", base, err)
	}

	merged := parseQuery(u.RawQuery)
	merged.replaceFrom(parseQuery(rawInboundQuery))
	u.RawQuery = merged.encode()

	return u.String(), nil
}

// Strip removes every occurrence of keys from a raw query string. Remaining
// pairs keep their order and original encoding.
func Strip(rawQuery string, keys ...string) string {
	if len(keys) == 0 || rawQuery == "" {
		return rawQuery
	}

	kept := make([]string, 0, strings.Count(rawQuery, "&")+1)
	for pair := range strings.SplitSeq(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key, _, _ := strings.Cut(pair, "=")
		if slices.Contains(keys, unescape(key)) {
			continue
		}
		kept = append(kept, pair)
	}
	return strings.Join(kept, "&")
}

type param struct {
	key    string
	values []string
}

// query is a multi-map that remembers the order keys first appeared in.
type query []param

func parseQuery(raw string) query {
	var q query
	for pair := range strings.SplitSeq(raw, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		q.add(unescape(key), unescape(value))
	}
	return q
}

func unescape(s string) string {
	if v, err := url.QueryUnescape(s); err == nil {
		return v
	}
	return s
}

func (q *query) add(key, value string) {
	for i := range *q {
		if (*q)[i].key == key {
			(*q)[i].values = append((*q)[i].values, value)
			return
		}
	}
	*q = append(*q, param{key: key, values: []string{value}})
}

func (q *query) replaceFrom(inbound query) {
	for _, in := range inbound {
		replaced := false
		for i := range *q {
			if (*q)[i].key == in.key {
				(*q)[i].values = in.values
				replaced = true
				break
			}
		}
		if !replaced {
			*q = append(*q, in)
		}
	}
}

func (q query) encode() string {
	var b strings.Builder
	for _, p := range q {
		for _, v := range p.values {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(p.key))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}
