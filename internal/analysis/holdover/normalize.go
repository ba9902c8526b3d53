// Package holdover reconciles observed dwell with the manual table of known
// holdover stops.
package holdover

import (
	"regexp"
	"strings"
)

var (
	bracketTag     = regexp.MustCompile(`\[[^\]]*\]`)
	versionSuffix  = regexp.MustCompile(`(?i)\(\s*version[^)]*\)`)
	parenthesized  = regexp.MustCompile(`\([^)]*\)`)
	joiner         = regexp.MustCompile(`[&/]`)
	nonKeyChar     = regexp.MustCompile(`[^a-z0-9. ]+`)
	whitespaceRuns = regexp.MustCompile(`\s+`)
)

func collapse(s string) string {
	return strings.TrimSpace(whitespaceRuns.ReplaceAllString(s, " "))
}

// NormalizeRouteKey strips bracketed tags and "(version ...)" suffixes,
// lowercases and trims a route name
func NormalizeRouteKey(route string) string {
	s := bracketTag.ReplaceAllString(route, "")
	s = versionSuffix.ReplaceAllString(s, "")
	return collapse(strings.ToLower(s))
}

// NormalizeStopKey lowercases a stop name, drops parenthesized annotations,
// spells & and / as "and" and deletes everything but letters, digits, dots
// and spaces. "Mid-Campus" and "MidCampus" share a key.
func NormalizeStopKey(stop string) string {
	s := strings.ToLower(stop)
	s = parenthesized.ReplaceAllString(s, "")
	s = joiner.ReplaceAllString(s, " and ")
	s = nonKeyChar.ReplaceAllString(s, "")
	return collapse(s)
}

// correct applies an alias table twice. Tables are checked to be
// idempotent, so the second pass never changes anything.
func correct(key string, aliases map[string]string) string {
	for i := 0; i < 2; i++ {
		if to, ok := aliases[key]; ok {
			key = to
		}
	}
	return key
}
