// Package pathutil maps request paths to bounded metric labels.
package pathutil

import "strings"

// Other is the label used for paths that are not served routes.
const Other = "other"

// knownPaths are the routes served by the API. Anything else, including
// scanner noise, collapses into Other so label cardinality stays fixed.
var knownPaths = map[string]struct{}{
	"/v1/skills/extract":      {},
	"/v1/skills/analyze":      {},
	"/v1/skills/explain-gaps": {},
	"/v1/skills/explain-node": {},
	"/v1/cache/invalidate":    {},
	"/v1/cache/stats":         {},
	"/health":                 {},
	"/health/ai":              {},
	"/ready/ai":               {},
	"/metrics":                {},
}

// NormalizePath returns the route label for path.
//
// Examples:
//
//	NormalizePath("/v1/skills/extract")      // "/v1/skills/extract"
//	NormalizePath("/v1/skills/extract/?x=1") // "/v1/skills/extract"
//	NormalizePath("/wp-login.php")           // "other"
func NormalizePath(path string) string {
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	if _, ok := knownPaths[path]; ok {
		return path
	}
	return Other
}

// Cardinality returns the number of distinct labels NormalizePath can produce.
func Cardinality() int {
	return len(knownPaths) + 1
}
