// Package bm25 provides an in-memory Okapi BM25 inverted index over word tokens.
package bm25

import (
	"regexp"
	"strings"
)

var nonWordRuns = regexp.MustCompile(`[^\w\s]+`)

// Tokenize lowercases s, replaces runs of non-word characters with spaces,
// splits on whitespace, and drops tokens of length <= 1. Stateless.
func Tokenize(s string) []string {
	s = nonWordRuns.ReplaceAllString(strings.ToLower(s), " ")
	fields := strings.Fields(s)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) > 1 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
