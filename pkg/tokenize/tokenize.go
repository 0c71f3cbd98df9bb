// Package tokenize turns free text into the tokens used by the word index.
package tokenize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// IsPunct reports whether r separates tokens inside a whitespace-delimited run.
// ASCII punctuation counts, except the apostrophe, colon and underscore, which stay part of a token.
func IsPunct(r rune) bool {
	switch {
	case r >= '!' && r <= '&':
		return true
	case r >= '(' && r <= '/':
		return true
	case r >= ';' && r <= '@':
		return true
	case r >= '[' && r <= '^':
		return true
	case r == '`':
		return true
	case r >= '{' && r <= '~':
		return true
	}
	return false
}

// Tokenize splits content into lowercase tokens.
// Order and duplicates are preserved; callers dedup when inserting into a set.
func Tokenize(content string) []string {
	// A Caser keeps state between calls, so each invocation gets its own.
	lower := cases.Lower(language.Und)

	var tokens []string
	for _, run := range strings.Fields(content) {
		for _, fragment := range strings.FieldsFunc(run, IsPunct) {
			token := strings.ReplaceAll(lower.String(fragment), `"`, "")
			if token == "" {
				continue
			}
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// Unique returns the distinct tokens of content in first-seen order.
func Unique(content string) []string {
	tokens := Tokenize(content)
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0]
	for _, token := range tokens {
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}

// Lower lowercases a single word the way Tokenize does, without splitting it.
func Lower(word string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(word))
}
