// Package search implements keyword relevance scoring over the document corpus.
//
// Text is normalized by Tokenize, reduced to approximate French roots by Stem,
// and documents are ranked by a Scorer according to a fixed Policy. Everything
// here is pure: no I/O, no shared mutable state, safe for concurrent use.
package search

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// minTokenLen is the shortest token kept by Tokenize, in characters
const minTokenLen = 3

// accented lists the non-ASCII lowercase letters kept as word characters
const accented = "àâçéèêëîïôûùüÿñæœ"

// Tokenize lower-cases text, turns punctuation into spaces and splits on
// whitespace. Tokens shorter than three characters are dropped.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	cleaned := strings.Map(func(r rune) rune {
		if isWordRune(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, strings.ToLower(text))

	fields := strings.Fields(cleaned)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= minTokenLen {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func isWordRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r < utf8.RuneSelf:
		return false
	}
	return strings.ContainsRune(accented, r)
}
