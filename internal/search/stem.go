package search

import (
	"strings"
	"unicode/utf8"
)

// minStemLen is the shortest word, in characters, that Stem will modify
const minStemLen = 4

type suffixRule struct {
	suffix      string
	replacement string
}

// suffixRules are checked in order and the first match wins. The order is
// not longest-first: "ment" is listed after "eur" and "er" comes before "ent".
var suffixRules = []suffixRule{
	{"ement", ""},
	{"ation", ""},
	{"tion", ""},
	{"ique", ""},
	{"eur", ""},
	{"euse", ""},
	{"ment", ""},
	{"er", ""},
	{"ir", ""},
	{"ant", ""},
	{"ent", ""},
}

// Stem reduces a lowercase French word to an approximate root.
// It is a crude suffix stripper: no dictionary, no irregular forms.
func Stem(word string) string {
	if utf8.RuneCountInString(word) < minStemLen {
		return word
	}

	for _, rule := range suffixRules {
		if strings.HasSuffix(word, rule.suffix) {
			return strings.TrimSuffix(word, rule.suffix) + rule.replacement
		}
	}

	// Plural -aux -> -al (journaux -> journal)
	if strings.HasSuffix(word, "aux") {
		return strings.TrimSuffix(word, "aux") + "al"
	}

	return strings.TrimSuffix(word, "s")
}

// stemAll stems each token, dropping duplicate stems
func stemAll(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	stems := make([]string, 0, len(tokens))
	for _, t := range tokens {
		s := Stem(t)
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		stems = append(stems, s)
	}
	return stems
}

// stemsOverlap reports whether two stems are equal or one contains the other.
// Short stems match many unrelated words ("mer" matches "commerce"); ranking
// depends on this, so it is kept as is.
func stemsOverlap(a, b string) bool {
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}
