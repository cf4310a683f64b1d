package entity

import (
	"slices"
	"strings"
	"unicode"
)

// CamelCase joins the parts of machine names into an upper camel case name:
// CamelCase("taxonomy_term") is "TaxonomyTerm" and CamelCase("node",
// "article") is "NodeArticle".
func CamelCase(parts ...string) string {
	var b strings.Builder
	for _, part := range parts {
		for _, word := range strings.FieldsFunc(part, isSeparator) {
			r := []rune(word)
			r[0] = unicode.ToUpper(r[0])
			b.WriteString(string(r))
		}
	}
	return b.String()
}

// PropCase is CamelCase with a lower case first letter.
func PropCase(parts ...string) string {
	s := []rune(CamelCase(parts...))
	if len(s) == 0 {
		return ""
	}
	s[0] = unicode.ToLower(s[0])
	return string(s)
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
