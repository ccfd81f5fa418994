package rerank

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// TokenSet is an unordered set of normalized tokens
type TokenSet map[string]struct{}

// NewTokenSet builds a set from already-normalized tokens
func NewTokenSet(tokens ...string) TokenSet {
	set := make(TokenSet, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

func (s TokenSet) Has(token string) bool {
	_, ok := s[token]
	return ok
}

func (s TokenSet) Len() int {
	return len(s)
}

// Sorted returns the tokens in lexicographic order
func (s TokenSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// ParseTokenSet splits a comma-separated field into a lowercased, trimmed set
func ParseTokenSet(raw string) TokenSet {
	set := TokenSet{}
	if raw == "" {
		return set
	}
	for _, part := range strings.Split(raw, ",") {
		token := strings.ToLower(strings.TrimSpace(part))
		if token != "" {
			set[token] = struct{}{}
		}
	}
	return set
}

// ExtractYear returns the year of a date, or of a string starting with four digits.
// Any other input yields nil.
func ExtractYear(value any) *int {
	switch v := value.(type) {
	case time.Time:
		if v.IsZero() {
			return nil
		}
		year := v.Year()
		return &year
	case *time.Time:
		if v == nil {
			return nil
		}
		return ExtractYear(*v)
	case string:
		return yearFromString(v)
	case *string:
		if v == nil {
			return nil
		}
		return yearFromString(*v)
	}
	return nil
}

func yearFromString(raw string) *int {
	value := strings.TrimSpace(raw)
	if len(value) < 4 {
		return nil
	}
	prefix := value[:4]
	for _, r := range prefix {
		if r < '0' || r > '9' {
			return nil
		}
	}
	year, err := strconv.Atoi(prefix)
	if err != nil {
		return nil
	}
	return &year
}

// StyleSubset keeps only the keywords present in the style vocabulary
func StyleSubset(keywords TokenSet) TokenSet {
	style := TokenSet{}
	for kw := range keywords {
		if styleKeywords.Has(kw) {
			style[kw] = struct{}{}
		}
	}
	return style
}

// NormalizeLanguage lowercases and trims a language code; empty means unknown
func NormalizeLanguage(language string) string {
	return strings.ToLower(strings.TrimSpace(language))
}
