// Package normalize turns free-text names and places into comparable forms and
// scores how closely two of them agree.
//
// All functions are pure and safe for concurrent use.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Name returns the canonical comparison form of a person name:
// lower-cased, diacritics removed, anything outside a-z and whitespace
// replaced by a space, whitespace collapsed and trimmed.
//
// "Inácio  d'Ávila" -> "inacio d avila"
func Name(name string) string {
	if name == "" {
		return ""
	}

	lowered := strings.ToLower(name)

	// transform.Chain keeps internal state, so it is built per call.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	decomposed, _, err := transform.String(stripMarks, lowered)
	if err != nil {
		decomposed = lowered
	}

	mapped := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' {
			return r
		}
		// Whitespace and everything else become a separator.
		return ' '
	}, decomposed)

	return strings.Join(strings.Fields(mapped), " ")
}

// NameVariantMatch scores two names in [0, 1].
// Identical normalized forms score 1, even when both normalize to "".
// Otherwise the Jaccard similarity of their token sets is returned, so an
// empty name facing a non-empty one scores 0.
func NameVariantMatch(a, b string) float64 {
	na, nb := Name(a), Name(b)
	if na == nb {
		return 1
	}
	if na == "" || nb == "" {
		return 0
	}

	ta := tokenSet(na)
	tb := tokenSet(nb)

	shared := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			shared++
		}
	}

	union := len(ta) + len(tb) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

// tokenSet splits an already normalized name on single spaces.
func tokenSet(normalized string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Split(normalized, " ") {
		if tok != "" {
			set[tok] = struct{}{}
		}
	}
	return set
}
