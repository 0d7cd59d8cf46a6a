// Package gedcomx maps upstream GEDCOM-X JSON documents into genealogy values.
//
// Upstream documents are loosely typed: the same datum can live under several
// keys depending on the endpoint that produced it. The mappers read them with
// gjson and try each known location in turn, so no intermediate structs are
// declared for the wire format.
package gedcomx

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/tidwall/gjson"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var yearPattern = regexp.MustCompile(`(-?\d{4})`)

// NormalizeRef reduces a GEDCOM-X reference to a bare id.
// A leading '#' is dropped, then everything up to the last '/', then
// everything up to the last ':' unless the colon is the final character.
//
//	"#P1"                                     -> "P1"
//	"https://api.example.org/platform/places/123" -> "123"
//	"urn:place:XYZ"                           -> "XYZ"
func NormalizeRef(ref string) string {
	value := strings.TrimSpace(ref)
	value = strings.TrimPrefix(value, "#")
	if i := strings.LastIndex(value, "/"); i >= 0 {
		value = value[i+1:]
	}
	if i := strings.LastIndex(value, ":"); i >= 0 && i < len(value)-1 {
		value = value[i+1:]
	}
	return value
}

// ExtractYear returns the first four-digit (optionally negative) year in s.
func ExtractYear(s string) (int, bool) {
	match := yearPattern.FindStringSubmatch(s)
	if match == nil {
		return 0, false
	}
	year, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return year, true
}

// slugify builds a url-safe id from a display name.
func slugify(s string) string {
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	decomposed, _, err := transform.String(stripMarks, s)
	if err != nil {
		decomposed = s
	}

	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(decomposed) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// firstString returns the first scalar, non-empty value among results.
// Objects and arrays are skipped rather than rendered as raw JSON.
func firstString(results ...gjson.Result) string {
	for _, r := range results {
		if r.Type != gjson.String && r.Type != gjson.Number {
			continue
		}
		if s := strings.TrimSpace(r.String()); s != "" {
			return s
		}
	}
	return ""
}

// extractIdentifier returns the first usable id from a GEDCOM-X identifiers
// field. Both the list form and the standard type-to-values object are accepted.
func extractIdentifier(identifiers gjson.Result) string {
	var candidates []gjson.Result
	switch {
	case identifiers.IsArray():
		candidates = identifiers.Array()
	case identifiers.IsObject():
		identifiers.ForEach(func(_, values gjson.Result) bool {
			if values.IsArray() {
				candidates = append(candidates, values.Array()...)
			} else {
				candidates = append(candidates, values)
			}
			return true
		})
	default:
		return ""
	}

	for _, item := range candidates {
		value := item
		if item.IsObject() {
			value = item.Get("value")
			if !value.Exists() {
				value = item.Get("identifier")
			}
		}
		if value.Type != gjson.String {
			continue
		}
		if id := NormalizeRef(value.String()); id != "" {
			return id
		}
	}
	return ""
}

// nameFromNames returns the first full name found in a GEDCOM-X names list.
func nameFromNames(names gjson.Result) string {
	for _, name := range names.Array() {
		if v := firstString(name.Get("value"), name.Get("fullText")); v != "" {
			return v
		}
		forms := name.Get("forms")
		if !forms.IsArray() {
			forms = name.Get("nameForms")
		}
		for _, form := range forms.Array() {
			if v := firstString(form.Get("fullText"), form.Get("value")); v != "" {
				return v
			}
		}
	}
	return ""
}

// lastSegment returns the part of a type URI after its last '/'.
func lastSegment(s string) string {
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}
