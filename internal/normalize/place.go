package normalize

import (
	"strings"
	"unicode"

	"github.com/onnwee/kinmatch/internal/genealogy"
)

// Place match scores. Structured authority matches always outrank text heuristics.
const (
	PlaceScoreSameID           = 1.0
	PlaceScoreTextMatch        = 0.8
	PlaceScoreSameJurisdiction = 0.6
	PlaceScoreWordOverlap      = 0.5
)

// Place match reasons, rendered as explanation chips.
const (
	ReasonSamePlaceID      = "same place id"
	ReasonSameJurisdiction = "same jurisdiction"
	ReasonPlaceTextMatch   = "text match"
	ReasonPlaceWordOverlap = "word overlap"
)

// Match is a sub-score with an optional explanation. Reason is empty when the
// sub-score carries no explanation.
type Match struct {
	Score  float64
	Reason string
}

// PlaceInput is one side of a place comparison: an authority place, free text, or both.
type PlaceInput struct {
	Place *genealogy.Place
	Text  string
}

// text returns the free text for this side, falling back to the structured display name.
func (in PlaceInput) text() string {
	if in.Text != "" {
		return in.Text
	}
	if in.Place != nil {
		return in.Place.DisplayName
	}
	return ""
}

// PlaceMatchScore scores a query place against a candidate place.
// The first matching rule wins:
//
//  1. same authority id                  -> 1.0
//  2. shared jurisdiction ancestor       -> 0.6
//  3. one text contains the other        -> 0.8
//  4. any shared comma/space token       -> 0.5
//  5. otherwise                          -> 0, no reason
func PlaceMatchScore(query, candidate PlaceInput) Match {
	if query.Place != nil && candidate.Place != nil {
		if query.Place.ID == candidate.Place.ID {
			return Match{Score: PlaceScoreSameID, Reason: ReasonSamePlaceID}
		}
		if jurisdictionsOverlap(query.Place.JurisdictionPath, candidate.Place.JurisdictionPath) {
			return Match{Score: PlaceScoreSameJurisdiction, Reason: ReasonSameJurisdiction}
		}
	}

	q := strings.ToLower(query.text())
	c := strings.ToLower(candidate.text())
	if q == "" || c == "" {
		return Match{}
	}

	if strings.Contains(c, q) || strings.Contains(q, c) {
		return Match{Score: PlaceScoreTextMatch, Reason: ReasonPlaceTextMatch}
	}

	candidateTokens := make(map[string]struct{})
	for _, tok := range placeTokens(c) {
		candidateTokens[tok] = struct{}{}
	}
	for _, tok := range placeTokens(q) {
		if _, ok := candidateTokens[tok]; ok {
			return Match{Score: PlaceScoreWordOverlap, Reason: ReasonPlaceWordOverlap}
		}
	}

	return Match{}
}

func jurisdictionsOverlap(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	seen := make(map[string]struct{}, len(a))
	for _, id := range a {
		seen[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := seen[id]; ok {
			return true
		}
	}
	return false
}

// placeTokens splits on commas and whitespace, dropping empty tokens.
func placeTokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}
