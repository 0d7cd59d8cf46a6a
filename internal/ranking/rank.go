package ranking

import (
	"sort"

	"github.com/onnwee/kinmatch/internal/genealogy"
	"github.com/onnwee/kinmatch/internal/normalize"
)

// PlaceResolver looks up an authority place by id.
// It returns false when the id cannot be resolved.
type PlaceResolver func(id string) (genealogy.Place, bool)

// ResolveQueryPlace resolves params.PlaceID through resolver.
// Returns nil when no id is set, no resolver is given, or the id is unknown.
func ResolveQueryPlace(params genealogy.SearchParams, resolver PlaceResolver) *genealogy.Place {
	if params.PlaceID == "" || resolver == nil {
		return nil
	}
	place, ok := resolver(params.PlaceID)
	if !ok {
		return nil
	}
	return &place
}

// RankCandidates scores every candidate with the default weights and returns
// them best-first. See RankCandidatesWithWeights.
func RankCandidates(params genealogy.SearchParams, candidates []genealogy.Person, resolver PlaceResolver) []genealogy.MatchCandidate {
	return RankCandidatesWithWeights(params, candidates, resolver, DefaultWeights())
}

// RankCandidatesWithWeights scores every candidate and returns exactly one
// MatchCandidate per input, sorted by descending score. Candidates with equal
// scores keep their input order. The input slice is not modified.
func RankCandidatesWithWeights(
	params genealogy.SearchParams,
	candidates []genealogy.Person,
	resolver PlaceResolver,
	weights Weights,
) []genealogy.MatchCandidate {
	queryPlace := ResolveQueryPlace(params, resolver)

	ranked := make([]genealogy.MatchCandidate, len(candidates))
	for i, candidate := range candidates {
		ranked[i] = Score(params, candidate, queryPlace, weights)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	return ranked
}

// Score computes the weighted score and explanations for one candidate.
// queryPlace is the already resolved authority place for params.PlaceID, or nil.
//
// Explanations are appended in a fixed order: name, place, date, relatives.
func Score(params genealogy.SearchParams, candidate genealogy.Person, queryPlace *genealogy.Place, weights Weights) genealogy.MatchCandidate {
	explanations := make([]string, 0, 4)

	nameSimilarity := normalize.NameVariantMatch(params.Name, candidate.Name)
	if chip := nameExplanation(nameSimilarity); chip != "" {
		explanations = append(explanations, chip)
	}

	place := normalize.PlaceMatchScore(
		normalize.PlaceInput{Place: queryPlace, Text: params.PlaceText},
		normalize.PlaceInput{Place: candidate.PrimaryPlace, Text: candidate.PlaceText()},
	)
	if place.Reason != "" {
		explanations = append(explanations, place.Reason)
	}

	date := DateOverlapScore(candidate, params.BirthYearFrom, params.BirthYearTo)
	if date.Reason != "" {
		explanations = append(explanations, date.Reason)
	}

	relatives := RelativesOverlapScore(RelativesOf(params), candidate)
	if relatives.Reason != "" {
		explanations = append(explanations, relatives.Reason)
	}

	score := CompositeScore(Components{
		Place:       place.Score,
		Date:        date.Score,
		Relatives:   relatives.Score,
		NameVariant: nameSimilarity,
	}, weights)

	return genealogy.MatchCandidate{
		Person:       candidate,
		Score:        score,
		Explanations: explanations,
	}
}
