package ranking

import (
	"math"
	"strings"

	"github.com/onnwee/kinmatch/internal/genealogy"
	"github.com/onnwee/kinmatch/internal/normalize"
)

// DateSlackYears is how far outside the query window a birth year may fall
// and still count as inside it.
const DateSlackYears = 2

// Date sub-scores.
const (
	DateScoreInWindow = 1.0
	DateScoreOpenEnd  = 0.6
	DateScoreOutside  = 0.2
)

// Explanation chips.
const (
	ReasonNoBirthYear   = "no birth year"
	ReasonWithinWindow  = "within window (±2)"
	ReasonAfterStart    = "after window start (-2)"
	ReasonBeforeEnd     = "before window end (+2)"
	ReasonOutsideWindow = "outside window"
	ReasonExactName     = "exact name match"
	ReasonNameVariant   = "name variant match"
)

const (
	relativeLabelParent   = "Parent"
	relativeLabelSpouse   = "Spouse"
	relativeMarkExact     = "✓"
	relativeMarkNameMatch = "~"
)

// Relatives sub-score contributions.
const (
	RelativeIDMatch       = 0.4
	RelativeNameMatch     = 0.25
	RelativeNameThreshold = 0.7
	relativesScoreCeiling = 1.0
)

// Name similarity thresholds for the name chip. The raw similarity always
// feeds the weighted score, chip or not.
const (
	exactNameThreshold   = 0.99
	variantNameThreshold = 0.6
)

// DateOverlapScore scores a candidate's birth year against the query window.
//
//   - no bound given:                 0, no reason (the query carries no date signal)
//   - candidate has no birth year:    0, "no birth year"
//   - both bounds, within [from-2, to+2]: 1.0
//   - only from, birth >= from-2:     0.6
//   - only to, birth <= to+2:         0.6
//   - anything else:                  0.2 (weak negative evidence, not disqualifying)
func DateOverlapScore(p genealogy.Person, from, to *int) normalize.Match {
	if from == nil && to == nil {
		return normalize.Match{}
	}
	if p.BirthYear == nil {
		return normalize.Match{Score: 0, Reason: ReasonNoBirthYear}
	}

	by := *p.BirthYear
	switch {
	case from != nil && to != nil:
		if by >= *from-DateSlackYears && by <= *to+DateSlackYears {
			return normalize.Match{Score: DateScoreInWindow, Reason: ReasonWithinWindow}
		}
	case from != nil:
		if by >= *from-DateSlackYears {
			return normalize.Match{Score: DateScoreOpenEnd, Reason: ReasonAfterStart}
		}
	case to != nil:
		if by <= *to+DateSlackYears {
			return normalize.Match{Score: DateScoreOpenEnd, Reason: ReasonBeforeEnd}
		}
	}

	return normalize.Match{Score: DateScoreOutside, Reason: ReasonOutsideWindow}
}

// Relatives are the relative hints of a query.
type Relatives struct {
	Father *genealogy.PersonRef
	Mother *genealogy.PersonRef
	Spouse *genealogy.PersonRef
}

// RelativesOf extracts the relative hints from search parameters.
func RelativesOf(params genealogy.SearchParams) Relatives {
	return Relatives{Father: params.Father, Mother: params.Mother, Spouse: params.Spouse}
}

// Empty reports whether no relative hint is set.
func (r Relatives) Empty() bool {
	return r.Father == nil && r.Mother == nil && r.Spouse == nil
}

// RelativesOverlapScore compares father, mother and spouse independently.
// An id match adds 0.4, otherwise a name variant match >= 0.7 adds 0.25.
// The total is capped at 1.0. The reason lists one label per contributing
// relation, e.g. "Parent ✓, Spouse ~".
func RelativesOverlapScore(query Relatives, candidate genealogy.Person) normalize.Match {
	var (
		sum    float64
		labels []string
	)

	compare := func(label string, q, c *genealogy.PersonRef) {
		if q == nil || c == nil {
			return
		}
		if q.ID != "" && c.ID != "" && q.ID == c.ID {
			sum += RelativeIDMatch
			labels = append(labels, label+" "+relativeMarkExact)
			return
		}
		if q.Name != "" && c.Name != "" && normalize.NameVariantMatch(q.Name, c.Name) >= RelativeNameThreshold {
			sum += RelativeNameMatch
			labels = append(labels, label+" "+relativeMarkNameMatch)
		}
	}

	compare(relativeLabelParent, query.Father, candidate.Father)
	compare(relativeLabelParent, query.Mother, candidate.Mother)
	compare(relativeLabelSpouse, query.Spouse, candidate.Spouse)

	return normalize.Match{
		Score:  math.Min(relativesScoreCeiling, sum),
		Reason: strings.Join(labels, ", "),
	}
}

// nameExplanation returns the chip for a raw name similarity, or "".
func nameExplanation(similarity float64) string {
	switch {
	case similarity >= exactNameThreshold:
		return ReasonExactName
	case similarity >= variantNameThreshold:
		return ReasonNameVariant
	default:
		return ""
	}
}
