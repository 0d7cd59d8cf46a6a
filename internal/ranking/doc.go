// Package ranking scores genealogy search candidates against a query and orders
// them best-first, attaching the explanation chips shown next to each result.
//
// Basic Usage:
//
//	// Load calibration once at startup; the result is never mutated.
//	weights, err := ranking.LoadCalibration("configs/ranking.calibration.json")
//	if err != nil {
//		slog.Warn("using default ranking weights", "error", err)
//	}
//
//	resolver := func(id string) (genealogy.Place, bool) { return places.Lookup(id) }
//	ranked := ranking.RankCandidatesWithWeights(params, persons, resolver, weights)
//
// Score Composition:
//
// Each candidate gets four sub-scores in [0, 1]:
//
//   - place:        normalize.PlaceMatchScore (authority id, jurisdiction, text)
//   - date:         DateOverlapScore against the query birth-year window (±2 years)
//   - relatives:    RelativesOverlapScore over father, mother and spouse
//   - name variant: normalize.NameVariantMatch
//
// Default formula:
//
//	score = (place * 0.45) + (date * 0.25) + (relatives * 0.20) + (name * 0.10)
//
// Place is the strongest discriminator among imprecise records; name variants
// are the noisiest signal and weigh least.
//
// Ordering:
//
// Results are sorted by descending score with a stable sort, so candidates
// with equal scores keep the order the source supplied them in.
//
// Concurrency:
//
// Everything here is pure computation over its arguments. Functions may be
// called concurrently without coordination.
package ranking
