package ranking

import (
	"errors"
	"fmt"
)

// ErrInvalidWeights is returned when a weight table has negative entries or sums to zero.
var ErrInvalidWeights = errors.New("invalid ranking weights")

// Weights is the weight table applied to the four sub-scores.
// It is a value type: callers receive copies and cannot mutate a shared table.
type Weights struct {
	Place       float64 `json:"place"`        // Weight for place match (default: 0.45)
	Date        float64 `json:"date"`         // Weight for birth-year window overlap (default: 0.25)
	Relatives   float64 `json:"relatives"`    // Weight for relatives overlap (default: 0.20)
	NameVariant float64 `json:"name_variant"` // Weight for name similarity (default: 0.10)
}

// DefaultWeights returns the default weight table.
//
// Formula: score = (place * 0.45) + (date * 0.25) + (relatives * 0.20) + (name * 0.10)
// - Place is the strongest discriminator among imprecise genealogical records
// - Date and relatives overlap sit in between
// - Name variants are extremely noisy and weigh least
// - A candidate perfect on every component scores exactly 1.0
func DefaultWeights() Weights {
	return Weights{
		Place:       0.45,
		Date:        0.25,
		Relatives:   0.20,
		NameVariant: 0.10,
	}
}

// Sum returns the maximum score reachable with these weights.
func (w Weights) Sum() float64 {
	return w.NameVariant + w.Relatives + w.Date + w.Place
}

// Validate reports whether the table can be used for ranking.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"place":        w.Place,
		"date":         w.Date,
		"relatives":    w.Relatives,
		"name_variant": w.NameVariant,
	} {
		if v < 0 {
			return fmt.Errorf("%w: %s must be >= 0 (got %.2f)", ErrInvalidWeights, name, v)
		}
	}
	if w.Sum() <= 0 {
		return fmt.Errorf("%w: weights sum to zero", ErrInvalidWeights)
	}
	return nil
}

// Components holds the raw sub-scores of one candidate, each in [0, 1].
type Components struct {
	Place       float64
	Date        float64
	Relatives   float64
	NameVariant float64
}

// CompositeScore combines the sub-scores with the given weights.
//
// The explicit float64 conversions round each product before the sum so the
// result does not depend on fused multiply-add, and the terms are added
// smallest-weight first, which makes the default table sum to exactly 1.0.
func CompositeScore(c Components, w Weights) float64 {
	name := float64(c.NameVariant * w.NameVariant)
	relatives := float64(c.Relatives * w.Relatives)
	date := float64(c.Date * w.Date)
	place := float64(c.Place * w.Place)
	return name + relatives + date + place
}
