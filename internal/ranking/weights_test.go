package ranking

import (
	"errors"
	"math"
	"testing"
)

// TestDefaultWeights verifies the default weight configuration.
func TestDefaultWeights(t *testing.T) {
	w := DefaultWeights()

	if w.Place != 0.45 {
		t.Errorf("expected place 0.45, got %f", w.Place)
	}
	if w.Date != 0.25 {
		t.Errorf("expected date 0.25, got %f", w.Date)
	}
	if w.Relatives != 0.20 {
		t.Errorf("expected relatives 0.20, got %f", w.Relatives)
	}
	if w.NameVariant != 0.10 {
		t.Errorf("expected name_variant 0.10, got %f", w.NameVariant)
	}
	if err := w.Validate(); err != nil {
		t.Errorf("default weights should validate, got %v", err)
	}
}

// TestDefaultWeights_Independent verifies that callers get independent copies.
func TestDefaultWeights_Independent(t *testing.T) {
	a := DefaultWeights()
	a.Place = 0.9

	if b := DefaultWeights(); b.Place != 0.45 {
		t.Errorf("mutating a copy changed the defaults: place = %f", b.Place)
	}
}

// TestCompositeScore_PerfectCandidate checks the weighting sum sanity property.
func TestCompositeScore_PerfectCandidate(t *testing.T) {
	score := CompositeScore(Components{Place: 1, Date: 1, Relatives: 1, NameVariant: 1}, DefaultWeights())
	if score != 1.0 {
		t.Errorf("expected exactly 1.0 for a perfect candidate, got %.17f", score)
	}
}

func TestCompositeScore(t *testing.T) {
	tests := []struct {
		name       string
		components Components
		expected   float64
	}{
		{
			name:       "all zero",
			components: Components{},
			expected:   0,
		},
		{
			name:       "place only",
			components: Components{Place: 1},
			expected:   0.45,
		},
		{
			name:       "date only",
			components: Components{Date: 1},
			expected:   0.25,
		},
		{
			name:       "relatives only",
			components: Components{Relatives: 1},
			expected:   0.20,
		},
		{
			name:       "name only",
			components: Components{NameVariant: 1},
			expected:   0.10,
		},
		{
			name:       "text place match, window date, variant name",
			components: Components{Place: 0.8, Date: 1, NameVariant: 2.0 / 3.0},
			expected:   0.45*0.8 + 0.25 + 0.1*2.0/3.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompositeScore(tt.components, DefaultWeights())
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("expected %f, got %f", tt.expected, got)
			}
		})
	}
}

func TestWeights_Validate(t *testing.T) {
	tests := []struct {
		name    string
		weights Weights
		wantErr bool
	}{
		{name: "defaults", weights: DefaultWeights(), wantErr: false},
		{name: "negative place", weights: Weights{Place: -0.1, Date: 0.5}, wantErr: true},
		{name: "all zero", weights: Weights{}, wantErr: true},
		{name: "single non-zero", weights: Weights{Date: 1}, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.weights.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidWeights) {
				t.Errorf("expected ErrInvalidWeights, got %v", err)
			}
		})
	}
}
