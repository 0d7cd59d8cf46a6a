package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/onnwee/kinmatch/internal/genealogy"
)

func TestName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "simple", input: "Maria Silva", want: "Maria Silva"},
		{name: "trimmed and collapsed", input: "  Maria   Silva ", want: "Maria Silva"},
		{name: "accents kept", input: "João Conceição", want: "João Conceição"},
		{name: "empty", input: "", wantErr: ErrEmpty},
		{name: "blank", input: " \t ", wantErr: ErrEmpty},
		{name: "too long", input: strings.Repeat("a", MaxNameLength+1), wantErr: ErrTooLong},
		{name: "max length", input: strings.Repeat("a", MaxNameLength), want: strings.Repeat("a", MaxNameLength)},
		{name: "control character", input: "Maria\x1bSilva", wantErr: ErrInvalidCharacters},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Name(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Name() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Name() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Name() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPlaceText(t *testing.T) {
	if got, err := PlaceText(""); err != nil || got != "" {
		t.Errorf("expected empty place text to pass, got %q, %v", got, err)
	}
	if got, err := PlaceText(" São Paulo,  Brasil "); err != nil || got != "São Paulo, Brasil" {
		t.Errorf("unexpected result %q, %v", got, err)
	}
	if _, err := PlaceText(strings.Repeat("x", MaxPlaceLength+1)); !errors.Is(err, ErrTooLong) {
		t.Errorf("expected ErrTooLong, got %v", err)
	}
}

func TestYear(t *testing.T) {
	tests := []struct {
		input   string
		want    *int
		wantErr error
	}{
		{input: "", want: nil},
		{input: "  ", want: nil},
		{input: "1902", want: genealogy.IntPtr(1902)},
		{input: " 1850 ", want: genealogy.IntPtr(1850)},
		{input: "1", want: genealogy.IntPtr(1)},
		{input: "2100", want: genealogy.IntPtr(2100)},
		{input: "0", wantErr: ErrYearOutOfRange},
		{input: "2101", wantErr: ErrYearOutOfRange},
		{input: "-5", wantErr: ErrYearOutOfRange},
		{input: "19O2", wantErr: ErrInvalidYear},
		{input: "1902.5", wantErr: ErrInvalidYear},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Year(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Year(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Year(%q) unexpected error: %v", tt.input, err)
			}
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("Year(%q) = %d, want nil", tt.input, *got)
			case tt.want != nil && (got == nil || *got != *tt.want):
				t.Errorf("Year(%q) = %v, want %d", tt.input, got, *tt.want)
			}
		})
	}
}

func TestYearWindow(t *testing.T) {
	tests := []struct {
		name     string
		from, to *int
		wantErr  bool
	}{
		{name: "none", wantErr: false},
		{name: "only from", from: genealogy.IntPtr(1900), wantErr: false},
		{name: "only to", to: genealogy.IntPtr(1900), wantErr: false},
		{name: "ordered", from: genealogy.IntPtr(1900), to: genealogy.IntPtr(1905), wantErr: false},
		{name: "single year", from: genealogy.IntPtr(1900), to: genealogy.IntPtr(1900), wantErr: false},
		{name: "inverted", from: genealogy.IntPtr(1905), to: genealogy.IntPtr(1900), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := YearWindow(tt.from, tt.to)
			if (err != nil) != tt.wantErr {
				t.Fatalf("YearWindow() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvertedWindow) {
				t.Errorf("expected ErrInvertedWindow, got %v", err)
			}
		})
	}
}

func TestLimit(t *testing.T) {
	tests := []struct {
		input   string
		max     int
		want    int
		wantErr bool
	}{
		{input: "", max: 50, want: 0},
		{input: "10", max: 50, want: 10},
		{input: "50", max: 50, want: 50},
		{input: "51", max: 50, wantErr: true},
		{input: "500", max: 0, want: 500},
		{input: "0", max: 50, wantErr: true},
		{input: "-1", max: 50, wantErr: true},
		{input: "ten", max: 50, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Limit(tt.input, tt.max)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Limit(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidLimit) {
				t.Errorf("expected ErrInvalidLimit, got %v", err)
			}
			if got != tt.want {
				t.Errorf("Limit(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestRelative(t *testing.T) {
	ref, err := Relative("", "")
	if err != nil || ref != nil {
		t.Errorf("expected nil relative for empty input, got %+v, %v", ref, err)
	}

	ref, err = Relative(" KWCB-F01 ", "  Antônio  Silva ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.ID != "KWCB-F01" || ref.Name != "Antônio Silva" {
		t.Errorf("unexpected relative %+v", ref)
	}

	if _, err := Relative("", "bad\x00name"); !errors.Is(err, ErrInvalidRelative) {
		t.Errorf("expected ErrInvalidRelative, got %v", err)
	}
	if _, err := Relative(strings.Repeat("x", MaxIDLength+1), ""); !errors.Is(err, ErrTooLong) {
		t.Errorf("expected wrapped ErrTooLong, got %v", err)
	}
}

func TestSearchParams(t *testing.T) {
	t.Run("valid params are cleaned", func(t *testing.T) {
		in := genealogy.SearchParams{
			Name:          "  Maria  Silva ",
			BirthYearFrom: genealogy.IntPtr(1900),
			BirthYearTo:   genealogy.IntPtr(1905),
			PlaceText:     " Campinas ",
			Spouse:        &genealogy.PersonRef{Name: " João "},
			Father:        &genealogy.PersonRef{},
		}

		out, err := SearchParams(in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Name != "Maria Silva" || out.PlaceText != "Campinas" {
			t.Errorf("expected cleaned strings, got %q %q", out.Name, out.PlaceText)
		}
		if out.Spouse == nil || out.Spouse.Name != "João" {
			t.Errorf("expected cleaned spouse, got %+v", out.Spouse)
		}
		if out.Father != nil {
			t.Errorf("expected empty father hint to be dropped, got %+v", out.Father)
		}
		if in.Spouse.Name != " João " {
			t.Error("input params were modified")
		}
	})

	errorCases := []struct {
		name    string
		params  genealogy.SearchParams
		wantErr error
	}{
		{
			name:    "missing name",
			params:  genealogy.SearchParams{},
			wantErr: ErrEmpty,
		},
		{
			name:    "inverted window",
			params:  genealogy.SearchParams{Name: "x", BirthYearFrom: genealogy.IntPtr(1910), BirthYearTo: genealogy.IntPtr(1900)},
			wantErr: ErrInvertedWindow,
		},
		{
			name:    "year out of range",
			params:  genealogy.SearchParams{Name: "x", BirthYearTo: genealogy.IntPtr(3000)},
			wantErr: ErrYearOutOfRange,
		},
		{
			name:    "bad relative",
			params:  genealogy.SearchParams{Name: "x", Mother: &genealogy.PersonRef{Name: "a\x07b"}},
			wantErr: ErrInvalidRelative,
		},
	}

	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := SearchParams(tt.params); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
