package validate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/onnwee/kinmatch/internal/genealogy"
)

// Query validation errors
var (
	ErrInvalidYear     = errors.New("invalid year")
	ErrYearOutOfRange  = errors.New("year out of range")
	ErrInvertedWindow  = errors.New("birth year window is inverted")
	ErrInvalidLimit    = errors.New("invalid limit")
	ErrInvalidRelative = errors.New("invalid relative")
)

// Query field bounds.
const (
	MaxNameLength  = 200
	MaxPlaceLength = 200
	MaxIDLength    = 128
	MinYear        = 1
	MaxYear        = 2100
)

// Name validates a person name: required, at most MaxNameLength runes,
// no control characters. Whitespace runs are collapsed.
func Name(name string) (string, error) { return nameField.clean(name) }

// OptionalName validates a name that may be left empty, such as a relative's.
func OptionalName(name string) (string, error) { return optionalNameField.clean(name) }

// PlaceText validates optional free-text place input.
func PlaceText(text string) (string, error) { return placeField.clean(text) }

// ID validates an optional upstream identifier (person or place id).
func ID(id string) (string, error) { return idField.clean(id) }

// Year parses an optional year. An empty string yields nil.
func Year(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	year, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidYear, s)
	}
	if year < MinYear || year > MaxYear {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrYearOutOfRange, year, MinYear, MaxYear)
	}
	return &year, nil
}

// YearWindow checks that from <= to when both bounds are present.
func YearWindow(from, to *int) error {
	if from != nil && to != nil && *from > *to {
		return fmt.Errorf("%w: %d > %d", ErrInvertedWindow, *from, *to)
	}
	return nil
}

// Limit parses an optional result limit. Empty yields 0 (no limit);
// otherwise the value must be in [1, max]. A max of 0 means unbounded.
func Limit(s string, max int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLimit, s)
	}
	if max > 0 && n > max {
		return 0, fmt.Errorf("%w: %d exceeds maximum %d", ErrInvalidLimit, n, max)
	}
	return n, nil
}

// Relative builds an optional relative hint from an id and a name.
// Returns nil when both are empty.
func Relative(id, name string) (*genealogy.PersonRef, error) {
	cleanID, err := ID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: id: %w", ErrInvalidRelative, err)
	}
	cleanName, err := OptionalName(name)
	if err != nil {
		return nil, fmt.Errorf("%w: name: %w", ErrInvalidRelative, err)
	}
	if cleanID == "" && cleanName == "" {
		return nil, nil
	}
	return &genealogy.PersonRef{ID: cleanID, Name: cleanName}, nil
}

// SearchParams validates a fully built query, as decoded from a query file,
// and returns a cleaned copy.
func SearchParams(p genealogy.SearchParams) (genealogy.SearchParams, error) {
	var err error
	out := p

	if out.Name, err = Name(p.Name); err != nil {
		return p, fmt.Errorf("name: %w", err)
	}
	if out.PlaceText, err = PlaceText(p.PlaceText); err != nil {
		return p, fmt.Errorf("placeText: %w", err)
	}
	if out.PlaceID, err = ID(p.PlaceID); err != nil {
		return p, fmt.Errorf("placeId: %w", err)
	}

	for _, bound := range []struct {
		field string
		year  *int
	}{{"birthYearFrom", p.BirthYearFrom}, {"birthYearTo", p.BirthYearTo}} {
		if bound.year != nil && (*bound.year < MinYear || *bound.year > MaxYear) {
			return p, fmt.Errorf("%s: %w: %d", bound.field, ErrYearOutOfRange, *bound.year)
		}
	}
	if err := YearWindow(p.BirthYearFrom, p.BirthYearTo); err != nil {
		return p, err
	}

	for _, rel := range []struct {
		field string
		ref   **genealogy.PersonRef
	}{{"father", &out.Father}, {"mother", &out.Mother}, {"spouse", &out.Spouse}} {
		if *rel.ref == nil {
			continue
		}
		cleaned, err := Relative((*rel.ref).ID, (*rel.ref).Name)
		if err != nil {
			return p, fmt.Errorf("%s: %w", rel.field, err)
		}
		*rel.ref = cleaned
	}

	return out, nil
}
