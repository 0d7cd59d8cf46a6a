// Package validate provides input validation for search queries arriving over
// HTTP or from batch query files. The ranking core trusts its input; every
// call site validates through this package first.
package validate

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Text field errors
var (
	ErrEmpty             = errors.New("value is required")
	ErrTooLong           = errors.New("value is too long")
	ErrInvalidCharacters = errors.New("value contains invalid characters")
)

// textField describes one free-text query field.
type textField struct {
	max      int  // runes, after cleaning
	required bool // blank input is an error
	collapse bool // whitespace runs become one space
}

var (
	nameField         = textField{max: MaxNameLength, required: true, collapse: true}
	optionalNameField = textField{max: MaxNameLength, collapse: true}
	placeField        = textField{max: MaxPlaceLength, collapse: true}
	idField           = textField{max: MaxIDLength}
)

// clean trims s, rejects control characters and invalid UTF-8, and returns
// the NFC form so composed and decomposed accents compare equal downstream.
func (f textField) clean(s string) (string, error) {
	if !utf8.ValidString(s) {
		return "", fmt.Errorf("%w: not valid UTF-8", ErrInvalidCharacters)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		if f.required {
			return "", ErrEmpty
		}
		return "", nil
	}
	if i := strings.IndexFunc(s, unicode.IsControl); i >= 0 {
		return "", fmt.Errorf("%w: control character at byte %d", ErrInvalidCharacters, i)
	}
	if f.collapse {
		s = strings.Join(strings.Fields(s), " ")
	}
	s = norm.NFC.String(s)
	if n := utf8.RuneCountInString(s); n > f.max {
		return "", fmt.Errorf("%w: %d characters, maximum is %d", ErrTooLong, n, f.max)
	}
	return s, nil
}
