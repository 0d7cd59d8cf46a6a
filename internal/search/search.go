// Package search connects candidate sources to the ranking engine.
//
// A Service fetches candidates for a query from a CandidateSource, resolves
// the query's structured place once through a PlaceLookup, and ranks the
// candidates with a fixed weight table. The sources are small interfaces so
// a live upstream client and the fixture Catalog are interchangeable.
package search

import (
	"context"
	"errors"

	"github.com/onnwee/kinmatch/internal/genealogy"
)

// Errors returned by the search service.
var (
	// ErrSourceUnavailable wraps any failure of the candidate source.
	ErrSourceUnavailable = errors.New("candidate source unavailable")
	// ErrInvalidQuery wraps validation failures of the search parameters.
	ErrInvalidQuery = errors.New("invalid search query")
)

// CandidateSource returns unranked candidate persons for a query.
type CandidateSource interface {
	Candidates(ctx context.Context, params genealogy.SearchParams) ([]genealogy.Person, error)
}

// PlaceSearcher runs free-text place searches.
type PlaceSearcher interface {
	SearchPlaces(ctx context.Context, q string) ([]genealogy.Place, error)
}

// PlaceLookup resolves authority place ids. The bool is false when the id is unknown.
type PlaceLookup interface {
	PlaceByID(ctx context.Context, id string) (genealogy.Place, bool, error)
}
