package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/onnwee/kinmatch/internal/genealogy"
	"github.com/onnwee/kinmatch/internal/ranking"
	"github.com/onnwee/kinmatch/internal/tracing"
	"github.com/onnwee/kinmatch/internal/validate"
)

// DefaultSourceName labels spans and logs when Config.SourceName is empty.
const DefaultSourceName = "catalog"

// Config wires a Service.
type Config struct {
	// Candidates is required.
	Candidates CandidateSource

	// Places resolves SearchParams.PlaceID. Optional; without it queries
	// match places by text only.
	Places PlaceLookup

	// PlaceSearch backs SearchPlaces. Optional.
	PlaceSearch PlaceSearcher

	// Weights is the ranking weight table. The zero value selects the defaults.
	Weights ranking.Weights

	// MaxResults caps every response. 0 means no cap.
	MaxResults int

	// Metrics is optional.
	Metrics *ranking.Metrics

	// SourceName labels source spans and log lines.
	SourceName string
}

// Service runs ranked searches. It holds no mutable state besides its metric
// collectors and is safe for concurrent use.
type Service struct {
	candidates  CandidateSource
	places      PlaceLookup
	placeSearch PlaceSearcher
	weights     ranking.Weights
	maxResults  int
	metrics     *ranking.Metrics
	sourceName  string
}

// NewService validates cfg and returns a Service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Candidates == nil {
		return nil, errors.New("search: candidate source is required")
	}
	if cfg.MaxResults < 0 {
		return nil, fmt.Errorf("search: max results must not be negative, got %d", cfg.MaxResults)
	}

	weights := cfg.Weights
	if weights == (ranking.Weights{}) {
		weights = ranking.DefaultWeights()
	}
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	name := cfg.SourceName
	if name == "" {
		name = DefaultSourceName
	}

	return &Service{
		candidates:  cfg.Candidates,
		places:      cfg.Places,
		placeSearch: cfg.PlaceSearch,
		weights:     weights,
		maxResults:  cfg.MaxResults,
		metrics:     cfg.Metrics,
		sourceName:  name,
	}, nil
}

// Weights returns the weight table the service ranks with.
func (s *Service) Weights() ranking.Weights {
	return s.weights
}

// Search validates params, fetches candidates, and returns them ranked
// best-first. limit truncates the result when positive; the configured
// MaxResults applies on top of it.
//
// Validation failures wrap ErrInvalidQuery. Candidate source failures wrap
// ErrSourceUnavailable. A failing place lookup only downgrades place matching
// to text and is logged.
func (s *Service) Search(ctx context.Context, params genealogy.SearchParams, limit int) (_ []genealogy.MatchCandidate, err error) {
	start := time.Now()
	ctx, finish := tracing.StartSpan(ctx, "search")
	defer func() { finish(err) }()

	if s.metrics != nil {
		s.metrics.IncRequests()
	}

	params, err = validate.SearchParams(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}

	candidates, err := s.fetchCandidates(ctx, params)
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncSourceErrors()
		}
		slog.ErrorContext(ctx, "candidate source failed",
			"source", s.sourceName,
			"error", err)
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	queryPlace := s.resolvePlace(ctx, params.PlaceID)
	resolver := func(string) (genealogy.Place, bool) {
		if queryPlace == nil {
			return genealogy.Place{}, false
		}
		return *queryPlace, true
	}

	ranked := ranking.RankCandidatesWithWeights(params, candidates, resolver, s.weights)

	topScore := 0.0
	if len(ranked) > 0 {
		topScore = ranked[0].Score
	}
	tracing.RecordRanking(ctx, len(ranked), topScore)
	if s.metrics != nil {
		s.metrics.ObserveResult(ranked)
		s.metrics.ObserveDuration(time.Since(start).Seconds())
	}

	if n := s.effectiveLimit(limit); n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}

	slog.DebugContext(ctx, "search ranked",
		"candidates", len(candidates),
		"returned", len(ranked),
		"top_score", topScore,
		"structured_place", queryPlace != nil,
		"duration_ms", time.Since(start).Milliseconds())

	return ranked, nil
}

func (s *Service) effectiveLimit(limit int) int {
	switch {
	case limit <= 0:
		return s.maxResults
	case s.maxResults > 0 && limit > s.maxResults:
		return s.maxResults
	default:
		return limit
	}
}

func (s *Service) fetchCandidates(ctx context.Context, params genealogy.SearchParams) (_ []genealogy.Person, err error) {
	ctx, finish := tracing.StartSourceSpan(ctx, s.sourceName, tracing.SourceSearchPersons)
	defer func() { finish(err) }()

	return s.candidates.Candidates(ctx, params)
}

// resolvePlace returns the authority place for id, or nil when there is no
// id, no lookup, the id is unknown, or the lookup fails.
func (s *Service) resolvePlace(ctx context.Context, id string) *genealogy.Place {
	if id == "" || s.places == nil {
		return nil
	}

	place, ok, err := s.lookupPlace(ctx, id)
	if err != nil {
		slog.WarnContext(ctx, "place lookup failed, matching place by text",
			"place_id", id,
			"error", err)
		return nil
	}
	if !ok {
		slog.DebugContext(ctx, "query place id not found", "place_id", id)
		return nil
	}
	return &place
}

func (s *Service) lookupPlace(ctx context.Context, id string) (_ genealogy.Place, _ bool, err error) {
	ctx, finish := tracing.StartSourceSpan(ctx, s.sourceName, tracing.SourceLookupPlace)
	defer func() { finish(err) }()

	return s.places.PlaceByID(ctx, id)
}

// SearchPlaces runs a free-text place search. A blank query returns an empty
// list without calling the searcher. Searcher failures wrap ErrSourceUnavailable.
func (s *Service) SearchPlaces(ctx context.Context, q string) (_ []genealogy.Place, err error) {
	q = strings.TrimSpace(q)
	if q == "" || s.placeSearch == nil {
		return []genealogy.Place{}, nil
	}

	ctx, finish := tracing.StartSourceSpan(ctx, s.sourceName, tracing.SourceSearchPlaces)
	defer func() { finish(err) }()

	places, err := s.placeSearch.SearchPlaces(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	if places == nil {
		places = []genealogy.Place{}
	}
	return places, nil
}

// Place resolves a single place by id. Lookup failures wrap ErrSourceUnavailable.
func (s *Service) Place(ctx context.Context, id string) (genealogy.Place, bool, error) {
	if s.places == nil || strings.TrimSpace(id) == "" {
		return genealogy.Place{}, false, nil
	}
	place, ok, err := s.lookupPlace(ctx, id)
	if err != nil {
		return genealogy.Place{}, false, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	return place, ok, nil
}
