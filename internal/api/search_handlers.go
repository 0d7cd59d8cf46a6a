package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/onnwee/kinmatch/internal/genealogy"
	"github.com/onnwee/kinmatch/internal/search"
	"github.com/onnwee/kinmatch/internal/validate"
)

// SearchService is the part of search.Service the handlers depend on.
type SearchService interface {
	Search(ctx context.Context, params genealogy.SearchParams, limit int) ([]genealogy.MatchCandidate, error)
	SearchPlaces(ctx context.Context, q string) ([]genealogy.Place, error)
	Place(ctx context.Context, id string) (genealogy.Place, bool, error)
}

// SearchHandlers holds dependencies for the candidate and place HTTP handlers.
type SearchHandlers struct {
	service SearchService
}

// NewSearchHandlers creates a new SearchHandlers instance.
func NewSearchHandlers(service SearchService) *SearchHandlers {
	return &SearchHandlers{service: service}
}

// SearchResponse is the body of GET /search.
type SearchResponse struct {
	Candidates []genealogy.MatchCandidate `json:"candidates"`
	Count      int                        `json:"count"`
}

// PlacesResponse is the body of GET /places.
type PlacesResponse struct {
	Places []genealogy.Place `json:"places"`
}

// Register mounts the search routes on mux. searchMiddleware, when non-nil,
// wraps GET /search only (the route rate limiter).
func (h *SearchHandlers) Register(mux *http.ServeMux, searchMiddleware func(http.Handler) http.Handler) {
	var searchHandler http.Handler = http.HandlerFunc(h.Search)
	if searchMiddleware != nil {
		searchHandler = searchMiddleware(searchHandler)
	}
	mux.Handle("GET /search", searchHandler)
	mux.HandleFunc("GET /places", h.SearchPlaces)
	mux.HandleFunc("GET /places/{id}", h.GetPlace)
}

// Search handles GET /search - ranks candidates for the query string parameters.
//
// Parameters: name (required), birthYearFrom, birthYearTo, placeId, placeText,
// fatherId, fatherName, motherId, motherName, spouseId, spouseName, limit.
func (h *SearchHandlers) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	params, msg := parseSearchParams(query)
	if msg != "" {
		WriteError(w, r, ErrCodeValidation, msg)
		return
	}

	limit, err := validate.Limit(query.Get("limit"), 0)
	if err != nil {
		WriteError(w, r, ErrCodeValidation, "limit must be a positive integer")
		return
	}

	candidates, err := h.service.Search(r.Context(), params, limit)
	if err != nil {
		switch {
		case errors.Is(err, search.ErrInvalidQuery):
			WriteError(w, r, ErrCodeValidation, err.Error())
		case errors.Is(err, search.ErrSourceUnavailable):
			WriteError(w, r, ErrCodeUpstream, "Candidate source unavailable")
		default:
			slog.ErrorContext(r.Context(), "candidate search failed", "error", err)
			WriteError(w, r, ErrCodeInternal, "Failed to rank candidates")
		}
		return
	}

	if candidates == nil {
		candidates = []genealogy.MatchCandidate{}
	}
	writeJSON(w, r, http.StatusOK, SearchResponse{
		Candidates: candidates,
		Count:      len(candidates),
	})
}

// parseSearchParams builds SearchParams from query values. A non-empty
// message describes the first invalid parameter.
func parseSearchParams(query url.Values) (genealogy.SearchParams, string) {
	var (
		params genealogy.SearchParams
		err    error
	)

	if params.Name, err = validate.Name(query.Get("name")); err != nil {
		if errors.Is(err, validate.ErrEmpty) {
			return params, "name is required"
		}
		return params, "name: " + err.Error()
	}
	if params.BirthYearFrom, err = validate.Year(query.Get("birthYearFrom")); err != nil {
		return params, "birthYearFrom: " + err.Error()
	}
	if params.BirthYearTo, err = validate.Year(query.Get("birthYearTo")); err != nil {
		return params, "birthYearTo: " + err.Error()
	}
	if err := validate.YearWindow(params.BirthYearFrom, params.BirthYearTo); err != nil {
		return params, "birthYearFrom must not be after birthYearTo"
	}
	if params.PlaceID, err = validate.ID(query.Get("placeId")); err != nil {
		return params, "placeId: " + err.Error()
	}
	if params.PlaceText, err = validate.PlaceText(query.Get("placeText")); err != nil {
		return params, "placeText: " + err.Error()
	}

	for _, rel := range []struct {
		prefix string
		ref    **genealogy.PersonRef
	}{
		{"father", &params.Father},
		{"mother", &params.Mother},
		{"spouse", &params.Spouse},
	} {
		if *rel.ref, err = validate.Relative(query.Get(rel.prefix+"Id"), query.Get(rel.prefix+"Name")); err != nil {
			return params, rel.prefix + ": " + err.Error()
		}
	}

	return params, ""
}

// SearchPlaces handles GET /places?q= - free-text place search.
// An empty q yields an empty list.
func (h *SearchHandlers) SearchPlaces(w http.ResponseWriter, r *http.Request) {
	q, err := validate.PlaceText(r.URL.Query().Get("q"))
	if err != nil {
		WriteError(w, r, ErrCodeValidation, "q: "+err.Error())
		return
	}

	places, err := h.service.SearchPlaces(r.Context(), q)
	if err != nil {
		if errors.Is(err, search.ErrSourceUnavailable) {
			WriteError(w, r, ErrCodeUpstream, "Place source unavailable")
			return
		}
		slog.ErrorContext(r.Context(), "place search failed", "error", err, "q", q)
		WriteError(w, r, ErrCodeInternal, "Failed to search places")
		return
	}

	if places == nil {
		places = []genealogy.Place{}
	}
	writeJSON(w, r, http.StatusOK, PlacesResponse{Places: places})
}

// GetPlace handles GET /places/{id}.
func (h *SearchHandlers) GetPlace(w http.ResponseWriter, r *http.Request) {
	id, err := validate.ID(r.PathValue("id"))
	if err != nil || id == "" {
		WriteError(w, r, ErrCodeValidation, "invalid place id")
		return
	}

	place, ok, err := h.service.Place(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "place lookup failed", "error", err, "place_id", id)
		WriteError(w, r, ErrCodeUpstream, "Place source unavailable")
		return
	}
	if !ok {
		WriteError(w, r, ErrCodeNotFound, "Place not found")
		return
	}

	writeJSON(w, r, http.StatusOK, place)
}
