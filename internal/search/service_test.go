package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/onnwee/kinmatch/internal/genealogy"
	"github.com/onnwee/kinmatch/internal/ranking"
	"github.com/onnwee/kinmatch/internal/validate"
)

type fakeSource struct {
	persons []genealogy.Person
	err     error
	calls   int
	last    genealogy.SearchParams
}

func (f *fakeSource) Candidates(_ context.Context, params genealogy.SearchParams) ([]genealogy.Person, error) {
	f.calls++
	f.last = params
	if f.err != nil {
		return nil, f.err
	}
	return f.persons, nil
}

type fakePlaces struct {
	places map[string]genealogy.Place
	err    error
}

func (f *fakePlaces) PlaceByID(_ context.Context, id string) (genealogy.Place, bool, error) {
	if f.err != nil {
		return genealogy.Place{}, false, f.err
	}
	p, ok := f.places[id]
	return p, ok, nil
}

func (f *fakePlaces) SearchPlaces(_ context.Context, q string) ([]genealogy.Place, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []genealogy.Place
	for _, p := range f.places {
		if strings.Contains(p.DisplayName, q) {
			out = append(out, p)
		}
	}
	return out, nil
}

func newTestService(t *testing.T, cfg Config) *Service {
	t.Helper()
	svc, err := NewService(cfg)
	if err != nil {
		t.Fatalf("NewService() returned error: %v", err)
	}
	return svc
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() returned error: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}

func histogramCount(t *testing.T, reg *prometheus.Registry, name string) uint64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() returned error: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name && mf.GetType() == dto.MetricType_HISTOGRAM {
			return mf.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	return 0
}

func TestNewService(t *testing.T) {
	t.Run("candidate source required", func(t *testing.T) {
		if _, err := NewService(Config{}); err == nil {
			t.Error("expected error without candidate source")
		}
	})

	t.Run("negative max results", func(t *testing.T) {
		if _, err := NewService(Config{Candidates: &fakeSource{}, MaxResults: -1}); err == nil {
			t.Error("expected error for negative max results")
		}
	})

	t.Run("invalid weights", func(t *testing.T) {
		_, err := NewService(Config{Candidates: &fakeSource{}, Weights: ranking.Weights{Place: -1, Date: 1}})
		if !errors.Is(err, ranking.ErrInvalidWeights) {
			t.Errorf("expected ErrInvalidWeights, got %v", err)
		}
	})

	t.Run("zero weights select defaults", func(t *testing.T) {
		svc := newTestService(t, Config{Candidates: &fakeSource{}})
		if svc.Weights() != ranking.DefaultWeights() {
			t.Errorf("expected default weights, got %+v", svc.Weights())
		}
	})
}

func TestService_SearchCatalog(t *testing.T) {
	catalog := mustDefaultCatalog(t)
	svc := newTestService(t, Config{Candidates: catalog, Places: catalog, PlaceSearch: catalog})

	params := genealogy.SearchParams{
		Name:          "Maria Silva",
		BirthYearFrom: genealogy.IntPtr(1900),
		BirthYearTo:   genealogy.IntPtr(1905),
		PlaceID:       "PL-CAMP",
	}

	ranked, err := svc.Search(context.Background(), params, 0)
	if err != nil {
		t.Fatalf("Search() returned error: %v", err)
	}
	if len(ranked) != 7 {
		t.Fatalf("expected 7 candidates, got %d", len(ranked))
	}

	if ranked[0].Person.ID != "KWCB-001" || ranked[1].Person.ID != "KWCB-012" {
		t.Errorf("expected KWCB-001 then KWCB-012, got %s then %s", ranked[0].Person.ID, ranked[1].Person.ID)
	}
	wantChips := []string{"name variant", "same place id", "within window (±2)"}
	for _, chip := range wantChips {
		found := false
		for _, e := range ranked[0].Explanations {
			if strings.HasPrefix(e, chip) {
				found = true
			}
		}
		if !found {
			t.Errorf("expected explanation %q in %v", chip, ranked[0].Explanations)
		}
	}

	for i := 1; i < len(ranked); i++ {
		if ranked[i].Score > ranked[i-1].Score {
			t.Errorf("results not sorted at %d: %.4f > %.4f", i, ranked[i].Score, ranked[i-1].Score)
		}
	}

	t.Run("limit truncates", func(t *testing.T) {
		ranked, err := svc.Search(context.Background(), params, 3)
		if err != nil {
			t.Fatalf("Search() returned error: %v", err)
		}
		if len(ranked) != 3 || ranked[0].Person.ID != "KWCB-001" {
			t.Errorf("expected top 3 starting with KWCB-001, got %d results", len(ranked))
		}
	})

	t.Run("unknown place id falls back to text", func(t *testing.T) {
		p := params
		p.PlaceID = "PL-NOWHERE"
		p.PlaceText = "Lisboa"
		ranked, err := svc.Search(context.Background(), p, 1)
		if err != nil {
			t.Fatalf("Search() returned error: %v", err)
		}
		if ranked[0].Person.ID != "KWCB-003" {
			t.Errorf("expected the Lisboa record first, got %s", ranked[0].Person.ID)
		}
	})
}

func TestService_SearchValidation(t *testing.T) {
	source := &fakeSource{}
	svc := newTestService(t, Config{Candidates: source})

	tests := []struct {
		name    string
		params  genealogy.SearchParams
		wantErr error
	}{
		{name: "empty name", params: genealogy.SearchParams{Name: "  "}, wantErr: validate.ErrEmpty},
		{
			name:    "inverted window",
			params:  genealogy.SearchParams{Name: "Maria", BirthYearFrom: genealogy.IntPtr(1905), BirthYearTo: genealogy.IntPtr(1900)},
			wantErr: validate.ErrInvertedWindow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Search(context.Background(), tt.params, 0)
			if !errors.Is(err, ErrInvalidQuery) {
				t.Errorf("expected ErrInvalidQuery, got %v", err)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if source.calls != 0 {
		t.Errorf("expected source not to be called, got %d calls", source.calls)
	}
}

func TestService_SearchPassesCleanParams(t *testing.T) {
	source := &fakeSource{persons: []genealogy.Person{{ID: "P1", Name: "Maria Silva"}}}
	svc := newTestService(t, Config{Candidates: source})

	ranked, err := svc.Search(context.Background(), genealogy.SearchParams{Name: "  Maria   Silva "}, 0)
	if err != nil {
		t.Fatalf("Search() returned error: %v", err)
	}
	if source.last.Name != "Maria Silva" {
		t.Errorf("expected cleaned name at the source, got %q", source.last.Name)
	}
	if len(ranked) != 1 || ranked[0].Score == 0 {
		t.Errorf("unexpected result %+v", ranked)
	}
}

func TestService_SearchSourceError(t *testing.T) {
	upstream := errors.New("upstream timeout")
	m := ranking.NewMetrics()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		t.Fatalf("Register() returned error: %v", err)
	}

	svc := newTestService(t, Config{Candidates: &fakeSource{err: upstream}, Metrics: m})

	_, err := svc.Search(context.Background(), genealogy.SearchParams{Name: "Maria"}, 0)
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("expected ErrSourceUnavailable, got %v", err)
	}
	if !errors.Is(err, upstream) {
		t.Errorf("expected upstream error to be wrapped, got %v", err)
	}

	if got := counterValue(t, reg, ranking.MetricRankingSourceErrors); got != 1 {
		t.Errorf("expected 1 source error, got %v", got)
	}
	if got := counterValue(t, reg, ranking.MetricRankingRequests); got != 1 {
		t.Errorf("expected 1 request, got %v", got)
	}
}

func TestService_SearchPlaceLookupError(t *testing.T) {
	source := &fakeSource{persons: []genealogy.Person{
		{ID: "P1", Name: "Maria Silva", PrimaryPlaceText: "Campinas, Brasil"},
	}}
	svc := newTestService(t, Config{
		Candidates: source,
		Places:     &fakePlaces{err: errors.New("authority down")},
	})

	ranked, err := svc.Search(context.Background(), genealogy.SearchParams{
		Name:      "Maria Silva",
		PlaceID:   "PL-CAMP",
		PlaceText: "Campinas",
	}, 0)
	if err != nil {
		t.Fatalf("expected lookup failure to degrade, got error: %v", err)
	}
	if len(ranked) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(ranked))
	}

	found := false
	for _, e := range ranked[0].Explanations {
		if e == "text match" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected text place match, got %v", ranked[0].Explanations)
	}
}

func TestService_EffectiveLimit(t *testing.T) {
	persons := make([]genealogy.Person, 8)
	for i := range persons {
		persons[i] = genealogy.Person{ID: string(rune('A' + i)), Name: "Maria"}
	}

	tests := []struct {
		name       string
		maxResults int
		limit      int
		want       int
	}{
		{name: "no caps", want: 8},
		{name: "limit only", limit: 3, want: 3},
		{name: "max only", maxResults: 5, want: 5},
		{name: "limit below max", maxResults: 5, limit: 2, want: 2},
		{name: "limit above max", maxResults: 5, limit: 7, want: 5},
		{name: "limit above result count", limit: 20, want: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, Config{Candidates: &fakeSource{persons: persons}, MaxResults: tt.maxResults})
			ranked, err := svc.Search(context.Background(), genealogy.SearchParams{Name: "Maria"}, tt.limit)
			if err != nil {
				t.Fatalf("Search() returned error: %v", err)
			}
			if len(ranked) != tt.want {
				t.Errorf("expected %d results, got %d", tt.want, len(ranked))
			}
		})
	}
}

func TestService_SearchMetrics(t *testing.T) {
	m := ranking.NewMetrics()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		t.Fatalf("Register() returned error: %v", err)
	}

	catalog := mustDefaultCatalog(t)
	svc := newTestService(t, Config{Candidates: catalog, Metrics: m})

	for i := 0; i < 3; i++ {
		if _, err := svc.Search(context.Background(), genealogy.SearchParams{Name: "Maria"}, 2); err != nil {
			t.Fatalf("Search() returned error: %v", err)
		}
	}

	if got := counterValue(t, reg, ranking.MetricRankingRequests); got != 3 {
		t.Errorf("expected 3 requests, got %v", got)
	}
	if got := histogramCount(t, reg, ranking.MetricRankingDuration); got != 3 {
		t.Errorf("expected 3 duration observations, got %d", got)
	}
	if got := histogramCount(t, reg, ranking.MetricRankingTopScore); got != 3 {
		t.Errorf("expected 3 top score observations, got %d", got)
	}
}

func TestService_SearchSpans(t *testing.T) {
	spanRecorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spanRecorder))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	catalog := mustDefaultCatalog(t)
	svc := newTestService(t, Config{Candidates: catalog, Places: catalog, SourceName: "fixtures"})

	_, err := svc.Search(context.Background(), genealogy.SearchParams{Name: "Maria", PlaceID: "PL-SP"}, 0)
	if err != nil {
		t.Fatalf("Search() returned error: %v", err)
	}

	spans := spanRecorder.Ended()
	names := make(map[string]sdktrace.ReadOnlySpan, len(spans))
	for _, s := range spans {
		names[s.Name()] = s
	}

	root, ok := names["search"]
	if !ok {
		t.Fatalf("expected search span, got %d spans", len(spans))
	}
	for _, child := range []string{"search_persons fixtures", "lookup_place fixtures"} {
		s, ok := names[child]
		if !ok {
			t.Errorf("expected %q span", child)
			continue
		}
		if s.Parent().SpanID() != root.SpanContext().SpanID() {
			t.Errorf("expected %q to be a child of search", child)
		}
	}

	hasCount := false
	for _, attr := range root.Attributes() {
		if attr.Key == "ranking.candidate_count" && attr.Value.AsInt64() > 0 {
			hasCount = true
		}
	}
	if !hasCount {
		t.Error("expected ranking.candidate_count attribute on search span")
	}

	t.Run("failed source marks spans", func(t *testing.T) {
		spanRecorder := tracetest.NewSpanRecorder()
		tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spanRecorder))
		otel.SetTracerProvider(tp)
		t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

		svc := newTestService(t, Config{Candidates: &fakeSource{err: errors.New("boom")}})
		if _, err := svc.Search(context.Background(), genealogy.SearchParams{Name: "Maria"}, 0); err == nil {
			t.Fatal("expected error")
		}

		for _, s := range spanRecorder.Ended() {
			if s.Status().Code != codes.Error {
				t.Errorf("expected span %q to have error status, got %v", s.Name(), s.Status().Code)
			}
		}
	})
}

func TestService_Places(t *testing.T) {
	places := &fakePlaces{places: map[string]genealogy.Place{
		"PL-1": {ID: "PL-1", DisplayName: "Campinas, São Paulo"},
	}}
	svc := newTestService(t, Config{Candidates: &fakeSource{}, Places: places, PlaceSearch: places})

	got, err := svc.SearchPlaces(context.Background(), " Campinas ")
	if err != nil || len(got) != 1 {
		t.Errorf("expected 1 place, got %v, %v", got, err)
	}

	got, err = svc.SearchPlaces(context.Background(), "Recife")
	if err != nil || got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %v, %v", got, err)
	}

	got, err = svc.SearchPlaces(context.Background(), "")
	if err != nil || got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice for blank query, got %v, %v", got, err)
	}

	if p, ok, err := svc.Place(context.Background(), "PL-1"); err != nil || !ok || p.ID != "PL-1" {
		t.Errorf("expected PL-1, got %+v %v %v", p, ok, err)
	}
	if _, ok, err := svc.Place(context.Background(), "PL-2"); err != nil || ok {
		t.Errorf("expected miss, got ok=%v err=%v", ok, err)
	}

	places.err = errors.New("down")
	if _, err := svc.SearchPlaces(context.Background(), "Campinas"); !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("expected ErrSourceUnavailable, got %v", err)
	}
	if _, _, err := svc.Place(context.Background(), "PL-1"); !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("expected ErrSourceUnavailable, got %v", err)
	}

	bare := newTestService(t, Config{Candidates: &fakeSource{}})
	if got, err := bare.SearchPlaces(context.Background(), "x"); err != nil || len(got) != 0 {
		t.Errorf("expected no places without a searcher, got %v, %v", got, err)
	}
}
