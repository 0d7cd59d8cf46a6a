package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	serviceTracer = "kinmatch/search"
	sourceTracer  = "kinmatch/source"
)

// SourceOperation is a call the search service makes to a candidate or
// place source.
type SourceOperation string

const (
	SourceSearchPersons SourceOperation = "search_persons"
	SourceSearchPlaces  SourceOperation = "search_places"
	SourceLookupPlace   SourceOperation = "lookup_place"
)

// Span attributes set by the search service.
const (
	AttrSourceName      = attribute.Key("source.name")
	AttrSourceOperation = attribute.Key("source.operation")
	AttrCandidateCount  = attribute.Key("ranking.candidate_count")
	AttrTopScore        = attribute.Key("ranking.top_score")
)

// Finish ends a span. A non-nil err is recorded and marks the span failed.
type Finish func(err error)

// StartSpan opens an internal span under ctx:
//
//	ctx, finish := tracing.StartSpan(ctx, "search")
//	defer func() { finish(err) }()
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, Finish) {
	return start(ctx, serviceTracer, name, trace.SpanKindInternal, attrs)
}

// StartSourceSpan opens a client span named "<operation> <source>" around
// a source call. source may be empty.
func StartSourceSpan(ctx context.Context, source string, op SourceOperation) (context.Context, Finish) {
	name := string(op)
	attrs := []attribute.KeyValue{AttrSourceOperation.String(string(op))}
	if source != "" {
		name += " " + source
		attrs = append(attrs, AttrSourceName.String(source))
	}
	return start(ctx, sourceTracer, name, trace.SpanKindClient, attrs)
}

func start(ctx context.Context, tracer, name string, kind trace.SpanKind, attrs []attribute.KeyValue) (context.Context, Finish) {
	ctx, span := otel.Tracer(tracer).Start(ctx, name,
		trace.WithSpanKind(kind),
		trace.WithAttributes(attrs...))

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// RecordRanking annotates the span in ctx with the size and best score of a
// ranked result.
func RecordRanking(ctx context.Context, candidates int, topScore float64) {
	trace.SpanFromContext(ctx).SetAttributes(
		AttrCandidateCount.Int(candidates),
		AttrTopScore.Float64(topScore),
	)
}
