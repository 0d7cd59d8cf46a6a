// Package main is the entry point for the batch ranking CLI.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/onnwee/kinmatch/internal/gedcomx"
	"github.com/onnwee/kinmatch/internal/genealogy"
	"github.com/onnwee/kinmatch/internal/ranking"
	"github.com/onnwee/kinmatch/internal/search"
)

// queryFiles collects repeated -query flags in argument order.
type queryFiles []string

func (q *queryFiles) String() string { return strings.Join(*q, ",") }

func (q *queryFiles) Set(v string) error {
	if v == "" {
		return errors.New("query path must not be empty")
	}
	*q = append(*q, v)
	return nil
}

// QueryResult is the ranked output for one query file.
type QueryResult struct {
	Query      string                     `json:"query"`
	Params     genealogy.SearchParams     `json:"params"`
	Candidates []genealogy.MatchCandidate `json:"candidates"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "rank:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("rank", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var queries queryFiles
	fs.Var(&queries, "query", "path to a search params JSON file (repeatable)")
	candidatesPath := fs.String("candidates", "", "path to a GEDCOM-X person search response (default: embedded fixtures)")
	calibrationPath := fs.String("calibration", "", "path to a ranking calibration JSON file")
	limit := fs.Int("limit", 0, "maximum candidates per query (0 means all)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "kinmatch batch ranker")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Usage: rank -query query.json [-query more.json] [options]")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Options:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(queries) == 0 {
		fs.Usage()
		return errors.New("at least one -query is required")
	}
	if *limit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", *limit)
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	weights, err := ranking.LoadCalibration(*calibrationPath)
	if err != nil {
		logger.Warn("ranking calibration not applied", "error", err)
	}

	catalog, err := loadCandidates(*candidatesPath)
	if err != nil {
		return err
	}

	service, err := search.NewService(search.Config{
		Candidates: catalog,
		Places:     catalog,
		Weights:    weights,
		SourceName: "rank-cli",
	})
	if err != nil {
		return err
	}

	results := make([]QueryResult, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range queries {
		g.Go(func() error {
			params, err := readParams(path)
			if err != nil {
				return err
			}
			ranked, err := service.Search(gctx, params, *limit)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = QueryResult{
				Query:      path,
				Params:     params,
				Candidates: roundScores(ranked),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// loadCandidates maps an upstream search response into a catalog, or returns
// the embedded fixture catalog when path is empty.
func loadCandidates(path string) (*search.Catalog, error) {
	if path == "" {
		return search.DefaultCatalog()
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read candidates: %w", err)
	}
	persons, err := gedcomx.MapSearchResponse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to map candidates %s: %w", path, err)
	}
	return search.NewCatalog(persons, nil), nil
}

func readParams(path string) (genealogy.SearchParams, error) {
	var params genealogy.SearchParams
	body, err := os.ReadFile(path)
	if err != nil {
		return params, fmt.Errorf("failed to read query: %w", err)
	}
	if err := json.Unmarshal(body, &params); err != nil {
		return params, fmt.Errorf("failed to parse query %s: %w", path, err)
	}
	return params, nil
}

// roundScores rounds scores to two decimals for display. Ranking order is
// already fixed by the unrounded scores.
func roundScores(ranked []genealogy.MatchCandidate) []genealogy.MatchCandidate {
	out := make([]genealogy.MatchCandidate, len(ranked))
	for i, c := range ranked {
		c.Score = math.Round(c.Score*100) / 100
		out[i] = c
	}
	return out
}
