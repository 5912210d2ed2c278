package recommender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/movieparty/core/internal/model"
)

var (
	ErrGenerationFailed    = errors.New("failed to generate suggestions")
	ErrExhaustedCandidates = errors.New("candidate catalog exhausted")
)

const batchSize = 5

// LLM produces bare title/year/reasoning suggestions from preference
// texts, honoring an exclusion list.
type LLM interface {
	Recommend(ctx context.Context, preferences, excludeTitles []string, limit int) ([]model.MovieIdea, error)
}

// Enricher fills presentation fields (poster, genres, overview, rating)
// for a suggestion.
type Enricher interface {
	Enrich(ctx context.Context, title string, year int) (model.Movie, error)
}

// Recommender is the composed recommendation provider: LLM first, then
// best-effort enrichment. Enrichment failures are tolerated per item;
// the point of the pipeline is the picks, not the posters.
type Recommender struct {
	llm      LLM
	enricher Enricher

	logger *slog.Logger
}

type Option func(*Recommender)

func WithEnricher(e Enricher) Option {
	return func(r *Recommender) {
		r.enricher = e
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Recommender) {
		r.logger = logger
	}
}

func New(llm LLM, opts ...Option) *Recommender {
	r := &Recommender{
		llm:    llm,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Recommender) Generate(ctx context.Context, preferences, excludeTitles, participantNames []string) ([]model.Movie, error) {
	ideas, err := r.llm.Recommend(ctx, preferences, excludeTitles, batchSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	movies := make([]model.Movie, 0, len(ideas))
	for _, idea := range ideas {
		movies = append(movies, r.enrich(ctx, idea))
	}
	return movies, nil
}

func (r *Recommender) enrich(ctx context.Context, idea model.MovieIdea) model.Movie {
	bare := model.Movie{
		Title:     idea.Title,
		Year:      idea.Year,
		Reasoning: idea.Reasoning,
	}
	if r.enricher == nil {
		return bare
	}

	enriched, err := r.enricher.Enrich(ctx, idea.Title, idea.Year)
	if err != nil {
		r.logger.Info("enrichment failed, keeping bare suggestion",
			slog.String("title", idea.Title),
			slog.String("error", err.Error()))
		return bare
	}

	enriched.Reasoning = idea.Reasoning
	if enriched.Title == model.EmptyTitle {
		enriched.Title = idea.Title
	}
	if enriched.Year == 0 {
		enriched.Year = idea.Year
	}
	return enriched
}
