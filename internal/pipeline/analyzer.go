// Package pipeline orchestrates a full product analysis: normalization, risk
// resolution, category classification, scoring, and reaction-history
// adjustment, with optional persistence of the result.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/forme-app/forme/internal/category"
	"github.com/forme-app/forme/internal/ingredient"
	"github.com/forme-app/forme/internal/profile"
	"github.com/forme-app/forme/internal/risk"
	"github.com/forme-app/forme/internal/scoring"
	"github.com/forme-app/forme/internal/storage"
)

// batchConcurrency bounds parallel scoring runs in BatchAnalyze.
const batchConcurrency = 4

// AnalysisStore defines the persistence operations the Analyzer needs.
// Implemented by storage.Store.
type AnalysisStore interface {
	SaveAnalysis(storage.Analysis) error
	GetRecentAnalyses(userID string, limit int) ([]storage.Analysis, error)
}

// Request is one product to analyze for one user.
type Request struct {
	UserID       string `json:"user_id"`
	RawText      string `json:"raw_text"`
	ProductName  string `json:"product_name,omitempty"`
	CategoryHint string `json:"category_hint,omitempty"`
}

// Result is the full outcome of one analysis.
type Result struct {
	AnalysisID  string              `json:"analysis_id,omitempty"`
	Ingredients []string            `json:"ingredients"`
	Risks       map[string][]string `json:"risks"`
	Confidence  category.Confidence `json:"category_confidence"`
	Score       scoring.ScoreResult `json:"score"`

	// ProfileMinimal marks results computed against an effectively empty
	// profile; clients should route the user to onboarding.
	ProfileMinimal bool  `json:"profile_minimal"`
	DurationMs     int64 `json:"duration_ms"`
}

// Analyzer wires the analysis stages together. Safe for concurrent use: all
// per-request state lives on the stack.
type Analyzer struct {
	resolver *risk.Resolver
	profiles *profile.Manager
	store    AnalysisStore
}

// NewAnalyzer creates an Analyzer. store may be nil, in which case results
// are computed but not persisted.
func NewAnalyzer(resolver *risk.Resolver, profiles *profile.Manager, store AnalysisStore) *Analyzer {
	return &Analyzer{
		resolver: resolver,
		profiles: profiles,
		store:    store,
	}
}

// Analyze runs the full pipeline on one request:
//  1. Load the user's profile (validated by the manager)
//  2. Normalize the raw label text into canonical ingredients
//  3. Classify the product category (hint wins over keyword voting)
//  4. Resolve risk tags and build the evaluation context
//  5. Calculate scores, then apply repeated-reaction history
//  6. Persist the analysis record
//
// Persistence failure degrades gracefully: the scored result is returned
// with a warning logged, since the user already has their answer.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (Result, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	p, err := a.profiles.Get(req.UserID)
	if err != nil {
		return Result{}, fmt.Errorf("loading profile for %s: %w", req.UserID, err)
	}

	ingredients, err := ingredient.Normalize(req.RawText)
	if err != nil {
		return Result{}, err
	}

	cat, conf := category.Classify(ingredients, req.CategoryHint)
	risks := a.resolver.Resolve(ingredients)

	scoreCtx := scoring.BuildContext(cat, p, ingredients, risks)
	score := scoring.Calculate(scoreCtx)
	score = scoring.ApplyRepeatedReactions(p, score, ingredients, risks)

	res := Result{
		Ingredients:    ingredients,
		Risks:          risks,
		Confidence:     conf,
		Score:          score,
		ProfileMinimal: p.IsMinimal(),
		DurationMs:     time.Since(start).Milliseconds(),
	}

	if a.store != nil {
		res.AnalysisID = uuid.NewString()
		if err := a.persist(res, req, start); err != nil {
			slog.Warn("analysis: failed to persist result", "user_id", req.UserID, "error", err)
			res.AnalysisID = ""
		}
	}

	slog.Debug("analysis complete",
		"user_id", req.UserID,
		"category", score.Category,
		"for_me_score", score.ForMeScore,
		"ingredients", len(ingredients),
	)

	return res, nil
}

// BatchAnalyze scores several products for one user concurrently. Results
// are returned in input order. The first pipeline error cancels the batch;
// normalization errors are per-item and reported in place of a result.
func (a *Analyzer) BatchAnalyze(ctx context.Context, userID string, items []Request) ([]Result, error) {
	results := make([]Result, len(items))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)

	for i, item := range items {
		item.UserID = userID
		g.Go(func() error {
			res, err := a.Analyze(ctx, item)
			if err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// History returns the user's most recent persisted analyses, newest first.
func (a *Analyzer) History(userID string, limit int) ([]storage.Analysis, error) {
	if a.store == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	return a.store.GetRecentAnalyses(userID, limit)
}

func (a *Analyzer) persist(res Result, req Request, at time.Time) error {
	ingredientsJSON, err := json.Marshal(res.Ingredients)
	if err != nil {
		return fmt.Errorf("marshaling ingredients: %w", err)
	}
	resultJSON, err := json.Marshal(res.Score)
	if err != nil {
		return fmt.Errorf("marshaling score: %w", err)
	}
	return a.store.SaveAnalysis(storage.Analysis{
		ID:              res.AnalysisID,
		UserID:          req.UserID,
		CreatedAt:       at.UTC(),
		Category:        string(res.Score.Category),
		ProductName:     req.ProductName,
		RawText:         req.RawText,
		IngredientsJSON: string(ingredientsJSON),
		ResultJSON:      string(resultJSON),
	})
}
