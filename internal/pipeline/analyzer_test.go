package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/forme-app/forme/internal/category"
	"github.com/forme-app/forme/internal/ingredient"
	"github.com/forme-app/forme/internal/profile"
	"github.com/forme-app/forme/internal/risk"
	"github.com/forme-app/forme/internal/storage"
)

// memProfileStore is an in-memory profile.Store.
type memProfileStore struct {
	mu   sync.Mutex
	data map[string]map[string]string
}

func newMemProfileStore() *memProfileStore {
	return &memProfileStore{data: make(map[string]map[string]string)}
}

func (s *memProfileStore) SetProfileKey(userID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[userID] == nil {
		s.data[userID] = make(map[string]string)
	}
	s.data[userID][key] = value
	return nil
}

func (s *memProfileStore) GetAllProfileKeys(userID string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.data[userID]))
	for k, v := range s.data[userID] {
		out[k] = v
	}
	return out, nil
}

// memAnalysisStore records saved analyses; failSave forces persistence errors.
type memAnalysisStore struct {
	mu       sync.Mutex
	saved    []storage.Analysis
	failSave bool
}

func (s *memAnalysisStore) SaveAnalysis(a storage.Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave {
		return errors.New("disk full")
	}
	s.saved = append(s.saved, a)
	return nil
}

func (s *memAnalysisStore) GetRecentAnalyses(userID string, limit int) ([]storage.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []storage.Analysis
	for i := len(s.saved) - 1; i >= 0 && len(out) < limit; i-- {
		if s.saved[i].UserID == userID {
			out = append(out, s.saved[i])
		}
	}
	return out, nil
}

func newTestAnalyzer(t *testing.T, store AnalysisStore) (*Analyzer, *profile.Manager) {
	t.Helper()
	profiles := profile.NewManager(newMemProfileStore())
	return NewAnalyzer(risk.NewResolver(risk.Default()), profiles, store), profiles
}

func TestAnalyzeEndToEnd(t *testing.T) {
	store := &memAnalysisStore{}
	analyzer, profiles := newTestAnalyzer(t, store)

	err := profiles.Save("u1", profile.Profile{
		CosmeticsSensitivities: []string{"fragrance", "sls"},
	})
	if err != nil {
		t.Fatalf("Save profile: %v", err)
	}

	res, err := analyzer.Analyze(context.Background(), Request{
		UserID:       "u1",
		RawText:      "Water, Sodium Lauryl Sulfate, Glycerin, Fragrance",
		ProductName:  "daily shampoo",
		CategoryHint: "cosmetics",
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if res.Score.Category != category.Cosmetics {
		t.Errorf("Category = %q, want cosmetics", res.Score.Category)
	}
	if res.Score.ForMeScore != 67 {
		t.Errorf("ForMeScore = %d, want 67", res.Score.ForMeScore)
	}
	if len(res.Ingredients) != 4 || res.Ingredients[0] != "water" {
		t.Errorf("Ingredients = %v, want 4 normalized entries", res.Ingredients)
	}
	if res.ProfileMinimal {
		t.Error("profile with sensitivities must not be minimal")
	}
	if res.AnalysisID == "" {
		t.Error("expected persisted analysis ID")
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.saved) != 1 {
		t.Fatalf("saved %d analyses, want 1", len(store.saved))
	}
	if store.saved[0].Category != "cosmetics" || store.saved[0].ProductName != "daily shampoo" {
		t.Errorf("persisted record = %+v", store.saved[0])
	}
}

func TestAnalyzeEmptyLabel(t *testing.T) {
	analyzer, _ := newTestAnalyzer(t, nil)

	_, err := analyzer.Analyze(context.Background(), Request{UserID: "u1", RawText: "  ,, "})
	var parseErr *ingredient.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("error = %v, want ParseError", err)
	}
}

func TestAnalyzeMinimalProfileFlag(t *testing.T) {
	analyzer, _ := newTestAnalyzer(t, nil)

	res, err := analyzer.Analyze(context.Background(), Request{
		UserID:  "nobody",
		RawText: "water, glycerin",
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !res.ProfileMinimal {
		t.Error("empty profile must set ProfileMinimal")
	}
}

func TestAnalyzePersistFailureDegrades(t *testing.T) {
	store := &memAnalysisStore{failSave: true}
	analyzer, _ := newTestAnalyzer(t, store)

	res, err := analyzer.Analyze(context.Background(), Request{
		UserID:  "u1",
		RawText: "water",
	})
	if err != nil {
		t.Fatalf("Analyze should not fail on persistence errors: %v", err)
	}
	if res.AnalysisID != "" {
		t.Errorf("AnalysisID = %q, want empty after failed persist", res.AnalysisID)
	}
	if res.Score.ForMeScore == 0 {
		t.Error("score should still be computed")
	}
}

func TestAnalyzeCanceledContext(t *testing.T) {
	analyzer, _ := newTestAnalyzer(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := analyzer.Analyze(ctx, Request{UserID: "u1", RawText: "water"}); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestBatchAnalyzeOrder(t *testing.T) {
	analyzer, profiles := newTestAnalyzer(t, &memAnalysisStore{})
	if err := profiles.Save("u1", profile.Profile{FoodStrictAvoid: []string{"hazelnut"}}); err != nil {
		t.Fatalf("Save profile: %v", err)
	}

	items := []Request{
		{RawText: "hazelnut", CategoryHint: "food"},
		{RawText: "water, glycerin", CategoryHint: "cosmetics"},
		{RawText: "oats, fiber", CategoryHint: "food"},
	}

	results, err := analyzer.BatchAnalyze(context.Background(), "u1", items)
	if err != nil {
		t.Fatalf("BatchAnalyze: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	if !results[0].Score.HasStrictAllergenExplicit {
		t.Error("first item should flag the strict allergen")
	}
	if results[1].Score.Category != category.Cosmetics {
		t.Errorf("second item category = %q, want cosmetics", results[1].Score.Category)
	}
	if results[2].Score.SafetyScore != 100 {
		t.Errorf("third item SafetyScore = %d, want 100", results[2].Score.SafetyScore)
	}
}

func TestBatchAnalyzeFailsOnBadItem(t *testing.T) {
	analyzer, _ := newTestAnalyzer(t, nil)

	_, err := analyzer.BatchAnalyze(context.Background(), "u1", []Request{
		{RawText: "water"},
		{RawText: ""},
	})
	if err == nil {
		t.Fatal("expected error for empty item")
	}
}

func TestHistory(t *testing.T) {
	store := &memAnalysisStore{}
	analyzer, _ := newTestAnalyzer(t, store)

	for i := 0; i < 3; i++ {
		if _, err := analyzer.Analyze(context.Background(), Request{UserID: "u1", RawText: "water"}); err != nil {
			t.Fatalf("Analyze %d: %v", i, err)
		}
	}

	got, err := analyzer.History("u1", 2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d records, want 2", len(got))
	}
}
