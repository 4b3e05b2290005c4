package scoring

import (
	"reflect"
	"testing"

	"github.com/forme-app/forme/internal/category"
	"github.com/forme-app/forme/internal/profile"
	"github.com/forme-app/forme/internal/risk"
)

// score runs resolution, context building, and calculation the way the
// pipeline does, against the built-in risk dictionary.
func score(t *testing.T, cat category.Category, p profile.Profile, ingredients []string) ScoreResult {
	t.Helper()
	resolver := risk.NewResolver(risk.Default())
	risks := resolver.Resolve(ingredients)
	return Calculate(BuildContext(cat, p, ingredients, risks))
}

func TestCalculateCosmeticsSensitivities(t *testing.T) {
	p := profile.Profile{
		CosmeticsSensitivities: []string{"fragrance", "sls"},
	}
	res := score(t, category.Cosmetics, p,
		[]string{"water", "sodium lauryl sulfate", "glycerin", "fragrance"})

	if res.SafetyScore != 100 {
		t.Errorf("SafetyScore = %d, want 100", res.SafetyScore)
	}
	// SLS is a harsh-surfactant class hit (-20), fragrance a fragrance-class
	// hit (-25).
	if res.SensitivityScore != 55 {
		t.Errorf("SensitivityScore = %d, want 55", res.SensitivityScore)
	}
	if res.MatchScore != 50 {
		t.Errorf("MatchScore = %d, want 50", res.MatchScore)
	}
	if res.ForMeScore != 67 {
		t.Errorf("ForMeScore = %d, want 67", res.ForMeScore)
	}
	if len(res.SafetyIssues) != 0 {
		t.Errorf("SafetyIssues = %v, want none", res.SafetyIssues)
	}
	if len(res.SensitivityIssues) != 2 {
		t.Errorf("SensitivityIssues = %v, want 2 entries", res.SensitivityIssues)
	}
	if res.FinalCap != 100 {
		t.Errorf("FinalCap = %d, want 100", res.FinalCap)
	}
}

func TestCalculateFoodStrictAllergen(t *testing.T) {
	p := profile.Profile{FoodStrictAvoid: []string{"hazelnut"}}
	res := score(t, category.Food, p, []string{"wheat flour", "hazelnut", "sugar"})

	if res.SafetyScore != 0 {
		t.Errorf("SafetyScore = %d, want 0", res.SafetyScore)
	}
	if res.FinalCap != 15 {
		t.Errorf("FinalCap = %d, want 15", res.FinalCap)
	}
	if res.ForMeScore != 15 {
		t.Errorf("ForMeScore = %d, want 15", res.ForMeScore)
	}
	if !res.HasStrictAllergenExplicit {
		t.Error("expected explicit strict-allergen flag")
	}
	if res.HasStrictAllergenTraces {
		t.Error("traces flag must stay clear on an explicit hit")
	}
	if len(res.SafetyIssues) != 1 {
		t.Fatalf("SafetyIssues = %v, want 1 entry", res.SafetyIssues)
	}
}

func TestCalculateTraces(t *testing.T) {
	p := profile.Profile{FoodStrictAvoid: []string{"hazelnut"}}
	res := score(t, category.Food, p, []string{"oats", "may contain traces of hazelnut"})

	if res.SafetyScore != 20 {
		t.Errorf("SafetyScore = %d, want 20", res.SafetyScore)
	}
	if res.FinalCap != 40 {
		t.Errorf("FinalCap = %d, want 40", res.FinalCap)
	}
	if res.ForMeScore != 40 {
		t.Errorf("ForMeScore = %d, want 40", res.ForMeScore)
	}
	if !res.HasStrictAllergenTraces || res.HasStrictAllergenExplicit {
		t.Errorf("flags = explicit:%v traces:%v, want traces only",
			res.HasStrictAllergenExplicit, res.HasStrictAllergenTraces)
	}
}

func TestCalculateUnknownIngredientsNeutral(t *testing.T) {
	res := score(t, category.Cosmetics, profile.Profile{},
		[]string{"blorbium extract", "zanthex-9"})

	if res.SafetyScore != 100 || res.SensitivityScore != 100 || res.MatchScore != 50 {
		t.Errorf("scores = %d/%d/%d, want 100/100/50",
			res.SafetyScore, res.SensitivityScore, res.MatchScore)
	}
	if res.ForMeScore != 80 {
		t.Errorf("ForMeScore = %d, want 80", res.ForMeScore)
	}
	if res.SafetyIssues == nil || res.SensitivityIssues == nil {
		t.Error("issue slices must be non-nil even when empty")
	}
	if len(res.SafetyIssues) != 0 || len(res.SensitivityIssues) != 0 {
		t.Errorf("issues = %v / %v, want none", res.SafetyIssues, res.SensitivityIssues)
	}
}

func TestCalculateGoalAlignment(t *testing.T) {
	p := profile.Profile{
		SkinGoals: []string{"hydration"},
	}
	res := score(t, category.Cosmetics, p, []string{"water", "glycerin"})

	// Glycerin aligns with the hydration goal for +20.
	if res.MatchScore != 70 {
		t.Errorf("MatchScore = %d, want 70", res.MatchScore)
	}
}

func TestCalculateGoalConflict(t *testing.T) {
	p := profile.Profile{
		SkinGoals: []string{"hydration"},
	}
	res := score(t, category.Cosmetics, p, []string{"alcohol denat"})

	// Generic warn plus a drying-alcohol conflict against the hydration goal.
	if res.SensitivityScore != 90 {
		t.Errorf("SensitivityScore = %d, want 90", res.SensitivityScore)
	}
	if res.MatchScore != 30 {
		t.Errorf("MatchScore = %d, want 30", res.MatchScore)
	}
}

func TestCalculateSensitivityClampsAtZero(t *testing.T) {
	ctx := Context{Category: category.Cosmetics}
	for i := 0; i < 6; i++ {
		ctx.Ingredients = append(ctx.Ingredients, Annotated{
			Name:        "fragrance",
			Tags:        []string{"fragrance"},
			Sensitivity: true,
			Matched:     "fragrance",
		})
	}

	res := Calculate(ctx)
	if res.SensitivityScore != 0 {
		t.Errorf("SensitivityScore = %d, want clamp at 0", res.SensitivityScore)
	}
	if res.ForMeScore < 0 || res.ForMeScore > 100 {
		t.Errorf("ForMeScore = %d, out of range", res.ForMeScore)
	}
}

func TestCalculateMatchClampsAtHundred(t *testing.T) {
	ctx := Context{Category: category.Food}
	for i := 0; i < 5; i++ {
		ctx.Ingredients = append(ctx.Ingredients, Annotated{
			Name:        "fiber",
			Beneficial:  true,
			BenefitTags: []string{"fiber", "healthy"},
		})
	}

	res := Calculate(ctx)
	if res.MatchScore != 100 {
		t.Errorf("MatchScore = %d, want clamp at 100", res.MatchScore)
	}
}

func TestCalculateStrictCapNeverExceedsTwenty(t *testing.T) {
	for _, cat := range []category.Category{category.Food, category.Cosmetics, category.Household} {
		ctx := Context{
			Category: cat,
			Ingredients: []Annotated{
				{Name: "peanut", Strict: true, Matched: "peanut"},
				// Maximal other components should not lift the score past the cap.
				{Name: "fiber", Beneficial: true, BenefitTags: []string{"healthy"}},
			},
		}
		res := Calculate(ctx)
		if res.ForMeScore > res.FinalCap {
			t.Errorf("%s: ForMeScore %d exceeds cap %d", cat, res.ForMeScore, res.FinalCap)
		}
		if res.FinalCap > 20 {
			t.Errorf("%s: strict cap %d exceeds 20", cat, res.FinalCap)
		}
	}
}

func TestCalculateAddingWarningNeverRaisesScore(t *testing.T) {
	p := profile.Profile{CosmeticsSensitivities: []string{"fragrance"}}
	base := score(t, category.Cosmetics, p, []string{"water", "glycerin"})
	worse := score(t, category.Cosmetics, p, []string{"water", "glycerin", "fragrance"})

	if worse.ForMeScore > base.ForMeScore {
		t.Errorf("adding a flagged ingredient raised the score: %d > %d",
			worse.ForMeScore, base.ForMeScore)
	}
}

func TestCalculateDeterministic(t *testing.T) {
	p := profile.Profile{
		FoodStrictAvoid:        []string{"peanut"},
		CosmeticsSensitivities: []string{"fragrance", "sls"},
		SkinGoals:              []string{"hydration"},
	}
	ingredients := []string{"water", "glycerin", "fragrance", "sodium lauryl sulfate", "almond oil"}

	first := score(t, category.Cosmetics, p, ingredients)
	for i := 0; i < 50; i++ {
		again := score(t, category.Cosmetics, p, ingredients)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d diverged:\nfirst: %+v\nagain: %+v", i, first, again)
		}
	}
}
