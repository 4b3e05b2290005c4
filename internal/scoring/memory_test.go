package scoring

import (
	"strings"
	"testing"

	"github.com/forme-app/forme/internal/category"
	"github.com/forme-app/forme/internal/profile"
	"github.com/forme-app/forme/internal/risk"
)

func baseResult(t *testing.T, cat category.Category, p profile.Profile, ingredients []string) (ScoreResult, map[string][]string) {
	t.Helper()
	risks := risk.NewResolver(risk.Default()).Resolve(ingredients)
	return Calculate(BuildContext(cat, p, ingredients, risks)), risks
}

func TestApplyRepeatedReactionsAlwaysPenalizes(t *testing.T) {
	p := profile.Profile{
		RepeatedNegativeReactions: []profile.Reaction{
			{Ingredient: "fragrance", Reaction: "redness", Frequency: "always"},
		},
	}
	ingredients := []string{"water", "fragrance"}
	base, risks := baseResult(t, category.Cosmetics, p, ingredients)

	adjusted := ApplyRepeatedReactions(p, base, ingredients, risks)

	if adjusted.SensitivityScore != base.SensitivityScore-10 {
		t.Errorf("SensitivityScore = %d, want %d", adjusted.SensitivityScore, base.SensitivityScore-10)
	}
	if adjusted.SafetyScore != base.SafetyScore {
		t.Errorf("SafetyScore changed: %d -> %d", base.SafetyScore, adjusted.SafetyScore)
	}
	if adjusted.FinalCap != base.FinalCap {
		t.Errorf("FinalCap changed: %d -> %d", base.FinalCap, adjusted.FinalCap)
	}
	if len(adjusted.SensitivityIssues) != len(base.SensitivityIssues)+1 {
		t.Fatalf("expected one extra sensitivity issue, got %v", adjusted.SensitivityIssues)
	}
	last := adjusted.SensitivityIssues[len(adjusted.SensitivityIssues)-1]
	if !strings.Contains(last, "repeated negative reactions") {
		t.Errorf("issue text = %q", last)
	}
	if adjusted.ForMeScore >= base.ForMeScore {
		t.Errorf("ForMeScore did not drop: %d -> %d", base.ForMeScore, adjusted.ForMeScore)
	}
}

func TestApplyRepeatedReactionsIgnoresOccasional(t *testing.T) {
	p := profile.Profile{
		RepeatedNegativeReactions: []profile.Reaction{
			{Ingredient: "fragrance", Frequency: "sometimes"},
			{Ingredient: "fragrance", Frequency: "often"},
			{Ingredient: "fragrance", Frequency: ""},
		},
	}
	ingredients := []string{"fragrance"}
	base, risks := baseResult(t, category.Cosmetics, p, ingredients)

	adjusted := ApplyRepeatedReactions(p, base, ingredients, risks)

	if adjusted.SensitivityScore != base.SensitivityScore {
		t.Errorf("non-always reactions must not move the score: %d -> %d",
			base.SensitivityScore, adjusted.SensitivityScore)
	}
	if adjusted.ForMeScore != base.ForMeScore {
		t.Errorf("ForMeScore changed: %d -> %d", base.ForMeScore, adjusted.ForMeScore)
	}
}

func TestApplyRepeatedReactionsDomainScoped(t *testing.T) {
	p := profile.Profile{
		RepeatedNegativeReactions: []profile.Reaction{
			{Ingredient: "fragrance", Frequency: "always", Domain: "food"},
		},
	}
	ingredients := []string{"fragrance"}
	base, risks := baseResult(t, category.Cosmetics, p, ingredients)

	adjusted := ApplyRepeatedReactions(p, base, ingredients, risks)

	if adjusted.SensitivityScore != base.SensitivityScore {
		t.Errorf("food-scoped reaction applied to a cosmetics analysis")
	}
}

func TestApplyRepeatedReactionsMatchesByRiskTag(t *testing.T) {
	p := profile.Profile{
		RepeatedNegativeReactions: []profile.Reaction{
			{Ingredient: "dairy", Reaction: "bloating", Frequency: "always"},
		},
	}
	ingredients := []string{"whole milk powder"}
	risks := map[string][]string{"whole milk powder": {"allergen", "dairy"}}
	base := Calculate(BuildContext(category.Food, p, ingredients, risks))

	adjusted := ApplyRepeatedReactions(p, base, ingredients, risks)

	if adjusted.SensitivityScore != base.SensitivityScore-10 {
		t.Errorf("tag match missed: %d -> %d", base.SensitivityScore, adjusted.SensitivityScore)
	}
}

func TestApplyRepeatedReactionsAbsentIngredient(t *testing.T) {
	p := profile.Profile{
		RepeatedNegativeReactions: []profile.Reaction{
			{Ingredient: "lanolin", Frequency: "always"},
		},
	}
	ingredients := []string{"water", "glycerin"}
	base, risks := baseResult(t, category.Cosmetics, p, ingredients)

	adjusted := ApplyRepeatedReactions(p, base, ingredients, risks)

	if adjusted.SensitivityScore != base.SensitivityScore || adjusted.ForMeScore != base.ForMeScore {
		t.Errorf("absent ingredient moved the score: %+v vs %+v", base, adjusted)
	}
}

func TestApplyRepeatedReactionsRespectsExistingCap(t *testing.T) {
	p := profile.Profile{
		FoodStrictAvoid: []string{"hazelnut"},
		RepeatedNegativeReactions: []profile.Reaction{
			{Ingredient: "sugar", Frequency: "always"},
		},
	}
	ingredients := []string{"may contain traces of hazelnut", "sugar"}
	base, risks := baseResult(t, category.Food, p, ingredients)

	adjusted := ApplyRepeatedReactions(p, base, ingredients, risks)

	if adjusted.FinalCap != base.FinalCap {
		t.Errorf("FinalCap changed: %d -> %d", base.FinalCap, adjusted.FinalCap)
	}
	if adjusted.ForMeScore > adjusted.FinalCap {
		t.Errorf("ForMeScore %d exceeds cap %d", adjusted.ForMeScore, adjusted.FinalCap)
	}
}

func TestApplyRepeatedReactionsDoesNotMutateBase(t *testing.T) {
	p := profile.Profile{
		RepeatedNegativeReactions: []profile.Reaction{
			{Ingredient: "fragrance", Frequency: "always"},
		},
	}
	ingredients := []string{"fragrance"}
	base, risks := baseResult(t, category.Cosmetics, p, ingredients)
	issuesBefore := len(base.SensitivityIssues)

	_ = ApplyRepeatedReactions(p, base, ingredients, risks)

	if len(base.SensitivityIssues) != issuesBefore {
		t.Error("adjuster mutated the input result's issue slice")
	}
}
