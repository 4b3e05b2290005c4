// Package scoring computes the deterministic Safety/Sensitivity/Match
// compatibility scores and the final FOR ME score for one product analysis.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/forme-app/forme/internal/category"
)

// Calculate computes a ScoreResult from an evaluation context. It is total
// over valid contexts: every failure mode (empty ingredients, malformed
// profile, unknown category) is rejected before this point.
//
// Safety: strict hit forces 0 and sets the category cap; traces force ≈20
// and a cap of 40. The cap is set exactly once here and never recomputed.
// Sensitivity: profile hits subtract 15–25 by irritant class, generic
// warnings subtract 10; penalties accumulate and clamp at 0.
// Match: starts at the neutral 50, moves ±15–20 per goal alignment or
// conflict.
func Calculate(ctx Context) ScoreResult {
	res := ScoreResult{
		Category:          ctx.Category,
		SafetyScore:       100,
		SensitivityScore:  100,
		MatchScore:        50,
		FinalCap:          100,
		SafetyIssues:      []string{},
		SensitivityIssues: []string{},
	}

	for _, ing := range ctx.Ingredients {
		switch {
		case ing.Strict:
			res.SafetyScore = 0
			res.FinalCap = min(res.FinalCap, ctx.Category.StrictCap())
			res.HasStrictAllergenExplicit = true
			res.SafetyIssues = append(res.SafetyIssues,
				fmt.Sprintf("%s: contains strict-avoid ingredient (%s)", ing.Name, ing.Matched))

		case ing.Traces:
			res.SafetyScore = min(res.SafetyScore, 20)
			res.FinalCap = min(res.FinalCap, ctx.Category.TracesCap())
			res.HasStrictAllergenTraces = true
			res.SafetyIssues = append(res.SafetyIssues,
				fmt.Sprintf("%s: may contain traces of strict-avoid ingredient (%s)", ing.Name, ing.Matched))

		case ing.Sensitivity:
			res.SensitivityScore -= sensitivityPenaltyFor(ing.Tags)
			res.SensitivityIssues = append(res.SensitivityIssues,
				fmt.Sprintf("%s: matches your declared sensitivity (%s)", ing.Name, ing.Matched))

		case ing.Warn:
			res.SensitivityScore -= warnPenalty
			res.SensitivityIssues = append(res.SensitivityIssues,
				fmt.Sprintf("%s: general irritant (%s), not in your profile", ing.Name, ing.Matched))
		}

		res.MatchScore += matchDelta(ctx, ing)
	}

	res.SafetyScore = clamp(res.SafetyScore)
	res.SensitivityScore = clamp(res.SensitivityScore)
	res.MatchScore = clamp(res.MatchScore)
	res.ForMeScore = combine(res)
	return res
}

// combine folds the three component scores into the weighted FOR ME score,
// applies the cap, and clamps. Reused by the memory adjuster so both paths
// share one formula.
func combine(res ScoreResult) int {
	w := res.Category.Weights()
	weighted := w.Safety*float64(res.SafetyScore) +
		w.Sensitivity*float64(res.SensitivityScore) +
		w.Match*float64(res.MatchScore)

	score := int(math.Round(weighted))
	score = min(score, res.FinalCap)
	return clamp(score)
}

// matchDelta computes the Match contribution of one ingredient: goal
// alignment for beneficial hits, goal conflicts for risk tags.
func matchDelta(ctx Context, ing Annotated) int {
	delta := 0

	if ing.Beneficial {
		switch ctx.Category {
		case category.Cosmetics:
			delta += cosmeticsAlignment(ctx, ing.BenefitTags)
		default:
			// Food and household positives align with the implicit
			// "healthier / greener" goal of declaring them at all.
			delta += 15
		}
	}

	// Conflicts: drying ingredients against a hydration goal, harsh
	// surfactants against dry or sensitive skin.
	for _, tag := range ing.Tags {
		switch tag {
		case "drying_alcohol":
			if hasGoal(ctx.Goals, "hydrat") {
				delta -= 20
			}
		case "harsh_surfactant":
			if ctx.SkinType == "dry" || ctx.SkinType == "sensitive" || hasGoal(ctx.Goals, "sensitive") {
				delta -= 15
			}
		}
	}

	return delta
}

func cosmeticsAlignment(ctx Context, benefitTags []string) int {
	for _, tag := range benefitTags {
		switch tag {
		case "hydration":
			if hasGoal(ctx.Goals, "hydrat") {
				return 20
			}
		case "anti_frizz":
			if hasGoal(ctx.Goals, "frizz") {
				return 15
			}
		case "hair_protein":
			if ctx.HairType == "curly" || hasGoal(ctx.Goals, "curl") {
				return 15
			}
		case "nourishing", "soothing":
			if hasGoal(ctx.Goals, "anti_aging") || hasGoal(ctx.Goals, "acne") {
				return 15
			}
		}
	}
	return 0
}

func hasGoal(goals []string, fragment string) bool {
	for _, g := range goals {
		if strings.Contains(g, fragment) {
			return true
		}
	}
	return false
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
