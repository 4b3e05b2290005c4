package scoring

import (
	"strings"

	"github.com/forme-app/forme/internal/category"
	"github.com/forme-app/forme/internal/profile"
)

// Phrases indicating cross-contamination rather than direct inclusion.
var tracesMarkers = []string{"traces", "may contain", "produced in", "manufactured in"}

// BuildContext merges profile, ingredients, and resolved risks into the flat
// evaluation context for one category. It is a pure annotation step: the
// profile is inspected through defensive copies and nothing is scored yet.
//
// Classification per ingredient is disjoint: a strict (or traces) hit wins
// over a sensitivity hit, which wins over a generic warning. A beneficial
// hit is tracked independently.
func BuildContext(cat category.Category, p profile.Profile, ingredients []string, risks map[string][]string) Context {
	strictSet := strictAvoidFor(cat, p)
	sensitivitySet := sensitivityFor(cat, p)
	warns := warnTables[cat]
	positives := positiveTables[cat]

	ctx := Context{
		Category: cat,
		Goals:    goalsFor(cat, p),
		HairType: p.HairType,
		SkinType: p.SkinType,
	}

	for _, name := range ingredients {
		a := Annotated{Name: name, Tags: risks[name]}

		if matched, ok := matchAgainstSet(name, a.Tags, strictSet); ok {
			if isTracesPhrase(name) {
				a.Traces = true
			} else {
				a.Strict = true
			}
			a.Matched = matched
		} else if matched, ok := matchAgainstSet(name, a.Tags, sensitivitySet); ok {
			a.Sensitivity = true
			a.Matched = matched
		} else if cat == category.Household {
			// Toxic household substances the user did not strict-avoid
			// degrade to warnings.
			if key, ok := matchDictionary(name, householdRisk); ok {
				a.Warn = true
				a.Matched = key
			}
		}

		if !a.Strict && !a.Traces && !a.Sensitivity && !a.Warn {
			if key, ok := matchDictionary(name, warns); ok {
				a.Warn = true
				a.Matched = key
			}
		}

		if key, ok := matchDictionary(name, positives); ok {
			a.Beneficial = true
			a.BenefitTags = positives[key]
			if a.Matched == "" {
				a.Matched = key
			}
		}

		ctx.Ingredients = append(ctx.Ingredients, a)
	}

	return ctx
}

// strictAvoidFor returns the strict-avoid set active for the category.
// Allergen-level food exclusions also apply to cosmetics: a nut allergy
// does not stop at the kitchen.
func strictAvoidFor(cat category.Category, p profile.Profile) []string {
	switch cat {
	case category.Food:
		return append([]string(nil), p.FoodStrictAvoid...)
	case category.Cosmetics:
		return append([]string(nil), p.FoodStrictAvoid...)
	case category.Household:
		return append([]string(nil), p.HouseholdStrictAvoid...)
	}
	return nil
}

func sensitivityFor(cat category.Category, p profile.Profile) []string {
	switch cat {
	case category.Food:
		return append([]string(nil), p.FoodPreferAvoid...)
	case category.Cosmetics:
		return append([]string(nil), p.CosmeticsSensitivities...)
	}
	return nil
}

func goalsFor(cat category.Category, p profile.Profile) []string {
	if cat != category.Cosmetics {
		return nil
	}
	goals := make([]string, 0, len(p.HairGoals)+len(p.SkinGoals))
	goals = append(goals, p.HairGoals...)
	goals = append(goals, p.SkinGoals...)
	return goals
}

// matchAgainstSet reports whether the ingredient (by name or by any of its
// risk tags) matches an entry of a profile set. Name matching is substring
// in either direction; tag matching likewise.
func matchAgainstSet(name string, tags []string, set []string) (string, bool) {
	for _, entry := range set {
		if entry == "" {
			continue
		}
		if strings.Contains(name, entry) || strings.Contains(entry, name) {
			return entry, true
		}
		for _, tag := range tags {
			if tag == entry || strings.Contains(tag, entry) || strings.Contains(entry, tag) {
				return entry, true
			}
		}
	}
	return "", false
}

// matchDictionary finds the longest dictionary key contained in the
// ingredient phrase. Longest wins so "sodium laureth sulfate" beats "sles".
func matchDictionary(name string, dict map[string][]string) (string, bool) {
	best := ""
	for key := range dict {
		if !strings.Contains(name, key) {
			continue
		}
		if len(key) > len(best) || (len(key) == len(best) && key < best) {
			best = key
		}
	}
	return best, best != ""
}

func isTracesPhrase(name string) bool {
	for _, marker := range tracesMarkers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}
