package profile

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Profile is the per-user constraint record driving compatibility scoring.
// All set-valued fields hold lower-cased, trimmed, deduplicated strings.
// Normalize enforces the invariant and Validate checks it.
type Profile struct {
	FoodStrictAvoid []string `json:"food_strict_avoid"`
	FoodPreferAvoid []string `json:"food_prefer_avoid"`

	CosmeticsSensitivities []string `json:"cosmetics_sensitivities"`
	CosmeticsPreferences   []string `json:"cosmetics_preferences"`

	HouseholdStrictAvoid []string `json:"household_strict_avoid"`

	HairType  string   `json:"hair_type,omitempty"`
	HairGoals []string `json:"hair_goals"`
	SkinType  string   `json:"skin_type,omitempty"`
	SkinGoals []string `json:"skin_goals"`

	// Append-only event log; the memory adjuster reads it, onboarding and
	// reaction reports append to it. Never rewritten in place.
	RepeatedNegativeReactions []Reaction `json:"repeated_negative_reactions"`

	Version   int       `json:"version,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// Reaction is one user-reported repeated negative reaction.
type Reaction struct {
	Ingredient string    `json:"ingredient"`
	Reaction   string    `json:"reaction,omitempty"`
	Domain     string    `json:"domain,omitempty"`
	Frequency  string    `json:"frequency"`
	Severity   string    `json:"severity,omitempty"`
	ReportedAt time.Time `json:"reported_at,omitzero"`
}

// InvalidProfileError reports a structurally malformed profile field. It is
// surfaced to the caller verbatim, never silently coerced.
type InvalidProfileError struct {
	Field  string
	Reason string
}

func (e *InvalidProfileError) Error() string {
	return fmt.Sprintf("invalid profile field %s: %s", e.Field, e.Reason)
}

// IsMinimal reports whether the profile is too empty to score against:
// every strict-avoid, sensitivity, and goal set is empty and both type
// fields are unset. Callers use it to trigger onboarding.
func (p Profile) IsMinimal() bool {
	return len(p.FoodStrictAvoid) == 0 &&
		len(p.FoodPreferAvoid) == 0 &&
		len(p.CosmeticsSensitivities) == 0 &&
		len(p.CosmeticsPreferences) == 0 &&
		len(p.HouseholdStrictAvoid) == 0 &&
		len(p.HairGoals) == 0 &&
		len(p.SkinGoals) == 0 &&
		p.HairType == "" &&
		p.SkinType == ""
}

// Normalize lower-cases, trims, and deduplicates every set-valued field,
// preserving first-seen order. Returns a new Profile; the receiver is not
// mutated.
func (p Profile) Normalize() Profile {
	out := p
	out.FoodStrictAvoid = normalizeSet(p.FoodStrictAvoid)
	out.FoodPreferAvoid = normalizeSet(p.FoodPreferAvoid)
	out.CosmeticsSensitivities = normalizeSet(p.CosmeticsSensitivities)
	out.CosmeticsPreferences = normalizeSet(p.CosmeticsPreferences)
	out.HouseholdStrictAvoid = normalizeSet(p.HouseholdStrictAvoid)
	out.HairGoals = normalizeSet(p.HairGoals)
	out.SkinGoals = normalizeSet(p.SkinGoals)
	out.HairType = strings.ToLower(strings.TrimSpace(p.HairType))
	out.SkinType = strings.ToLower(strings.TrimSpace(p.SkinType))

	out.RepeatedNegativeReactions = make([]Reaction, len(p.RepeatedNegativeReactions))
	for i, r := range p.RepeatedNegativeReactions {
		r.Ingredient = strings.ToLower(strings.TrimSpace(r.Ingredient))
		r.Frequency = strings.ToLower(strings.TrimSpace(r.Frequency))
		r.Domain = strings.ToLower(strings.TrimSpace(r.Domain))
		out.RepeatedNegativeReactions[i] = r
	}
	return out
}

// Validate checks the set-field invariant (lower-cased, trimmed, unique,
// no empty entries) and that every reaction names an ingredient. Validation
// runs before scoring begins, never mid-calculation.
func (p Profile) Validate() error {
	sets := []struct {
		name   string
		values []string
	}{
		{"food_strict_avoid", p.FoodStrictAvoid},
		{"food_prefer_avoid", p.FoodPreferAvoid},
		{"cosmetics_sensitivities", p.CosmeticsSensitivities},
		{"cosmetics_preferences", p.CosmeticsPreferences},
		{"household_strict_avoid", p.HouseholdStrictAvoid},
		{"hair_goals", p.HairGoals},
		{"skin_goals", p.SkinGoals},
	}
	for _, set := range sets {
		seen := make(map[string]bool, len(set.values))
		for _, v := range set.values {
			if v == "" {
				return &InvalidProfileError{Field: set.name, Reason: "empty entry"}
			}
			if v != strings.ToLower(strings.TrimSpace(v)) {
				return &InvalidProfileError{Field: set.name, Reason: fmt.Sprintf("entry %q is not normalized", v)}
			}
			if seen[v] {
				return &InvalidProfileError{Field: set.name, Reason: fmt.Sprintf("duplicate entry %q", v)}
			}
			seen[v] = true
		}
	}
	for i, r := range p.RepeatedNegativeReactions {
		if strings.TrimSpace(r.Ingredient) == "" {
			return &InvalidProfileError{
				Field:  "repeated_negative_reactions",
				Reason: fmt.Sprintf("entry %d has no ingredient", i),
			}
		}
	}
	return nil
}

// Summary renders the profile as one compact line for log output and for
// callers that inject it into prompts.
func (p Profile) Summary() string {
	var parts []string
	if len(p.FoodStrictAvoid) > 0 {
		parts = append(parts, "strictly avoids (food): "+strings.Join(p.FoodStrictAvoid, ", "))
	}
	if len(p.FoodPreferAvoid) > 0 {
		parts = append(parts, "prefers to avoid (food): "+strings.Join(p.FoodPreferAvoid, ", "))
	}
	if len(p.CosmeticsSensitivities) > 0 {
		parts = append(parts, "sensitive to: "+strings.Join(p.CosmeticsSensitivities, ", "))
	}
	if len(p.HouseholdStrictAvoid) > 0 {
		parts = append(parts, "strictly avoids (household): "+strings.Join(p.HouseholdStrictAvoid, ", "))
	}
	if p.HairType != "" {
		parts = append(parts, "hair: "+p.HairType)
	}
	if p.SkinType != "" {
		parts = append(parts, "skin: "+p.SkinType)
	}
	goals := append(append([]string{}, p.HairGoals...), p.SkinGoals...)
	if len(goals) > 0 {
		sort.Strings(goals)
		parts = append(parts, "goals: "+strings.Join(goals, ", "))
	}
	if len(parts) == 0 {
		return "profile: not yet configured"
	}
	return strings.Join(parts, "; ")
}

func normalizeSet(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
