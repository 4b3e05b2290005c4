package scoring

import "github.com/forme-app/forme/internal/category"

// Annotated is one ingredient with its resolved risk tags and its
// profile-derived classification. Strict, Traces, and Sensitivity are
// mutually exclusive; strict takes precedence.
type Annotated struct {
	Name string
	Tags []string

	Strict      bool // direct strict-avoid presence
	Traces      bool // "may contain traces of" a strict-avoid ingredient
	Sensitivity bool // prefer-avoid / sensitivity hit from the profile
	Warn        bool // generic dictionary warning, not from the profile
	Beneficial  bool // positive-dictionary hit

	// Matched is the profile entry or dictionary key that triggered the
	// classification, used for issue text.
	Matched string
	// BenefitTags are the positive tags used for goal alignment.
	BenefitTags []string
}

// Context is the flat evaluation context one analysis is scored against.
// It is built once per call from defensive copies of the profile; nothing
// in it is shared mutable state.
type Context struct {
	Category    category.Category
	Ingredients []Annotated

	// Goals active for the category (hair and skin goals for cosmetics).
	Goals    []string
	HairType string
	SkinType string
}

// ScoreResult is the immutable output of one scoring run. Issue slices are
// always non-nil; empty means "no issues", never "unknown".
type ScoreResult struct {
	Category category.Category `json:"category"`

	SafetyScore      int `json:"safety_score"`
	SensitivityScore int `json:"sensitivity_score"`
	MatchScore       int `json:"match_score"`
	ForMeScore       int `json:"for_me_score"`
	FinalCap         int `json:"final_cap"`

	SafetyIssues      []string `json:"safety_issues"`
	SensitivityIssues []string `json:"sensitivity_issues"`

	HasStrictAllergenExplicit bool `json:"has_strict_allergen_explicit"`
	HasStrictAllergenTraces   bool `json:"has_strict_allergen_traces"`
}
