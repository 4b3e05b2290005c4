package scoring

import "github.com/forme-app/forme/internal/category"

// Per-category warn and positive dictionaries. Warn keys penalize
// Sensitivity with a small constant even when the user's profile is silent
// about them; positive keys feed the Match score. Keys match as substrings
// of the ingredient phrase. All tables are read-only after initialization.

var warnTables = map[category.Category]map[string][]string{
	category.Food: {
		"salt":                 {"high_salt"},
		"sodium":               {"high_salt"},
		"sugar":                {"high_sugar"},
		"sucrose":              {"high_sugar"},
		"fructose":             {"high_sugar"},
		"msg":                  {"flavor_enhancer", "msg"},
		"monosodium glutamate": {"flavor_enhancer", "msg"},
		"aspartame":            {"artificial_sweetener"},
		"saccharin":            {"artificial_sweetener"},
		"sweetener":            {"artificial_sweetener"},
	},
	category.Cosmetics: {
		"sodium lauryl sulfate":  {"irritant", "harsh_surfactant"},
		"sodium laureth sulfate": {"irritant", "harsh_surfactant"},
		"sls":                    {"irritant", "harsh_surfactant"},
		"sles":                   {"irritant", "harsh_surfactant"},
		"sulfates":               {"irritant", "harsh_surfactant"},
		"fragrance":              {"irritant", "fragrance"},
		"parfum":                 {"irritant", "fragrance"},
		"alcohol denat":          {"irritant", "drying_alcohol"},
		"phenoxyethanol":         {"irritant", "preservative"},
	},
	category.Household: {
		"fragrance":       {"irritant", "fragrance"},
		"parfum":          {"irritant", "fragrance"},
		"sodium lauryl":   {"irritant", "surfactant"},
		"sodium laureth":  {"irritant", "surfactant"},
		"phosphates":      {"environmental", "phosphates"},
		"synthetic dyes":  {"irritant", "dyes"},
		"optical brightener": {"irritant", "dyes"},
	},
}

// Household risk table: toxic substances that lower Safety only when the
// user strict-avoids them; otherwise they are sensitivity warnings.
var householdRisk = map[string][]string{
	"bleach":              {"toxic", "bleach"},
	"chlorine":            {"toxic", "bleach"},
	"sodium hypochlorite": {"toxic", "bleach"},
	"ammonia":             {"toxic", "ammonia"},
	"formaldehyde":        {"toxic", "formaldehyde"},
	"triclosan":           {"toxic", "antibacterial"},
}

var positiveTables = map[category.Category]map[string][]string{
	category.Food: {
		"fiber":        {"fiber", "healthy"},
		"protein":      {"protein", "healthy"},
		"vitamin":      {"vitamins", "healthy"},
		"omega-3":      {"omega3", "healthy"},
		"antioxidant":  {"antioxidants", "healthy"},
		"whole grain":  {"fiber", "healthy"},
	},
	category.Cosmetics: {
		"glycerin":        {"hydration"},
		"hyaluronic acid": {"hydration"},
		"ceramides":       {"hydration", "barrier"},
		"squalane":        {"hydration", "emollient"},
		"panthenol":       {"hydration", "soothing"},
		"niacinamide":     {"nourishing", "vitamin"},
		"dimethicone":     {"anti_frizz", "silicone"},
		"amodimethicone":  {"anti_frizz", "silicone"},
		"silicone":        {"anti_frizz", "silicone"},
		"keratin":         {"hair_protein"},
		"argan oil":       {"hydration", "hair_care"},
		"coconut oil":     {"hydration", "hair_care"},
	},
	category.Household: {
		"plant-based":   {"eco_friendly", "natural"},
		"biodegradable": {"eco_friendly", "biodegradable"},
		"enzymes":       {"natural", "effective"},
		"citric acid":   {"natural", "cleaning"},
		"vinegar":       {"natural", "cleaning"},
	},
}

// Irritant severity classes: risk tags mapped to the Sensitivity penalty a
// profile-declared hit carries. Anything unlisted falls back to the base
// penalty.
const baseSensitivityPenalty = 15

var irritantPenalties = map[string]int{
	"fragrance":        25,
	"drying_alcohol":   20,
	"harsh_surfactant": 20,
	"irritant":         20,
	"high_salt":        15,
	"flavor_enhancer":  15,
}

// warnPenalty is the smaller constant for generic (non-profile) warnings.
const warnPenalty = 10

// sensitivityPenaltyFor picks the class penalty for a sensitivity hit from
// the ingredient's risk tags: the highest matching class wins.
func sensitivityPenaltyFor(tags []string) int {
	penalty := baseSensitivityPenalty
	for _, tag := range tags {
		if p, ok := irritantPenalties[tag]; ok && p > penalty {
			penalty = p
		}
	}
	return penalty
}
