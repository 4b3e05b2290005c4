package category

import "strings"

// Hint aliases recognized per category. A recognized hint always wins over
// keyword voting.
var hintAliases = map[string]Category{
	"food":      Food,
	"beverage":  Food,
	"snack":     Food,
	"cosmetics": Cosmetics,
	"cosmetic":  Cosmetics,
	"skincare":  Cosmetics,
	"haircare":  Cosmetics,
	"makeup":    Cosmetics,
	"household": Household,
	"cleaning":  Household,
	"detergent": Household,
}

// Keyword dictionaries for voting. Matching is substring over the joined
// ingredient text, so multi-word keys work.
var categoryKeywords = map[Category][]string{
	Food: {
		"milk", "dairy", "lactose", "whey", "casein",
		"wheat", "gluten", "flour", "barley", "rye",
		"sugar", "sucrose", "fructose", "cocoa",
		"salt", "nuts", "peanut", "almond", "hazelnut",
		"egg", "yeast", "coloring", "tartrazine",
		"msg", "monosodium glutamate", "preservative",
	},
	Cosmetics: {
		"aqua", "water", "eau",
		"sodium lauryl", "sodium laureth", "sls", "sles",
		"dimethicone", "silicone", "glycerin",
		"parfum", "fragrance", "niacinamide", "ceramides",
		"hyaluronic", "panthenol", "phenoxyethanol", "carbomer",
		"shampoo", "conditioner", "serum", "cream",
	},
	Household: {
		"bleach", "chlorine", "ammonia", "detergent",
		"surfactant", "phosphates", "sodium hypochlorite",
		"triclosan", "cleaning", "enzymes", "softener",
	},
}

// Classify decides the product category.
//
// A recognized hint returns directly with high confidence, without voting. With
// no usable hint, each category's keyword dictionary votes on the joined
// ingredient text; the strictly highest count wins. On a tie for the highest
// count, or when nothing matches at all, the default is cosmetics with low
// confidence. That default is a policy choice (cosmetics is the most common
// input in practice), and the low confidence lets callers ask the user to
// clarify rather than trusting it silently.
func Classify(ingredients []string, hint string) (Category, Confidence) {
	if c, ok := parse(hint); ok {
		return c, ConfidenceHigh
	}

	text := strings.ToLower(strings.Join(ingredients, " "))

	votes := make(map[Category]int, len(categoryKeywords))
	for cat, keywords := range categoryKeywords {
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				votes[cat]++
			}
		}
	}

	best := Cosmetics
	bestCount := 0
	tied := false
	for _, cat := range []Category{Food, Cosmetics, Household} {
		switch {
		case votes[cat] > bestCount:
			best, bestCount, tied = cat, votes[cat], false
		case votes[cat] == bestCount && votes[cat] > 0:
			tied = true
		}
	}

	if bestCount == 0 || tied {
		return Cosmetics, ConfidenceLow
	}
	if bestCount > 2 {
		return best, ConfidenceHigh
	}
	return best, ConfidenceMedium
}

func parse(s string) (Category, bool) {
	c, ok := hintAliases[strings.ToLower(strings.TrimSpace(s))]
	return c, ok
}
