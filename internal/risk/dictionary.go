package risk

import (
	"encoding/json"
	"fmt"
	"os"
)

// Dictionary maps canonical ingredient names to risk tags, with a synonym
// table for regional and INCI naming variants. Both tables are read-only
// after construction and safe to share across concurrent resolutions.
type Dictionary struct {
	// Exact maps a canonical ingredient name to its ordered tag list.
	Exact map[string][]string `json:"exact"`
	// Synonyms maps an alias substring to the canonical name it stands for.
	Synonyms map[string]string `json:"synonyms"`
}

// Default returns the built-in ingredient risk dictionary.
func Default() *Dictionary {
	return &Dictionary{
		Exact: map[string][]string{
			// Food colorings and allergens.
			"yellow-5":   {"allergen", "food_coloring"},
			"yellow-6":   {"allergen", "food_coloring"},
			"red-40":     {"allergen", "food_coloring"},
			"blue-1":     {"allergen", "food_coloring"},
			"tartrazine": {"allergen", "food_coloring"},
			"carmine":    {"allergen", "cochineal"},
			"cochineal":  {"allergen"},
			"soy":        {"allergen", "soy"},
			"soybean":    {"allergen", "soy"},
			"peanut":     {"allergen", "peanut"},
			"peanuts":    {"allergen", "peanut"},
			"tree nuts":  {"allergen", "tree_nuts"},
			"almond":     {"allergen", "tree_nuts"},
			"walnut":     {"allergen", "tree_nuts"},
			"hazelnut":   {"allergen", "tree_nuts"},
			"cashew":     {"allergen", "tree_nuts"},
			"milk":       {"allergen", "dairy"},
			"lactose":    {"allergen", "dairy"},
			"whey":       {"allergen", "dairy"},
			"casein":     {"allergen", "dairy"},
			"egg":        {"allergen", "egg"},
			"eggs":       {"allergen", "egg"},
			"gluten":     {"allergen", "gluten"},
			"wheat":      {"allergen", "gluten"},
			"barley":     {"allergen", "gluten"},
			"rye":        {"allergen", "gluten"},
			"nickel":     {"allergen", "metal"},

			// Fragrance.
			"fragrance": {"fragrance", "irritant"},
			"parfum":    {"fragrance", "irritant"},
			"perfume":   {"fragrance", "irritant"},

			// Drying alcohols.
			"alcohol":           {"drying_alcohol"},
			"alcohol denat":     {"drying_alcohol"},
			"denatured alcohol": {"drying_alcohol"},
			"ethanol":           {"drying_alcohol"},
			"isopropyl alcohol": {"drying_alcohol"},
			"sd alcohol":        {"drying_alcohol"},
			"sd alcohol 40":     {"drying_alcohol"},

			// Harsh surfactants.
			"sodium lauryl sulfate":  {"harsh_surfactant", "sls"},
			"sls":                    {"harsh_surfactant", "sls"},
			"sodium laureth sulfate": {"harsh_surfactant", "sles"},
			"sles":                   {"harsh_surfactant", "sles"},
			"ammonium lauryl sulfate": {"harsh_surfactant"},

			// Salt and sugar.
			"sodium chloride": {"high_salt"},
			"salt":            {"high_salt"},
			"sodium":          {"high_salt"},
			"sugar":           {"high_sugar"},
			"sucrose":         {"high_sugar"},
			"fructose":        {"high_sugar"},

			// Preservatives.
			"parabens":       {"preservative", "potential_irritant"},
			"methylparaben":  {"preservative", "potential_irritant"},
			"propylparaben":  {"preservative", "potential_irritant"},
			"formaldehyde":   {"preservative", "irritant"},
			"phenoxyethanol": {"preservative", "potential_irritant"},
			"preservatives":  {"preservative", "potential_irritant"},

			// Acids.
			"glycolic acid":  {"acid", "potential_irritant"},
			"salicylic acid": {"acid", "potential_irritant"},
			"lactic acid":    {"acid", "potential_irritant"},
			"citric acid":    {"acid"},

			// Flavor enhancers and sweeteners.
			"msg":                  {"flavor_enhancer", "potential_irritant"},
			"monosodium glutamate": {"flavor_enhancer", "msg"},
			"aspartame":            {"artificial_sweetener"},
			"saccharin":            {"artificial_sweetener"},

			// Household toxics.
			"bleach":              {"toxic", "bleach"},
			"chlorine":            {"toxic", "bleach"},
			"sodium hypochlorite": {"toxic", "bleach"},
			"ammonia":             {"toxic", "ammonia"},
			"triclosan":           {"toxic", "antibacterial"},
			"phosphates":          {"environmental", "phosphates"},

			// Beneficial ingredients carry benefit tags through the same table.
			"glycerin":        {"hydrating", "beneficial"},
			"glycerol":        {"hydrating", "beneficial"},
			"hyaluronic acid": {"hydrating", "beneficial"},
			"ceramides":       {"hydrating", "beneficial"},
			"squalane":        {"hydrating", "beneficial"},
			"panthenol":       {"hydrating", "beneficial"},
			"niacinamide":     {"nourishing", "beneficial"},
			"dimethicone":     {"silicone", "beneficial"},
			"amodimethicone":  {"silicone", "beneficial"},
			"cyclomethicone":  {"silicone", "beneficial"},
			"silicone":        {"silicone", "beneficial"},
			"keratin":         {"hair_protein", "beneficial"},
			"argan oil":       {"hydrating", "beneficial"},
			"coconut oil":     {"hydrating", "beneficial"},
			"fiber":           {"fiber", "healthy"},
			"protein":         {"protein", "healthy"},
			"vitamins":        {"vitamins", "healthy"},
			"omega-3":         {"omega3", "healthy"},
			"antioxidants":    {"antioxidants", "healthy"},
			"enzymes":         {"natural", "eco_friendly"},
			"vinegar":         {"natural", "eco_friendly"},
			"biodegradable":   {"eco_friendly", "biodegradable"},
			"plant-based":     {"eco_friendly", "natural"},
		},
		Synonyms: map[string]string{
			// INCI / regional variants resolved to canonical entries.
			"aqua":                   "water",
			"eau":                    "water",
			"whole milk powder":      "milk",
			"skimmed milk powder":    "milk",
			"milk powder":            "milk",
			"dairy derivatives":      "milk",
			"wheat flour":            "wheat",
			"soya":                   "soy",
			"soy lecithin":           "soy",
			"groundnut":              "peanut",
			"e102":                   "tartrazine",
			"alcohol denat.":         "alcohol denat",
			"sodium dodecyl sulfate": "sodium lauryl sulfate",
			"sodium hydroxymethylglycinate": "formaldehyde",
			"sodium glutamate":       "monosodium glutamate",
			"table salt":             "salt",
			"sea salt":               "salt",
			"cane sugar":             "sugar",
			"glucose syrup":          "sugar",
			"vegetable glycerin":     "glycerin",
			"sodium hyaluronate":     "hyaluronic acid",
			"provitamin b5":          "panthenol",
			"hypochlorite":           "sodium hypochlorite",
		},
	}
}

// Load reads a dictionary from a JSON file. Used to override the built-in
// tables via configuration; the format mirrors the Dictionary struct.
func Load(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading risk dictionary: %w", err)
	}
	var d Dictionary
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing risk dictionary %s: %w", path, err)
	}
	if len(d.Exact) == 0 {
		return nil, fmt.Errorf("risk dictionary %s has no exact entries", path)
	}
	return &d, nil
}
