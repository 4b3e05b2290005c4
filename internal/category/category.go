// Package category decides whether a product is food, cosmetics, or
// household, and owns the per-category score weight triples.
package category

import "fmt"

// Category is the product domain a score is computed for. The set is closed:
// scoring dispatches over exactly these three values.
type Category string

const (
	Food      Category = "food"
	Cosmetics Category = "cosmetics"
	Household Category = "household"
)

// Confidence qualifies a classification result so callers can surface
// "low confidence" and ask the user to clarify.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// UnknownCategoryError is returned by ForceCategory when a caller passes an
// unrecognized category string. User-supplied hints never produce it; they
// fall through to automatic classification instead.
type UnknownCategoryError struct {
	Value string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q (valid: food, cosmetics, household)", e.Value)
}

// Weights is the (safety, sensitivity, match) triple used to combine the
// three component scores. Each triple sums to exactly 1.0.
type Weights struct {
	Safety      float64
	Sensitivity float64
	Match       float64
}

var weightTable = map[Category]Weights{
	Food:      {Safety: 0.5, Sensitivity: 0.3, Match: 0.2},
	Cosmetics: {Safety: 0.3, Sensitivity: 0.3, Match: 0.4},
	Household: {Safety: 0.4, Sensitivity: 0.3, Match: 0.3},
}

// WeightsFor returns the weight triple for a category.
func (c Category) Weights() Weights {
	return weightTable[c]
}

// StrictCap is the maximum FOR ME score once an explicit strict-avoid
// ingredient is present. Household is slightly less strict than food and
// cosmetics.
func (c Category) StrictCap() int {
	if c == Household {
		return 20
	}
	return 15
}

// TracesCap is the maximum FOR ME score when only traces of a strict-avoid
// ingredient are detected.
func (c Category) TracesCap() int { return 40 }

// ForceCategory parses a category string a caller insists on. Unlike hints,
// an unrecognized value here is programmer misuse and returns
// UnknownCategoryError.
func ForceCategory(s string) (Category, error) {
	c, ok := parse(s)
	if !ok {
		return "", &UnknownCategoryError{Value: s}
	}
	return c, nil
}
