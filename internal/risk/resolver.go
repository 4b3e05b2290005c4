// Package risk maps canonical ingredient names to risk tags using a static
// dictionary with synonym fallback.
package risk

import "strings"

// Resolver performs ingredient → risk-tag lookups against an immutable
// Dictionary. A single Resolver is shared across concurrent analyses.
type Resolver struct {
	dict *Dictionary
}

// NewResolver creates a Resolver over the given dictionary.
func NewResolver(dict *Dictionary) *Resolver {
	return &Resolver{dict: dict}
}

// Resolve maps each ingredient to its risk tags.
//
// Lookup order per ingredient:
//  1. exact match against the dictionary
//  2. longest matching alias from the synonym table contained in the
//     ingredient phrase (longest wins to avoid short-substring false
//     positives such as "sls" inside unrelated words)
//  3. longest dictionary key contained in the ingredient phrase
//
// Ingredients matching nothing are kept with an empty tag list; downstream
// match scoring needs to see them as neutral. The same ingredient always
// yields the same tags in the same order.
func (r *Resolver) Resolve(ingredients []string) map[string][]string {
	out := make(map[string][]string, len(ingredients))
	for _, ing := range ingredients {
		if _, done := out[ing]; done {
			continue
		}
		out[ing] = r.Lookup(ing)
	}
	return out
}

// Lookup resolves a single canonical ingredient to its tags. The returned
// slice is a copy; callers may not mutate dictionary state through it.
func (r *Resolver) Lookup(ingredient string) []string {
	key := strings.ToLower(strings.TrimSpace(ingredient))

	if tags, ok := r.dict.Exact[key]; ok {
		return copyTags(tags)
	}

	// Alias fallback: pick the longest alias contained in the phrase.
	if canonical := r.longestAlias(key); canonical != "" {
		if tags, ok := r.dict.Exact[canonical]; ok {
			return copyTags(tags)
		}
		return []string{}
	}

	// Last resort: longest dictionary key contained in the phrase. Handles
	// compound phrases like "may contain traces of hazelnut".
	if match := r.longestExactSubstring(key); match != "" {
		return copyTags(r.dict.Exact[match])
	}

	return []string{}
}

func (r *Resolver) longestAlias(phrase string) string {
	best := ""
	bestCanonical := ""
	for alias, canonical := range r.dict.Synonyms {
		if !strings.Contains(phrase, alias) {
			continue
		}
		// Ties broken lexicographically so resolution order never depends
		// on map iteration.
		if len(alias) > len(best) || (len(alias) == len(best) && alias < best) {
			best = alias
			bestCanonical = canonical
		}
	}
	return bestCanonical
}

func (r *Resolver) longestExactSubstring(phrase string) string {
	best := ""
	for key := range r.dict.Exact {
		// Require a meaningful key length; two-letter keys inside longer
		// phrases are almost always accidental.
		if len(key) < 3 || !strings.Contains(phrase, key) {
			continue
		}
		if len(key) > len(best) || (len(key) == len(best) && key < best) {
			best = key
		}
	}
	return best
}

func copyTags(tags []string) []string {
	cp := make([]string, len(tags))
	copy(cp, tags)
	return cp
}
