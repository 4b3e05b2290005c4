package scoring

import (
	"fmt"
	"strings"

	"github.com/forme-app/forme/internal/profile"
)

// reactionPenalty is the extra Sensitivity penalty for an ingredient with a
// confirmed "always" negative-reaction history.
const reactionPenalty = 10

// ApplyRepeatedReactions biases a base ScoreResult with the user's
// repeated-negative-reaction history. For every reaction whose ingredient
// appears in the analyzed list (by name or risk-tag match) and whose
// frequency is "always", Sensitivity drops by a further 10 points and an
// issue is appended. Other frequencies ("sometimes", "often") are recorded
// history but deliberately do not move the score.
//
// The adjuster never lowers SafetyScore and never loosens or tightens
// FinalCap; only Sensitivity and the recombined ForMeScore change. It
// returns a new ScoreResult and must be applied exactly once per analysis:
// a second application would double-penalize.
func ApplyRepeatedReactions(p profile.Profile, res ScoreResult, ingredients []string, risks map[string][]string) ScoreResult {
	out := res
	out.SensitivityIssues = append([]string{}, res.SensitivityIssues...)
	out.SafetyIssues = append([]string{}, res.SafetyIssues...)

	for _, reaction := range p.RepeatedNegativeReactions {
		if reaction.Ingredient == "" {
			continue
		}
		// A reaction scoped to another domain does not transfer.
		if reaction.Domain != "" && reaction.Domain != string(res.Category) {
			continue
		}
		if strings.ToLower(strings.TrimSpace(reaction.Frequency)) != "always" {
			continue
		}

		name, ok := findReactionMatch(reaction.Ingredient, ingredients, risks)
		if !ok {
			continue
		}

		out.SensitivityScore = clamp(out.SensitivityScore - reactionPenalty)
		out.SensitivityIssues = append(out.SensitivityIssues,
			fmt.Sprintf("%s: you reported repeated negative reactions to %s", name, reaction.Ingredient))
	}

	out.ForMeScore = combine(out)
	return out
}

// findReactionMatch locates the first ingredient matching the reaction
// ingredient, by substring in either direction or by risk-tag overlap.
// First match in label order keeps issue ordering stable.
func findReactionMatch(target string, ingredients []string, risks map[string][]string) (string, bool) {
	for _, name := range ingredients {
		if strings.Contains(name, target) || strings.Contains(target, name) {
			return name, true
		}
		for _, tag := range risks[name] {
			if tag == target {
				return name, true
			}
		}
	}
	return "", false
}
