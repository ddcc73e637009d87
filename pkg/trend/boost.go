package trend

import (
	"math"
	"strings"

	"github.com/elonfeng/nicheradar/pkg/source"
)

// boostBase rebases term weights so 0.8 contributes nothing and 1.8 the full
// per-term budget.
const boostBase = 0.8

// Boost adds 100*personal*min(1, weight-0.8) to score for every boost term
// found in title, case-insensitively. Matches accumulate; terms with a
// non-finite weight are skipped. A nil or empty spec
// leaves score unchanged. The result is not clamped.
func Boost(score float64, title string, spec *source.BoostSpec, personal float64) float64 {
	if spec == nil || len(spec.Terms) == 0 {
		return score
	}

	lower := strings.ToLower(title)
	for _, bt := range spec.Terms {
		term := strings.ToLower(strings.TrimSpace(bt.Term))
		if math.IsNaN(bt.Weight) || math.IsInf(bt.Weight, 0) {
			continue
		}
		if term == "" || !strings.Contains(lower, term) {
			continue
		}
		score += 100 * personal * math.Min(1, bt.Weight-boostBase)
	}
	return score
}
