// Package scoring derives the 0–100 overall compatibility score from four
// weighted sub-ratings. Pure arithmetic, no side effects.
package scoring

import (
	"math"

	svcErr "github.com/harmonia-app/matchcore/internal/errors"
)

const (
	// SubScoreMax bounds each raw sub-rating.
	SubScoreMax = 10

	// WeightEpsilon is the tolerance for the weight-sum check. Weight
	// vectors come from an external personalization collaborator and are
	// validated only for shape here.
	WeightEpsilon = 1e-6
)

// Compute returns round(Σ(subscore_i × weight_i) × 10) clamped to [0,100].
//
// Fails with a validation error when a sub-score is outside [0,10], a
// weight is negative, or the weights do not sum to 1.0 within epsilon.
func Compute(scores [4]int, weights [4]float64) (int, error) {
	for i, s := range scores {
		if s < 0 || s > SubScoreMax {
			return 0, svcErr.Validation("sub-score %d out of range [0,%d]: %d", i, SubScoreMax, s)
		}
	}

	sum := 0.0
	for i, w := range weights {
		if w < 0 {
			return 0, svcErr.Validation("weight %d is negative: %v", i, w)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > WeightEpsilon {
		return 0, svcErr.Validation("weights must sum to 1.0, got %v", sum)
	}

	weighted := 0.0
	for i := range scores {
		weighted += float64(scores[i]) * weights[i]
	}

	overall := int(math.Round(weighted * 10))
	if overall < 0 {
		overall = 0
	}
	if overall > 100 {
		overall = 100
	}
	return overall, nil
}
