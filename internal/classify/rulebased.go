package classify

import "context"

// scoreRule is a weighted range check: the score is added when value falls
// within [min, max].
type scoreRule struct {
	min, max float64
	weight   float64
}

func (r scoreRule) score(value float64) float64 {
	if value >= r.min && value <= r.max {
		return r.weight
	}
	return 0
}

// classRules is the set of range/velocity gates for one object class. The
// vendor rule set also scores signal strength, but the pipeline's
// Classifier interface only carries (range, velocity, azimuth), so that
// term is dropped here; the remaining weights are used as-is, which only
// lowers the achievable score ceiling, not the relative ranking.
type classRules struct {
	rangeM scoreRule
	velMS  scoreRule
}

// RuleBased is an in-process fallback classifier using the fixed scoring
// rules the radar vendor ships by default, for use without a remote model
// or in tests.
type RuleBased struct {
	rules map[Label]classRules
}

// NewRuleBased returns a RuleBased classifier with the documented default
// rule set.
func NewRuleBased() *RuleBased {
	return &RuleBased{
		rules: map[Label]classRules{
			LabelPerson: {
				rangeM: scoreRule{min: 1, max: 100, weight: 0.4},
				velMS:  scoreRule{min: 0.5, max: 2.5, weight: 0.3},
			},
			LabelVehicle: {
				rangeM: scoreRule{min: 5, max: 150, weight: 0.4},
				velMS:  scoreRule{min: 2, max: 40, weight: 0.3},
			},
		},
	}
}

// confidenceFloor is the minimum score required to accept a class instead
// of defaulting to LabelOthers.
const confidenceFloor = 0.5

// Classify scores rangeM and velocityMS against each class's rules and
// returns the best-scoring label, or LabelOthers if no class clears
// confidenceFloor. azimuthDeg is accepted for interface symmetry with
// RemoteGateway but the vendor rules don't use it.
func (c *RuleBased) Classify(_ context.Context, rangeM, velocityMS, _ float64) (Label, error) {
	bestLabel := LabelOthers
	bestScore := 0.0
	for label, rule := range c.rules {
		score := rule.rangeM.score(rangeM) + rule.velMS.score(velocityMS)
		if score > bestScore {
			bestScore = score
			bestLabel = label
		}
	}

	if bestScore <= confidenceFloor {
		return LabelOthers, nil
	}
	return bestLabel, nil
}
