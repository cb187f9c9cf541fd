// Package selection implements the target selector: pluggable, weighted
// scoring rules over launcher-frame positions, aggregated to pick the
// best-scoring target, plus the robot-then-plate selection flow and
// beyblade-aware aim output.
package selection

import (
	"math"

	"github.com/asgard/heimdall/internal/frame"
	"github.com/asgard/heimdall/internal/spatial"
)

// Target is anything the selector can score: it need only expose a
// position in the launcher frame.
type Target interface {
	LauncherPosition() spatial.Position[frame.Launcher]
}

// Rule scores a target; ok is false if the rule considers the target
// invalid (dropped from consideration regardless of score).
type Rule interface {
	Score(t Target) (score float64, ok bool)
}

// WeightedRule pairs a Rule with its aggregation weight.
type WeightedRule struct {
	Rule   Rule
	Weight float64
}

// TurretDistance scores by distance from the launcher origin, normalized
// against MaxDistance; invalid beyond MaxDistance.
type TurretDistance struct {
	MaxDistance float64
}

func (r TurretDistance) Score(t Target) (float64, bool) {
	pos := t.LauncherPosition()
	distance := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)
	if distance > r.MaxDistance {
		return 0, false
	}
	return distance / r.MaxDistance * 100, true
}

// TurretRotationDifference scores by the angle between the launcher's
// boresight (+x) and the target, in degrees-like units scaled to 100 at
// 180 degrees off-axis.
type TurretRotationDifference struct{}

func (r TurretRotationDifference) Score(t Target) (float64, bool) {
	pos := t.LauncherPosition()
	norm := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)
	if norm == 0 {
		return 0, true
	}
	cosAngle := pos.X / norm
	cosAngle = math.Max(-1, math.Min(1, cosAngle))
	return math.Acos(cosAngle) * 100 / math.Pi, true
}

// Identity scores zero iff the target is the given reference, else one.
// Used to bias the selector toward holding a sticky target.
type Identity struct {
	Ref Target
}

func (r Identity) Score(t Target) (float64, bool) {
	if r.Ref != nil && t == r.Ref {
		return 0, true
	}
	return 1, true
}

// Selector picks the minimum-aggregate-score target among candidates.
type Selector struct {
	rules                []WeightedRule
	maxScoreThreshold    float64
	hasMaxScoreThreshold bool
}

// NewSelector constructs a Selector from weighted rules.
func NewSelector(rules []WeightedRule) *Selector {
	return &Selector{rules: rules}
}

// WithMaxScoreThreshold rejects every candidate whose aggregate score is
// at or above threshold.
func (s *Selector) WithMaxScoreThreshold(threshold float64) *Selector {
	s.maxScoreThreshold = threshold
	s.hasMaxScoreThreshold = true
	return s
}

// Select scores every candidate, drops any a rule marks invalid or whose
// aggregate score meets the configured threshold, and returns the
// minimum-scoring survivor.
func (s *Selector) Select(candidates []Target) (Target, bool) {
	var best Target
	bestScore := math.Inf(1)
	found := false

	for _, candidate := range candidates {
		total := 0.0
		valid := true
		for _, wr := range s.rules {
			score, ok := wr.Rule.Score(candidate)
			if !ok {
				valid = false
				break
			}
			total += wr.Weight * score
		}
		if !valid {
			continue
		}
		if s.hasMaxScoreThreshold && total >= s.maxScoreThreshold {
			continue
		}
		if total < bestScore {
			bestScore = total
			best = candidate
			found = true
		}
	}
	return best, found
}
