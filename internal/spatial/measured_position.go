package spatial

import "github.com/asgard/heimdall/internal/frame"

// MeasuredPosition pairs a Position with its LinearUncertainty, both in
// frame F.
type MeasuredPosition[F frame.Frame] struct {
	Position    Position[F]
	Uncertainty LinearUncertainty[F]
}
