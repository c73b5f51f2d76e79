package proximity

import "github.com/oshokin/wherering/internal/domain/place"

// DefaultHysteresis is the membership margin in meters used when a fix does
// not report its accuracy.
const DefaultHysteresis = 25.0

// Evaluator computes which places contain a fix.
type Evaluator struct {
	metric     place.Metric
	hysteresis float64
}

// NewEvaluator creates an evaluator. A nil metric selects place.Geodesic and
// a non-positive hysteresis selects DefaultHysteresis.
func NewEvaluator(metric place.Metric, hysteresis float64) *Evaluator {
	if metric == nil {
		metric = place.Geodesic{}
	}

	if !(hysteresis > 0) {
		hysteresis = DefaultHysteresis
	}

	return &Evaluator{
		metric:     metric,
		hysteresis: hysteresis,
	}
}

// Evaluate returns the places containing the fix, in catalog order.
// Places must already be validated against the evaluator metric; the engine
// filters its catalog snapshot once on load.
func (e *Evaluator) Evaluate(fix place.Fix, places []place.Place) []place.Place {
	var (
		point   = fix.Point()
		margin  = fix.Margin(e.hysteresis)
		members []place.Place
	)

	for i := range places {
		if places[i].Geometry.Contains(point, margin, e.metric) {
			members = append(members, places[i])
		}
	}

	return members
}
