package xmlenc

import (
	"math"

	"github.com/quakecat/css2quakeml/internal/quakeml"
)

// Precision applied by Round, expressed as decimal places except for depth,
// which snaps to the nearest 100 meters.
const (
	depthStepM        = 100.0
	coordUncertaintyD = 4
	magnitudeD        = 1
	timeUncertaintyD  = 2
)

// Round trims floating-point precision on position, uncertainty and
// magnitude fields to what the target schema meaningfully resolves. The
// document is modified in place and returned for chaining.
func Round(doc *quakeml.Document) *quakeml.Document {
	for i := range doc.EventParameters.Events {
		roundEvent(&doc.EventParameters.Events[i])
	}
	return doc
}

func roundEvent(ev *quakeml.Event) {
	for i := range ev.Origins {
		roundOrigin(&ev.Origins[i])
	}
	for i := range ev.Magnitudes {
		roundReal(ev.Magnitudes[i].Mag, magnitudeD)
	}
	for i := range ev.StationMagnitudes {
		roundReal(ev.StationMagnitudes[i].Mag, magnitudeD)
	}
	for i := range ev.Picks {
		roundTimeUncertainty(ev.Picks[i].Time)
	}
}

func roundOrigin(o *quakeml.Origin) {
	if o.Depth != nil {
		o.Depth.Value = math.Round(o.Depth.Value/depthStepM) * depthStepM
		if o.Depth.Uncertainty != nil {
			*o.Depth.Uncertainty = math.Round(*o.Depth.Uncertainty/depthStepM) * depthStepM
		}
	}
	roundUncertainty(o.Latitude, coordUncertaintyD)
	roundUncertainty(o.Longitude, coordUncertaintyD)
	roundTimeUncertainty(o.Time)
}

// roundReal rounds a quantity's value in place, nil-safe.
func roundReal(q *quakeml.RealQuantity, places int) {
	if q == nil {
		return
	}
	q.Value = roundTo(q.Value, places)
}

// roundUncertainty rounds only the uncertainty of a quantity, keeping the
// measured value at full precision.
func roundUncertainty(q *quakeml.RealQuantity, places int) {
	if q == nil || q.Uncertainty == nil {
		return
	}
	*q.Uncertainty = roundTo(*q.Uncertainty, places)
}

func roundTimeUncertainty(q *quakeml.TimeQuantity) {
	if q == nil || q.Uncertainty == nil {
		return
	}
	*q.Uncertainty = roundTo(*q.Uncertainty, timeUncertaintyD)
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
