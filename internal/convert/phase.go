package convert

import (
	"fmt"
	"strings"

	"github.com/quakecat/css2quakeml/internal/css"
	"github.com/quakecat/css2quakeml/internal/quakeml"
	"github.com/quakecat/css2quakeml/internal/rid"
)

// associationSystem is the real-time phase associator. A pick not posted by
// it was touched by an analyst and counts as manual.
const associationSystem = "orbassoc"

// Pick maps an arrival row (optionally joined with snetsta and schanloc) to
// a QuakeML Pick.
//
// The evaluation rule is specific to picks and inverted relative to the
// general classifier: picks are automatic only when the author names the
// association system, because anything else implies analyst review.
func (c *Converter) Pick(rec css.Record) quakeml.Pick {
	sta := stringField(rec, "sta")
	channel := stringField(rec, "chan")
	arrivalTime, _ := css.Float(rec, "time")
	pickKey := tableKey(rec, "arrival", "arid")

	var onset string
	switch qual := strings.ToLower(stringField(rec, "qual")); {
	case strings.Contains(qual, "i"):
		onset = "impulsive"
	case strings.Contains(qual, "e"):
		onset = "emergent"
	case strings.Contains(qual, "w"):
		onset = "questionable"
	}

	var polarity string
	switch fm := strings.ToLower(stringField(rec, "fm")); {
	case strings.ContainsAny(fm, "cu"):
		polarity = "positive"
	case strings.ContainsAny(fm, "dr"):
		polarity = "negative"
	case strings.Contains(fm, "."):
		polarity = "undecidable"
	}

	mode, status := "automatic", "preliminary"
	if !strings.Contains(stringField(rec, "auth"), associationSystem) {
		mode, status = "manual", "reviewed"
	}

	// The arrival.lddate column survives the assoc join under its table
	// prefix; unjoined rows carry the plain name.
	lddate, ok := css.Float(rec, "arrival.lddate")
	if !ok {
		lddate, ok = css.Float(rec, "lddate")
	}

	return quakeml.Pick{
		PublicID: c.rid.URI(pickKey),
		Time:     quakeml.Time(isoTime(css.Float(rec, "time")), optFloat(rec, "deltim")),
		WaveformID: c.waveformID(rec, sta, channel,
			c.rid.URI(waveformKey(sta, channel, arrivalTime), rid.WithSchema(rid.DefaultSchema))),
		PhaseHint:          stringField(rec, "iphase"),
		Polarity:           polarity,
		Onset:              onset,
		Backazimuth:        quakeml.Real(optFloat(rec, "azimuth"), optFloat(rec, "delaz")),
		HorizontalSlowness: quakeml.Real(optFloat(rec, "slow"), optFloat(rec, "delslo")),
		CreationInfo: &quakeml.CreationInfo{
			CreationTime: isoTime(lddate, ok),
			AgencyID:     c.agency,
			Author:       stringField(rec, "auth"),
			Version:      versionOf(rec, "arid"),
		},
		EvaluationMode:   mode,
		EvaluationStatus: status,
	}
}

// Arrival maps an assoc row to a QuakeML Arrival. The identifier compounds
// orid and arid because one pick can be associated to several origins.
func (c *Converter) Arrival(rec css.Record) quakeml.Arrival {
	pickKey := tableKey(rec, "arrival", "arid")
	assocKey := fmt.Sprintf("assoc/%s-%s", rawKey(rec, "orid"), rawKey(rec, "arid"))

	vmodel := stringField(rec, "vmodel")
	var earthModelID string
	if vmodel != "" {
		earthModelID = c.rid.URI("vmodel/"+vmodel, rid.WithSchema(rid.DefaultSchema))
	}

	weight := optFloat(rec, "wgt")
	if weight == nil {
		if w, ok := timedefWeight[stringField(rec, "timedef")]; ok {
			weight = ptr(w)
		}
	}

	return quakeml.Arrival{
		PublicID:     c.rid.URI(assocKey),
		PickID:       c.rid.URI(pickKey),
		Phase:        stringField(rec, "phase"),
		Azimuth:      optFloat(rec, "esaz"),
		Distance:     optFloat(rec, "delta"),
		TimeResidual: optFloat(rec, "timeres"),
		TimeWeight:   weight,
		EarthModelID: earthModelID,
		CreationInfo: &quakeml.CreationInfo{
			CreationTime: isoTime(css.Float(rec, "lddate")),
			AgencyID:     c.agency,
			Version:      versionOf(rec, "arid"),
		},
	}
}

// Phase converts one assoc-arrival joined row into its pick and arrival.
func (c *Converter) Phase(rec css.Record) (quakeml.Pick, quakeml.Arrival) {
	return c.Pick(rec), c.Arrival(rec)
}

// Phases converts joined phase rows into parallel pick and arrival slices.
func (c *Converter) Phases(recs []css.Record) ([]quakeml.Pick, []quakeml.Arrival) {
	picks := make([]quakeml.Pick, 0, len(recs))
	arrivals := make([]quakeml.Arrival, 0, len(recs))
	for _, rec := range recs {
		p, a := c.Phase(rec)
		picks = append(picks, p)
		arrivals = append(arrivals, a)
	}
	return picks, arrivals
}
