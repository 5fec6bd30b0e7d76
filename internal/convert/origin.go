package convert

import (
	"fmt"
	"strings"

	"github.com/quakecat/css2quakeml/internal/css"
	"github.com/quakecat/css2quakeml/internal/quakeml"
	"github.com/quakecat/css2quakeml/internal/rid"
)

// Origin maps a joined origin/origerr row to a QuakeML Origin.
//
// The horizontal error ellipse (smajax, sminax, strike in the origerr table)
// is projected onto north and east to derive per-coordinate uncertainties in
// degrees. The projection runs only when all three ellipse parameters are
// present and non-zero; a partial ellipse yields no uncertainty at all. The
// legacy etype flag survives as a comment tagged with an "#etype" fragment
// so the event type can be recovered from a converted origin.
func (c *Converter) Origin(rec css.Record) quakeml.Origin {
	etype := stringField(rec, "etype")
	author := stringField(rec, "auth")
	mode, status := c.evaluation(author)
	originKey := tableKey(rec, "origin", "orid")

	var latU, lonU *float64
	var uncertainty *quakeml.OriginUncertainty
	smajax, aok := css.Float(rec, "smajax")
	sminax, bok := css.Float(rec, "sminax")
	strike, sok := css.Float(rec, "strike")
	if aok && bok && sok && smajax != 0 && sminax != 0 && strike != 0 {
		a, b := kmToM(smajax), kmToM(sminax)
		n, e := ellipseNE(a, b, strike)
		lat, _ := css.Float(rec, "lat")
		latU = ptr(mToDegLat(n))
		lonU = ptr(mToDegLon(e, lat))

		uncertainty = &quakeml.OriginUncertainty{
			PreferredDescription:            "uncertainty ellipse",
			MaxHorizontalUncertainty:        a,
			MinHorizontalUncertainty:        b,
			AzimuthMaxHorizontalUncertainty: strike,
		}
		if conf, ok := css.Float(rec, "conf"); ok {
			uncertainty.ConfidenceLevel = ptr(conf * 100)
		}
	}

	var depth *quakeml.RealQuantity
	if v, ok := css.Float(rec, "depth"); ok {
		depth = &quakeml.RealQuantity{Value: kmToM(v)}
		if u, ok := css.Float(rec, "sdepth"); ok {
			depth.Uncertainty = ptr(kmToM(u))
		}
	}

	var quality *quakeml.OriginQuality
	stderr := optFloat(rec, "sdobs")
	ndef := optCount(rec, "ndef")
	nass := optCount(rec, "nass")
	if stderr != nil || ndef != nil || nass != nil {
		quality = &quakeml.OriginQuality{
			StandardError:        stderr,
			UsedPhaseCount:       ndef,
			AssociatedPhaseCount: nass,
		}
	}

	return quakeml.Origin{
		PublicID:          c.rid.URI(originKey),
		Latitude:          quakeml.Real(optFloat(rec, "lat"), latU),
		Longitude:         quakeml.Real(optFloat(rec, "lon"), lonU),
		Depth:             depth,
		Time:              quakeml.Time(isoTime(css.Float(rec, "time")), optFloat(rec, "stime")),
		Quality:           quality,
		OriginUncertainty: uncertainty,
		EvaluationMode:    mode,
		EvaluationStatus:  status,
		CreationInfo: &quakeml.CreationInfo{
			CreationTime: isoTime(css.Float(rec, "lddate")),
			AgencyID:     c.agency,
			Author:       author,
			Version:      versionOf(rec, "orid"),
		},
		Comments: []quakeml.Comment{
			{ID: c.rid.URI(originKey, rid.WithLocalID("etype")), Text: etype},
		},
	}
}

// Origins converts a slice of joined origin rows.
func (c *Converter) Origins(recs []css.Record) []quakeml.Origin {
	origins := make([]quakeml.Origin, 0, len(recs))
	for _, rec := range recs {
		origins = append(origins, c.Origin(rec))
	}
	return origins
}

// OriginEventType recovers the event type from a converted origin's etype
// comment, "not reported" when no comment carries one.
func (c *Converter) OriginEventType(o quakeml.Origin) string {
	for _, comment := range o.Comments {
		if strings.HasSuffix(comment.ID, "#etype") {
			return c.EventType(comment.Text)
		}
	}
	return c.EventType("")
}

// waveformKey builds the wfdisc resource id for a station/channel at an
// epoch time, with the microsecond time making the reference unique.
func waveformKey(sta, channel string, epoch float64) string {
	return fmt.Sprintf("wfdisc/%s-%s-%d", sta, channel, int64(epoch*1e6))
}
