package convert

import (
	"github.com/quakecat/css2quakeml/internal/css"
	"github.com/quakecat/css2quakeml/internal/quakeml"
	"github.com/quakecat/css2quakeml/internal/rid"
)

// mtModeByRStatus translates the legacy review-status code of the mt table
// into a QuakeML evaluation mode. "reviewed" collapses into "manual" because
// mode and status are separate axes in the target schema.
var mtModeByRStatus = map[string]string{
	"automatic": "automatic",
	"manual":    "manual",
	"reviewed":  "manual",
}

// nodalPlanes maps the str/dip/rake column pairs shared by the fplane and
// mt tables. Plane 1 is marked preferred by convention.
func nodalPlanes(rec css.Record) *quakeml.NodalPlanes {
	return &quakeml.NodalPlanes{
		PreferredPlane: 1,
		NodalPlane1: &quakeml.NodalPlane{
			Strike: quakeml.Real(optFloat(rec, "str1"), nil),
			Dip:    quakeml.Real(optFloat(rec, "dip1"), nil),
			Rake:   quakeml.Real(optFloat(rec, "rake1"), nil),
		},
		NodalPlane2: &quakeml.NodalPlane{
			Strike: quakeml.Real(optFloat(rec, "str2"), nil),
			Dip:    quakeml.Real(optFloat(rec, "dip2"), nil),
			Rake:   quakeml.Real(optFloat(rec, "rake2"), nil),
		},
	}
}

// principalAxis maps one azimuth/plunge column pair with an explicit length.
func principalAxis(rec css.Record, azField, plField string, length *float64) *quakeml.Axis {
	return &quakeml.Axis{
		Azimuth: quakeml.Real(optFloat(rec, azField), nil),
		Plunge:  quakeml.Real(optFloat(rec, plField), nil),
		Length:  quakeml.Real(length, nil),
	}
}

// FocalMechFromFplane maps a first-motion fplane row to a FocalMechanism.
// First-motion solutions carry no eigenvalues, so axis lengths are zero.
func (c *Converter) FocalMechFromFplane(rec css.Record) quakeml.FocalMechanism {
	originKey := tableKey(rec, "origin", "orid")
	fplaneKey := tableKey(rec, "fplane", "mechid")

	author := stringField(rec, "algorithm") + ":" + stringField(rec, "auth")
	mode, status := c.evaluation(stringField(rec, "auth"))

	zero := 0.0
	return quakeml.FocalMechanism{
		PublicID:           c.rid.URI(fplaneKey),
		TriggeringOriginID: c.rid.URI(originKey),
		NodalPlanes:        nodalPlanes(rec),
		PrincipalAxes: &quakeml.PrincipalAxes{
			TAxis: principalAxis(rec, "taxazm", "taxplg", &zero),
			PAxis: principalAxis(rec, "paxazm", "paxplg", &zero),
		},
		CreationInfo: &quakeml.CreationInfo{
			CreationTime: isoTime(css.Float(rec, "lddate")),
			AgencyID:     c.agency,
			Author:       author,
			Version:      versionOf(rec, "mechid"),
		},
		EvaluationMode:   mode,
		EvaluationStatus: status,
	}
}

// FocalMechFromMT maps an mt table row to a FocalMechanism with a nested
// MomentTensor. The tensor's publicID is a fragment of the mechanism's so
// the pair stays addressable as one solution.
//
// The mt table is a denormalized subset of a full moment tensor solution;
// derived origin parameters on the row are ignored in favor of the orid
// reference, and the moment magnitude is expected in netmag.
func (c *Converter) FocalMechFromMT(rec css.Record) quakeml.FocalMechanism {
	originKey := tableKey(rec, "origin", "orid")
	mtKey := tableKey(rec, "mt", "mtid")

	creation := quakeml.CreationInfo{
		CreationTime: isoTime(css.Float(rec, "lddate")),
		AgencyID:     c.agency,
		Author:       stringField(rec, "auth"),
		Version:      versionOf(rec, "mtid"),
	}
	tensorCreation := creation

	tensor := &quakeml.MomentTensor{
		PublicID:        c.rid.URI(mtKey, rid.WithLocalID("tensor")),
		DerivedOriginID: c.rid.URI(originKey),
		ScalarMoment:    quakeml.Real(optFloat(rec, "scm"), nil),
		DoubleCouple:    optFloat(rec, "pdc"),
		Tensor: &quakeml.Tensor{
			Mrr: quakeml.Real(optFloat(rec, "tmrr"), nil),
			Mtt: quakeml.Real(optFloat(rec, "tmtt"), nil),
			Mpp: quakeml.Real(optFloat(rec, "tmpp"), nil),
			Mrt: quakeml.Real(optFloat(rec, "tmrt"), nil),
			Mrp: quakeml.Real(optFloat(rec, "tmrp"), nil),
			Mtp: quakeml.Real(optFloat(rec, "tmtp"), nil),
		},
		CreationInfo: &tensorCreation,
	}

	return quakeml.FocalMechanism{
		PublicID:           c.rid.URI(mtKey, rid.WithLocalID("focalmech")),
		TriggeringOriginID: c.rid.URI(originKey),
		NodalPlanes:        nodalPlanes(rec),
		PrincipalAxes: &quakeml.PrincipalAxes{
			TAxis: principalAxis(rec, "taxazm", "taxplg", optFloat(rec, "taxlength")),
			PAxis: principalAxis(rec, "paxazm", "paxplg", optFloat(rec, "paxlength")),
			NAxis: principalAxis(rec, "naxazm", "naxplg", optFloat(rec, "naxlength")),
		},
		MomentTensor:     tensor,
		CreationInfo:     &creation,
		EvaluationMode:   mtModeByRStatus[stringField(rec, "rstatus")],
		EvaluationStatus: stringField(rec, "estatus"),
	}
}

// FocalMechFromMoment would map the denormalized moment table; no source
// system populates it, so the path is reserved.
func (c *Converter) FocalMechFromMoment(rec css.Record) (quakeml.FocalMechanism, error) {
	return quakeml.FocalMechanism{}, ErrNotImplemented
}

// FocalMechs converts mechanism rows according to the source table schema,
// "fplane" for first motions or "mt" for moment tensors.
func (c *Converter) FocalMechs(recs []css.Record, schema string) ([]quakeml.FocalMechanism, error) {
	mechs := make([]quakeml.FocalMechanism, 0, len(recs))
	switch schema {
	case "fplane":
		for _, rec := range recs {
			mechs = append(mechs, c.FocalMechFromFplane(rec))
		}
	case "mt":
		for _, rec := range recs {
			mechs = append(mechs, c.FocalMechFromMT(rec))
		}
	case "moment":
		return nil, ErrNotImplemented
	default:
		return nil, ErrInvalidArgument
	}
	return mechs, nil
}
