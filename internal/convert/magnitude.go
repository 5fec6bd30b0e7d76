package convert

import (
	"fmt"
	"strings"

	"github.com/quakecat/css2quakeml/internal/css"
	"github.com/quakecat/css2quakeml/internal/quakeml"
	"github.com/quakecat/css2quakeml/internal/rid"
)

// originMagAutomaticPrefix marks origin-embedded magnitudes posted by the
// real-time association system. This check is deliberately narrower than the
// configurable classifier used for every other entity; the two policies
// diverge in the source schema and are kept separate.
const originMagAutomaticPrefix = "orb"

// NetworkMagnitude maps a netmag row to a QuakeML Magnitude.
func (c *Converter) NetworkMagnitude(rec css.Record) quakeml.Magnitude {
	author := stringField(rec, "auth")
	mode, status := c.evaluation(author)
	originKey := tableKey(rec, "origin", "orid")
	netmagKey := tableKey(rec, "netmag", "magid")

	return quakeml.Magnitude{
		PublicID:         c.rid.URI(netmagKey),
		Mag:              quakeml.Real(optFloat(rec, "magnitude"), optFloat(rec, "uncertainty")),
		Type:             stringField(rec, "magtype"),
		StationCount:     optCount(rec, "nsta"),
		OriginID:         c.rid.URI(originKey),
		EvaluationMode:   mode,
		EvaluationStatus: status,
		CreationInfo: &quakeml.CreationInfo{
			CreationTime: isoTime(css.Float(rec, "lddate")),
			AgencyID:     c.agency,
			Author:       author,
			Version:      versionOf(rec, "magid"),
		},
	}
}

// OriginMagnitude builds a Magnitude from a magnitude column embedded in an
// origin row (ml, mb, ms). Used as a fallback when no netmag rows exist.
//
// The publicID reuses the netmag foreign key (mlid, mbid, msid) when the
// origin row carries one, otherwise the origin identifier with the type code
// as a fragment. The status rule here is a fixed author-prefix check, not
// the configurable substring classifier.
func (c *Converter) OriginMagnitude(rec css.Record, mtype string) quakeml.Magnitude {
	author := stringField(rec, "auth")
	status := "reviewed"
	if strings.HasPrefix(author, originMagAutomaticPrefix) {
		status = "preliminary"
	}
	originKey := tableKey(rec, "origin", "orid")

	var publicID string
	if magid, ok := css.Int(rec, mtype+"id"); ok {
		publicID = c.rid.URI(fmt.Sprintf("netmag/%d", magid))
	} else {
		publicID = c.rid.URI(originKey, rid.WithLocalID(mtype))
	}

	return quakeml.Magnitude{
		PublicID:         publicID,
		Mag:              quakeml.Real(optFloat(rec, mtype), nil),
		Type:             mtype,
		OriginID:         c.rid.URI(originKey),
		EvaluationStatus: status,
		CreationInfo: &quakeml.CreationInfo{
			CreationTime: isoTime(css.Float(rec, "lddate")),
			AgencyID:     c.agency,
			Author:       author,
			Version:      versionOf(rec, "orid"),
		},
	}
}

// stamagKey builds the compound stamag resource id. The key spans station,
// magnitude type and the origin and magnitude rows because the stamag table
// has no single-column primary key.
func stamagKey(rec css.Record) string {
	return fmt.Sprintf("stamag/%s-%s-%s-%s",
		stringField(rec, "sta"),
		stringField(rec, "magtype"),
		rawKey(rec, "orid"),
		rawKey(rec, "magid"),
	)
}

// StationMagnitude maps a stamag row (optionally joined with arrival,
// snetsta and schanloc) to a QuakeML StationMagnitude.
func (c *Converter) StationMagnitude(rec css.Record) quakeml.StationMagnitude {
	return c.stationMagnitude(rec, stamagKey(rec))
}

func (c *Converter) stationMagnitude(rec css.Record, key string) quakeml.StationMagnitude {
	originKey := tableKey(rec, "origin", "orid")

	sta := stringField(rec, "sta")
	channel := stringField(rec, "chan")
	if channel == "" {
		channel = "AML"
	}
	arrivalTime, _ := css.Float(rec, "time")

	return quakeml.StationMagnitude{
		PublicID: c.rid.URI(key),
		Mag:      quakeml.Real(optFloat(rec, "magnitude"), optFloat(rec, "uncertainty")),
		Type:     stringField(rec, "magtype"),
		OriginID: c.rid.URI(originKey),
		WaveformID: c.waveformID(rec, sta, channel,
			c.rid.URI(waveformKey(sta, channel, arrivalTime), rid.WithSchema(rid.DefaultSchema))),
		CreationInfo: &quakeml.CreationInfo{
			CreationTime: isoTime(css.Float(rec, "lddate")),
			AgencyID:     c.agency,
			Author:       stringField(rec, "auth"),
			Version:      versionOf(rec, "magid"),
		},
	}
}

// StationMagnitudeContribution references a stamag row from a network
// magnitude. Residual and weight are not part of the CSS3.0 stamag table.
func (c *Converter) StationMagnitudeContribution(rec css.Record) quakeml.StationMagnitudeContribution {
	return quakeml.StationMagnitudeContribution{
		StationMagnitudeID: c.rid.URI(stamagKey(rec)),
	}
}

// StationMagnitudePair returns both entities derived from one stamag row.
// The compound key is computed once: a row missing orid or magid gets a
// random key part, and the contribution must still reference the same
// station magnitude identifier.
func (c *Converter) StationMagnitudePair(rec css.Record) (quakeml.StationMagnitude, quakeml.StationMagnitudeContribution) {
	key := stamagKey(rec)
	sm := c.stationMagnitude(rec, key)
	smc := quakeml.StationMagnitudeContribution{StationMagnitudeID: sm.PublicID}
	return sm, smc
}

// StationMagnitudes converts stamag rows into parallel station magnitude and
// contribution slices.
func (c *Converter) StationMagnitudes(recs []css.Record) ([]quakeml.StationMagnitude, []quakeml.StationMagnitudeContribution) {
	stamags := make([]quakeml.StationMagnitude, 0, len(recs))
	contribs := make([]quakeml.StationMagnitudeContribution, 0, len(recs))
	for _, rec := range recs {
		sm, smc := c.StationMagnitudePair(rec)
		stamags = append(stamags, sm)
		contribs = append(contribs, smc)
	}
	return stamags, contribs
}

// waveformID assembles a waveform reference, preferring SEED codes from the
// snetsta/schanloc join and falling back to the legacy station, channel and
// a network code derived from the agency.
func (c *Converter) waveformID(rec css.Record, sta, channel, uri string) *quakeml.WaveformID {
	station := stringField(rec, "fsta")
	if station == "" {
		station = sta
	}
	cha := stringField(rec, "fchan")
	if cha == "" {
		cha = channel
	}
	net := stringField(rec, "snet")
	if net == "" {
		net = c.defaultNet()
	}
	return &quakeml.WaveformID{
		NetworkCode:  net,
		StationCode:  station,
		ChannelCode:  cha,
		LocationCode: stringField(rec, "loc"),
		URI:          uri,
	}
}
