package convert

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/quakecat/css2quakeml/internal/css"
	"github.com/quakecat/css2quakeml/internal/quakeml"
	"github.com/quakecat/css2quakeml/internal/rid"
)

// originMagTypes are the magnitude columns embedded in an origin row, used
// as a fallback when the netmag table has no rows for the origin.
var originMagTypes = []string{"ml", "mb", "ms"}

// Options selects which entity classes ConvertEvent assembles. The zero
// value produces a bare event stub.
type Options struct {
	Origin           bool
	Magnitude        bool
	Pick             bool
	FocalMechanism   bool
	StationMagnitude bool
	// ANSS adds the catalog tagging attributes for federated feeds.
	ANSS bool
}

// Event maps an event table row to a QuakeML Event stub. An origin row works
// too: prefor falls back to orid, so a converter fed only origins still
// produces a referenced preferred origin.
func (c *Converter) Event(rec css.Record, anss bool) quakeml.Event {
	evid, hasEvid := css.Int(rec, "evid")
	eventKey := tableKey(rec, "event", "evid")

	lddate, ok := css.Float(rec, "lddate")
	created := isoTime(lddate, ok)
	if created == "" {
		created = isoFromTime(clock.Now())
	}

	ev := quakeml.Event{
		PublicID: c.rid.URI(eventKey),
		Type:     "not reported",
		CreationInfo: &quakeml.CreationInfo{
			CreationTime: created,
			AgencyID:     c.agency,
			Version:      versionOf(rec, "evid"),
		},
	}

	prefor, ok := css.Int(rec, "prefor")
	if !ok {
		prefor, ok = css.Int(rec, "orid")
	}
	if ok {
		ev.PreferredOriginID = c.rid.URI(fmt.Sprintf("origin/%d", prefor))
	}

	if anss && hasEvid {
		ev.ApplyANSS(quakeml.NewANSSParams(c.agency, evid))
	}
	return ev
}

// DeletedEvent returns an event stub typed "not existing", used to announce
// removal of an event that no longer resolves in the source database.
func (c *Converter) DeletedEvent(evid int64, anss bool) quakeml.Event {
	ev := c.Event(css.MapRecord{"evid": evid}, anss)
	ev.Type = "not existing"
	return ev
}

// ConvertEvent assembles one QuakeML Event from a bundle of CSS rows.
//
// Each requested entity class converts independently; within a class,
// per-field problems degrade to absent fields. Two second passes run after
// the per-row mappers: arrivals merge into the first origin and refresh its
// quality block, and station magnitude contributions attach to the network
// magnitudes whose magid they share. Preferred IDs and the nearest-place
// description are best effort and never fail the conversion.
func (c *Converter) ConvertEvent(ctx context.Context, bundle css.EventBundle, opts Options) (quakeml.Event, error) {
	eventRec, ok := eventRecord(bundle)
	if !ok {
		return quakeml.Event{}, fmt.Errorf("%w: bundle names neither evid nor orid", ErrInvalidArgument)
	}

	ev := c.Event(eventRec, opts.ANSS)

	originRecs := css.Records(bundle.Origins)
	if opts.Origin {
		if len(originRecs) == 0 {
			return quakeml.Event{}, fmt.Errorf("%w: no origins in bundle", ErrNotFound)
		}
		ev.Origins = c.Origins(originRecs)
		ev.Type = c.OriginEventType(ev.Origins[0])
	}

	if opts.Magnitude {
		ev.Magnitudes = c.magnitudes(bundle, originRecs)
	}

	if opts.Pick && len(bundle.Phases) > 0 {
		picks, arrivals := c.Phases(css.Records(bundle.Phases))
		ev.Picks = picks
		if opts.Origin && len(ev.Origins) > 0 {
			ev.Origins[0].Arrivals = arrivals
			for i := range ev.Origins {
				if q := quakeml.QualityFromArrivals(ev.Origins[i].Arrivals); q != nil {
					ev.Origins[i].Quality = quakeml.MergeQuality(ev.Origins[i].Quality, q)
				}
			}
		}
	}

	if opts.FocalMechanism {
		mechs, err := c.FocalMechs(css.Records(bundle.MomentTensors), "mt")
		if err != nil {
			return quakeml.Event{}, err
		}
		fms, err := c.FocalMechs(css.Records(bundle.FirstMotions), "fplane")
		if err != nil {
			return quakeml.Event{}, err
		}
		ev.FocalMechanisms = append(mechs, fms...)
	}

	if opts.StationMagnitude && len(bundle.StaMags) > 0 {
		stamags, contribs := c.StationMagnitudes(css.Records(bundle.StaMags))
		ev.StationMagnitudes = stamags
		if opts.Magnitude {
			linkContributions(ev.Magnitudes, contribs)
		}
	}

	c.setPreferred(&ev)
	c.describePlace(ctx, &ev)
	return ev, nil
}

// eventRecord picks the row the event stub builds from. A bundle with no
// event table row still converts: the first origin row stands in, its evid
// or orid keying the stub and its orid becoming the preferred origin.
func eventRecord(bundle css.EventBundle) (css.Record, bool) {
	if rec := css.Record(bundle.Event); hasEventKey(rec) {
		return rec, true
	}
	if len(bundle.Origins) > 0 {
		if rec := css.Record(bundle.Origins[0]); hasEventKey(rec) {
			return rec, true
		}
	}
	return nil, false
}

func hasEventKey(rec css.Record) bool {
	if _, ok := css.Int(rec, "evid"); ok {
		return true
	}
	_, ok := css.Int(rec, "orid")
	return ok
}

// magnitudes converts netmag rows, falling back to the magnitude columns of
// the first origin row when the netmag table had nothing.
func (c *Converter) magnitudes(bundle css.EventBundle, originRecs []css.Record) []quakeml.Magnitude {
	if len(bundle.NetMags) > 0 {
		mags := make([]quakeml.Magnitude, 0, len(bundle.NetMags))
		for _, rec := range css.Records(bundle.NetMags) {
			mags = append(mags, c.NetworkMagnitude(rec))
		}
		return mags
	}
	if len(originRecs) == 0 {
		return nil
	}
	var mags []quakeml.Magnitude
	for _, mtype := range originMagTypes {
		if _, ok := css.Float(originRecs[0], mtype); ok {
			mags = append(mags, c.OriginMagnitude(originRecs[0], mtype))
		}
	}
	return mags
}

// linkContributions attaches station magnitude contributions to the network
// magnitudes sharing their magid. The stamag compound key ends in the magid,
// so correlation compares the last dash segment against the magnitude's own
// key. Quadratic but the row counts are tiny.
func linkContributions(mags []quakeml.Magnitude, contribs []quakeml.StationMagnitudeContribution) {
	for i := range mags {
		magid := rid.ExtractID(mags[i].PublicID)
		for _, smc := range contribs {
			key := rid.ExtractID(smc.StationMagnitudeID)
			if idx := strings.LastIndex(key, "-"); idx >= 0 && key[idx+1:] == magid {
				mags[i].Contributions = append(mags[i].Contributions, smc)
			}
		}
	}
}

// setPreferred fills the preferred origin, magnitude and focal mechanism
// identifiers. Converted slices arrive newest first, so the first entry is
// the default and the magnitude priority list scans a reversed copy.
func (c *Converter) setPreferred(ev *quakeml.Event) {
	if len(ev.Origins) > 0 {
		ev.PreferredOriginID = ev.Origins[0].PublicID
	}
	if len(ev.Magnitudes) > 0 {
		oldestFirst := make([]quakeml.Magnitude, len(ev.Magnitudes))
		for i, m := range ev.Magnitudes {
			oldestFirst[len(ev.Magnitudes)-1-i] = m
		}
		ev.PreferredMagnitudeID = quakeml.PreferredMagnitudeID(oldestFirst, c.prefMags)
	}
	if len(ev.FocalMechanisms) > 0 {
		ev.PreferredFocalMechanismID = ev.FocalMechanisms[0].PublicID
	}
}

// describePlace attaches a "nearest cities" description when a placer is
// configured and the first origin has coordinates. Lookup failures are
// logged and swallowed; the event ships without a description.
func (c *Converter) describePlace(ctx context.Context, ev *quakeml.Event) {
	if c.placer == nil || len(ev.Origins) == 0 {
		return
	}
	o := ev.Origins[0]
	if o.Latitude == nil || o.Longitude == nil {
		return
	}
	place, err := c.placer.NearestPlace(ctx, o.Longitude.Value, o.Latitude.Value)
	if err != nil {
		c.logger.Warn("nearest place lookup failed",
			"event", ev.PublicID, "error", err)
		return
	}
	ev.Description = &quakeml.EventDescription{Text: place, Type: "nearest cities"}
}

// EventParameters wraps events in a catalog container stamped with the
// current time. The microsecond timestamp keys the container's identifier
// and doubles as its version, so successive runs stay distinguishable.
func (c *Converter) EventParameters(events []quakeml.Event) quakeml.EventParameters {
	now := clock.Now().UTC()
	ustamp := now.UnixMicro()

	ep := quakeml.EventParameters{
		PublicID: c.rid.URI(fmt.Sprintf("catalog/%d", ustamp)),
		CreationInfo: &quakeml.CreationInfo{
			CreationTime: isoFromTime(now),
			AgencyID:     c.agency,
			Version:      strconv.FormatInt(ustamp, 10),
		},
		Events: events,
	}
	if c.doi != "" {
		ep.CreationInfo.AgencyURI = "smi:" + c.doi
	}
	return ep
}

// EventToRoot wraps a single event into a complete document. The event's
// own identifier is appended to the catalog publicID as a fragment, with
// slashes flattened so the fragment stays a single token.
func (c *Converter) EventToRoot(ev quakeml.Event) *quakeml.Document {
	eventID := ev.PublicID
	if idx := strings.Index(eventID, "/"); idx >= 0 {
		eventID = eventID[idx+1:]
	}
	eventID = strings.ReplaceAll(eventID, "/", "=")

	ep := c.EventParameters([]quakeml.Event{ev})
	ep.PublicID += "#" + eventID
	return quakeml.NewDocument(ep, false)
}
