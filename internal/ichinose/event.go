package ichinose

import (
	"fmt"
	"io"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/quakecat/css2quakeml/internal/quakeml"
	"github.com/quakecat/css2quakeml/internal/rid"
)

// clock stamps reports lacking a Date line; tests freeze it via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source for the package. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Converter builds QuakeML events from parsed inversion reports.
type Converter struct {
	agency string
	rid    *rid.Generator
}

// NewConverter returns a Converter generating identifiers under gen.
func NewConverter(agency string, gen *rid.Generator) *Converter {
	if gen == nil {
		gen = rid.New(rid.SchemaQuakeML, rid.DefaultAuthority)
	}
	return &Converter{agency: agency, rid: gen}
}

// Event assembles one QuakeML Event from a report: a derived origin, an Mwr
// magnitude and a focal mechanism wrapping the moment tensor, all keyed by
// one report identifier with entity fragments so the solution versions
// together. The derived origin is the inversion's own, distinct from the
// triggering origin referenced through the report's orid.
func (c *Converter) Event(rep *Report, anss bool) quakeml.Event {
	created := rep.CreationTime
	if created.IsZero() {
		created = clock.Now().UTC()
	}
	vers := fmt.Sprintf("%d-%d-%d", rep.EVID, rep.ORID, created.Unix())
	reportKey := "ichinose/" + vers
	createdStr := isoFromTime(created)

	origin := c.origin(rep, reportKey, createdStr)
	magnitude := c.magnitude(rep, reportKey, vers, createdStr)
	mech := c.focalMechanism(rep, reportKey, vers, createdStr, origin.PublicID, magnitude.PublicID)

	ev := quakeml.Event{
		PublicID:                  c.rid.URI(fmt.Sprintf("event/%d", rep.EVID)),
		Origins:                   []quakeml.Origin{origin},
		Magnitudes:                []quakeml.Magnitude{magnitude},
		FocalMechanisms:           []quakeml.FocalMechanism{mech},
		PreferredMagnitudeID:      magnitude.PublicID,
		PreferredFocalMechanismID: mech.PublicID,
		CreationInfo: &quakeml.CreationInfo{
			CreationTime: createdStr,
			Version:      fmt.Sprintf("%d", rep.EVID),
		},
	}
	if anss {
		ev.ApplyANSS(quakeml.NewANSSParams(c.agency, rep.EVID))
	}
	return ev
}

func (c *Converter) origin(rep *Report, reportKey, created string) quakeml.Origin {
	o := quakeml.Origin{
		PublicID:         c.rid.URI(reportKey, rid.WithLocalID("origin")),
		DepthType:        "from moment tensor inversion",
		EvaluationMode:   rep.Mode,
		EvaluationStatus: rep.Status,
		CreationInfo: &quakeml.CreationInfo{
			CreationTime: created,
			Version:      fmt.Sprintf("%d", rep.ORID),
		},
	}
	if rep.Hypo != nil {
		o.Latitude = &quakeml.RealQuantity{Value: rep.Hypo.Lat}
		o.Longitude = &quakeml.RealQuantity{Value: rep.Hypo.Lon}
		o.Time = &quakeml.TimeQuantity{Value: isoFromTime(rep.Hypo.Time)}
	}
	if rep.DerivedDepthKm != nil {
		o.Depth = &quakeml.RealQuantity{Value: *rep.DerivedDepthKm * 1000}
	}
	return o
}

func (c *Converter) magnitude(rep *Report, reportKey, vers, created string) quakeml.Magnitude {
	return quakeml.Magnitude{
		PublicID:         c.rid.URI(reportKey, rid.WithLocalID("mag")),
		Mag:              quakeml.Real(rep.Mag, nil),
		Type:             rep.MagType,
		EvaluationMode:   rep.Mode,
		EvaluationStatus: rep.Status,
		CreationInfo: &quakeml.CreationInfo{
			CreationTime: created,
			Version:      vers,
		},
	}
}

func (c *Converter) focalMechanism(rep *Report, reportKey, vers, created, originID, magID string) quakeml.FocalMechanism {
	tensor := &quakeml.MomentTensor{
		PublicID:          c.rid.URI(reportKey, rid.WithLocalID("mt")),
		DerivedOriginID:   originID,
		MomentMagnitudeID: magID,
		ScalarMoment:      quakeml.Real(rep.ScalarMoment, nil),
		DoubleCouple:      rep.DoubleCouple,
		CLVD:              rep.CLVD,
		Variance:          rep.Variance,
		VarianceReduction: rep.VarianceReduction,
		Tensor:            tensorOf(rep.Tensor),
		Category:          "regional",
		DataUsed: &quakeml.DataUsed{
			WaveType:     "combined",
			StationCount: rep.StationCount,
		},
		CreationInfo: &quakeml.CreationInfo{
			CreationTime: created,
			Version:      vers,
		},
	}

	return quakeml.FocalMechanism{
		PublicID:           c.rid.URI(reportKey, rid.WithLocalID("focalmech")),
		TriggeringOriginID: c.rid.URI(fmt.Sprintf("origin/%d", rep.ORID)),
		NodalPlanes:        planesOf(rep.Planes),
		PrincipalAxes:      axesOf(rep.Axes),
		MomentTensor:       tensor,
		CreationInfo: &quakeml.CreationInfo{
			CreationTime: created,
			Version:      vers,
		},
		EvaluationMode:   rep.Mode,
		EvaluationStatus: rep.Status,
	}
}

func planesOf(planes []Plane) *quakeml.NodalPlanes {
	if len(planes) < 2 {
		return nil
	}
	return &quakeml.NodalPlanes{
		PreferredPlane: 1,
		NodalPlane1:    planeOf(planes[0]),
		NodalPlane2:    planeOf(planes[1]),
	}
}

func planeOf(p Plane) *quakeml.NodalPlane {
	return &quakeml.NodalPlane{
		Strike: &quakeml.RealQuantity{Value: p.Strike},
		Dip:    &quakeml.RealQuantity{Value: p.Dip},
		Rake:   &quakeml.RealQuantity{Value: p.Rake},
	}
}

func tensorOf(m map[string]float64) *quakeml.Tensor {
	if m == nil {
		return nil
	}
	comp := func(name string) *quakeml.RealQuantity {
		if v, ok := m[name]; ok {
			return &quakeml.RealQuantity{Value: v}
		}
		return nil
	}
	return &quakeml.Tensor{
		Mrr: comp("Mrr"), Mtt: comp("Mtt"), Mpp: comp("Mpp"),
		Mrt: comp("Mrt"), Mrp: comp("Mrp"), Mtp: comp("Mtp"),
	}
}

func axesOf(axes map[string]Axis) *quakeml.PrincipalAxes {
	if axes == nil {
		return nil
	}
	axisOf := func(name string) *quakeml.Axis {
		a, ok := axes[name]
		if !ok {
			return nil
		}
		return &quakeml.Axis{
			Azimuth: &quakeml.RealQuantity{Value: a.Azimuth},
			Plunge:  &quakeml.RealQuantity{Value: a.Plunge},
			Length:  &quakeml.RealQuantity{Value: a.Length},
		}
	}
	return &quakeml.PrincipalAxes{
		TAxis: axisOf("T"),
		PAxis: axisOf("P"),
		NAxis: axisOf("N"),
	}
}

// Convert parses a report from r and returns its QuakeML event.
func Convert(r io.Reader, c *Converter, anss bool) (quakeml.Event, error) {
	rep, err := Parse(r)
	if err != nil {
		return quakeml.Event{}, err
	}
	return c.Event(rep, anss), nil
}

func isoFromTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000") + "Z"
}
