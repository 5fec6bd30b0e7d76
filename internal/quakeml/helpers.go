package quakeml

import (
	"fmt"
	"sort"
	"strings"
)

// PreferredMagnitudeID picks the publicID of the preferred magnitude given a
// priority list of type codes (matched case-insensitively).
//
// The slice is scanned in order and, per type, the last magnitude seen wins.
// Callers must therefore order the slice oldest-first (most recent last);
// with that ordering the result is the most recent magnitude of the highest
// priority type present. Returns "" when no listed type matches.
func PreferredMagnitudeID(mags []Magnitude, priority []string) string {
	byType := make(map[string]string, len(mags))
	for _, m := range mags {
		byType[strings.ToLower(m.Type)] = m.PublicID
	}
	for _, want := range priority {
		if id, ok := byType[strings.ToLower(want)]; ok {
			return id
		}
	}
	return ""
}

// ANSSParams are the catalog tagging attributes defined by the Advanced
// National Seismic System for federated event feeds.
type ANSSParams struct {
	EventID     string // zero-padded 8-digit event id
	DataID      string // lowercased agency + padded id
	EventSource string // lowercased agency code
	DataSource  string // lowercased agency code
}

// NewANSSParams formats catalog attributes for an agency code and event id.
func NewANSSParams(agencyID string, evid int64) ANSSParams {
	agid := strings.ToLower(agencyID)
	return ANSSParams{
		EventID:     fmt.Sprintf("%08d", evid),
		DataID:      fmt.Sprintf("%s%08d", agid, evid),
		EventSource: agid,
		DataSource:  agid,
	}
}

// ApplyANSS sets the catalog:* attributes on an event.
func (e *Event) ApplyANSS(p ANSSParams) {
	e.CatalogEventID = p.EventID
	e.CatalogDataID = p.DataID
	e.CatalogEventSource = p.EventSource
	e.CatalogDataSource = p.DataSource
}

// PickByID returns the pick with the given publicID, or nil.
func PickByID(picks []Pick, publicID string) *Pick {
	for i := range picks {
		if picks[i].PublicID == publicID {
			return &picks[i]
		}
	}
	return nil
}

// StationCount counts distinct net_sta stations among the picks referenced by
// the arrivals. With usedOnly, arrivals with a non-positive time weight are
// skipped.
func StationCount(arrivals []Arrival, picks []Pick, usedOnly bool) int {
	stations := make(map[string]struct{})
	for _, a := range arrivals {
		if a.PickID == "" {
			continue
		}
		if usedOnly && (a.TimeWeight == nil || *a.TimeWeight <= 0) {
			continue
		}
		p := PickByID(picks, a.PickID)
		if p == nil || p.WaveformID == nil {
			continue
		}
		stations[p.WaveformID.NetworkCode+"_"+p.WaveformID.StationCode] = struct{}{}
	}
	return len(stations)
}

// QualityFromArrivals derives station counts, distance extrema and the
// azimuthal gap from an origin's arrival list. Arrivals without both azimuth
// and distance are ignored; returns nil when none qualify.
func QualityFromArrivals(arrivals []Arrival) *OriginQuality {
	azimuths := make(map[float64]struct{})
	usedAzimuths := make(map[float64]struct{})
	var distances []float64
	for _, a := range arrivals {
		if a.Azimuth == nil || a.Distance == nil {
			continue
		}
		azimuths[*a.Azimuth] = struct{}{}
		if a.TimeWeight != nil && *a.TimeWeight > 0 {
			usedAzimuths[*a.Azimuth] = struct{}{}
		}
		distances = append(distances, *a.Distance)
	}
	if len(azimuths) == 0 {
		return nil
	}

	sorted := make([]float64, 0, len(azimuths))
	for az := range azimuths {
		sorted = append(sorted, az)
	}
	sort.Float64s(sorted)
	gap := sorted[0] + 360 - sorted[len(sorted)-1]
	for i := 1; i < len(sorted); i++ {
		if g := sorted[i] - sorted[i-1]; g > gap {
			gap = g
		}
	}

	minDist, maxDist := distances[0], distances[0]
	for _, d := range distances[1:] {
		if d < minDist {
			minDist = d
		}
		if d > maxDist {
			maxDist = d
		}
	}

	used := len(usedAzimuths)
	associated := len(azimuths)
	return &OriginQuality{
		UsedStationCount:       &used,
		AssociatedStationCount: &associated,
		MinimumDistance:        &minDist,
		MaximumDistance:        &maxDist,
		AzimuthalGap:           &gap,
	}
}

// MergeQuality copies the arrival-derived fields of src into dst, keeping
// dst's phase counts and standard error. A nil dst returns src unchanged.
func MergeQuality(dst, src *OriginQuality) *OriginQuality {
	if src == nil {
		return dst
	}
	if dst == nil {
		return src
	}
	dst.UsedStationCount = src.UsedStationCount
	dst.AssociatedStationCount = src.AssociatedStationCount
	dst.MinimumDistance = src.MinimumDistance
	dst.MaximumDistance = src.MaximumDistance
	dst.AzimuthalGap = src.AzimuthalGap
	return dst
}
