// Package quakeml models the QuakeML BED (Basic Event Description) schema.
//
// Entities are plain structs whose xml tags carry the attribute/element
// distinction of the wire format: publicIDs and ANSS catalog fields are
// attributes, everything else is a child element, and waveform resource URIs
// are element text. Optional fields are pointers with omitempty, so a field
// that was never computed simply does not appear in the serialized document.
// In particular a quantity whose value is unknown is represented by a nil
// pointer, never by a quantity with a zero value.
package quakeml

import "encoding/xml"

// XML namespaces declared on the document root.
const (
	NamespaceQuakeML = "http://quakeml.org/xmlns/quakeml/1.2" // xmlns:q
	NamespaceBED     = "http://quakeml.org/xmlns/bed/1.2"     // xmlns
	NamespaceBEDRT   = "http://quakeml.org/xmlns/bed-rt/1.2"  // xmlns (real-time profile)
	NamespaceCatalog = "http://anss.org/xmlns/catalog/0.1"    // xmlns:catalog
)

// RealQuantity is a measured floating-point value with optional uncertainty.
type RealQuantity struct {
	Value       float64  `xml:"value"`
	Uncertainty *float64 `xml:"uncertainty,omitempty"`
}

// TimeQuantity is a measured point in time. Value is an RFC3339 string with
// microsecond precision; Uncertainty is in seconds.
type TimeQuantity struct {
	Value       string   `xml:"value"`
	Uncertainty *float64 `xml:"uncertainty,omitempty"`
}

// Real builds a RealQuantity, returning nil when the value is absent so the
// field collapses out of the document instead of serializing a null.
func Real(value *float64, uncertainty *float64) *RealQuantity {
	if value == nil {
		return nil
	}
	return &RealQuantity{Value: *value, Uncertainty: uncertainty}
}

// Time builds a TimeQuantity, returning nil when the value string is empty.
func Time(value string, uncertainty *float64) *TimeQuantity {
	if value == "" {
		return nil
	}
	return &TimeQuantity{Value: value, Uncertainty: uncertainty}
}

// CreationInfo records provenance for a top-level entity. Version carries the
// stringified legacy primary key (orid, magid, arid, mechid...) of the source
// row, which makes repeated conversions of the same row traceable.
type CreationInfo struct {
	AgencyID     string `xml:"agencyID,omitempty"`
	AgencyURI    string `xml:"agencyURI,omitempty"`
	Author       string `xml:"author,omitempty"`
	CreationTime string `xml:"creationTime,omitempty"`
	Version      string `xml:"version,omitempty"`
}

// Comment is a free-text annotation. The converter stores the legacy CSS
// etype flag in a comment whose id carries an "#etype" fragment.
type Comment struct {
	ID   string `xml:"id,attr,omitempty"`
	Text string `xml:"text"`
}

// WaveformID identifies the recording channel a pick or station magnitude
// was measured on. The element text is a resource URI for the waveform.
type WaveformID struct {
	NetworkCode  string `xml:"networkCode,attr"`
	StationCode  string `xml:"stationCode,attr"`
	ChannelCode  string `xml:"channelCode,attr,omitempty"`
	LocationCode string `xml:"locationCode,attr"`
	URI          string `xml:",chardata"`
}

// OriginQuality summarizes the data that constrained an origin solution.
type OriginQuality struct {
	AssociatedPhaseCount   *int     `xml:"associatedPhaseCount,omitempty"`
	UsedPhaseCount         *int     `xml:"usedPhaseCount,omitempty"`
	AssociatedStationCount *int     `xml:"associatedStationCount,omitempty"`
	UsedStationCount       *int     `xml:"usedStationCount,omitempty"`
	StandardError          *float64 `xml:"standardError,omitempty"`
	AzimuthalGap           *float64 `xml:"azimuthalGap,omitempty"`
	MinimumDistance        *float64 `xml:"minimumDistance,omitempty"`
	MaximumDistance        *float64 `xml:"maximumDistance,omitempty"`
}

// OriginUncertainty describes the horizontal error ellipse, all lengths in
// meters and the azimuth in degrees from north.
type OriginUncertainty struct {
	PreferredDescription           string   `xml:"preferredDescription,omitempty"`
	MaxHorizontalUncertainty       float64  `xml:"maxHorizontalUncertainty"`
	MinHorizontalUncertainty       float64  `xml:"minHorizontalUncertainty"`
	AzimuthMaxHorizontalUncertainty float64 `xml:"azimuthMaxHorizontalUncertainty"`
	ConfidenceLevel                *float64 `xml:"confidenceLevel,omitempty"`
}

// Origin is one hypocenter solution.
type Origin struct {
	PublicID          string             `xml:"publicID,attr"`
	Latitude          *RealQuantity      `xml:"latitude,omitempty"`
	Longitude         *RealQuantity      `xml:"longitude,omitempty"`
	Depth             *RealQuantity      `xml:"depth,omitempty"` // meters
	Time              *TimeQuantity      `xml:"time,omitempty"`
	DepthType         string             `xml:"depthType,omitempty"`
	Quality           *OriginQuality     `xml:"quality,omitempty"`
	OriginUncertainty *OriginUncertainty `xml:"originUncertainty,omitempty"`
	EvaluationMode    string             `xml:"evaluationMode,omitempty"`
	EvaluationStatus  string             `xml:"evaluationStatus,omitempty"`
	CreationInfo      *CreationInfo      `xml:"creationInfo,omitempty"`
	Comments          []Comment          `xml:"comment,omitempty"`
	Arrivals          []Arrival          `xml:"arrival,omitempty"`
}

// StationMagnitudeContribution references one station magnitude that went
// into a network magnitude.
type StationMagnitudeContribution struct {
	StationMagnitudeID string `xml:"stationMagnitudeID"`
}

// Magnitude is a network magnitude estimate for one origin.
type Magnitude struct {
	PublicID         string                         `xml:"publicID,attr"`
	Mag              *RealQuantity                  `xml:"mag,omitempty"`
	Type             string                         `xml:"type,omitempty"`
	StationCount     *int                           `xml:"stationCount,omitempty"`
	OriginID         string                         `xml:"originID,omitempty"`
	EvaluationMode   string                         `xml:"evaluationMode,omitempty"`
	EvaluationStatus string                         `xml:"evaluationStatus,omitempty"`
	CreationInfo     *CreationInfo                  `xml:"creationInfo,omitempty"`
	Contributions    []StationMagnitudeContribution `xml:"stationMagnitudeContribution,omitempty"`
}

// StationMagnitude is a single station's magnitude estimate.
type StationMagnitude struct {
	PublicID     string        `xml:"publicID,attr"`
	Mag          *RealQuantity `xml:"mag,omitempty"`
	Type         string        `xml:"type,omitempty"`
	OriginID     string        `xml:"originID,omitempty"`
	WaveformID   *WaveformID   `xml:"waveformID,omitempty"`
	CreationInfo *CreationInfo `xml:"creationInfo,omitempty"`
}

// Pick is a measured phase arrival time on one channel.
type Pick struct {
	PublicID           string        `xml:"publicID,attr"`
	Time               *TimeQuantity `xml:"time,omitempty"`
	WaveformID         *WaveformID   `xml:"waveformID,omitempty"`
	PhaseHint          string        `xml:"phaseHint,omitempty"`
	Polarity           string        `xml:"polarity,omitempty"`
	Onset              string        `xml:"onset,omitempty"`
	Backazimuth        *RealQuantity `xml:"backazimuth,omitempty"`
	HorizontalSlowness *RealQuantity `xml:"horizontalSlowness,omitempty"`
	CreationInfo       *CreationInfo `xml:"creationInfo,omitempty"`
	EvaluationMode     string        `xml:"evaluationMode,omitempty"`
	EvaluationStatus   string        `xml:"evaluationStatus,omitempty"`
}

// Arrival associates a pick with an origin. One pick can be associated to
// several origins, each association scoped by (origin, arrival) keys.
type Arrival struct {
	PublicID     string        `xml:"publicID,attr"`
	PickID       string        `xml:"pickID,omitempty"`
	Phase        string        `xml:"phase,omitempty"`
	Azimuth      *float64      `xml:"azimuth,omitempty"`
	Distance     *float64      `xml:"distance,omitempty"` // degrees
	TimeResidual *float64      `xml:"timeResidual,omitempty"`
	TimeWeight   *float64      `xml:"timeWeight,omitempty"`
	EarthModelID string        `xml:"earthModelID,omitempty"`
	CreationInfo *CreationInfo `xml:"creationInfo,omitempty"`
}

// NodalPlane is one candidate fault plane orientation.
type NodalPlane struct {
	Strike *RealQuantity `xml:"strike,omitempty"`
	Dip    *RealQuantity `xml:"dip,omitempty"`
	Rake   *RealQuantity `xml:"rake,omitempty"`
}

// NodalPlanes holds both candidate planes and marks the preferred one.
type NodalPlanes struct {
	PreferredPlane int         `xml:"preferredPlane,attr,omitempty"`
	NodalPlane1    *NodalPlane `xml:"nodalPlane1,omitempty"`
	NodalPlane2    *NodalPlane `xml:"nodalPlane2,omitempty"`
}

// Axis is one principal axis (azimuth/plunge in degrees, length an
// eigenvalue in N-m for tensor-derived solutions, zero for first motions).
type Axis struct {
	Azimuth *RealQuantity `xml:"azimuth,omitempty"`
	Plunge  *RealQuantity `xml:"plunge,omitempty"`
	Length  *RealQuantity `xml:"length,omitempty"`
}

// PrincipalAxes holds the T, P and optional N axes of a mechanism.
type PrincipalAxes struct {
	TAxis *Axis `xml:"tAxis,omitempty"`
	PAxis *Axis `xml:"pAxis,omitempty"`
	NAxis *Axis `xml:"nAxis,omitempty"`
}

// Tensor is the six independent components of the symmetric moment tensor,
// in N-m, spherical (r, t, p) coordinates.
type Tensor struct {
	Mrr *RealQuantity `xml:"Mrr,omitempty"`
	Mtt *RealQuantity `xml:"Mtt,omitempty"`
	Mpp *RealQuantity `xml:"Mpp,omitempty"`
	Mrt *RealQuantity `xml:"Mrt,omitempty"`
	Mrp *RealQuantity `xml:"Mrp,omitempty"`
	Mtp *RealQuantity `xml:"Mtp,omitempty"`
}

// DataUsed describes the waveform data behind a moment tensor inversion.
type DataUsed struct {
	WaveType     string `xml:"waveType,omitempty"`
	StationCount *int   `xml:"stationCount,omitempty"`
}

// MomentTensor is a tensor solution nested inside a focal mechanism. Its
// publicID is a fragment of the parent mechanism's identifier.
type MomentTensor struct {
	PublicID          string        `xml:"publicID,attr"`
	DerivedOriginID   string        `xml:"derivedOriginID,omitempty"`
	MomentMagnitudeID string        `xml:"momentMagnitudeID,omitempty"`
	ScalarMoment      *RealQuantity `xml:"scalarMoment,omitempty"`
	Tensor            *Tensor       `xml:"tensor,omitempty"`
	DoubleCouple      *float64      `xml:"doubleCouple,omitempty"`
	CLVD              *float64      `xml:"clvd,omitempty"`
	Variance          *float64      `xml:"variance,omitempty"`
	VarianceReduction *float64      `xml:"varianceReduction,omitempty"`
	Category          string        `xml:"category,omitempty"`
	DataUsed          *DataUsed     `xml:"dataUsed,omitempty"`
	CreationInfo      *CreationInfo `xml:"creationInfo,omitempty"`
}

// FocalMechanism is a fault orientation solution, from first motions or from
// a moment tensor inversion.
type FocalMechanism struct {
	PublicID           string         `xml:"publicID,attr"`
	TriggeringOriginID string         `xml:"triggeringOriginID,omitempty"`
	NodalPlanes        *NodalPlanes   `xml:"nodalPlanes,omitempty"`
	PrincipalAxes      *PrincipalAxes `xml:"principalAxes,omitempty"`
	MomentTensor       *MomentTensor  `xml:"momentTensor,omitempty"`
	CreationInfo       *CreationInfo  `xml:"creationInfo,omitempty"`
	EvaluationMode     string         `xml:"evaluationMode,omitempty"`
	EvaluationStatus   string         `xml:"evaluationStatus,omitempty"`
}

// EventDescription is a free-text description, e.g. the "nearest cities"
// line attached by the geocoding enrichment.
type EventDescription struct {
	Text string `xml:"text"`
	Type string `xml:"type,omitempty"`
}

// Event groups the entities belonging to one physical occurrence. The
// catalog:* attributes implement ANSS federated-catalog tagging and only
// serialize when set.
type Event struct {
	PublicID                  string             `xml:"publicID,attr"`
	CatalogEventID            string             `xml:"catalog:eventid,attr,omitempty"`
	CatalogDataID             string             `xml:"catalog:dataid,attr,omitempty"`
	CatalogEventSource        string             `xml:"catalog:eventsource,attr,omitempty"`
	CatalogDataSource         string             `xml:"catalog:datasource,attr,omitempty"`
	Type                      string             `xml:"type,omitempty"`
	Description               *EventDescription  `xml:"description,omitempty"`
	PreferredOriginID         string             `xml:"preferredOriginID,omitempty"`
	PreferredMagnitudeID      string             `xml:"preferredMagnitudeID,omitempty"`
	PreferredFocalMechanismID string             `xml:"preferredFocalMechanismID,omitempty"`
	CreationInfo              *CreationInfo      `xml:"creationInfo,omitempty"`
	Origins                   []Origin           `xml:"origin,omitempty"`
	Magnitudes                []Magnitude        `xml:"magnitude,omitempty"`
	StationMagnitudes         []StationMagnitude `xml:"stationMagnitude,omitempty"`
	Picks                     []Pick             `xml:"pick,omitempty"`
	FocalMechanisms           []FocalMechanism   `xml:"focalMechanism,omitempty"`
}

// EventParameters is the catalog container. Its publicID is keyed by a
// microsecond timestamp so each conversion run produces a distinct catalog.
type EventParameters struct {
	PublicID     string        `xml:"publicID,attr"`
	CreationInfo *CreationInfo `xml:"creationInfo,omitempty"`
	Events       []Event       `xml:"event,omitempty"`
}

// Document is the q:quakeml root element with its namespace declarations.
type Document struct {
	XMLName          xml.Name        `xml:"q:quakeml"`
	NamespaceQ       string          `xml:"xmlns:q,attr"`
	Namespace        string          `xml:"xmlns,attr"`
	NamespaceCatalog string          `xml:"xmlns:catalog,attr"`
	EventParameters  EventParameters `xml:"eventParameters"`
}

// NewDocument wraps event parameters in a root element declaring the BED
// namespace as default, or BED-RT when realtime is true.
func NewDocument(ep EventParameters, realtime bool) *Document {
	ns := NamespaceBED
	if realtime {
		ns = NamespaceBEDRT
	}
	return &Document{
		NamespaceQ:       NamespaceQuakeML,
		Namespace:        ns,
		NamespaceCatalog: NamespaceCatalog,
		EventParameters:  ep,
	}
}
