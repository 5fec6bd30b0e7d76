package css

import (
	"encoding/json"
	"fmt"
)

// EventBundle carries every pre-joined row belonging to one event. This is
// the unit the ETL pipeline consumes from the source topic, one JSON object
// per message.
//
// Join patterns expected per slice:
//
//	Origins: origin outer-joined with origerr on orid, newest lddate first.
//	NetMags: netmag rows for the origin, newest first.
//	StaMags: stamag outer-joined with arrival, snetsta and schanloc.
//	Phases:  assoc joined with arrival on arid, outer-joined with snetsta
//	         and schanloc for SEED network/location codes.
//	FirstMotions: fplane rows, newest first.
//	MomentTensors: mt rows, newest first.
//
// Event may be nil when the origin has no event table entry; the converter
// then falls back to building the event from the first origin row.
type EventBundle struct {
	Event         MapRecord   `json:"event,omitempty"`
	Origins       []MapRecord `json:"origins,omitempty"`
	NetMags       []MapRecord `json:"netmags,omitempty"`
	StaMags       []MapRecord `json:"stamags,omitempty"`
	Phases        []MapRecord `json:"phases,omitempty"`
	FirstMotions  []MapRecord `json:"fplanes,omitempty"`
	MomentTensors []MapRecord `json:"mts,omitempty"`
}

// DecodeBundle deserializes one source-topic message.
func DecodeBundle(data []byte) (EventBundle, error) {
	var b EventBundle
	if err := json.Unmarshal(data, &b); err != nil {
		return EventBundle{}, fmt.Errorf("decode event bundle: %w", err)
	}
	return b, nil
}

// Records converts a MapRecord slice to the Record interface.
func Records(rows []MapRecord) []Record {
	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}
