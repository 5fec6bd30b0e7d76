// Package xmlenc serializes QuakeML documents and applies the
// schema-precision preprocessing that runs between conversion and emission.
// The mappers keep full float precision; trimming it is an explicit external
// step here so downstream consumers can opt out.
package xmlenc

import (
	"encoding/xml"
	"fmt"
)

// Encode marshals a document with the standard XML header.
func Encode(doc any) ([]byte, error) {
	out, err := xml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode quakeml: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// EncodeIndent marshals a document with the standard XML header and
// two-space indentation for human consumption.
func EncodeIndent(doc any) ([]byte, error) {
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode quakeml: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}
