package rid

import "strings"

// ExtractID pulls the unique key out of an identifier following this
// package's convention, "<schema>:<authority>/<relation>/<unique-key>#<local>"
// -> "<unique-key>". Compound keys must be dash-joined, not slash-joined, for
// this to round-trip.
func ExtractID(uri string) string {
	last := uri[strings.LastIndex(uri, "/")+1:]
	if i := strings.Index(last, "#"); i >= 0 {
		return last[:i]
	}
	return last
}
