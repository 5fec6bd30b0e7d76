// Package css defines the input contract for CSS3.0 database rows.
//
// The converter never talks to a database. Callers pre-assemble joined rows
// (an origin outer-joined with origerr, an assoc joined with arrival and
// station metadata) and hand them over through the narrow Record interface.
// Missing and null columns look identical: Get reports absence, and the
// typed accessors degrade to (zero, false) instead of failing, which is what
// lets one missing column degrade a single output field instead of aborting
// a whole event conversion.
package css

import "strconv"

// Record is read-only field lookup on one flat row.
type Record interface {
	// Get returns the value for a column, reporting false when the column
	// is absent or null.
	Get(name string) (any, bool)
}

// MapRecord adapts a decoded JSON object (or any map) to Record.
type MapRecord map[string]any

func (m MapRecord) Get(name string) (any, bool) {
	v, ok := m[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Float reads a numeric column. JSON numbers arrive as float64; integer and
// numeric-string values are coerced.
func Float(r Record, name string) (float64, bool) {
	v, ok := r.Get(name)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Int reads an integer column, truncating float values (CSS integer keys
// round-trip through JSON as float64).
func Int(r Record, name string) (int64, bool) {
	v, ok := r.Get(name)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// String reads a text column, stringifying numeric values the way the legacy
// integer keys are used as version strings.
func String(r Record, name string) (string, bool) {
	v, ok := r.Get(name)
	if !ok {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return s, true
	case float64:
		if s == float64(int64(s)) {
			return strconv.FormatInt(int64(s), 10), true
		}
		return strconv.FormatFloat(s, 'g', -1, 64), true
	case int:
		return strconv.Itoa(s), true
	case int64:
		return strconv.FormatInt(s, 10), true
	default:
		return "", false
	}
}
