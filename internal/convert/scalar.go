package convert

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/quakecat/css2quakeml/internal/css"
)

// meanEarthRadius is the WGS84 mean radius of curvature used to project
// meter offsets onto longitude degrees.
const meanEarthRadius = 6367449.0

// metersPerDegreeLat is the flat conversion used for latitude uncertainty.
const metersPerDegreeLat = 110600.0

func kmToM(km float64) float64 {
	return km * 1000
}

func mToDegLat(m float64) float64 {
	return m / metersPerDegreeLat
}

func mToDegLon(m, lat float64) float64 {
	return m / (math.Pi / 180) / meanEarthRadius / math.Cos(lat*math.Pi/180)
}

// evalEllipse returns the radius of an ellipse with semi axes a and b at the
// given angle (degrees) from the major axis.
func evalEllipse(a, b, angle float64) float64 {
	rad := angle * math.Pi / 180
	return a * b / math.Sqrt(math.Pow(b*math.Cos(rad), 2)+math.Pow(a*math.Sin(rad), 2))
}

// ellipseNE projects an error ellipse with the given strike (degrees from
// north) onto the north and east directions.
func ellipseNE(a, b, strike float64) (n, e float64) {
	n = evalEllipse(a, b, strike)
	e = evalEllipse(a, b, strike-90)
	return n, e
}

// isoTime formats an epoch seconds float as an ISO8601 UTC string with
// microsecond precision, e.g. "2015-12-29T14:03:46.194850Z". Returns "" so
// the caller's quantity collapses out when the timestamp is absent.
func isoTime(ts float64, ok bool) string {
	if !ok {
		return ""
	}
	micros := int64(math.Round(ts * 1e6))
	return isoFromTime(time.Unix(0, micros*int64(time.Microsecond)))
}

// isoFromTime formats a time.Time the same way as isoTime.
func isoFromTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000") + "Z"
}

func ptr[T any](v T) *T {
	return &v
}

// optFloat returns a pointer to the named field, nil when absent.
func optFloat(r css.Record, name string) *float64 {
	if v, ok := css.Float(r, name); ok {
		return &v
	}
	return nil
}

// optCount returns the named field as an int pointer for count columns.
func optCount(r css.Record, name string) *int {
	if v, ok := css.Int(r, name); ok {
		n := int(v)
		return &n
	}
	return nil
}

// stringField returns the named field as a string, "" when absent.
func stringField(r css.Record, name string) string {
	s, _ := css.String(r, name)
	return s
}

// versionOf renders an integer key column as a creationInfo version string.
func versionOf(r css.Record, name string) string {
	if v, ok := css.Int(r, name); ok {
		return strconv.FormatInt(v, 10)
	}
	return ""
}

// rawKey renders an integer key column for use inside a compound resource
// id, substituting a UUID when the column is missing.
func rawKey(r css.Record, field string) string {
	if v, ok := css.Int(r, field); ok {
		return strconv.FormatInt(v, 10)
	}
	return uuid.NewString()
}

// tableKey builds a "table/key" resource id from an integer key column,
// substituting a UUID when the key is missing so the identifier stays unique.
func tableKey(r css.Record, table, field string) string {
	if v, ok := css.Int(r, field); ok {
		return fmt.Sprintf("%s/%d", table, v)
	}
	return table + "/" + uuid.NewString()
}
