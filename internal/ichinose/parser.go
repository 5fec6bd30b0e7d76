// Package ichinose parses the moment tensor inversion reports produced by
// the Ichinose regional MT code and converts them to QuakeML events. The
// reports are fixed-layout plain text meant for email distribution; parsing
// keys off the section header lines and tolerates missing sections.
package ichinose

import (
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const timeLayout = "2006-01-02T15:04:05"

var (
	eventInfoRe = regexp.MustCompile(`^\d{4}/\d{2}/\d{2}`)
	floatRe     = regexp.MustCompile(`\d+\.\d+`)
	percentRe   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s?%`)
	momentRe    = regexp.MustCompile(`(\d+\.\d+)x10\^(\d+)`)
	mtTermRe    = regexp.MustCompile(`([A-Za-z]{3})=\s*(-?\d+(?:\.\d+)?)`)
	axisNameRe  = regexp.MustCompile(`([TPN])-axis`)
	axisTermRe  = regexp.MustCompile(`(\w+)=\s?(-?\d+(?:\.\d+)?)`)
	gapTermRe   = regexp.MustCompile(`\w+=\s*(\d+(?:\.\d+)?)`)
	usedRe      = regexp.MustCompile(`Used=(\d+)`)
)

// Plane is one nodal plane in degrees.
type Plane struct {
	Strike, Dip, Rake float64
}

// Axis is one principal axis: trend/plunge in degrees, eigenvalue in N-m.
type Axis struct {
	Azimuth, Plunge, Length float64
}

// Hypocenter is the triggering solution echoed at the top of a report.
type Hypocenter struct {
	Time time.Time
	Lat  float64
	Lon  float64
	ORID int64
}

// Report holds everything extracted from one inversion report. Pointer
// fields are nil when the corresponding section was absent.
type Report struct {
	EVID int64
	ORID int64

	// Mode/Status default to automatic/preliminary and flip to
	// manual/reviewed when the report carries the staff review banner.
	Mode   string
	Status string

	Category       string
	Hypo           *Hypocenter
	DerivedDepthKm *float64
	Mag            *float64
	MagType        string
	ScalarMoment   *float64 // N-m

	DoubleCouple      *float64 // fraction
	CLVD              *float64 // fraction
	Variance          *float64
	VarianceReduction *float64 // fraction

	Planes []Plane // two entries when present
	// Tensor components in N-m, spherical coordinates keyed Mrr, Mtt,
	// Mpp, Mrt, Mrp, Mtp (report spells the phi axis "f").
	Tensor map[string]float64
	Axes   map[string]Axis // keyed T, P, N

	StationCount *int
	AzimuthalGap *float64
	CreationTime time.Time // zero when the report has no Date stamp
}

// Parse reads an Ichinose report from r. Sections that fail to parse are
// skipped so a malformed block costs only its own fields.
func Parse(r io.Reader) (*Report, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	return ParseString(string(raw)), nil
}

// ParseString parses report text already held in memory.
func ParseString(text string) *Report {
	lines := strings.Split(text, "\n")
	rep := &Report{Mode: "automatic", Status: "preliminary"}

	for n, l := range lines {
		switch {
		case strings.Contains(l, "REVIEWED BY NSL STAFF"):
			rep.Mode, rep.Status = "manual", "reviewed"
		case strings.Contains(l, "Event ID"):
			rep.EVID = trailingID(l)
		case strings.Contains(l, "Origin ID"):
			rep.ORID = trailingID(l)
		case strings.Contains(l, "Ichinose"):
			rep.Category = "regional"
		case eventInfoRe.MatchString(l):
			rep.Hypo = parseHypocenter(l)
		case strings.Contains(l, "Depth"):
			if m := floatRe.FindString(l); m != "" {
				v, _ := strconv.ParseFloat(m, 64)
				rep.DerivedDepthKm = &v
			}
		case strings.Contains(l, "Mw"):
			fields := strings.Fields(l)
			if len(fields) > 0 {
				if v, err := strconv.ParseFloat(fields[len(fields)-1], 64); err == nil {
					rep.Mag = &v
					rep.MagType = "Mwr"
				}
			}
		case strings.Contains(l, "Mo") && strings.Contains(l, "dyne"):
			rep.ScalarMoment = parseMoment(l)
		case strings.Contains(l, "Percent Double Couple"):
			rep.DoubleCouple = parsePercent(l)
		case strings.Contains(l, "Percent CLVD"):
			rep.CLVD = parsePercent(l)
		case strings.Contains(l, "Percent Variance Reduction"):
			rep.VarianceReduction = parsePercent(l)
		case strings.Contains(l, "Epsilon"):
			parts := strings.Split(l, "=")
			if v, err := strconv.ParseFloat(strings.TrimSpace(parts[len(parts)-1]), 64); err == nil {
				rep.Variance = &v
			}
		case strings.Contains(l, "Major Double Couple") && n+3 < len(lines) &&
			strings.Contains(lines[n+1], "strike"):
			rep.Planes = parsePlanes(lines[n+2], lines[n+3])
		case strings.Contains(l, "Spherical Coordinates") && n+2 < len(lines):
			rep.Tensor = parseTensor(lines[n+1], lines[n+2])
		case strings.Contains(l, "Eigenvalues and eigenvectors of the Major Double Couple") &&
			n+3 < len(lines):
			rep.Axes = parseAxes(lines[n+1 : n+4])
		case strings.Contains(l, "Number of Stations"):
			if m := usedRe.FindStringSubmatch(l); m != nil {
				v, _ := strconv.Atoi(m[1])
				rep.StationCount = &v
			}
		case strings.Contains(l, "Maximum") && strings.Contains(l, "Gap"):
			if m := gapTermRe.FindStringSubmatch(l); m != nil {
				v, _ := strconv.ParseFloat(m[1], 64)
				rep.AzimuthalGap = &v
			}
		case strings.HasPrefix(l, "Date"):
			if t, ok := parseDateStamp(l); ok {
				rep.CreationTime = t
			}
		}
	}
	return rep
}

// trailingID parses the integer after the last colon, 0 on failure.
func trailingID(l string) int64 {
	parts := strings.Split(l, ":")
	v, _ := strconv.ParseInt(strings.TrimSpace(parts[len(parts)-1]), 10, 64)
	return v
}

// parseHypocenter reads the "date julday time lat lon orid" echo line.
func parseHypocenter(l string) *Hypocenter {
	fields := strings.Fields(l)
	if len(fields) < 6 {
		return nil
	}
	date := strings.ReplaceAll(fields[0], "/", "-")
	t, err := time.Parse(timeLayout+".999999", date+"T"+fields[2])
	if err != nil {
		return nil
	}
	lat, errLat := strconv.ParseFloat(fields[3], 64)
	lon, errLon := strconv.ParseFloat(fields[4], 64)
	orid, errOrid := strconv.ParseInt(fields[5], 10, 64)
	if errLat != nil || errLon != nil || errOrid != nil {
		return nil
	}
	return &Hypocenter{Time: t.UTC(), Lat: lat, Lon: lon, ORID: orid}
}

// parseMoment converts the "Mo = 1.23x10^22 dyne-cm" notation to N-m.
func parseMoment(l string) *float64 {
	m := momentRe.FindStringSubmatch(l)
	if m == nil {
		return nil
	}
	mant, _ := strconv.ParseFloat(m[1], 64)
	exp, _ := strconv.Atoi(m[2])
	v := mant * math.Pow10(exp-7) // dyne-cm to N-m
	return &v
}

func parsePercent(l string) *float64 {
	m := percentRe.FindStringSubmatch(l)
	if m == nil {
		return nil
	}
	v, _ := strconv.ParseFloat(m[1], 64)
	frac := v / 100
	return &frac
}

// parsePlanes reads the two "strike dip rake" value lines after their colon.
func parsePlanes(line1, line2 string) []Plane {
	var planes []Plane
	for _, l := range []string{line1, line2} {
		parts := strings.Split(l, ":")
		fields := strings.Fields(parts[len(parts)-1])
		if len(fields) < 3 {
			return nil
		}
		s, errS := strconv.ParseFloat(fields[0], 64)
		d, errD := strconv.ParseFloat(fields[1], 64)
		r, errR := strconv.ParseFloat(fields[2], 64)
		if errS != nil || errD != nil || errR != nil {
			return nil
		}
		planes = append(planes, Plane{Strike: s, Dip: d, Rake: r})
	}
	return planes
}

// parseTensor reads the Mxx=value terms spread over two lines. The trailing
// EXP term gives the dyne-cm exponent; components scale by EXP-7 to N-m.
func parseTensor(line1, line2 string) map[string]float64 {
	terms := append(mtTermRe.FindAllStringSubmatch(line1, -1),
		mtTermRe.FindAllStringSubmatch(line2, -1)...)

	exp := 0
	raw := make(map[string]float64, len(terms))
	for _, m := range terms {
		v, _ := strconv.ParseFloat(m[2], 64)
		if m[1] == "EXP" {
			exp = int(v)
			continue
		}
		raw[m[1]] = v
	}
	if len(raw) == 0 {
		return nil
	}

	scale := math.Pow10(exp - 7)
	// The report names the phi axis "f"; QuakeML uses "p".
	rename := map[string]string{
		"Mrr": "Mrr", "Mtt": "Mtt", "Mff": "Mpp",
		"Mrt": "Mrt", "Mrf": "Mrp", "Mtf": "Mtp",
	}
	tensor := make(map[string]float64, len(raw))
	for k, v := range raw {
		if name, ok := rename[k]; ok {
			tensor[name] = v * scale
		}
	}
	return tensor
}

// parseAxes reads the three eigenvector lines into T/P/N axes.
func parseAxes(lines []string) map[string]Axis {
	axes := make(map[string]Axis, 3)
	for _, l := range lines {
		name := axisNameRe.FindStringSubmatch(l)
		if name == nil {
			continue
		}
		vals := make(map[string]float64)
		for _, m := range axisTermRe.FindAllStringSubmatch(l, -1) {
			v, _ := strconv.ParseFloat(m[2], 64)
			vals[m[1]] = v
		}
		axes[name[1]] = Axis{
			Azimuth: vals["trend"],
			Plunge:  vals["plunge"],
			Length:  vals["ev"],
		}
	}
	if len(axes) == 0 {
		return nil
	}
	return axes
}

// parseDateStamp reads the trailing "Date: yyyy/mm/dd hh:mm:ss" file stamp.
func parseDateStamp(l string) (time.Time, bool) {
	fields := strings.Fields(l)
	if len(fields) < 3 {
		return time.Time{}, false
	}
	date := strings.ReplaceAll(fields[1], "/", "-")
	t, err := time.Parse(timeLayout, date+"T"+fields[2])
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
