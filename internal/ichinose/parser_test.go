package ichinose

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleReport = `REVIEWED BY NSL STAFF

Event ID:719663
Origin ID:1238625

Ichinose Gene A. (2015), moment tensor inversion using regional
broadband waveform data.

2015/09/08 (251) 02:15:21.000 38.6488 -118.8064 1238625

Depth =   8.0 (km)
Mw    =  3.95
Mo    =  8.53x10^21 (dyne-cm)

Percent Double Couple =  86 %
Percent CLVD          =  14 %
Epsilon=0.07
Percent Variance Reduction =  93.80 %

Major Double Couple
               strike dip   rake
Nodal Plane 1:  189.0  77.0 -162.0
Nodal Plane 2:   95.0  72.0  -14.0

Moment Tensor in Spherical Coordinates
   Mrr=  -0.21 Mtt=  -0.58 Mff=   0.79 EXP=22
   Mrt=   0.34 Mrf=   0.15 Mtf=   0.48

Eigenvalues and eigenvectors of the Major Double Couple:
  T-axis ev= 0.85 trend=323.0 plunge=3.0
  N-axis ev= 0.00 trend=55.0 plunge=45.0
  P-axis ev=-0.85 trend=230.0 plunge=44.0

Number of Stations (256) Used=6
Maximum Azimuthal Gap=120.1 Distance to Nearest Station= 32.1 (km)

Date: 2015/09/08 02:29:06
`

func TestParse(t *testing.T) {
	rep, err := Parse(strings.NewReader(sampleReport))
	require.NoError(t, err)

	assert.Equal(t, int64(719663), rep.EVID)
	assert.Equal(t, int64(1238625), rep.ORID)
	assert.Equal(t, "manual", rep.Mode)
	assert.Equal(t, "reviewed", rep.Status)
	assert.Equal(t, "regional", rep.Category)

	require.NotNil(t, rep.Hypo)
	assert.Equal(t, time.Date(2015, time.September, 8, 2, 15, 21, 0, time.UTC), rep.Hypo.Time)
	assert.Equal(t, 38.6488, rep.Hypo.Lat)
	assert.Equal(t, -118.8064, rep.Hypo.Lon)
	assert.Equal(t, int64(1238625), rep.Hypo.ORID)

	require.NotNil(t, rep.DerivedDepthKm)
	assert.Equal(t, 8.0, *rep.DerivedDepthKm)
	require.NotNil(t, rep.Mag)
	assert.Equal(t, 3.95, *rep.Mag)
	assert.Equal(t, "Mwr", rep.MagType)
	require.NotNil(t, rep.ScalarMoment)
	assert.InDelta(t, 8.53e14, *rep.ScalarMoment, 1, "dyne-cm converts to N-m")

	require.NotNil(t, rep.DoubleCouple)
	assert.InDelta(t, 0.86, *rep.DoubleCouple, 1e-12)
	require.NotNil(t, rep.CLVD)
	assert.InDelta(t, 0.14, *rep.CLVD, 1e-12)
	require.NotNil(t, rep.Variance)
	assert.Equal(t, 0.07, *rep.Variance)
	require.NotNil(t, rep.VarianceReduction)
	assert.InDelta(t, 0.938, *rep.VarianceReduction, 1e-12)

	require.Len(t, rep.Planes, 2)
	assert.Equal(t, Plane{Strike: 189, Dip: 77, Rake: -162}, rep.Planes[0])
	assert.Equal(t, Plane{Strike: 95, Dip: 72, Rake: -14}, rep.Planes[1])

	require.NotNil(t, rep.Tensor)
	assert.InDelta(t, -0.21e15, rep.Tensor["Mrr"], 1)
	assert.InDelta(t, -0.58e15, rep.Tensor["Mtt"], 1)
	assert.InDelta(t, 0.79e15, rep.Tensor["Mpp"], 1, "Mff renames to Mpp")
	assert.InDelta(t, 0.34e15, rep.Tensor["Mrt"], 1)
	assert.InDelta(t, 0.15e15, rep.Tensor["Mrp"], 1, "Mrf renames to Mrp")
	assert.InDelta(t, 0.48e15, rep.Tensor["Mtp"], 1, "Mtf renames to Mtp")
	assert.NotContains(t, rep.Tensor, "Mff")

	require.NotNil(t, rep.Axes)
	assert.Equal(t, Axis{Azimuth: 323, Plunge: 3, Length: 0.85}, rep.Axes["T"])
	assert.Equal(t, Axis{Azimuth: 55, Plunge: 45, Length: 0}, rep.Axes["N"])
	assert.Equal(t, Axis{Azimuth: 230, Plunge: 44, Length: -0.85}, rep.Axes["P"])

	require.NotNil(t, rep.StationCount)
	assert.Equal(t, 6, *rep.StationCount)
	require.NotNil(t, rep.AzimuthalGap)
	assert.Equal(t, 120.1, *rep.AzimuthalGap)

	assert.Equal(t, time.Date(2015, time.September, 8, 2, 29, 6, 0, time.UTC), rep.CreationTime)
}

func TestParseStringUnreviewed(t *testing.T) {
	text := strings.Replace(sampleReport, "REVIEWED BY NSL STAFF\n", "", 1)
	rep := ParseString(text)
	assert.Equal(t, "automatic", rep.Mode)
	assert.Equal(t, "preliminary", rep.Status)
}

func TestParseStringEmpty(t *testing.T) {
	rep := ParseString("")
	assert.Equal(t, int64(0), rep.EVID)
	assert.Nil(t, rep.Hypo)
	assert.Nil(t, rep.Tensor)
	assert.Nil(t, rep.Axes)
	assert.True(t, rep.CreationTime.IsZero())
	assert.Equal(t, "automatic", rep.Mode)
}

func TestParseStringMalformedSections(t *testing.T) {
	text := `Event ID:42
Origin ID:7
Depth = garbage
Major Double Couple
               strike dip   rake
Nodal Plane 1:  broken
Nodal Plane 2:   95.0  72.0  -14.0
`
	rep := ParseString(text)
	assert.Equal(t, int64(42), rep.EVID)
	assert.Nil(t, rep.DerivedDepthKm, "a malformed section costs only its own fields")
	assert.Nil(t, rep.Planes)
}
