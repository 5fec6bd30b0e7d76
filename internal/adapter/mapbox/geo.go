package mapbox

import "math"

const earthRadiusKm = 6371.0

// compassPoints are the 16-wind rose names, clockwise from north.
var compassPoints = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// haversineKm returns the great-circle distance between two coordinates.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	phi1, phi2 := radians(lat1), radians(lat2)
	dPhi := radians(lat2 - lat1)
	dLambda := radians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// initialBearing returns the starting azimuth in degrees from north for the
// great-circle path from point 1 to point 2, normalized to [0, 360).
func initialBearing(lat1, lon1, lat2, lon2 float64) float64 {
	phi1, phi2 := radians(lat1), radians(lat2)
	dLambda := radians(lon2 - lon1)

	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)
	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

// compassPoint maps a bearing to its 16-wind rose name. Each point owns a
// 22.5 degree wedge centered on its heading.
func compassPoint(bearing float64) string {
	wedge := 360.0 / float64(len(compassPoints))
	shifted := math.Mod(bearing+wedge/2, 360)
	return compassPoints[int(shifted/wedge)]
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
