package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// EarthRadiusMiles is the mean Earth radius used for survey distances
const EarthRadiusMiles = 3959.0

// Distance returns the great-circle distance in miles between two
// lon/lat points using the haversine formula.
func Distance(p1, p2 orb.Point) float64 {
	lat1 := deg2rad(p1.Lat())
	lat2 := deg2rad(p2.Lat())
	dLat := lat2 - lat1
	dLon := deg2rad(p2.Lon() - p1.Lon())

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	a := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon

	// rounding can push a just outside [0, 1] near antipodal points
	a = math.Max(0, math.Min(1, a))

	return 2 * EarthRadiusMiles * math.Asin(math.Sqrt(a))
}

// DistanceMiles returns the distance between two coordinates rounded to
// two decimals. It reports false when any coordinate is missing or zero.
func DistanceMiles(lat1, lon1, lat2, lon2 *float64) (float64, bool) {
	for _, c := range []*float64{lat1, lon1, lat2, lon2} {
		if c == nil || *c == 0 {
			return 0, false
		}
	}

	d := Distance(orb.Point{*lon1, *lat1}, orb.Point{*lon2, *lat2})
	return math.Round(d*100) / 100, true
}

func deg2rad(d float64) float64 {
	return d * math.Pi / 180
}
