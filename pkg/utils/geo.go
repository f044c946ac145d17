package utils

import "math"

const (
	minLatitude  = -90.0
	maxLatitude  = 90.0
	minLongitude = -180.0
	maxLongitude = 180.0

	kmPerLatDegree        = 110.574
	kmPerLngDegreeEquator = 111.320

	geoEpsilon    = 1e-6
	earthRadiusKm = 6371.0
)

// GeoPoint is a single latitude/longitude coordinate.
type GeoPoint struct {
	Lat float64
	Lng float64
}

// GeoRectangle is a closed axis-aligned lat/lng bounding box used for place
// search filtering. Construct it with NewGeoRectangle or
// GeoRectangleFromPoints so the bounds are normalized.
type GeoRectangle struct {
	MinLat float64
	MinLng float64
	MaxLat float64
	MaxLng float64
}

func clampFloat(value, minimum, maximum float64) float64 {
	return math.Max(minimum, math.Min(maximum, value))
}

// NewGeoRectangle builds a rectangle from two corner points in any order.
// Latitudes are clamped to [-90, 90], longitudes to [-180, 180], and a
// zero-width span is expanded by a small epsilon on both sides so filtering
// never works against a zero-area box.
func NewGeoRectangle(lat1, lng1, lat2, lng2 float64) GeoRectangle {
	minLat, maxLat := math.Min(lat1, lat2), math.Max(lat1, lat2)
	minLng, maxLng := math.Min(lng1, lng2), math.Max(lng1, lng2)

	minLat = clampFloat(minLat, minLatitude, maxLatitude)
	maxLat = clampFloat(maxLat, minLatitude, maxLatitude)
	minLng = clampFloat(minLng, minLongitude, maxLongitude)
	maxLng = clampFloat(maxLng, minLongitude, maxLongitude)

	if math.Abs(maxLat-minLat) < geoEpsilon {
		minLat = clampFloat(minLat-geoEpsilon, minLatitude, maxLatitude)
		maxLat = clampFloat(maxLat+geoEpsilon, minLatitude, maxLatitude)
	}
	if math.Abs(maxLng-minLng) < geoEpsilon {
		minLng = clampFloat(minLng-geoEpsilon, minLongitude, maxLongitude)
		maxLng = clampFloat(maxLng+geoEpsilon, minLongitude, maxLongitude)
	}

	return GeoRectangle{MinLat: minLat, MinLng: minLng, MaxLat: maxLat, MaxLng: maxLng}
}

// Contains reports whether the point lies inside the rectangle, boundaries
// included.
func (r GeoRectangle) Contains(lat, lng float64) bool {
	return r.MinLat <= lat && lat <= r.MaxLat && r.MinLng <= lng && lng <= r.MaxLng
}

// GeoRectangleFromPoints builds the bounding box of a point cloud expanded by
// marginKm on every side. The longitude margin accounts for meridian
// convergence at the cloud's center latitude. An empty cloud yields ok=false.
func GeoRectangleFromPoints(points []GeoPoint, marginKm float64) (GeoRectangle, bool) {
	if len(points) == 0 {
		return GeoRectangle{}, false
	}

	minLat, maxLat := points[0].Lat, points[0].Lat
	minLng, maxLng := points[0].Lng, points[0].Lng
	for _, p := range points[1:] {
		minLat = math.Min(minLat, p.Lat)
		maxLat = math.Max(maxLat, p.Lat)
		minLng = math.Min(minLng, p.Lng)
		maxLng = math.Max(maxLng, p.Lng)
	}

	margin := math.Max(0, marginKm)
	latMarginDeg := margin / kmPerLatDegree

	centerLat := clampFloat((minLat+maxLat)/2, -89.999999, 89.999999)
	cosLat := math.Max(math.Abs(math.Cos(centerLat*math.Pi/180)), geoEpsilon)
	lngMarginDeg := margin / (kmPerLngDegreeEquator * cosLat)

	rect := NewGeoRectangle(
		minLat-latMarginDeg,
		minLng-lngMarginDeg,
		maxLat+latMarginDeg,
		maxLng+lngMarginDeg,
	)
	return rect, true
}

// HaversineKm returns the great-circle distance between two coordinates in
// kilometers (Earth radius 6371 km).
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
