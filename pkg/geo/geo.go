package geo

import "math"

// EarthRadiusKM is the mean Earth radius used for all distance math.
const EarthRadiusKM = 6371.0

// DefaultRadiusKM bounds nearby-vendor searches when no radius is given.
const DefaultRadiusKM = 50.0

// DistanceKM returns the great-circle distance between two coordinates in
// kilometers, using the spherical law of cosines. Matches the SQL expression
// in DistanceSQL so service-side checks agree with query results.
func DistanceKM(lat1, lng1, lat2, lng2 float64) float64 {
	la1 := radians(lat1)
	la2 := radians(lat2)
	dLng := radians(lng2 - lng1)

	cosAngle := math.Sin(la1)*math.Sin(la2) + math.Cos(la1)*math.Cos(la2)*math.Cos(dLng)
	// Floating point can push the value a hair outside acos's domain.
	if cosAngle > 1 {
		cosAngle = 1
	}
	if cosAngle < -1 {
		cosAngle = -1
	}
	return EarthRadiusKM * math.Acos(cosAngle)
}

// DistanceSQL is the spherical-law-of-cosines distance expression for SQL
// queries. It takes three placeholders, bound in textual order: latitude,
// longitude, latitude. It expects lat/lng columns on the projected table.
//
//	(6371 * acos(cos(radians(?)) * cos(radians(lat)) * cos(radians(lng) - radians(?)) + sin(radians(?)) * sin(radians(lat))))
const DistanceSQL = "(6371 * acos(" +
	"cos(radians(?)) * cos(radians(lat)) * cos(radians(lng) - radians(?)) + " +
	"sin(radians(?)) * sin(radians(lat))))"

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
