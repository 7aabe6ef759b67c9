// Package geodesy provides great-circle distance math on a spherical earth.
// File: geodesy/geodesy.go
package geodesy

import (
	"math"
)

// earthRadiusMeters is the mean earth radius used by the haversine formula.
const earthRadiusMeters = 6371000.0

// InvalidCoordinateError reports a latitude or longitude outside its valid
// range.
type InvalidCoordinateError struct {
	Message string
}

func (e *InvalidCoordinateError) Error() string {
	return e.Message
}

// DistanceMeters computes the great-circle distance in metres between two
// points given in decimal degrees, using the haversine formula:
//
//	a = sin²(Δlat/2) + cos(lat1)·cos(lat2)·sin²(Δlon/2)
//	c = 2·atan2(√a, √(1−a))
//	d = R·c
//
// It returns an InvalidCoordinateError if either latitude is outside
// [-90, 90] or either longitude is outside [-180, 180]. The result is
// symmetric in its arguments and zero for coincident points.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) (float64, error) {
	if lat1 < -90 || lat1 > 90 || lat2 < -90 || lat2 > 90 {
		return 0, &InvalidCoordinateError{Message: "latitude must be between -90 and 90 degrees"}
	}
	if lon1 < -180 || lon1 > 180 || lon2 < -180 || lon2 > 180 {
		return 0, &InvalidCoordinateError{Message: "longitude must be between -180 and 180 degrees"}
	}

	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c, nil
}
