// Package validation provides the input validators shared by every entry
// point that accepts user-supplied values.
// File: validation/validation.go
//
// The validators take loosely typed values (what encoding/json produces for
// an untyped body) so one rule covers numbers, numeric strings and missing
// fields alike.
package validation

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Error is a client-input validation failure. It is an expected business
// outcome, mapped to HTTP 400 at the transport layer.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(format string, args ...interface{}) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// ------------------- coercion helper -------------------

// toFloat coerces JSON-decoded values into a float64. Strings are parsed
// after trimming whitespace.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// ------------------- validators -------------------

// Coordinates validates and coerces a latitude/longitude pair. Both values
// are required; latitude must fall in [-90, 90] and longitude in
// [-180, 180].
func Coordinates(latitude, longitude interface{}) (float64, float64, error) {
	if latitude == nil || longitude == nil {
		return 0, 0, newError("latitud y longitud son requeridas")
	}

	lat, okLat := toFloat(latitude)
	lon, okLon := toFloat(longitude)
	if !okLat || !okLon {
		return 0, 0, newError("Coordenadas deben ser números válidos")
	}

	if lat < -90 || lat > 90 {
		return 0, 0, newError("Latitud debe estar entre -90 y 90 grados")
	}
	if lon < -180 || lon > 180 {
		return 0, 0, newError("Longitud debe estar entre -180 y 180 grados")
	}

	return lat, lon, nil
}

// RequiredField validates presence of a required value. String values must
// be non-empty after trimming; the trimmed string is returned. Non-string
// values are formatted with fmt.Sprint.
func RequiredField(value interface{}, fieldName string) (string, error) {
	if value == nil {
		return "", newError("%s es requerido", fieldName)
	}

	if s, ok := value.(string); ok {
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			return "", newError("%s no puede estar vacío", fieldName)
		}
		return trimmed, nil
	}

	return fmt.Sprint(value), nil
}

// PositiveRadius validates and coerces a geofence radius. The value is
// required and must be strictly positive.
func PositiveRadius(value interface{}) (float64, error) {
	if value == nil {
		return 0, newError("Radio permitido es requerido")
	}

	radius, ok := toFloat(value)
	if !ok {
		return 0, newError("Radio permitido debe ser un número válido")
	}
	if radius <= 0 {
		return 0, newError("Radio permitido debe ser un número positivo")
	}

	return radius, nil
}
