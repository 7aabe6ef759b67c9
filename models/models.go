// Package models defines data structures used across the application.
// File: models/models.go
//
// JSON tags follow the wire contract expected by the static frontend and
// the on-disk data files (Spanish field names); Go identifiers are English.
package models

// ----------------------- roster model -----------------------

// Participant is a single authorized roster entry. ID links attendance
// records; DocumentNumber is what end users type to identify themselves.
type Participant struct {
	ID             string `json:"userId"`
	DocumentNumber string `json:"documento"`
	DisplayName    string `json:"nombre"`
}

// ----------------------- event config model -----------------------

// GeoPoint is a latitude/longitude pair in decimal degrees.
type GeoPoint struct {
	Latitude  float64 `json:"latitud"`
	Longitude float64 `json:"longitud"`
}

// EventConfig is the singleton geofence configuration: the venue centre
// point and the radius (in metres) within which confirmations are accepted.
type EventConfig struct {
	Location            GeoPoint `json:"ubicacionAsamblea"`
	AllowedRadiusMeters float64  `json:"radioPermitido"`
}

// ----------------------- attendance model -----------------------

// AttendanceRecord is one confirmed attendance. Records are created at most
// once per participant and never mutated afterwards.
type AttendanceRecord struct {
	ParticipantID string   `json:"userId"`
	DisplayName   string   `json:"nombre"`
	ConfirmedAt   string   `json:"fechaHora"` // ISO-8601 UTC, trailing Z
	Location      GeoPoint `json:"ubicacion"`
}

// ConfirmationResult is the outcome of a confirmation attempt.
// DistanceMeters is nil when no distance was computed (validation failure
// or duplicate confirmation).
type ConfirmationResult struct {
	Confirmed      bool     `json:"confirmado"`
	Message        string   `json:"mensaje"`
	DistanceMeters *float64 `json:"distancia"`
}

// IdentityResult is the outcome of an identity lookup by document number.
// An unknown document yields Valid=false, not an error.
type IdentityResult struct {
	Valid         bool
	DisplayName   string
	ParticipantID string
}

// ----------------------- admin credentials -----------------------

// AdminCredentials is the single administrative account. Password holds a
// bcrypt hash once the password has been changed through the API; legacy
// hand-written files may still contain plaintext.
type AdminCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ----------------------- roster import report -----------------------

// ImportDetail is the per-row outcome of a bulk roster import.
type ImportDetail struct {
	Line   int    `json:"linea"`
	ID     string `json:"userId"`
	Status string `json:"estado"` // "agregado", "omitido" or "error"
	Reason string `json:"razon"`
}

// ImportSummary aggregates a bulk roster import.
type ImportSummary struct {
	Added   int            `json:"agregados"`
	Skipped int            `json:"omitidos"`
	Errored int            `json:"errores"`
	Details []ImportDetail `json:"detalles"`
}
