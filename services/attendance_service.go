// Package services: services/attendance_service.go
package services

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"go-asistencia/logger"
	"go-asistencia/models"
)

// AttendanceServiceInterface is the ledger contract consumed by the
// confirmation engine and the controllers.
type AttendanceServiceInterface interface {
	Load() error
	List() []models.AttendanceRecord
	HasConfirmed(participantID string) bool
	Append(record models.AttendanceRecord) error
	ResetAll() (int, error)
}

// AttendanceService owns the logically append-only ledger of confirmed
// attendances, cached in memory and backed by a JSON array file.
type AttendanceService struct {
	mu      sync.Mutex
	path    string
	records []models.AttendanceRecord
}

// NewAttendanceService creates a ledger backed by the JSON file at path.
// Call Load before serving requests.
func NewAttendanceService(path string) *AttendanceService {
	return &AttendanceService{path: path}
}

// Load parses the backing file, which must contain a JSON array of
// attendance records.
func (s *AttendanceService) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return &FormatError{Message: fmt.Sprintf("Error al leer asistencias: %v", err)}
	}

	var records []models.AttendanceRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return &FormatError{Message: fmt.Sprintf("El archivo de asistencias debe contener una lista JSON: %v", err)}
	}

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()
	return nil
}

// List returns a copy of the current ledger in confirmation order.
func (s *AttendanceService) List() []models.AttendanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AttendanceRecord, len(s.records))
	copy(out, s.records)
	return out
}

// HasConfirmed reports whether the participant already has a record.
func (s *AttendanceService) HasConfirmed(participantID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.ParticipantID == participantID {
			return true
		}
	}
	return false
}

// Append adds a record and persists the full ledger. The caller is
// responsible for the HasConfirmed check; the confirmation engine holds a
// single lock around the check-then-append sequence.
func (s *AttendanceService) Append(record models.AttendanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, record)
	return s.persistLocked()
}

// ResetAll clears the ledger, persists the empty collection and returns the
// number of records removed.
func (s *AttendanceService) ResetAll() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := len(s.records)
	s.records = []models.AttendanceRecord{}
	if err := s.persistLocked(); err != nil {
		return 0, err
	}
	logger.Info.Printf("Attendance ledger reset: %d record(s) removed", removed)
	return removed, nil
}

// persistLocked writes the full ledger back to the backing file. The caller
// must hold s.mu. Memory keeps the mutation even when the write fails.
func (s *AttendanceService) persistLocked() error {
	records := s.records
	if records == nil {
		records = []models.AttendanceRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return &PersistenceError{Message: "Error al serializar asistencias", Err: err}
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		logger.Error.Printf("Attendance persist failed: %v", err)
		return &PersistenceError{Message: "Error al guardar asistencias", Err: err}
	}
	return nil
}
