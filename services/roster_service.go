// Package services: services/roster_service.go
package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"sync"

	"go-asistencia/logger"
	"go-asistencia/models"
)

// required header columns of the roster CSV
const (
	columnID       = "userId"
	columnDocument = "documento"
	columnName     = "nombre"
)

// RosterServiceInterface is the roster contract consumed by the
// confirmation engine, the admin controllers and the file watcher.
type RosterServiceInterface interface {
	Load() error
	Reload() error
	List() []models.Participant
	Count() int
	FindByDocument(document string) (models.Participant, bool)
	FindByID(id string) (models.Participant, bool)
	Add(p models.Participant) error
	Update(id, documentNumber, displayName string) error
	Remove(id string) error
	BulkImport(content string) (models.ImportSummary, error)
}

// RosterService owns the authoritative participant list, cached in memory
// and backed by a CSV file. All mutations persist the full collection back
// to disk before returning.
type RosterService struct {
	mu           sync.Mutex
	path         string
	participants []models.Participant
}

// NewRosterService creates a roster service backed by the CSV file at path.
// Call Load before serving requests.
func NewRosterService(path string) *RosterService {
	return &RosterService{path: path}
}

// ------------------- CSV parsing -------------------

type rosterRow struct {
	line        int
	participant models.Participant
	complete    bool
}

// parseRosterRows parses CSV content into raw rows, keeping incomplete rows
// so bulk imports can report them. It fails with a FormatError when the
// content is empty or the header misses a required column.
func parseRosterRows(content string) ([]rosterRow, error) {
	if strings.TrimSpace(content) == "" {
		return nil, &FormatError{Message: "Contenido CSV vacío"}
	}

	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, &FormatError{Message: fmt.Sprintf("Error al parsear CSV: %v", err)}
	}
	if len(records) == 0 {
		return nil, &FormatError{Message: "CSV debe contener al menos la fila de encabezados"}
	}

	// locate required columns in the header row
	index := map[string]int{}
	for i, name := range records[0] {
		index[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, required := range []string{columnID, columnDocument, columnName} {
		if _, ok := index[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, &FormatError{
			Message: fmt.Sprintf("Columnas requeridas faltantes en CSV: %s", strings.Join(missing, ", ")),
		}
	}

	field := func(record []string, column string) string {
		i := index[column]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	rows := make([]rosterRow, 0, len(records)-1)
	for n, record := range records[1:] {
		p := models.Participant{
			ID:             field(record, columnID),
			DocumentNumber: field(record, columnDocument),
			DisplayName:    field(record, columnName),
		}
		rows = append(rows, rosterRow{
			line:        n + 2, // header is line 1
			participant: p,
			complete:    p.ID != "" && p.DocumentNumber != "" && p.DisplayName != "",
		})
	}
	return rows, nil
}

// ParseRosterCSV parses CSV content into participants. Rows missing any
// required value are silently skipped; a malformed header fails the parse.
func ParseRosterCSV(content string) ([]models.Participant, error) {
	rows, err := parseRosterRows(content)
	if err != nil {
		return nil, err
	}
	participants := make([]models.Participant, 0, len(rows))
	for _, row := range rows {
		if row.complete {
			participants = append(participants, row.participant)
		}
	}
	return participants, nil
}

// marshalRosterCSV serializes participants back to CSV, header included.
func marshalRosterCSV(participants []models.Participant) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write([]string{columnID, columnDocument, columnName}); err != nil {
		return nil, err
	}
	for _, p := range participants {
		if err := writer.Write([]string{p.ID, p.DocumentNumber, p.DisplayName}); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ------------------- load & reload -------------------

// Load reads the backing CSV and replaces the in-memory roster.
func (s *RosterService) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return &FormatError{Message: fmt.Sprintf("Error al leer archivo CSV: %v", err)}
	}
	participants, err := ParseRosterCSV(string(data))
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.participants = participants
	s.mu.Unlock()
	return nil
}

// Reload re-parses the backing file and atomically swaps the in-memory
// roster. On failure the previous roster is retained unchanged.
func (s *RosterService) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return &FormatError{Message: fmt.Sprintf("Error al leer archivo CSV: %v", err)}
	}
	participants, err := ParseRosterCSV(string(data))
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.participants = participants
	s.mu.Unlock()
	logger.Info.Printf("Roster reloaded: %d participants", len(participants))
	return nil
}

// ------------------- lookups -------------------

// List returns a copy of the current roster in import order.
func (s *RosterService) List() []models.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Participant, len(s.participants))
	copy(out, s.participants)
	return out
}

// Count returns the current roster size.
func (s *RosterService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.participants)
}

// FindByDocument returns the first participant whose document number
// matches the given value after trimming whitespace.
func (s *RosterService) FindByDocument(document string) (models.Participant, bool) {
	document = strings.TrimSpace(document)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.participants {
		if p.DocumentNumber == document {
			return p, true
		}
	}
	return models.Participant{}, false
}

// FindByID returns the first participant with the given id.
func (s *RosterService) FindByID(id string) (models.Participant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.participants {
		if p.ID == id {
			return p, true
		}
	}
	return models.Participant{}, false
}

// ------------------- mutations -------------------

// Add appends a participant and persists the roster. It fails with a
// DuplicateError if the id is already present.
func (s *RosterService) Add(p models.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.participants {
		if existing.ID == p.ID {
			return &DuplicateError{Message: fmt.Sprintf("Ya existe un usuario con userId: %s", p.ID)}
		}
	}

	s.participants = append(s.participants, p)
	return s.persistLocked()
}

// Update overwrites the document number and display name of an existing
// participant and persists the roster.
func (s *RosterService) Update(id, documentNumber, displayName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.participants {
		if s.participants[i].ID == id {
			s.participants[i].DocumentNumber = documentNumber
			s.participants[i].DisplayName = displayName
			return s.persistLocked()
		}
	}
	return &NotFoundError{Message: fmt.Sprintf("Usuario con userId %s no encontrado", id)}
}

// Remove deletes a participant and persists the roster.
func (s *RosterService) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.participants {
		if s.participants[i].ID == id {
			s.participants = append(s.participants[:i], s.participants[i+1:]...)
			return s.persistLocked()
		}
	}
	return &NotFoundError{Message: fmt.Sprintf("Usuario con userId %s no encontrado", id)}
}

// BulkImport parses CSV content and adds every well-formed, non-duplicate
// row, reporting a per-row outcome. The roster is persisted once at the
// end, and only if at least one row was added.
func (s *RosterService) BulkImport(content string) (models.ImportSummary, error) {
	rows, err := parseRosterRows(content)
	if err != nil {
		return models.ImportSummary{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	known := make(map[string]bool, len(s.participants))
	for _, p := range s.participants {
		known[p.ID] = true
	}

	summary := models.ImportSummary{Details: []models.ImportDetail{}}
	for _, row := range rows {
		detail := models.ImportDetail{Line: row.line, ID: row.participant.ID}
		switch {
		case !row.complete:
			if detail.ID == "" {
				detail.ID = "N/A"
			}
			detail.Status = "error"
			detail.Reason = "Campos incompletos"
			summary.Errored++
		case known[row.participant.ID]:
			detail.Status = "omitido"
			detail.Reason = "Usuario ya existe"
			summary.Skipped++
		default:
			s.participants = append(s.participants, row.participant)
			known[row.participant.ID] = true
			detail.Status = "agregado"
			detail.Reason = "Usuario agregado exitosamente"
			summary.Added++
		}
		summary.Details = append(summary.Details, detail)
	}

	if summary.Added > 0 {
		if err := s.persistLocked(); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

// ------------------- persistence -------------------

// persistLocked serializes the full roster back to the backing file. The
// caller must hold s.mu. The in-memory state remains changed even if the
// write fails; the error tells operators to reconcile memory against disk.
func (s *RosterService) persistLocked() error {
	data, err := marshalRosterCSV(s.participants)
	if err != nil {
		return &PersistenceError{Message: "Error al serializar usuarios CSV", Err: err}
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		logger.Error.Printf("Roster persist failed: %v", err)
		return &PersistenceError{Message: "Error al guardar usuarios CSV", Err: err}
	}
	return nil
}

// Persist serializes the current roster to durable storage.
func (s *RosterService) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}
