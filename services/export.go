// Package services: services/export.go
package services

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"go-asistencia/geodesy"
)

// ExportAttendanceCSV renders the full ledger as CSV for download. Each row
// joins the participant's document number from the roster and recomputes
// the distance from the recorded coordinates to the current venue; rows
// whose distance cannot be computed carry "N/A".
func (s *ConfirmationService) ExportAttendanceCSV() ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{"userId", "nombre", "documento", "fechaHora", "latitud", "longitud", "distancia_metros"}
	if err := writer.Write(header); err != nil {
		return nil, err
	}

	cfg, cfgErr := s.config.Get()

	for _, record := range s.ledger.List() {
		document := ""
		if participant, found := s.roster.FindByID(record.ParticipantID); found {
			document = participant.DocumentNumber
		}

		distance := "N/A"
		if cfgErr == nil {
			d, err := geodesy.DistanceMeters(
				record.Location.Latitude, record.Location.Longitude,
				cfg.Location.Latitude, cfg.Location.Longitude,
			)
			if err == nil {
				distance = fmt.Sprintf("%.2f", d)
			}
		}

		row := []string{
			record.ParticipantID,
			record.DisplayName,
			document,
			record.ConfirmedAt,
			fmt.Sprintf("%g", record.Location.Latitude),
			fmt.Sprintf("%g", record.Location.Longitude),
			distance,
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
