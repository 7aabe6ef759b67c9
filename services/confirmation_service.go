// Package services: services/confirmation_service.go
//
// ConfirmationService is the decision core: it orchestrates the roster, the
// event config, the attendance ledger and the distance math to decide
// whether a confirmation attempt succeeds.
package services

import (
	"fmt"
	"math"
	"sync"
	"time"

	"go-asistencia/geodesy"
	"go-asistencia/logger"
	"go-asistencia/models"
	"go-asistencia/validation"
)

// ConfirmationService decides confirmation attempts. A single mutex guards
// the duplicate-check-then-append sequence so two concurrent requests for
// the same participant can never both pass the check.
type ConfirmationService struct {
	mu      sync.Mutex
	roster  RosterServiceInterface
	config  ConfigServiceInterface
	ledger  AttendanceServiceInterface
	metrics *MetricsService

	// now is swappable for tests
	now func() time.Time
}

// NewConfirmationService wires the engine to its stores. metrics may be nil
// or disabled; publishing is fire-and-forget either way.
func NewConfirmationService(
	roster RosterServiceInterface,
	config ConfigServiceInterface,
	ledger AttendanceServiceInterface,
	metrics *MetricsService,
) *ConfirmationService {
	return &ConfirmationService{
		roster:  roster,
		config:  config,
		ledger:  ledger,
		metrics: metrics,
		now:     time.Now,
	}
}

// ------------------- identity lookup -------------------

// ValidateIdentity looks a participant up by document number. An unknown
// document is a normal negative outcome, not an error; only a missing or
// empty document yields a validation error.
func (s *ConfirmationService) ValidateIdentity(document interface{}) (models.IdentityResult, error) {
	doc, err := validation.RequiredField(document, "documento")
	if err != nil {
		return models.IdentityResult{}, err
	}

	participant, found := s.roster.FindByDocument(doc)
	if !found {
		return models.IdentityResult{Valid: false}, nil
	}
	return models.IdentityResult{
		Valid:         true,
		DisplayName:   participant.DisplayName,
		ParticipantID: participant.ID,
	}, nil
}

// ------------------- confirmation -------------------

// Confirm runs the confirmation decision for a participant at the given
// coordinates. Each step short-circuits to a terminal result:
//
//  1. participant id present
//  2. coordinates valid
//  3. no prior confirmation (idempotent negative result, not an error)
//  4. event configuration loaded
//  5. great-circle distance to the venue
//  6. inside the radius (boundary inclusive): record appended
//  7. outside: actionable negative result with the distance
//
// Validation failures, an unavailable configuration and persistence
// failures are returned as errors; everything else is a ConfirmationResult.
func (s *ConfirmationService) Confirm(participantID, latitude, longitude interface{}) (models.ConfirmationResult, error) {
	id, err := validation.RequiredField(participantID, "userId")
	if err != nil {
		return models.ConfirmationResult{}, err
	}

	lat, lon, err := validation.Coordinates(latitude, longitude)
	if err != nil {
		return models.ConfirmationResult{}, err
	}

	// One critical section around check-then-append: without it, two
	// concurrent requests for the same participant could both pass the
	// duplicate check before either appends.
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ledger.HasConfirmed(id) {
		return models.ConfirmationResult{
			Confirmed: false,
			Message:   "Ya has confirmado tu asistencia anteriormente",
		}, nil
	}

	cfg, err := s.config.Get()
	if err != nil {
		return models.ConfirmationResult{}, err
	}

	distance, err := geodesy.DistanceMeters(lat, lon, cfg.Location.Latitude, cfg.Location.Longitude)
	if err != nil {
		// coordinates were range-checked above; this only fires on a bad stored config
		return models.ConfirmationResult{}, err
	}
	rounded := math.Round(distance*100) / 100

	if distance <= cfg.AllowedRadiusMeters {
		name := id
		if participant, found := s.roster.FindByID(id); found {
			name = participant.DisplayName
		}

		record := models.AttendanceRecord{
			ParticipantID: id,
			DisplayName:   name,
			ConfirmedAt:   s.now().UTC().Format(time.RFC3339),
			Location:      models.GeoPoint{Latitude: lat, Longitude: lon},
		}
		if err := s.ledger.Append(record); err != nil {
			return models.ConfirmationResult{}, err
		}

		s.metrics.PublishConfirmationResult(true)
		logger.Info.Printf("Attendance confirmed for %s at %.2fm", id, rounded)
		return models.ConfirmationResult{
			Confirmed:      true,
			Message:        "Asistencia confirmada exitosamente",
			DistanceMeters: &rounded,
		}, nil
	}

	s.metrics.PublishConfirmationResult(false)
	return models.ConfirmationResult{
		Confirmed: false,
		Message: fmt.Sprintf(
			"No te encuentras en la ubicación de la asamblea. Por favor dirígete al lugar del evento. Distancia actual: %.2f metros.",
			rounded),
		DistanceMeters: &rounded,
	}, nil
}
