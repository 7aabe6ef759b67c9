// Package services: services/config_service.go
package services

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"go-asistencia/logger"
	"go-asistencia/models"
	"go-asistencia/validation"
)

// defaultRadiusMeters is used when updating a config that never had a
// radius (fresh deployment without a config file).
const defaultRadiusMeters = 100.0

// ConfigServiceInterface is the event-config contract consumed by the
// confirmation engine and the controllers.
type ConfigServiceInterface interface {
	Load() error
	Get() (models.EventConfig, error)
	Update(latitude, longitude, radius interface{}) (models.EventConfig, error)
}

// ConfigService owns the singleton event location and geofence radius,
// cached in memory and backed by a JSON file.
type ConfigService struct {
	mu     sync.Mutex
	path   string
	config *models.EventConfig
}

// NewConfigService creates a config service backed by the JSON file at
// path. Call Load before serving requests.
func NewConfigService(path string) *ConfigService {
	return &ConfigService{path: path}
}

// Load parses and validates the backing file. The file must contain a
// nested location object and a positive radius.
func (s *ConfigService) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return &FormatError{Message: fmt.Sprintf("Error al leer configuración: %v", err)}
	}

	var cfg models.EventConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return &FormatError{Message: fmt.Sprintf("Error al parsear JSON: %v", err)}
	}

	if _, _, err := validation.Coordinates(cfg.Location.Latitude, cfg.Location.Longitude); err != nil {
		return fmt.Errorf("coordenadas de asamblea inválidas: %w", err)
	}
	if _, err := validation.PositiveRadius(cfg.AllowedRadiusMeters); err != nil {
		return fmt.Errorf("radio permitido inválido: %w", err)
	}

	s.mu.Lock()
	s.config = &cfg
	s.mu.Unlock()
	return nil
}

// Get returns the current configuration, or ErrConfigUnavailable when no
// configuration has been loaded.
func (s *ConfigService) Get() (models.EventConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.config == nil {
		return models.EventConfig{}, ErrConfigUnavailable
	}
	return *s.config, nil
}

// Update validates the new location and radius, persists the full
// replacement atomically, then swaps the in-memory singleton. A nil radius
// keeps the previous value (or the default on a fresh deployment).
func (s *ConfigService) Update(latitude, longitude, radius interface{}) (models.EventConfig, error) {
	lat, lon, err := validation.Coordinates(latitude, longitude)
	if err != nil {
		return models.EventConfig{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if radius == nil {
		if s.config != nil {
			radius = s.config.AllowedRadiusMeters
		} else {
			radius = defaultRadiusMeters
		}
	}
	radiusMeters, err := validation.PositiveRadius(radius)
	if err != nil {
		return models.EventConfig{}, err
	}

	cfg := models.EventConfig{
		Location:            models.GeoPoint{Latitude: lat, Longitude: lon},
		AllowedRadiusMeters: radiusMeters,
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return models.EventConfig{}, &PersistenceError{Message: "Error al serializar configuración", Err: err}
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		logger.Error.Printf("Config persist failed: %v", err)
		return models.EventConfig{}, &PersistenceError{Message: "Error al guardar configuración", Err: err}
	}

	s.config = &cfg
	logger.Info.Printf("Event config updated: lat=%.6f lon=%.6f radius=%.1fm", lat, lon, radiusMeters)
	return cfg, nil
}
