// Package services: services/session_service.go
package services

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"go-asistencia/logger"
	"go-asistencia/models"
	"go-asistencia/validation"
)

const (
	sessionTTL        = 8 * time.Hour
	minPasswordLength = 6
	tokenBytes        = 32
)

// SessionService issues and validates the bearer tokens that gate every
// administrative operation. Tokens live in memory only; a restart logs all
// admins out. Credentials are backed by a JSON file.
type SessionService struct {
	mu                sync.Mutex
	credPath          string
	sessions          map[string]time.Time
	allowDefaultAdmin bool

	// now is swappable for tests
	now func() time.Time
}

// NewSessionService creates the session authority. allowDefaultAdmin
// enables the admin/admin123 fallback when the credentials file is missing;
// it must stay off outside development.
func NewSessionService(credPath string, allowDefaultAdmin bool) *SessionService {
	return &SessionService{
		credPath:          credPath,
		sessions:          make(map[string]time.Time),
		allowDefaultAdmin: allowDefaultAdmin,
		now:               time.Now,
	}
}

// ------------------- credentials -------------------

// loadCredentials reads the credentials file. A missing or unreadable file
// falls back to the development default only when explicitly allowed.
func (s *SessionService) loadCredentials() (models.AdminCredentials, error) {
	data, err := os.ReadFile(s.credPath)
	if err != nil {
		if s.allowDefaultAdmin {
			logger.Warn.Printf("Credentials file unavailable (%v); using development default account", err)
			return models.AdminCredentials{Username: "admin", Password: "admin123"}, nil
		}
		return models.AdminCredentials{}, &FormatError{
			Message: fmt.Sprintf("Error al leer credenciales: %v", err),
		}
	}

	var creds models.AdminCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return models.AdminCredentials{}, &FormatError{
			Message: fmt.Sprintf("Error al parsear credenciales: %v", err),
		}
	}
	return creds, nil
}

// passwordMatches verifies a submitted password against the stored value:
// bcrypt when the stored value is a bcrypt hash, exact comparison for
// legacy plaintext files.
func passwordMatches(stored, given string) bool {
	if strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return stored == given
}

// newToken mints a cryptographically random, URL-safe token.
func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ------------------- session lifecycle -------------------

// Login checks the credentials and, on success, mints a token valid for
// eight hours. Failures never reveal which field was wrong.
func (s *SessionService) Login(username, password string) (string, error) {
	creds, err := s.loadCredentials()
	if err != nil {
		logger.Error.Printf("Login rejected: %v", err)
		return "", ErrInvalidCredentials
	}

	if username != creds.Username || !passwordMatches(creds.Password, password) {
		logger.Warn.Printf("Login failed for user %q", username)
		return "", ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		return "", &PersistenceError{Message: "Error al generar token", Err: err}
	}

	s.mu.Lock()
	s.sweepExpiredLocked()
	s.sessions[token] = s.now().Add(sessionTTL)
	s.mu.Unlock()

	logger.Info.Printf("Admin session opened for user %q", username)
	return token, nil
}

// Validate reports whether the token belongs to a live session. Expired
// entries are evicted lazily on check.
func (s *SessionService) Validate(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.sessions[token]
	if !ok {
		return false
	}
	if s.now().After(expiry) {
		delete(s.sessions, token)
		return false
	}
	return true
}

// Logout removes the session idempotently; an absent token is not an error.
func (s *SessionService) Logout(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// ChangePassword verifies the current password, persists the new one as a
// bcrypt hash and clears every live session, forcing re-authentication on
// all devices.
func (s *SessionService) ChangePassword(current, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return &validation.Error{
			Message: fmt.Sprintf("La nueva contraseña debe tener al menos %d caracteres", minPasswordLength),
		}
	}

	creds, err := s.loadCredentials()
	if err != nil {
		return err
	}
	if !passwordMatches(creds.Password, current) {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return &PersistenceError{Message: "Error al procesar contraseña", Err: err}
	}
	creds.Password = string(hash)

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return &PersistenceError{Message: "Error al serializar credenciales", Err: err}
	}
	if err := writeFileAtomic(s.credPath, data); err != nil {
		return &PersistenceError{Message: "Error al guardar credenciales", Err: err}
	}

	s.mu.Lock()
	s.sessions = make(map[string]time.Time)
	s.mu.Unlock()

	logger.Info.Printf("Admin password changed; all sessions invalidated")
	return nil
}

// sweepExpiredLocked drops expired sessions. Lazy eviction on Validate is
// enough for correctness; this keeps the table from growing over long
// uptimes. The caller must hold s.mu.
func (s *SessionService) sweepExpiredLocked() {
	cutoff := s.now()
	for token, expiry := range s.sessions {
		if cutoff.After(expiry) {
			delete(s.sessions, token)
		}
	}
}

// ActiveSessions returns the current number of live (non-swept) sessions.
func (s *SessionService) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepExpiredLocked()
	return len(s.sessions)
}
