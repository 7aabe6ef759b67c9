// Package controllers provides the HTTP handlers for the attendance API.
// File: controllers/auth_controller.go
package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"go-asistencia/logger"
	"go-asistencia/middleware"
	"go-asistencia/services"
	"go-asistencia/validation"
)

// AuthController handles the administrative session lifecycle.
type AuthController struct {
	Sessions *services.SessionService
}

// NewAuthController initializes a new instance of AuthController.
func NewAuthController(sessions *services.SessionService) *AuthController {
	return &AuthController{Sessions: sessions}
}

// ------------------ login / logout ------------------

// Login authenticates the administrator and returns a bearer token.
func (ac *AuthController) Login(c *gin.Context) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "mensaje": "No se recibieron datos"})
		return
	}

	username := strings.TrimSpace(body.Username)
	if username == "" || body.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "mensaje": "Usuario y contraseña son requeridos"})
		return
	}

	token, err := ac.Sessions.Login(username, body.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "mensaje": "Usuario o contraseña incorrectos"})
			return
		}
		logger.Error.Printf("Login: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "mensaje": "Error del servidor"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"mensaje": "Autenticación exitosa",
		"token":   token,
	})
}

// Logout closes the administrator session. The token was already validated
// by the auth middleware; removal is idempotent.
func (ac *AuthController) Logout(c *gin.Context) {
	if token, ok := c.Get(middleware.ContextTokenKey); ok {
		ac.Sessions.Logout(token.(string))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "mensaje": "Sesión cerrada exitosamente"})
}

// VerifySession confirms that the caller's session is still valid. Reaching
// this handler means the middleware already accepted the token.
func (ac *AuthController) VerifySession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "mensaje": "Sesión válida"})
}

// ------------------ password management ------------------

// ChangePassword updates the admin password and invalidates every live
// session, forcing re-authentication everywhere.
func (ac *AuthController) ChangePassword(c *gin.Context) {
	var body struct {
		Current string `json:"passwordActual"`
		New     string `json:"passwordNueva"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "mensaje": "No se recibieron datos"})
		return
	}

	if body.Current == "" || body.New == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "mensaje": "Se requieren ambas contraseñas"})
		return
	}

	if err := ac.Sessions.ChangePassword(body.Current, body.New); err != nil {
		var validationErr *validation.Error
		switch {
		case errors.As(err, &validationErr):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "mensaje": validationErr.Message})
		case errors.Is(err, services.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "mensaje": "La contraseña actual es incorrecta"})
		default:
			logger.Error.Printf("ChangePassword: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "mensaje": "Error del servidor"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"mensaje": "Contraseña actualizada exitosamente. Por favor, inicia sesión nuevamente.",
	})
}
