// Package controllers provides the HTTP handlers for the attendance API.
// File: controllers/public_controller.go
package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"go-asistencia/logger"
	"go-asistencia/services"
	"go-asistencia/validation"
)

// PublicController handles the unauthenticated participant-facing
// operations: identity lookup, attendance confirmation and the read-only
// config/attendance views.
type PublicController struct {
	Engine *services.ConfirmationService
	Config services.ConfigServiceInterface
	Ledger services.AttendanceServiceInterface
}

// NewPublicController initializes a new instance of PublicController.
func NewPublicController(
	engine *services.ConfirmationService,
	config services.ConfigServiceInterface,
	ledger services.AttendanceServiceInterface,
) *PublicController {
	return &PublicController{Engine: engine, Config: config, Ledger: ledger}
}

// Health reports liveness for load balancers.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ------------------ identity lookup ------------------

// ValidateIdentity checks a document number against the roster. An unknown
// document answers {"valido": false} with 200; only a missing document is
// a client error.
func (pc *PublicController) ValidateIdentity(c *gin.Context) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil || body == nil {
		c.JSON(http.StatusBadRequest, gin.H{"valido": false, "error": "No se recibieron datos"})
		return
	}

	result, err := pc.Engine.ValidateIdentity(body["documento"])
	if err != nil {
		var validationErr *validation.Error
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, gin.H{"valido": false, "error": validationErr.Message})
			return
		}
		logger.Error.Printf("ValidateIdentity: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"valido": false, "error": "Error del servidor"})
		return
	}

	if !result.Valid {
		c.JSON(http.StatusOK, gin.H{"valido": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valido": true,
		"nombre": result.DisplayName,
		"userId": result.ParticipantID,
	})
}

// ------------------ attendance confirmation ------------------

// ConfirmAttendance runs the confirmation decision for the submitted
// participant and coordinates.
func (pc *PublicController) ConfirmAttendance(c *gin.Context) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil || body == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"confirmado": false,
			"mensaje":    "No se recibieron datos",
			"distancia":  nil,
		})
		return
	}

	result, err := pc.Engine.Confirm(body["userId"], body["latitud"], body["longitud"])
	if err != nil {
		var validationErr *validation.Error
		switch {
		case errors.As(err, &validationErr):
			c.JSON(http.StatusBadRequest, gin.H{
				"confirmado": false,
				"mensaje":    validationErr.Message,
				"distancia":  nil,
			})
		case errors.Is(err, services.ErrConfigUnavailable):
			c.JSON(http.StatusInternalServerError, gin.H{
				"confirmado": false,
				"mensaje":    "Error: Configuración de asamblea no disponible",
				"distancia":  nil,
			})
		default:
			logger.Error.Printf("ConfirmAttendance: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"confirmado": false,
				"mensaje":    "Error del servidor: " + err.Error(),
				"distancia":  nil,
			})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// ------------------ read-only views ------------------

// GetConfig returns the current event configuration.
func (pc *PublicController) GetConfig(c *gin.Context) {
	cfg, err := pc.Config.Get()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Configuración no disponible"})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// ListAttendances returns every confirmed attendance.
func (pc *PublicController) ListAttendances(c *gin.Context) {
	c.JSON(http.StatusOK, pc.Ledger.List())
}

// GetQRCode renders a PNG QR code of the public confirmation URL for venue
// signage. Size is taken from the "size" query parameter.
func (pc *PublicController) GetQRCode(c *gin.Context) {
	size, _ := strconv.Atoi(c.DefaultQuery("size", "0"))
	png, err := services.GenerateQRCode(size)
	if err != nil {
		logger.Error.Printf("GetQRCode: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al generar código QR"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
