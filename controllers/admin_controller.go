// Package controllers provides the HTTP handlers for the attendance API.
// File: controllers/admin_controller.go
package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"go-asistencia/logger"
	"go-asistencia/models"
	"go-asistencia/services"
	"go-asistencia/validation"
)

// ---------------- Admin Controller ----------------

// AdminController provides the authenticated operations: roster management,
// event configuration and attendance administration. Every route mapped to
// it sits behind the bearer-token middleware.
type AdminController struct {
	Roster  services.RosterServiceInterface
	Config  services.ConfigServiceInterface
	Ledger  services.AttendanceServiceInterface
	Engine  *services.ConfirmationService
	Metrics *services.MetricsService
}

// NewAdminController initializes a new instance of AdminController.
func NewAdminController(
	roster services.RosterServiceInterface,
	config services.ConfigServiceInterface,
	ledger services.AttendanceServiceInterface,
	engine *services.ConfirmationService,
	metrics *services.MetricsService,
) *AdminController {
	return &AdminController{
		Roster:  roster,
		Config:  config,
		Ledger:  ledger,
		Engine:  engine,
		Metrics: metrics,
	}
}

// respondServiceError maps the service error taxonomy onto HTTP statuses.
func respondServiceError(c *gin.Context, err error) {
	var (
		validationErr *validation.Error
		notFoundErr   *services.NotFoundError
		duplicateErr  *services.DuplicateError
		formatErr     *services.FormatError
	)
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "mensaje": validationErr.Message})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "mensaje": notFoundErr.Message})
	case errors.As(err, &duplicateErr):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "mensaje": duplicateErr.Message})
	case errors.As(err, &formatErr):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "mensaje": formatErr.Message})
	default:
		logger.Error.Printf("Admin operation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "mensaje": "Error del servidor: " + err.Error()})
	}
}

// ---------------- roster management ----------------

// ListUsers returns the full roster.
func (ac *AdminController) ListUsers(c *gin.Context) {
	c.JSON(http.StatusOK, ac.Roster.List())
}

// AddUser appends a single participant to the roster.
func (ac *AdminController) AddUser(c *gin.Context) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil || body == nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "mensaje": "No se recibieron datos"})
		return
	}

	id, err := validation.RequiredField(body["userId"], "userId")
	if err != nil {
		respondServiceError(c, err)
		return
	}
	document, err := validation.RequiredField(body["documento"], "documento")
	if err != nil {
		respondServiceError(c, err)
		return
	}
	name, err := validation.RequiredField(body["nombre"], "nombre")
	if err != nil {
		respondServiceError(c, err)
		return
	}

	participant := models.Participant{ID: id, DocumentNumber: document, DisplayName: name}
	if err := ac.Roster.Add(participant); err != nil {
		respondServiceError(c, err)
		return
	}

	logger.Info.Printf("Participant %s added to roster", id)
	c.JSON(http.StatusCreated, gin.H{"success": true, "mensaje": "Usuario agregado exitosamente"})
}

// UpdateUser overwrites the document number and display name of an
// existing participant.
func (ac *AdminController) UpdateUser(c *gin.Context) {
	id := c.Param("userId")

	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil || body == nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "mensaje": "No se recibieron datos"})
		return
	}

	document, err := validation.RequiredField(body["documento"], "documento")
	if err != nil {
		respondServiceError(c, err)
		return
	}
	name, err := validation.RequiredField(body["nombre"], "nombre")
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if err := ac.Roster.Update(id, document, name); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "mensaje": "Usuario actualizado exitosamente"})
}

// DeleteUser removes a participant from the roster.
func (ac *AdminController) DeleteUser(c *gin.Context) {
	id := c.Param("userId")
	if err := ac.Roster.Remove(id); err != nil {
		respondServiceError(c, err)
		return
	}
	logger.Info.Printf("Participant %s removed from roster", id)
	c.JSON(http.StatusOK, gin.H{"success": true, "mensaje": "Usuario eliminado exitosamente"})
}

// ImportUsersCSV bulk-imports participants from raw CSV content and
// reports a per-row outcome.
func (ac *AdminController) ImportUsersCSV(c *gin.Context) {
	var body struct {
		Content string `json:"csv_content"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "mensaje": "No se recibieron datos"})
		return
	}
	if strings.TrimSpace(body.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "mensaje": "El contenido CSV está vacío"})
		return
	}

	summary, err := ac.Roster.BulkImport(body.Content)
	if err != nil {
		var persistenceErr *services.PersistenceError
		if errors.As(err, &persistenceErr) {
			// rows already added in memory; report the durable-write failure
			c.JSON(http.StatusInternalServerError, gin.H{
				"success":   false,
				"mensaje":   persistenceErr.Message,
				"agregados": summary.Added,
				"omitidos":  summary.Skipped,
				"errores":   summary.Errored,
				"detalles":  summary.Details,
			})
			return
		}
		respondServiceError(c, err)
		return
	}

	var parts []string
	if summary.Added > 0 {
		parts = append(parts, fmt.Sprintf("%d usuario(s) agregado(s)", summary.Added))
	}
	if summary.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d omitido(s)", summary.Skipped))
	}
	if summary.Errored > 0 {
		parts = append(parts, fmt.Sprintf("%d error(es)", summary.Errored))
	}

	logger.Info.Printf("Roster import: %d added, %d skipped, %d errored",
		summary.Added, summary.Skipped, summary.Errored)
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"mensaje":   "Importación completada: " + strings.Join(parts, ", "),
		"agregados": summary.Added,
		"omitidos":  summary.Skipped,
		"errores":   summary.Errored,
		"detalles":  summary.Details,
	})
}

// ReloadUsers forces a manual roster reload from the backing file. Same
// operation the file watcher triggers, exposed as an explicit call.
func (ac *AdminController) ReloadUsers(c *gin.Context) {
	if err := ac.Roster.Reload(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":       false,
			"mensaje":       "Error al recargar usuarios: " + err.Error(),
			"totalUsuarios": ac.Roster.Count(),
		})
		return
	}
	ac.Metrics.PublishRosterSize(ac.Roster.Count())
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"mensaje":       "Usuarios recargados exitosamente",
		"totalUsuarios": ac.Roster.Count(),
	})
}

// ---------------- event configuration ----------------

// UpdateConfig replaces the event location and radius. Radius falls back to
// the previous value when omitted.
func (ac *AdminController) UpdateConfig(c *gin.Context) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil || body == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No se enviaron datos"})
		return
	}

	cfg, err := ac.Config.Update(body["latitud"], body["longitud"], body["radioPermitido"])
	if err != nil {
		var validationErr *validation.Error
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message})
			return
		}
		logger.Error.Printf("UpdateConfig: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al actualizar configuración: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"mensaje":       "Configuración actualizada exitosamente",
		"configuracion": cfg,
	})
}

// ---------------- attendance administration ----------------

// ResetAttendances clears the whole ledger so the system can be reused for
// the next event.
func (ac *AdminController) ResetAttendances(c *gin.Context) {
	removed, err := ac.Ledger.ResetAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":                false,
			"mensaje":                "Error al guardar cambios: " + err.Error(),
			"asistencias_eliminadas": 0,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":                true,
		"mensaje":                fmt.Sprintf("Se eliminaron %d asistencia(s) exitosamente", removed),
		"asistencias_eliminadas": removed,
	})
}

// ExportAttendancesCSV downloads the ledger as a CSV attachment.
func (ac *AdminController) ExportAttendancesCSV(c *gin.Context) {
	content, err := ac.Engine.ExportAttendanceCSV()
	if err != nil {
		logger.Error.Printf("ExportAttendancesCSV: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al generar CSV: " + err.Error()})
		return
	}

	filename := "asistencias_" + time.Now().Format("20060102_150405") + ".csv"
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", content)
}
