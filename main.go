// main.go
package main

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"go-asistencia/controllers"
	"go-asistencia/logger"
	"go-asistencia/middleware"
	"go-asistencia/services"
)

// getenv reads an environment variable with a fallback default.
func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	// .env is optional; deployments set real environment variables
	if err := godotenv.Load(); err != nil {
		logger.Debug.Println("No .env file found, using process environment")
	}

	env := getenv("APP_ENV", "development")
	logger.SetLogLevel(env)
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	dataDir := getenv("DATA_DIR", "./data")
	rosterPath := filepath.Join(dataDir, "usuarios.csv")

	// ---------------- services ----------------

	roster := services.NewRosterService(rosterPath)
	config := services.NewConfigService(filepath.Join(dataDir, "configuracion.json"))
	ledger := services.NewAttendanceService(filepath.Join(dataDir, "asistencias.json"))

	// store-load failures degrade the store to empty instead of refusing to
	// start; the admin reload/config endpoints repair the state at runtime
	if err := roster.Load(); err != nil {
		logger.Warn.Printf("Roster not loaded: %v", err)
	} else {
		logger.Info.Printf("Loaded %d participants from roster", roster.Count())
	}
	if err := config.Load(); err != nil {
		logger.Warn.Printf("Event config not loaded: %v", err)
	}
	if err := ledger.Load(); err != nil {
		logger.Warn.Printf("Attendance ledger not loaded: %v", err)
	} else {
		logger.Info.Printf("Loaded %d attendance record(s)", len(ledger.List()))
	}

	metrics := services.NewMetricsService(strings.EqualFold(getenv("METRICS_ENABLED", "false"), "true"))
	metrics.PublishRosterSize(roster.Count())

	engine := services.NewConfirmationService(roster, config, ledger, metrics)

	allowDefaultAdmin := strings.EqualFold(getenv("ALLOW_DEFAULT_ADMIN", "false"), "true")
	sessionService := services.NewSessionService(filepath.Join(dataDir, "admin_credentials.json"), allowDefaultAdmin)
	if allowDefaultAdmin {
		logger.Warn.Println("ALLOW_DEFAULT_ADMIN is enabled; do not use this in production")
	}

	watcher := services.NewRosterWatcher(rosterPath, roster, metrics)
	if err := watcher.Start(); err != nil {
		logger.Warn.Printf("Roster watcher unavailable (%v); use POST /api/reload-usuarios for manual reloads", err)
	}
	defer watcher.Stop()

	// ---------------- controllers & routes ----------------

	publicController := controllers.NewPublicController(engine, config, ledger)
	adminController := controllers.NewAdminController(roster, config, ledger, engine, metrics)
	authController := controllers.NewAuthController(sessionService)

	router := gin.Default()

	router.GET("/health", controllers.Health)

	api := router.Group("/api")
	{
		// public operations
		api.POST("/validar-identidad", publicController.ValidateIdentity)
		api.POST("/confirmar-asistencia", publicController.ConfirmAttendance)
		api.GET("/configuracion", publicController.GetConfig)
		api.GET("/asistencias", publicController.ListAttendances)
		api.GET("/qrcode", publicController.GetQRCode)

		api.POST("/admin/login", authController.Login)

		// admin operations behind bearer-token auth
		protected := api.Group("/", middleware.AuthRequired(sessionService))
		{
			protected.POST("/admin/logout", authController.Logout)
			protected.GET("/admin/verificar", authController.VerifySession)
			protected.POST("/admin/cambiar-password", authController.ChangePassword)
			protected.PUT("/admin/configuracion", adminController.UpdateConfig)

			protected.GET("/usuarios", adminController.ListUsers)
			protected.POST("/usuarios", adminController.AddUser)
			protected.PUT("/usuarios/:userId", adminController.UpdateUser)
			protected.DELETE("/usuarios/:userId", adminController.DeleteUser)
			protected.POST("/usuarios/importar-csv", adminController.ImportUsersCSV)
			protected.POST("/reload-usuarios", adminController.ReloadUsers)

			protected.POST("/asistencias/reiniciar", adminController.ResetAttendances)
			protected.GET("/asistencias/exportar-csv", adminController.ExportAttendancesCSV)
		}
	}

	// the participant frontend is a static bundle served from ./frontend;
	// NoRoute keeps the /api namespace free for the handlers above
	frontendDir := getenv("FRONTEND_DIR", "./frontend")
	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		path := filepath.Join(frontendDir, filepath.Clean("/"+c.Request.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			c.File(path)
			return
		}
		c.File(filepath.Join(frontendDir, "index.html"))
	})

	port := getenv("PORT", "8080")
	logger.Info.Printf("Starting attendance service on :%s", port)
	if err := router.Run(":" + port); err != nil {
		logger.Error.Fatalf("Failed to run server: %v", err)
	}
}
