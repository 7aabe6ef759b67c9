// file: controllers/controllers_test.go
package controllers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"go-asistencia/controllers"
	"go-asistencia/middleware"
	"go-asistencia/services"
)

const testRosterCSV = `userId,documento,nombre
U1,12345678,Ana
U2,87654321,Luis
`

const testConfigJSON = `{"ubicacionAsamblea":{"latitud":-12.0464,"longitud":-77.0428},"radioPermitido":100}`

// testApp wires the full stack over file-backed stores in a temp dir,
// mirroring the production route table.
type testApp struct {
	router   *gin.Engine
	sessions *services.SessionService
	dataDir  string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "usuarios.csv"), []byte(testRosterCSV), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configuracion.json"), []byte(testConfigJSON), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "asistencias.json"), []byte("[]"), 0600))

	roster := services.NewRosterService(filepath.Join(dir, "usuarios.csv"))
	require.NoError(t, roster.Load())
	config := services.NewConfigService(filepath.Join(dir, "configuracion.json"))
	require.NoError(t, config.Load())
	ledger := services.NewAttendanceService(filepath.Join(dir, "asistencias.json"))
	require.NoError(t, ledger.Load())

	metrics := services.NewMetricsService(false)
	engine := services.NewConfirmationService(roster, config, ledger, metrics)
	sessions := services.NewSessionService(filepath.Join(dir, "admin_credentials.json"), true)

	public := controllers.NewPublicController(engine, config, ledger)
	auth := controllers.NewAuthController(sessions)
	admin := controllers.NewAdminController(roster, config, ledger, engine, metrics)

	router := gin.New()
	router.GET("/health", controllers.Health)

	api := router.Group("/api")
	api.POST("/validar-identidad", public.ValidateIdentity)
	api.POST("/confirmar-asistencia", public.ConfirmAttendance)
	api.GET("/configuracion", public.GetConfig)
	api.GET("/asistencias", public.ListAttendances)
	api.POST("/admin/login", auth.Login)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(sessions))
	protected.POST("/admin/logout", auth.Logout)
	protected.GET("/admin/verificar", auth.VerifySession)
	protected.POST("/admin/cambiar-password", auth.ChangePassword)
	protected.PUT("/admin/configuracion", admin.UpdateConfig)
	protected.GET("/usuarios", admin.ListUsers)
	protected.POST("/usuarios", admin.AddUser)
	protected.PUT("/usuarios/:userId", admin.UpdateUser)
	protected.DELETE("/usuarios/:userId", admin.DeleteUser)
	protected.POST("/usuarios/importar-csv", admin.ImportUsersCSV)
	protected.POST("/reload-usuarios", admin.ReloadUsers)
	protected.POST("/asistencias/reiniciar", admin.ResetAttendances)
	protected.GET("/asistencias/exportar-csv", admin.ExportAttendancesCSV)

	return &testApp{router: router, sessions: sessions, dataDir: dir}
}

// do performs a request with an optional JSON body and bearer token.
func (app *testApp) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(data))
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	return rec
}

// login authenticates with the development default account and returns the
// minted token.
func (app *testApp) login(t *testing.T) string {
	t.Helper()
	rec := app.do(t, http.MethodPost, "/api/admin/login", "", gin.H{
		"username": "admin",
		"password": "admin123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}
