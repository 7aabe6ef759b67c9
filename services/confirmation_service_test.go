// file: services/confirmation_service_test.go
package services_test

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-asistencia/geodesy"
	"go-asistencia/services"
	"go-asistencia/validation"
)

// newTestEngine builds a full engine over file-backed stores in a temp dir.
func newTestEngine(t *testing.T) (*services.ConfirmationService, *services.RosterService, *services.ConfigService, *services.AttendanceService) {
	t.Helper()
	dir := t.TempDir()

	rosterPath := filepath.Join(dir, "usuarios.csv")
	require.NoError(t, os.WriteFile(rosterPath, []byte(sampleRosterCSV), 0600))
	roster := services.NewRosterService(rosterPath)
	require.NoError(t, roster.Load())

	configPath := filepath.Join(dir, "configuracion.json")
	require.NoError(t, os.WriteFile(configPath, []byte(sampleConfigJSON), 0600))
	config := services.NewConfigService(configPath)
	require.NoError(t, config.Load())

	ledgerPath := filepath.Join(dir, "asistencias.json")
	require.NoError(t, os.WriteFile(ledgerPath, []byte("[]"), 0600))
	ledger := services.NewAttendanceService(ledgerPath)
	require.NoError(t, ledger.Load())

	engine := services.NewConfirmationService(roster, config, ledger, services.NewMetricsService(false))
	return engine, roster, config, ledger
}

// ------------------- identity lookup -------------------

func TestValidateIdentity_Known(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)

	result, err := engine.ValidateIdentity("12345678")
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, "Ana", result.DisplayName)
	assert.Equal(t, "U1", result.ParticipantID)
}

// An unknown document is a negative outcome, not an error.
func TestValidateIdentity_Unknown(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)

	result, err := engine.ValidateIdentity("00000000")
	require.NoError(t, err)
	assert.False(t, result.Valid)
}

func TestValidateIdentity_Missing(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)

	_, err := engine.ValidateIdentity(nil)
	var validationErr *validation.Error
	assert.ErrorAs(t, err, &validationErr)

	_, err = engine.ValidateIdentity("   ")
	assert.ErrorAs(t, err, &validationErr)
}

func TestValidateIdentity_TrimsInput(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)

	result, err := engine.ValidateIdentity("  12345678  ")
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

// ------------------- confirmation scenarios -------------------

// Scenario A: participant at the venue confirms successfully.
func TestConfirm_AtVenue(t *testing.T) {
	engine, _, _, ledger := newTestEngine(t)

	result, err := engine.Confirm("U1", -12.0464, -77.0428)
	require.NoError(t, err)
	assert.True(t, result.Confirmed)
	require.NotNil(t, result.DistanceMeters)
	assert.InDelta(t, 0, *result.DistanceMeters, 0.01)

	records := ledger.List()
	require.Len(t, records, 1)
	assert.Equal(t, "U1", records[0].ParticipantID)
	assert.Equal(t, "Ana", records[0].DisplayName)
	assert.Equal(t, -12.0464, records[0].Location.Latitude)

	// timestamp is ISO-8601 UTC with trailing Z
	parsed, err := time.Parse(time.RFC3339, records[0].ConfirmedAt)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(records[0].ConfirmedAt, "Z"))
	assert.WithinDuration(t, time.Now().UTC(), parsed, time.Minute)
}

// Scenario B: participant far from the venue is rejected, ledger unchanged.
func TestConfirm_OutOfRange(t *testing.T) {
	engine, _, _, ledger := newTestEngine(t)

	result, err := engine.Confirm("U1", -12.1, -77.1)
	require.NoError(t, err)
	assert.False(t, result.Confirmed)
	require.NotNil(t, result.DistanceMeters)
	assert.Greater(t, *result.DistanceMeters, 100.0)
	assert.Contains(t, result.Message, "dirígete al lugar del evento")
	assert.Empty(t, ledger.List())
}

// Scenario C: a second confirmation is an idempotent negative result.
func TestConfirm_Idempotent(t *testing.T) {
	engine, _, _, ledger := newTestEngine(t)

	first, err := engine.Confirm("U1", -12.0464, -77.0428)
	require.NoError(t, err)
	require.True(t, first.Confirmed)

	second, err := engine.Confirm("U1", -12.0464, -77.0428)
	require.NoError(t, err)
	assert.False(t, second.Confirmed)
	assert.Nil(t, second.DistanceMeters)
	assert.Contains(t, second.Message, "Ya has confirmado")

	assert.Len(t, ledger.List(), 1, "ledger count for U1 stays at exactly 1")
}

// A point exactly on the radius boundary is accepted; one step beyond is
// not.
func TestConfirm_BoundaryInclusive(t *testing.T) {
	engine, _, config, ledger := newTestEngine(t)

	// distance from the venue to a fixed nearby point, measured with the
	// same formula the engine uses
	d, err := geodesy.DistanceMeters(-12.0464, -77.0428, -12.0474, -77.0428)
	require.NoError(t, err)

	// radius set to exactly that distance: accepted
	_, err = config.Update(-12.0464, -77.0428, d)
	require.NoError(t, err)

	result, err := engine.Confirm("U1", -12.0474, -77.0428)
	require.NoError(t, err)
	assert.True(t, result.Confirmed, "boundary distance %f should be inside radius %f", d, d)

	// radius a hair under the distance: rejected
	_, err = config.Update(-12.0464, -77.0428, d-1)
	require.NoError(t, err)

	result, err = engine.Confirm("U2", -12.0474, -77.0428)
	require.NoError(t, err)
	assert.False(t, result.Confirmed)
	assert.Len(t, ledger.List(), 1)
}

func TestConfirm_ValidationFailures(t *testing.T) {
	engine, _, _, ledger := newTestEngine(t)

	var validationErr *validation.Error

	_, err := engine.Confirm(nil, -12.0464, -77.0428)
	assert.ErrorAs(t, err, &validationErr)

	_, err = engine.Confirm("  ", -12.0464, -77.0428)
	assert.ErrorAs(t, err, &validationErr)

	_, err = engine.Confirm("U1", 91.0, 0.0)
	assert.ErrorAs(t, err, &validationErr)

	_, err = engine.Confirm("U1", nil, -77.0428)
	assert.ErrorAs(t, err, &validationErr)

	assert.Empty(t, ledger.List())
}

func TestConfirm_ConfigUnavailable(t *testing.T) {
	dir := t.TempDir()
	rosterPath := filepath.Join(dir, "usuarios.csv")
	require.NoError(t, os.WriteFile(rosterPath, []byte(sampleRosterCSV), 0600))
	roster := services.NewRosterService(rosterPath)
	require.NoError(t, roster.Load())

	config := services.NewConfigService(filepath.Join(dir, "missing.json"))
	ledger := services.NewAttendanceService(filepath.Join(dir, "asistencias.json"))

	engine := services.NewConfirmationService(roster, config, ledger, nil)

	_, err := engine.Confirm("U1", -12.0464, -77.0428)
	assert.ErrorIs(t, err, services.ErrConfigUnavailable)
}

// A participant missing from the roster still confirms; the bare id stands
// in for the display name.
func TestConfirm_UnknownParticipantUsesIDAsName(t *testing.T) {
	engine, _, _, ledger := newTestEngine(t)

	result, err := engine.Confirm("GHOST", -12.0464, -77.0428)
	require.NoError(t, err)
	assert.True(t, result.Confirmed)

	records := ledger.List()
	require.Len(t, records, 1)
	assert.Equal(t, "GHOST", records[0].DisplayName)
}

// Concurrent confirmations for the same participant must produce exactly
// one ledger record.
func TestConfirm_ConcurrentDuplicates(t *testing.T) {
	engine, _, _, ledger := newTestEngine(t)

	const attempts = 16
	var wg sync.WaitGroup
	confirmed := make([]bool, attempts)

	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func(n int) {
			defer wg.Done()
			result, err := engine.Confirm("U1", -12.0464, -77.0428)
			if err == nil && result.Confirmed {
				confirmed[n] = true
			}
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, ok := range confirmed {
		if ok {
			successes++
		}
	}
	assert.Equal(t, 1, successes, "exactly one attempt should succeed")
	assert.Len(t, ledger.List(), 1, "exactly one record for the participant")
}

// ------------------- export -------------------

func TestExportAttendanceCSV(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)

	_, err := engine.Confirm("U1", -12.0464, -77.0428)
	require.NoError(t, err)

	content, err := engine.ExportAttendanceCSV()
	require.NoError(t, err)

	reader := csv.NewReader(strings.NewReader(string(content)))
	rows, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t,
		[]string{"userId", "nombre", "documento", "fechaHora", "latitud", "longitud", "distancia_metros"},
		rows[0])
	assert.Equal(t, "U1", rows[1][0])
	assert.Equal(t, "Ana", rows[1][1])
	assert.Equal(t, "12345678", rows[1][2], "document joined from the roster")
	assert.Equal(t, "0.00", rows[1][6], "distance recomputed against the venue")
}

func TestExportAttendanceCSV_EmptyLedger(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)

	content, err := engine.ExportAttendanceCSV()
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(string(content))).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")
}
