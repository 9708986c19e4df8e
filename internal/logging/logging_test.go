package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fewx/gfsproc/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateLogDir(t *testing.T) {
	root := t.TempDir()
	id := uuid.MustParse("3c43e9f4-9026-4d04-ba06-054e8903e80a")
	start := time.Date(2025, 4, 23, 21, 32, 45, 0, time.Local)

	dir, err := CreateLogDir(root, id, start, "run")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "20250423T213245_run_3c43e9f4-9026-4d04-ba06-054e8903e80a"), dir)
	assert.DirExists(t, dir)
}

func TestSaveStageRecord(t *testing.T) {
	dir := t.TempDir()
	record := models.StageRecord{Stage: 4, Name: "process_vmss", Progress: 45, Outcome: models.OutcomeSuccess}

	require.NoError(t, SaveStageRecord(dir, record))

	data, err := os.ReadFile(filepath.Join(dir, "04_PROCESS_VMSS.json"))
	require.NoError(t, err)

	var decoded models.StageRecord
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, record.Name, decoded.Name)
	assert.Equal(t, models.OutcomeSuccess, decoded.Outcome)
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteReport(dir, &models.RunReport{Cycle: 6, Date: "20240101", Done: true}))
	assert.FileExists(t, filepath.Join(dir, "summary.json"))
}

func TestConfigureGlobalLoggerToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "workflow.log")
	require.NoError(t, ConfigureGlobalLogger(false, true, path))

	log.Debug().Msg("debug line reaches the file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "debug line reaches the file"))
}

func openFDs(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		t.Skip("no /proc/self/fd on this platform")
	}
	return len(entries)
}

func TestConfigureGlobalLoggerReleasesPreviousFile(t *testing.T) {
	root := t.TempDir()
	before := openFDs(t)

	for i := 0; i < 50; i++ {
		path := filepath.Join(root, fmt.Sprintf("run%02d", i), "workflow.log")
		require.NoError(t, ConfigureGlobalLogger(false, true, path))
		log.Info().Int("run", i).Msg("run started")
	}

	// Only the latest run's file stays open.
	assert.LessOrEqual(t, openFDs(t), before+1)

	require.NoError(t, CloseLogFile())
	assert.LessOrEqual(t, openFDs(t), before)

	data, err := os.ReadFile(filepath.Join(root, "run49", "workflow.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"run":49`)

	// Nothing left to close.
	assert.NoError(t, CloseLogFile())
}
