package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fewx/gfsproc/internal/models"
	"github.com/google/uuid"
)

// CreateLogDir returns a full path like
// ".gfsproc/logs/20250423T213245_run_3c43e9f4-9026-4d04-ba06-054e8903e80a"
func CreateLogDir(root string, runId uuid.UUID, runStartTime time.Time, cmdName string) (string, error) {
	timestampStr := runStartTime.Format("20060102T150405")

	dirName := fmt.Sprintf("%s_%s_%s", timestampStr, cmdName, runId)
	fullPath := filepath.Join(root, dirName)

	err := os.MkdirAll(fullPath, os.ModePerm)
	if err != nil {
		return "", fmt.Errorf("failed to create log directory '%s': %w", fullPath, err)
	}
	return fullPath, nil
}

// StageRecordFileName is NN_STAGENAME.json (e.g., 04_PROCESS_VMSS.json)
func StageRecordFileName(record models.StageRecord) string {
	return fmt.Sprintf("%02d_%s.json", record.Stage, strings.ToUpper(record.Name))
}

// SaveStageRecord stores the detailed record for a single stage.
func SaveStageRecord(logDir string, record models.StageRecord) error {
	filePath := filepath.Join(logDir, StageRecordFileName(record))
	return writeJSON(filePath, record)
}

// WriteReport writes the run report to summary.json in the log directory.
func WriteReport(logDir string, report *models.RunReport) error {
	return writeJSON(filepath.Join(logDir, "summary.json"), report)
}

func writeJSON(filePath string, v any) error {
	f, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create log file %s: %w", filePath, err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode log record to %s: %w", filePath, err)
	}
	return nil
}
