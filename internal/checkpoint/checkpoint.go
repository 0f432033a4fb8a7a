// Package checkpoint persists the pipeline run log between invocations.
// The log is a single JSON document holding the index of the last phase
// that completed successfully, loaded once at startup and rewritten after
// each phase.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const runLogName = "run.log"

// RunLog records pipeline progress. LastCompleted is -1 when no phase has
// finished yet. RunID ties the log entries of one logical run together across
// resumed invocations; it survives until the log is reset.
type RunLog struct {
	RunID         string `json:"runId"`
	LastCompleted int    `json:"lastCompleted"`
}

// Load reads the run log from the output directory. A missing or unreadable
// log is treated as a fresh run rather than an error.
func Load(outputDir string) RunLog {
	data, err := os.ReadFile(filepath.Join(outputDir, runLogName))
	if err != nil {
		return newRunLog()
	}

	var log RunLog
	if err := json.Unmarshal(data, &log); err != nil {
		return newRunLog()
	}
	if log.RunID == "" {
		log.RunID = uuid.NewString()
	}
	return log
}

func newRunLog() RunLog {
	return RunLog{RunID: uuid.NewString(), LastCompleted: -1}
}

// Save writes the run log after a phase completes.
func Save(outputDir string, log RunLog) error {
	data, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("failed to marshal run log: %w", err)
	}

	path := filepath.Join(outputDir, runLogName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run log %s: %w", path, err)
	}
	return nil
}

// Reset removes the run log so the next run starts from the first phase.
func Reset(outputDir string) error {
	err := os.Remove(filepath.Join(outputDir, runLogName))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
