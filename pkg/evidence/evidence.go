package evidence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// DecisionRecord captures a single gate decision for a build.
type DecisionRecord struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Instance       string    `json:"instance"`
	InstanceURL    string    `json:"instance_url,omitempty"`
	DefaultUsed    bool      `json:"default_instance_used"`
	ProjectKey     string    `json:"project_key"`
	IgnoreWarnings bool      `json:"ignore_warnings"`
	Status         string    `json:"status,omitempty"`
	Passed         bool      `json:"passed"`
	Error          string    `json:"error,omitempty"`
	Temporary      bool      `json:"temporary,omitempty"`
	DurationMillis int64     `json:"duration_ms"`
}

// Writer writes decision evidence to disk.
type Writer struct {
	runDir string
}

// NewRunID returns a fresh identifier for a build's evidence directory.
func NewRunID() string {
	return uuid.NewString()
}

// NewWriter creates a new evidence writer rooted at baseDir/runID.
func NewWriter(baseDir, runID string) (*Writer, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	if runID == "" {
		return nil, fmt.Errorf("run ID is required")
	}

	runDir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(runDir, 0700); err != nil {
		return nil, err
	}
	return &Writer{runDir: runDir}, nil
}

// RunDir returns the run directory path.
func (w *Writer) RunDir() string {
	return w.runDir
}

// WriteDecision writes the decision to decision.json.
func (w *Writer) WriteDecision(record DecisionRecord) error {
	return writeJSON(filepath.Join(w.runDir, "decision.json"), record)
}

// WriteBuildLog writes the build log lines emitted by the gate to build.log.
func (w *Writer) WriteBuildLog(content string) error {
	return os.WriteFile(filepath.Join(w.runDir, "build.log"), []byte(content), 0600)
}

// ReadDecision loads a decision written by WriteDecision.
func ReadDecision(runDir string) (*DecisionRecord, error) {
	data, err := os.ReadFile(filepath.Join(runDir, "decision.json"))
	if err != nil {
		return nil, err
	}
	var record DecisionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse decision: %w", err)
	}
	return &record, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
