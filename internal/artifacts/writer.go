// Package artifacts persists per-run search artifacts as JSON files on disk:
// one time-sortable directory per run with the project criteria at the top
// and a metrics/results pair per seat.
package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/jonathan/cv-search/internal/types"
)

const dirTimeFormat = "20060102-150405"

// dirNameSanitizer strips anything that does not belong in a directory name.
var dirNameSanitizer = regexp.MustCompile(`[^a-z0-9_-]+`)

// Writer writes run artifacts under a base directory.
type Writer struct {
	baseDir string
}

// NewWriter creates a writer rooted at baseDir. The directory is created on
// first write.
func NewWriter(baseDir string) *Writer {
	return &Writer{baseDir: baseDir}
}

// RunDirName returns the stable, time-sortable directory name for a run:
// <YYYYMMDD-HHMMSS>-<first 8 chars of run id>.
func RunDirName(runID string, createdAt time.Time) string {
	short := runID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("%s-%s", createdAt.UTC().Format(dirTimeFormat), short)
}

// WriteRun persists the run's criteria and every seat's criteria, metrics
// and results. Writing the same run again overwrites the previous files, so
// retried persistence is idempotent. Returns the run directory path.
func (w *Writer) WriteRun(run *types.SearchRun, criteria []types.Criteria, seats []types.SeatResult) (string, error) {
	runDir := filepath.Join(w.baseDir, RunDirName(run.RunID, run.CreatedAt))
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create run directory: %w", err)
	}

	if err := writeJSON(filepath.Join(runDir, "run.json"), run); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "criteria.json"), criteria); err != nil {
		return "", err
	}

	for i, seat := range seats {
		seatDir := filepath.Join(runDir, seatDirName(i, seat.Criteria.Role))
		if err := os.MkdirAll(seatDir, 0755); err != nil {
			return "", fmt.Errorf("failed to create seat directory: %w", err)
		}
		if err := writeJSON(filepath.Join(seatDir, "criteria.json"), seat.Criteria); err != nil {
			return "", err
		}
		if err := writeJSON(filepath.Join(seatDir, "metrics.json"), newSeatMetricsFile(seat)); err != nil {
			return "", err
		}
		if err := writeJSON(filepath.Join(seatDir, "results.json"), seat.Results); err != nil {
			return "", err
		}
	}
	return runDir, nil
}

// seatDirName builds "seat_00_<role>" with the role sanitized for the
// filesystem.
func seatDirName(index int, role string) string {
	safe := dirNameSanitizer.ReplaceAllString(role, "_")
	if safe == "" {
		safe = "seat"
	}
	return fmt.Sprintf("seat_%02d_%s", index, safe)
}

// seatMetricsFile is the metrics.json payload: the counters plus the seat's
// terminal condition.
type seatMetricsFile struct {
	State        types.SeatState   `json:"state"`
	Gap          bool              `json:"gap"`
	Degraded     bool              `json:"degraded,omitempty"`
	Metrics      types.SeatMetrics `json:"metrics"`
	Reason       string            `json:"reason,omitempty"`
	ErrorType    string            `json:"error_type,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
	ErrorStage   string            `json:"error_stage,omitempty"`
}

func newSeatMetricsFile(seat types.SeatResult) seatMetricsFile {
	return seatMetricsFile{
		State:        seat.State,
		Gap:          seat.Gap,
		Degraded:     seat.Degraded,
		Metrics:      seat.Metrics,
		Reason:       seat.Reason,
		ErrorType:    seat.ErrorType,
		ErrorMessage: seat.ErrorMessage,
		ErrorStage:   seat.ErrorStage,
	}
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
