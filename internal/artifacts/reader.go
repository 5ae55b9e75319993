package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jonathan/cv-search/internal/types"
)

// SeatArtifacts is one seat's on-disk artifact set read back from a run
// directory.
type SeatArtifacts struct {
	Criteria types.Criteria          `json:"criteria"`
	Metrics  json.RawMessage         `json:"metrics"`
	Results  []types.CandidateResult `json:"results"`
}

// RunArtifacts is the full artifact set of one run.
type RunArtifacts struct {
	Run      types.SearchRun  `json:"run"`
	Criteria []types.Criteria `json:"criteria"`
	Seats    []SeatArtifacts  `json:"seats"`
}

// ReadRun loads the artifacts written by WriteRun from a run directory.
func ReadRun(runDir string) (*RunArtifacts, error) {
	var out RunArtifacts

	if err := readJSON(filepath.Join(runDir, "run.json"), &out.Run); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(runDir, "criteria.json"), &out.Criteria); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(runDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read run directory %s: %w", runDir, err)
	}

	var seatDirs []string
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), "seat_") {
			seatDirs = append(seatDirs, entry.Name())
		}
	}
	// seat_00_..., seat_01_... sort back into input order.
	sort.Strings(seatDirs)

	for _, name := range seatDirs {
		seatDir := filepath.Join(runDir, name)
		var seat SeatArtifacts
		if err := readJSON(filepath.Join(seatDir, "criteria.json"), &seat.Criteria); err != nil {
			return nil, err
		}
		if err := readJSON(filepath.Join(seatDir, "metrics.json"), &seat.Metrics); err != nil {
			return nil, err
		}
		if err := readJSON(filepath.Join(seatDir, "results.json"), &seat.Results); err != nil {
			return nil, err
		}
		out.Seats = append(out.Seats, seat)
	}
	return &out, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
