package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/jonathan/cv-search/internal/artifacts"
	"github.com/jonathan/cv-search/internal/db"
	"github.com/jonathan/cv-search/internal/types"
)

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	filters := db.RunFilters{}

	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			s.errorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filters.Limit = limit
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status := types.RunStatus(v)
		if status != types.RunStatusRunning && !status.Terminal() {
			s.errorResponse(w, http.StatusBadRequest, "unknown status: "+v)
			return
		}
		filters.Status = status
	}
	if v := r.URL.Query().Get("kind"); v != "" {
		kind := types.RunKind(v)
		if !types.ValidRunKind(kind) {
			s.errorResponse(w, http.StatusBadRequest, "unknown run kind: "+v)
			return
		}
		filters.Kind = kind
	}

	runs, err := s.runs.ListSearchRuns(r.Context(), filters)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), "Failed to list runs: "+err.Error())
		return
	}
	if runs == nil {
		runs = []types.SearchRun{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"runs": runs})
}

// runDetail is the GET /runs/{id} payload: the audit row plus its on-disk
// artifacts when they are still available.
type runDetail struct {
	Run       *types.SearchRun        `json:"run"`
	Artifacts *artifacts.RunArtifacts `json:"artifacts,omitempty"`
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")

	run, err := s.runs.GetSearchRun(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	detail := runDetail{Run: run}
	if run.RunDir != "" {
		arts, err := artifacts.ReadRun(run.RunDir)
		if err != nil {
			// The audit row outlives the artifact directory; serve what we have.
			log.Printf("[runs] failed to read artifacts for %s: %v", runID, err)
		} else {
			detail.Artifacts = arts
		}
	}
	s.jsonResponse(w, http.StatusOK, detail)
}

// feedbackRequest is the body of POST /runs/{id}/feedback.
type feedbackRequest struct {
	Sentiment string `json:"sentiment" validate:"required,oneof=positive negative neutral"`
	Comment   string `json:"comment"`
}

func (s *Server) handleRunFeedback(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validateRequest(&req); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	if err := s.runs.UpdateSearchRunFeedback(r.Context(), runID, req.Sentiment, req.Comment); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "recorded"})
}
