package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/cv-search/internal/types"
)

// seatSearchRequest is the body of POST /search/seat.
type seatSearchRequest struct {
	Criteria types.Criteria `json:"criteria" validate:"required"`
	RawText  string         `json:"raw_text"`
	TopK     int            `json:"top_k" validate:"gte=0"`
}

// projectSearchRequest is the body of POST /search/project.
type projectSearchRequest struct {
	Seats   []types.Criteria `json:"seats" validate:"required,min=1,dive"`
	RawText string           `json:"raw_text"`
	TopK    int              `json:"top_k" validate:"gte=0"`
}

func (s *Server) handleSearchSeat(w http.ResponseWriter, r *http.Request) {
	var req seatSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validateRequest(&req); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	result, err := s.searcher.SearchSeat(r.Context(), req.Criteria, req.RawText, req.TopK)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), "Search failed: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

func (s *Server) handleSearchProject(w http.ResponseWriter, r *http.Request) {
	var req projectSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validateRequest(&req); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	result, err := s.searcher.SearchProject(r.Context(), req.Seats, req.RawText, req.TopK)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), "Search failed: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// validateRequest runs struct validation and converts the first failure into
// an ErrValidation.
func (s *Server) validateRequest(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var invalid validator.ValidationErrors
	if errors.As(err, &invalid) && len(invalid) > 0 {
		fe := invalid[0]
		return &ErrValidation{Field: fe.Namespace(), Message: "failed " + fe.Tag() + " check"}
	}
	return &ErrValidation{Field: "request", Message: err.Error()}
}
