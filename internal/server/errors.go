package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/cv-search/internal/db"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var validation *ErrValidation
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, db.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, db.ErrRunNotTerminal):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
